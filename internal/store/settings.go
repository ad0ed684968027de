package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Policy is the user's follow-up policy, re-read at every sweep start.
type Policy struct {
	AutoRemindersEnabled  bool   `json:"auto_reminders_enabled"`
	AutoSetReminders      bool   `json:"auto_set_reminders"`
	MinConfidence         int    `json:"min_confidence_threshold"` // 0-100
	CheckFrequency        string `json:"check_frequency"`          // duration string
	RespectManualSettings bool   `json:"respect_manual_settings"`
	DefaultSnoozeDays     int    `json:"default_snooze_days"`
}

// DefaultPolicy returns the policy used before the user saves one.
func DefaultPolicy() Policy {
	return Policy{
		AutoRemindersEnabled:  true,
		AutoSetReminders:      false,
		MinConfidence:         70,
		CheckFrequency:        "1h",
		RespectManualSettings: true,
		DefaultSnoozeDays:     7,
	}
}

// GetPolicy returns the stored user policy, or the default if none is saved.
func (db *DB) GetPolicy() (Policy, error) {
	var payload string
	err := db.QueryRow("SELECT policy FROM settings WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return DefaultPolicy(), nil
	}
	if err != nil {
		return Policy{}, fmt.Errorf("get policy: %w", err)
	}

	var p Policy
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	return p, nil
}

// SavePolicy stores the user policy, replacing any existing one.
func (db *DB) SavePolicy(p Policy) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO settings (id, policy, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET policy = excluded.policy, updated_at = excluded.updated_at
	`, string(payload), now)
	if err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}
