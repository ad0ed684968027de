package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trigger rule actions.
const (
	ActionSuggestReminder = "suggest_reminder"
	ActionAutoSetReminder = "auto_set_reminder"
	ActionNotifyOnly      = "notify_only"
)

// TriggerRule is a user-defined condition that requests a reminder-related
// action when met. Read-only to the engine.
type TriggerRule struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Enabled   bool    `json:"enabled"`
	Condition string  `json:"condition"`
	Threshold float64 `json:"threshold"`
	Action    string  `json:"action"`
	Priority  int     `json:"priority"`
	CreatedAt int64   `json:"created_at"`
}

// CreateRule inserts a trigger rule, assigning an id if none is set.
func (db *DB) CreateRule(r *TriggerRule) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Action == "" {
		r.Action = ActionSuggestReminder
	}

	now := time.Now().UnixMilli()
	enabled := 0
	if r.Enabled {
		enabled = 1
	}

	_, err := db.Exec(`
		INSERT INTO trigger_rules (id, name, enabled, condition, threshold, action, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, enabled, r.Condition, r.Threshold, r.Action, r.Priority, now)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	r.CreatedAt = now
	return nil
}

// ListRules returns all trigger rules ordered by priority DESC, then created.
func (db *DB) ListRules() ([]TriggerRule, error) {
	rows, err := db.Query(`
		SELECT id, name, enabled, condition, threshold, action, priority, created_at
		FROM trigger_rules ORDER BY priority DESC, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []TriggerRule
	for rows.Next() {
		var r TriggerRule
		var enabled int
		if err := rows.Scan(&r.ID, &r.Name, &enabled, &r.Condition, &r.Threshold, &r.Action, &r.Priority, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Enabled = enabled != 0
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// DeleteRule removes a trigger rule.
func (db *DB) DeleteRule(id string) error {
	result, err := db.Exec("DELETE FROM trigger_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("delete rule %s: %w", id, ErrNotFound)
	}
	return nil
}
