package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// maxSentimentHistory caps the stored sentiment history per contact.
const maxSentimentHistory = 20

// Interaction is a single logged touch-point with a contact.
type Interaction struct {
	ID        int64  `json:"id"`
	ContactID string `json:"contact_id"`
	Kind      string `json:"kind"` // call, message, meetup, note
	Note      string `json:"note,omitempty"`
	Sentiment int    `json:"sentiment"` // -100..100
	CreatedAt int64  `json:"created_at"`
}

// LogInteraction records a touch-point and updates the contact's cadence
// fields: last_contacted, orbit_at_last_contact, previous_health rolls to the
// current health score, and the sentiment history gains an entry.
func (db *DB) LogInteraction(contactID, kind, note string, sentiment int) (*Interaction, error) {
	contact, err := db.GetContact(contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, fmt.Errorf("log interaction for %s: %w", contactID, ErrNotFound)
	}

	if kind == "" {
		kind = "note"
	}
	now := time.Now().UnixMilli()

	result, err := db.Exec(`
		INSERT INTO interactions (contact_id, kind, note, sentiment, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, contactID, kind, note, sentiment, now)
	if err != nil {
		return nil, fmt.Errorf("add interaction: %w", err)
	}
	id, _ := result.LastInsertId()

	history := append(contact.SentimentHistory, SentimentEntry{Score: sentiment, At: now})
	if len(history) > maxSentimentHistory {
		history = history[len(history)-maxSentimentHistory:]
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshal sentiment history: %w", err)
	}

	_, err = db.Exec(`
		UPDATE contacts SET last_contacted = ?, orbit_at_last_contact = orbit_level,
			previous_health = health_score, sentiment_score = ?, sentiment_history = ?,
			updated_at = ?
		WHERE id = ?
	`, now, sentiment, string(historyJSON), now, contactID)
	if err != nil {
		return nil, fmt.Errorf("stamp contact cadence: %w", err)
	}

	return &Interaction{
		ID:        id,
		ContactID: contactID,
		Kind:      kind,
		Note:      note,
		Sentiment: sentiment,
		CreatedAt: now,
	}, nil
}

// GetInteractions returns all interactions for a contact, newest first.
func (db *DB) GetInteractions(contactID string) ([]Interaction, error) {
	rows, err := db.Query(`
		SELECT id, contact_id, kind, note, sentiment, created_at
		FROM interactions WHERE contact_id = ? ORDER BY created_at DESC
	`, contactID)
	if err != nil {
		return nil, fmt.Errorf("get interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var i Interaction
		if err := rows.Scan(&i.ID, &i.ContactID, &i.Kind, &i.Note, &i.Sentiment, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
