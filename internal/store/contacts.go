package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReminderFrequency values for a contact.
const (
	FrequencyManual      = "manual"
	FrequencyAISuggested = "ai_suggested"
)

// SentimentEntry is one point in a contact's sentiment history.
type SentimentEntry struct {
	Score int   `json:"score"` // -100..100
	At    int64 `json:"at"`    // unix millis
}

// Milestone is an upcoming event attached to a contact.
type Milestone struct {
	Event string `json:"event"`
	Date  string `json:"date"` // YYYY-MM-DD
}

// Contact is a tracked relationship. The engine reads a point-in-time view
// and writes back specific fields only.
type Contact struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	RelationshipType string `json:"relationship_type"`
	ContactGoal      string `json:"contact_goal,omitempty"`

	OrbitLevel       int              `json:"orbit_level"` // lower is closer
	HealthScore      int              `json:"health_score"`
	PreviousHealth   int              `json:"previous_health"`
	SentimentScore   int              `json:"sentiment_score"`
	SentimentHistory []SentimentEntry `json:"sentiment_history,omitempty"`
	Tags             []string         `json:"tags,omitempty"`

	LastContacted      *int64     `json:"last_contacted,omitempty"` // unix millis
	OrbitAtLastContact int        `json:"orbit_at_last_contact"`
	ReminderFrequency  string     `json:"reminder_frequency"`
	ReminderDate       string     `json:"reminder_date,omitempty"` // YYYY-MM-DD
	NextMilestone      *Milestone `json:"next_milestone,omitempty"`

	SnoozeUntil     *int64          `json:"snooze_until,omitempty"`
	Advice          json.RawMessage `json:"advice,omitempty"`           // stored recommendation
	AdviceGenerated *int64          `json:"advice_generated,omitempty"` // unix millis

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ContactUpdate is a partial update. Nil fields are left untouched.
// For the nullable millisecond timestamps (LastContacted, SnoozeUntil,
// AdviceGenerated) a pointer to zero clears the column.
type ContactUpdate struct {
	Name             *string
	RelationshipType *string
	ContactGoal      *string

	OrbitLevel     *int
	HealthScore    *int
	PreviousHealth *int
	SentimentScore *int
	Tags           *[]string

	LastContacted      *int64
	OrbitAtLastContact *int
	ReminderFrequency  *string
	ReminderDate       *string // pointer to "" clears
	NextMilestone      *Milestone

	SnoozeUntil     *int64
	Advice          *string // JSON payload; pointer to "" clears
	AdviceGenerated *int64
}

const contactColumns = `id, name, relationship_type, contact_goal,
	orbit_level, health_score, previous_health, sentiment_score, sentiment_history, tags,
	last_contacted, orbit_at_last_contact, reminder_frequency, reminder_date, next_milestone,
	snooze_until, advice, advice_generated, created_at, updated_at`

// CreateContact inserts a new contact, assigning an id if none is set.
func (db *DB) CreateContact(c *Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RelationshipType == "" {
		c.RelationshipType = "friend"
	}
	if c.ReminderFrequency == "" {
		c.ReminderFrequency = FrequencyAISuggested
	}
	if c.OrbitLevel == 0 {
		c.OrbitLevel = 3
	}
	if c.OrbitAtLastContact == 0 {
		c.OrbitAtLastContact = c.OrbitLevel
	}

	now := time.Now().UnixMilli()
	history, tags, milestone := marshalContactJSON(c)

	_, err := db.Exec(`
		INSERT INTO contacts (id, name, relationship_type, contact_goal,
			orbit_level, health_score, previous_health, sentiment_score, sentiment_history, tags,
			last_contacted, orbit_at_last_contact, reminder_frequency, reminder_date, next_milestone,
			snooze_until, advice, advice_generated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, ?, ?)
	`, c.ID, c.Name, c.RelationshipType, c.ContactGoal,
		c.OrbitLevel, c.HealthScore, c.PreviousHealth, c.SentimentScore, history, tags,
		c.LastContacted, c.OrbitAtLastContact, c.ReminderFrequency, c.ReminderDate, milestone,
		c.SnoozeUntil, string(c.Advice), c.AdviceGenerated, now, now)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetContact returns a contact by id, or nil if not found.
func (db *DB) GetContact(id string) (*Contact, error) {
	row := db.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// ListContacts returns all contacts ordered by name. This is the visitation
// order the sweep follows.
func (db *DB) ListContacts() ([]Contact, error) {
	rows, err := db.Query(`SELECT ` + contactColumns + ` FROM contacts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// UpdateContact applies a partial update and returns the updated contact.
// Returns ErrNotFound if the contact no longer exists.
func (db *DB) UpdateContact(id string, u ContactUpdate) (*Contact, error) {
	var sets []string
	var args []any

	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	setNullableMillis := func(col string, v *int64) {
		if v == nil {
			return
		}
		if *v == 0 {
			sets = append(sets, col+" = NULL")
			return
		}
		set(col, *v)
	}

	if u.Name != nil {
		set("name", *u.Name)
	}
	if u.RelationshipType != nil {
		set("relationship_type", *u.RelationshipType)
	}
	if u.ContactGoal != nil {
		set("contact_goal", *u.ContactGoal)
	}
	if u.OrbitLevel != nil {
		set("orbit_level", *u.OrbitLevel)
	}
	if u.HealthScore != nil {
		set("health_score", *u.HealthScore)
	}
	if u.PreviousHealth != nil {
		set("previous_health", *u.PreviousHealth)
	}
	if u.SentimentScore != nil {
		set("sentiment_score", *u.SentimentScore)
	}
	if u.Tags != nil {
		data, err := json.Marshal(*u.Tags)
		if err != nil {
			return nil, fmt.Errorf("marshal tags: %w", err)
		}
		set("tags", string(data))
	}
	setNullableMillis("last_contacted", u.LastContacted)
	if u.OrbitAtLastContact != nil {
		set("orbit_at_last_contact", *u.OrbitAtLastContact)
	}
	if u.ReminderFrequency != nil {
		set("reminder_frequency", *u.ReminderFrequency)
	}
	if u.ReminderDate != nil {
		if *u.ReminderDate == "" {
			sets = append(sets, "reminder_date = NULL")
		} else {
			set("reminder_date", *u.ReminderDate)
		}
	}
	if u.NextMilestone != nil {
		data, err := json.Marshal(u.NextMilestone)
		if err != nil {
			return nil, fmt.Errorf("marshal milestone: %w", err)
		}
		set("next_milestone", string(data))
	}
	setNullableMillis("snooze_until", u.SnoozeUntil)
	if u.Advice != nil {
		if *u.Advice == "" {
			sets = append(sets, "advice = NULL")
		} else {
			set("advice", *u.Advice)
		}
	}
	setNullableMillis("advice_generated", u.AdviceGenerated)

	if len(sets) == 0 {
		return db.GetContact(id)
	}

	set("updated_at", time.Now().UnixMilli())
	args = append(args, id)

	result, err := db.Exec(
		"UPDATE contacts SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, fmt.Errorf("update contact %s: %w", id, ErrNotFound)
	}

	return db.GetContact(id)
}

// DeleteContact removes a contact and its interactions.
func (db *DB) DeleteContact(id string) error {
	result, err := db.Exec("DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("delete contact %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountContacts returns the number of tracked contacts.
func (db *DB) CountContacts() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM contacts").Scan(&count)
	return count, err
}

func marshalContactJSON(c *Contact) (history, tags, milestone any) {
	history, tags, milestone = nil, nil, nil
	if len(c.SentimentHistory) > 0 {
		if data, err := json.Marshal(c.SentimentHistory); err == nil {
			history = string(data)
		}
	}
	if len(c.Tags) > 0 {
		if data, err := json.Marshal(c.Tags); err == nil {
			tags = string(data)
		}
	}
	if c.NextMilestone != nil {
		if data, err := json.Marshal(c.NextMilestone); err == nil {
			milestone = string(data)
		}
	}
	return history, tags, milestone
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*Contact, error) {
	var c Contact
	var contactGoal, history, tags, reminderDate, milestone, advice sql.NullString
	var lastContacted, snoozeUntil, adviceGenerated sql.NullInt64

	err := row.Scan(&c.ID, &c.Name, &c.RelationshipType, &contactGoal,
		&c.OrbitLevel, &c.HealthScore, &c.PreviousHealth, &c.SentimentScore, &history, &tags,
		&lastContacted, &c.OrbitAtLastContact, &c.ReminderFrequency, &reminderDate, &milestone,
		&snoozeUntil, &advice, &adviceGenerated, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ContactGoal = contactGoal.String
	c.ReminderDate = reminderDate.String
	if history.Valid && history.String != "" {
		if err := json.Unmarshal([]byte(history.String), &c.SentimentHistory); err != nil {
			return nil, fmt.Errorf("decode sentiment history: %w", err)
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &c.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if milestone.Valid && milestone.String != "" {
		var m Milestone
		if err := json.Unmarshal([]byte(milestone.String), &m); err != nil {
			return nil, fmt.Errorf("decode milestone: %w", err)
		}
		c.NextMilestone = &m
	}
	if advice.Valid && advice.String != "" {
		c.Advice = json.RawMessage(advice.String)
	}
	if lastContacted.Valid {
		c.LastContacted = &lastContacted.Int64
	}
	if snoozeUntil.Valid {
		c.SnoozeUntil = &snoozeUntil.Int64
	}
	if adviceGenerated.Valid {
		c.AdviceGenerated = &adviceGenerated.Int64
	}
	return &c, nil
}
