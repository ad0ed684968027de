package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/okeefe/circleback/internal/store"
)

// ReminderState is the derived lifecycle state of a contact's follow-up.
type ReminderState string

const (
	StateNone          ReminderState = "none"
	StateSuggested     ReminderState = "suggested"      // advice stored, no date
	StateAutoScheduled ReminderState = "auto_scheduled" // date set
)

// acceptPoints is the fixed award emitted when the user accepts a reminder.
const acceptPoints = 10

// StateOf derives a contact's reminder lifecycle state. An active snooze is
// an effective none until expiry.
func StateOf(c *store.Contact, now time.Time) ReminderState {
	if c.SnoozeUntil != nil && *c.SnoozeUntil > now.UnixMilli() {
		return StateNone
	}
	if len(c.Advice) == 0 {
		return StateNone
	}
	if c.ReminderDate != "" {
		return StateAutoScheduled
	}
	return StateSuggested
}

// Accept confirms a suggested or scheduled reminder. An explicit date wins;
// otherwise the advisory's suggested date, then the existing reminder date.
// Accepting with no active suggestion is a no-op. Emits a point award.
func (e *Engine) Accept(id, date string) (*store.Contact, error) {
	c, err := e.getContact(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if StateOf(c, now) == StateNone {
		return c, nil
	}

	if date == "" {
		date = suggestedDate(c)
	}
	if date == "" {
		date = now.Format("2006-01-02")
	}

	updated, err := e.db.UpdateContact(id, store.ContactUpdate{ReminderDate: &date})
	if err != nil {
		return nil, fmt.Errorf("accept reminder: %w", err)
	}

	e.publish(Event{Kind: EventPointsAwarded, ContactID: id, Points: acceptPoints})
	log.Printf("lifecycle: %s accepted reminder for %s", c.Name, date)
	return updated, nil
}

// Snooze suppresses suggestions for a contact until the given number of days
// has passed; days <= 0 falls back to the policy default. Snoozing with no
// active suggestion is a no-op.
func (e *Engine) Snooze(id string, days int) (*store.Contact, error) {
	c, err := e.getContact(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if StateOf(c, now) == StateNone {
		return c, nil
	}

	if days <= 0 {
		policy, err := e.db.GetPolicy()
		if err != nil {
			return nil, fmt.Errorf("snooze: read policy: %w", err)
		}
		days = policy.DefaultSnoozeDays
	}

	until := now.Add(time.Duration(days) * 24 * time.Hour).UnixMilli()
	updated, err := e.db.UpdateContact(id, store.ContactUpdate{SnoozeUntil: &until})
	if err != nil {
		return nil, fmt.Errorf("snooze contact: %w", err)
	}

	log.Printf("lifecycle: %s snoozed %d days", c.Name, days)
	return updated, nil
}

// Dismiss discards the stored advice and its timestamp together, returning
// the contact to none. Dismissing with nothing stored is a no-op.
func (e *Engine) Dismiss(id string) (*store.Contact, error) {
	c, err := e.getContact(id)
	if err != nil {
		return nil, err
	}

	if len(c.Advice) == 0 {
		return c, nil
	}

	empty := ""
	var unstamp int64
	updated, err := e.db.UpdateContact(id, store.ContactUpdate{
		Advice:          &empty,
		AdviceGenerated: &unstamp,
	})
	if err != nil {
		return nil, fmt.Errorf("dismiss suggestion: %w", err)
	}

	log.Printf("lifecycle: %s dismissed suggestion", c.Name)
	return updated, nil
}

// Complete marks the follow-up done: last_contacted moves to now, and the
// advice, its timestamp, and the reminder date clear together in a single
// update, never partially. Completing with nothing active is a no-op.
func (e *Engine) Complete(id string) (*store.Contact, error) {
	c, err := e.getContact(id)
	if err != nil {
		return nil, err
	}

	if len(c.Advice) == 0 && c.ReminderDate == "" {
		return c, nil
	}

	now := time.Now().UnixMilli()
	empty := ""
	var unstamp int64
	updated, err := e.db.UpdateContact(id, store.ContactUpdate{
		LastContacted:   &now,
		Advice:          &empty,
		AdviceGenerated: &unstamp,
		ReminderDate:    &empty,
	})
	if err != nil {
		return nil, fmt.Errorf("complete reminder: %w", err)
	}

	log.Printf("lifecycle: %s completed follow-up", c.Name)
	return updated, nil
}

func (e *Engine) getContact(id string) (*store.Contact, error) {
	c, err := e.db.GetContact(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("contact %s: %w", id, store.ErrNotFound)
	}
	return c, nil
}

// suggestedDate pulls the reminder date out of the stored advice, if any.
func suggestedDate(c *store.Contact) string {
	if len(c.Advice) == 0 {
		return ""
	}
	var rec struct {
		ReminderDate string `json:"reminder_date"`
	}
	if err := json.Unmarshal(c.Advice, &rec); err != nil {
		return ""
	}
	return rec.ReminderDate
}
