package engine

import (
	"encoding/json"
	"time"

	"github.com/okeefe/circleback/internal/advisor"
	"github.com/okeefe/circleback/internal/store"
)

// Reconcile merges an advisory recommendation with user policy into the field
// update to persist for a contact, or nil when nothing should change.
//
// Invariants: a manual cadence with an existing reminder date is never
// overwritten when the policy respects manual settings; reminder_date is
// auto-populated only when auto-set is on AND confidence clears the policy
// threshold. Pure and idempotent.
func Reconcile(rec *advisor.Recommendation, policy store.Policy, c *store.Contact, now time.Time) *store.ContactUpdate {
	if rec == nil || !rec.ShouldRemind {
		return nil
	}

	if policy.RespectManualSettings &&
		c.ReminderFrequency == store.FrequencyManual && c.ReminderDate != "" {
		return nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	advice := string(payload)
	generated := now.UnixMilli()

	update := &store.ContactUpdate{
		Advice:          &advice,
		AdviceGenerated: &generated,
	}

	if policy.AutoSetReminders &&
		rec.Confidence >= policy.MinConfidence && rec.ReminderDate != "" {
		date := rec.ReminderDate
		update.ReminderDate = &date
	}

	return update
}
