package engine

import (
	"time"

	"github.com/okeefe/circleback/internal/store"
)

// AnalysisCooldown is the minimum elapsed time before a contact may be
// re-analyzed. Evaluated before invoking the advisory client so a skipped
// contact never costs an external call.
const AnalysisCooldown = 12 * time.Hour

// ShouldSkip reports whether a contact is ineligible for analysis this cycle:
// an active snooze, a recent analysis within the cooldown window, or a manual
// reminder cadence with a date already set.
func ShouldSkip(c *store.Contact, now time.Time) bool {
	if c.SnoozeUntil != nil && *c.SnoozeUntil > now.UnixMilli() {
		return true
	}
	if c.AdviceGenerated != nil {
		generated := time.UnixMilli(*c.AdviceGenerated)
		if now.Sub(generated) < AnalysisCooldown {
			return true
		}
	}
	if c.ReminderFrequency == store.FrequencyManual && c.ReminderDate != "" {
		return true
	}
	return false
}
