package engine

import (
	"fmt"
	"time"

	"github.com/okeefe/circleback/internal/store"
)

// ConditionType is the closed set of trigger rule conditions. Rules carrying
// anything else are skipped, never errors.
type ConditionType string

const (
	ConditionHealthDrop       ConditionType = "health_drop"
	ConditionHealthBelow      ConditionType = "health_below"
	ConditionDaysInactive     ConditionType = "days_inactive"
	ConditionOrbitDrift       ConditionType = "orbit_drift"
	ConditionSentimentDecline ConditionType = "sentiment_decline"
	ConditionMilestoneSoon    ConditionType = "milestone_approaching"
)

// TriggerResult records one fired rule and the human-readable reason.
// Ephemeral: lives only for the current decision.
type TriggerResult struct {
	Rule   store.TriggerRule
	Reason string
}

// EvaluateRules tests every enabled rule against a contact snapshot and
// returns all that fire, in input order. A rule whose required field is
// missing from the snapshot is skipped silently. Side-effect free.
func EvaluateRules(c *store.Contact, rules []store.TriggerRule, now time.Time) []TriggerResult {
	var fired []TriggerResult
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		reason, ok := evaluateCondition(c, r, now)
		if !ok {
			continue
		}
		fired = append(fired, TriggerResult{Rule: r, Reason: reason})
	}
	return fired
}

// evaluateCondition dispatches one rule to its condition evaluator.
// Returns the fire reason and whether the rule fired.
func evaluateCondition(c *store.Contact, r store.TriggerRule, now time.Time) (string, bool) {
	switch ConditionType(r.Condition) {
	case ConditionHealthDrop:
		drop := c.PreviousHealth - c.HealthScore
		if float64(drop) >= r.Threshold {
			return fmt.Sprintf("health dropped %d points, from %d to %d (threshold %.0f)",
				drop, c.PreviousHealth, c.HealthScore, r.Threshold), true
		}
	case ConditionHealthBelow:
		if float64(c.HealthScore) < r.Threshold {
			return fmt.Sprintf("health score %d below threshold %.0f", c.HealthScore, r.Threshold), true
		}
	case ConditionDaysInactive:
		if c.LastContacted == nil {
			return "", false // never contacted: required field missing
		}
		days := daysSince(*c.LastContacted, now)
		if days >= r.Threshold {
			return fmt.Sprintf("no contact for %.0f days (threshold %.0f)", days, r.Threshold), true
		}
	case ConditionOrbitDrift:
		drift := c.OrbitLevel - c.OrbitAtLastContact
		if float64(drift) >= r.Threshold {
			return fmt.Sprintf("orbit drifted from %d to %d (threshold %.0f)",
				c.OrbitAtLastContact, c.OrbitLevel, r.Threshold), true
		}
	case ConditionSentimentDecline:
		n := len(c.SentimentHistory)
		if n < 2 {
			return "", false
		}
		prev := c.SentimentHistory[n-2].Score
		latest := c.SentimentHistory[n-1].Score
		decline := prev - latest
		if float64(decline) >= r.Threshold {
			return fmt.Sprintf("sentiment declined %d points, from %d to %d (threshold %.0f)",
				decline, prev, latest, r.Threshold), true
		}
	case ConditionMilestoneSoon:
		if c.NextMilestone == nil || c.NextMilestone.Date == "" {
			return "", false
		}
		date, err := time.Parse("2006-01-02", c.NextMilestone.Date)
		if err != nil {
			return "", false
		}
		days := date.Sub(now).Hours() / 24
		if days > 0 && days <= r.Threshold {
			return fmt.Sprintf("%s in %.0f days (threshold %.0f)",
				c.NextMilestone.Event, days, r.Threshold), true
		}
	}
	return "", false
}
