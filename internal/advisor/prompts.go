package advisor

import (
	"fmt"
	"strings"
)

// buildPrompt renders the advisory prompt for one contact.
func buildPrompt(rc *Context) string {
	var b strings.Builder

	b.WriteString("You are a relationship follow-up advisor. Given one contact's current state, decide whether the user should be prompted to re-engage, and how.\n\nCONTACT:\n")

	fmt.Fprintf(&b, "- name: %s\n", rc.Name)
	fmt.Fprintf(&b, "- relationship: %s\n", rc.RelationshipType)
	if rc.ContactGoal != "" {
		fmt.Fprintf(&b, "- goal: %s\n", rc.ContactGoal)
	}
	fmt.Fprintf(&b, "- orbit level: %d (lower is closer)\n", rc.OrbitLevel)
	fmt.Fprintf(&b, "- health score: %d/100\n", rc.HealthScore)
	fmt.Fprintf(&b, "- sentiment: %d (-100..100)\n", rc.SentimentScore)
	if rc.DaysSinceContact >= 0 {
		fmt.Fprintf(&b, "- days since last contact: %d\n", rc.DaysSinceContact)
	} else {
		b.WriteString("- days since last contact: never contacted\n")
	}
	fmt.Fprintf(&b, "- engagement: %d/100 (%s)\n", rc.EngagementScore, rc.EngagementLevel)
	if rc.UpcomingMilestone != "" {
		fmt.Fprintf(&b, "- upcoming milestone: %s\n", rc.UpcomingMilestone)
	}

	if len(rc.TriggeredRules) > 0 {
		b.WriteString("\nTRIGGERED RULES:\n")
		for _, r := range rc.TriggeredRules {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	b.WriteString(`
Rules:
- Recommend a reminder only when re-engaging now is genuinely worthwhile
- reminder_date must be a future date in YYYY-MM-DD form
- confidence reflects how certain you are the user should act (0-100)
- Return ONLY a JSON object, no other text

Return a JSON object:
{
  "should_remind": true|false,
  "urgency": "low|medium|high",
  "approach": "how to reach out",
  "reason": "why now",
  "suggested_actions": ["..."],
  "reminder_date": "YYYY-MM-DD",
  "confidence": 0-100,
  "timing_notes": "optional timing context",
  "custom_trigger_impact": "how triggered rules shaped this"
}

If no reminder is warranted, return: {"should_remind": false, "confidence": 0}`)

	return b.String()
}
