package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var validUrgencies = map[string]bool{
	"low": true, "medium": true, "high": true,
}

// parseRecommendation extracts a Recommendation from raw model output.
// Tolerates markdown code fences and surrounding prose by locating the first
// balanced JSON object in the text.
func parseRecommendation(raw string) (*Recommendation, error) {
	raw = strings.TrimSpace(raw)

	// Strip code fences if present
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}

	// Locate the outermost JSON object
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rec); err != nil {
		return nil, fmt.Errorf("decode recommendation: %w", err)
	}

	return validateRecommendation(&rec)
}

// validateRecommendation normalizes model output: confidence clamped to 0-100,
// urgency coerced to a known value, malformed reminder dates dropped.
func validateRecommendation(rec *Recommendation) (*Recommendation, error) {
	if rec.Confidence < 0 {
		rec.Confidence = 0
	}
	if rec.Confidence > 100 {
		rec.Confidence = 100
	}

	rec.Urgency = strings.ToLower(strings.TrimSpace(rec.Urgency))
	if !validUrgencies[rec.Urgency] {
		rec.Urgency = "low"
	}

	rec.ReminderDate = strings.TrimSpace(rec.ReminderDate)
	if rec.ReminderDate != "" {
		if _, err := time.Parse("2006-01-02", rec.ReminderDate); err != nil {
			rec.ReminderDate = ""
		}
	}

	rec.Reason = strings.TrimSpace(rec.Reason)
	rec.Approach = strings.TrimSpace(rec.Approach)
	return rec, nil
}
