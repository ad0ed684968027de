package engine

import (
	"math"
	"time"

	"github.com/okeefe/circleback/internal/store"
)

// Engagement factor weights. Health and recency dominate; cadence and tone
// round out the blend.
const (
	weightHealth    = 0.30
	weightRecency   = 0.30
	weightFrequency = 0.20
	weightSentiment = 0.20

	recencyWindowDays   = 60 // recency decays to 0 over this many days
	frequencyWindowDays = 30 // cadence decays to 0 over this many days
)

// Engagement is the scored health of a relationship at a point in time.
type Engagement struct {
	Score   int               // 0..100
	Level   string            // low, medium, high
	Factors EngagementFactors // normalized 0..1 inputs
}

// EngagementFactors are the individual normalized components of the score.
type EngagementFactors struct {
	Health    float64
	Recency   float64
	Frequency float64
	Sentiment float64
}

// ComputeEngagement scores a contact snapshot. Pure and deterministic given
// the snapshot and now.
func ComputeEngagement(c *store.Contact, now time.Time) Engagement {
	f := EngagementFactors{
		Health:    clamp01(float64(c.HealthScore) / 100),
		Sentiment: clamp01((float64(c.SentimentScore) + 100) / 200),
	}

	// Recency and cadence both derive from last_contacted; a contact never
	// reached contributes 0 to both.
	if c.LastContacted != nil {
		days := daysSince(*c.LastContacted, now)
		f.Recency = clamp01(1 - days/recencyWindowDays)
		f.Frequency = clamp01(1 - days/frequencyWindowDays)
	}

	score := 100 * (weightHealth*f.Health +
		weightRecency*f.Recency +
		weightFrequency*f.Frequency +
		weightSentiment*f.Sentiment)

	return Engagement{
		Score:   int(math.Round(score)),
		Level:   engagementLevel(score),
		Factors: f,
	}
}

func engagementLevel(score float64) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "medium"
	default:
		return "low"
	}
}

// daysSince returns fractional days elapsed between a unix-millis timestamp
// and now. Negative elapsed time clamps to 0.
func daysSince(millis int64, now time.Time) float64 {
	elapsed := now.Sub(time.UnixMilli(millis))
	if elapsed < 0 {
		return 0
	}
	return elapsed.Hours() / 24
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
