package engine

import (
	"math"
	"testing"
	"time"

	"github.com/okeefe/circleback/internal/store"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func millisAgo(d time.Duration) *int64 {
	v := testNow.Add(-d).UnixMilli()
	return &v
}

func TestComputeEngagementBlend(t *testing.T) {
	c := &store.Contact{
		HealthScore:    80,
		SentimentScore: 20,
		LastContacted:  millisAgo(10 * 24 * time.Hour),
	}

	got := ComputeEngagement(c, testNow)

	if got.Score != 74 {
		t.Errorf("score = %d, want 74", got.Score)
	}
	if got.Level != "high" {
		t.Errorf("level = %q, want high", got.Level)
	}
	if math.Abs(got.Factors.Health-0.8) > 1e-9 {
		t.Errorf("health factor = %f, want 0.8", got.Factors.Health)
	}
	if math.Abs(got.Factors.Sentiment-0.6) > 1e-9 {
		t.Errorf("sentiment factor = %f, want 0.6", got.Factors.Sentiment)
	}
}

func TestComputeEngagementRecencyDecay(t *testing.T) {
	c := &store.Contact{LastContacted: millisAgo(45 * 24 * time.Hour)}

	got := ComputeEngagement(c, testNow)

	// 45 of 60 days elapsed leaves a quarter of the recency factor.
	if math.Abs(got.Factors.Recency-0.25) > 1e-9 {
		t.Errorf("recency = %f, want 0.25", got.Factors.Recency)
	}
	// Past the 30-day cadence window entirely.
	if got.Factors.Frequency != 0 {
		t.Errorf("frequency = %f, want 0", got.Factors.Frequency)
	}
}

func TestComputeEngagementNeverContacted(t *testing.T) {
	c := &store.Contact{HealthScore: 50, SentimentScore: 0}

	got := ComputeEngagement(c, testNow)

	if got.Factors.Recency != 0 || got.Factors.Frequency != 0 {
		t.Errorf("factors = %+v, want zero recency and frequency", got.Factors)
	}
	if got.Score != 25 {
		t.Errorf("score = %d, want 25", got.Score)
	}
	if got.Level != "low" {
		t.Errorf("level = %q, want low", got.Level)
	}
}

func TestComputeEngagementSentimentRange(t *testing.T) {
	tests := []struct {
		sentiment int
		want      float64
	}{
		{-100, 0},
		{0, 0.5},
		{100, 1},
	}
	for _, tt := range tests {
		c := &store.Contact{SentimentScore: tt.sentiment}
		got := ComputeEngagement(c, testNow)
		if math.Abs(got.Factors.Sentiment-tt.want) > 1e-9 {
			t.Errorf("sentiment %d -> %f, want %f", tt.sentiment, got.Factors.Sentiment, tt.want)
		}
	}
}

func TestEngagementLevelBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{85, "high"},
		{70, "high"},
		{69.9, "medium"},
		{40, "medium"},
		{39.9, "low"},
		{0, "low"},
	}
	for _, tt := range tests {
		if got := engagementLevel(tt.score); got != tt.want {
			t.Errorf("engagementLevel(%.1f) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestComputeEngagementDeterministic(t *testing.T) {
	c := &store.Contact{
		HealthScore:    62,
		SentimentScore: -30,
		LastContacted:  millisAgo(7 * 24 * time.Hour),
	}
	a := ComputeEngagement(c, testNow)
	b := ComputeEngagement(c, testNow)
	if a != b {
		t.Errorf("same snapshot scored differently: %+v vs %+v", a, b)
	}
}
