package advisor

import (
	"context"
	"fmt"

	"github.com/okeefe/circleback/internal/config"
)

// Client is the interface for external advisory providers. Recommend may be
// slow or fail; callers isolate failures per contact.
type Client interface {
	Recommend(ctx context.Context, rc *Context) (*Recommendation, error)
}

// Context bundles everything the advisor sees about one contact.
type Context struct {
	Name              string   `json:"name"`
	RelationshipType  string   `json:"relationship_type"`
	ContactGoal       string   `json:"contact_goal,omitempty"`
	OrbitLevel        int      `json:"orbit_level"`
	HealthScore       int      `json:"health_score"`
	SentimentScore    int      `json:"sentiment_score"`
	DaysSinceContact  int      `json:"days_since_contact"` // -1 when never contacted
	EngagementScore   int      `json:"engagement_score"`
	EngagementLevel   string   `json:"engagement_level"`
	UpcomingMilestone string   `json:"upcoming_milestone,omitempty"`
	TriggeredRules    []string `json:"triggered_rules,omitempty"`
}

// Recommendation is the structured advice returned for one contact.
type Recommendation struct {
	ShouldRemind        bool     `json:"should_remind"`
	Urgency             string   `json:"urgency"` // low, medium, high
	Approach            string   `json:"approach,omitempty"`
	Reason              string   `json:"reason,omitempty"`
	SuggestedActions    []string `json:"suggested_actions,omitempty"`
	ReminderDate        string   `json:"reminder_date,omitempty"` // YYYY-MM-DD
	Confidence          int      `json:"confidence"`              // 0-100
	TimingNotes         string   `json:"timing_notes,omitempty"`
	CustomTriggerImpact string   `json:"custom_trigger_impact,omitempty"`
}

// NewClient creates an advisory client based on the config provider setting.
func NewClient(cfg config.AdvisorConfig) (Client, error) {
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config")
		}
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return NewAnthropic(cfg.AnthropicKey, model), nil
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		model := cfg.OllamaModel
		if model == "" {
			model = "llama3.2"
		}
		return NewOllama(url, model), nil
	default:
		return nil, fmt.Errorf("unknown advisor provider: %q", cfg.Provider)
	}
}
