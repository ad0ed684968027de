package advisor

import (
	"testing"
)

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    bool // should_remind
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"should_remind": true, "urgency": "high", "confidence": 80}`,
			want: true,
		},
		{
			name: "json code fence",
			raw:  "```json\n{\"should_remind\": true, \"confidence\": 70}\n```",
			want: true,
		},
		{
			name: "bare code fence",
			raw:  "```\n{\"should_remind\": false}\n```",
			want: false,
		},
		{
			name: "surrounding prose",
			raw:  "Based on the situation, here is my recommendation:\n{\"should_remind\": true, \"confidence\": 65}\nLet me know if you need more.",
			want: true,
		},
		{
			name:    "no json object",
			raw:     "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"should_remind": tru`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := parseRecommendation(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRecommendation: %v", err)
			}
			if rec.ShouldRemind != tt.want {
				t.Errorf("should_remind = %v, want %v", rec.ShouldRemind, tt.want)
			}
		})
	}
}

func TestValidateRecommendationClamps(t *testing.T) {
	rec, err := parseRecommendation(`{"should_remind": true, "confidence": 250, "urgency": "URGENT"}`)
	if err != nil {
		t.Fatalf("parseRecommendation: %v", err)
	}
	if rec.Confidence != 100 {
		t.Errorf("confidence = %d, want clamped to 100", rec.Confidence)
	}
	if rec.Urgency != "low" {
		t.Errorf("urgency = %q, want coerced to low", rec.Urgency)
	}

	rec, err = parseRecommendation(`{"should_remind": true, "confidence": -5, "urgency": " Medium "}`)
	if err != nil {
		t.Fatalf("parseRecommendation: %v", err)
	}
	if rec.Confidence != 0 {
		t.Errorf("confidence = %d, want clamped to 0", rec.Confidence)
	}
	if rec.Urgency != "medium" {
		t.Errorf("urgency = %q, want normalized medium", rec.Urgency)
	}
}

func TestValidateRecommendationDropsBadDate(t *testing.T) {
	rec, err := parseRecommendation(`{"should_remind": true, "reminder_date": "next Tuesday"}`)
	if err != nil {
		t.Fatalf("parseRecommendation: %v", err)
	}
	if rec.ReminderDate != "" {
		t.Errorf("reminder_date = %q, want dropped", rec.ReminderDate)
	}

	rec, err = parseRecommendation(`{"should_remind": true, "reminder_date": "2026-09-15"}`)
	if err != nil {
		t.Fatalf("parseRecommendation: %v", err)
	}
	if rec.ReminderDate != "2026-09-15" {
		t.Errorf("reminder_date = %q, want kept", rec.ReminderDate)
	}
}
