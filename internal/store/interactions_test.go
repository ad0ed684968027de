package store

import (
	"errors"
	"testing"
	"time"
)

func TestLogInteractionStampsCadence(t *testing.T) {
	db := testDB(t)

	c := &Contact{Name: "Priya", OrbitLevel: 4, HealthScore: 65, PreviousHealth: 80}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	// Orbit moved since creation; logging should re-record it
	if _, err := db.UpdateContact(c.ID, ContactUpdate{OrbitLevel: intp(2)}); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}

	before := time.Now().UnixMilli()
	in, err := db.LogInteraction(c.ID, "call", "caught up about the move", 60)
	if err != nil {
		t.Fatalf("LogInteraction: %v", err)
	}
	if in.ID == 0 {
		t.Error("expected interaction id")
	}

	got, err := db.GetContact(c.ID)
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if got.LastContacted == nil || *got.LastContacted < before {
		t.Errorf("last_contacted = %v, want stamped", got.LastContacted)
	}
	if got.OrbitAtLastContact != 2 {
		t.Errorf("orbit_at_last_contact = %d, want 2", got.OrbitAtLastContact)
	}
	if got.PreviousHealth != 65 {
		t.Errorf("previous_health = %d, want rolled to 65", got.PreviousHealth)
	}
	if got.SentimentScore != 60 {
		t.Errorf("sentiment_score = %d, want 60", got.SentimentScore)
	}
	if len(got.SentimentHistory) != 1 || got.SentimentHistory[0].Score != 60 {
		t.Errorf("sentiment_history = %+v", got.SentimentHistory)
	}
}

func TestLogInteractionHistoryCap(t *testing.T) {
	db := testDB(t)
	c := &Contact{Name: "Busy"}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	for i := 0; i < maxSentimentHistory+5; i++ {
		if _, err := db.LogInteraction(c.ID, "message", "", i); err != nil {
			t.Fatalf("LogInteraction %d: %v", i, err)
		}
	}

	got, _ := db.GetContact(c.ID)
	if len(got.SentimentHistory) != maxSentimentHistory {
		t.Errorf("history length = %d, want capped at %d", len(got.SentimentHistory), maxSentimentHistory)
	}
	// Oldest entries dropped, newest kept
	last := got.SentimentHistory[len(got.SentimentHistory)-1]
	if last.Score != maxSentimentHistory+4 {
		t.Errorf("newest score = %d, want %d", last.Score, maxSentimentHistory+4)
	}
}

func TestLogInteractionMissingContact(t *testing.T) {
	db := testDB(t)
	_, err := db.LogInteraction("no-such-id", "call", "", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetInteractionsNewestFirst(t *testing.T) {
	db := testDB(t)
	c := &Contact{Name: "Ana"}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	for _, sentiment := range []int{10, 20, 30} {
		if _, err := db.LogInteraction(c.ID, "note", "", sentiment); err != nil {
			t.Fatalf("LogInteraction: %v", err)
		}
		time.Sleep(2 * time.Millisecond) // distinct created_at
	}

	interactions, err := db.GetInteractions(c.ID)
	if err != nil {
		t.Fatalf("GetInteractions: %v", err)
	}
	if len(interactions) != 3 {
		t.Fatalf("got %d interactions, want 3", len(interactions))
	}
	if interactions[0].Sentiment != 30 {
		t.Errorf("first = %d, want newest (30)", interactions[0].Sentiment)
	}
}

func intp(v int) *int { return &v }
