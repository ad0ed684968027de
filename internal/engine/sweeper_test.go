package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/okeefe/circleback/internal/advisor"
	"github.com/okeefe/circleback/internal/config"
	"github.com/okeefe/circleback/internal/store"
)

var errTest = errors.New("provider unavailable")

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEngine(t *testing.T, db *store.DB, mock *advisor.MockClient) *Engine {
	t.Helper()
	return New(db, mock, config.EngineConfig{Enabled: true, CheckInterval: "1h"})
}

func remindMock(confidence int, date string) *advisor.MockClient {
	return &advisor.MockClient{Response: &advisor.Recommendation{
		ShouldRemind: true,
		Urgency:      "medium",
		Confidence:   confidence,
		ReminderDate: date,
	}}
}

func TestSweepStoresSuggestion(t *testing.T) {
	db := testDB(t)
	c := &store.Contact{Name: "Maya", HealthScore: 30}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	mock := remindMock(90, "2026-09-05")
	eng := testEngine(t, db, mock)

	stats := eng.Sweep(true)
	if stats == nil {
		t.Fatal("expected stats")
	}
	if stats.Analyzed != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want 1 analyzed", stats)
	}
	// Default policy has auto-set off: suggestion stored, no date.
	if stats.RemindersSet != 0 {
		t.Errorf("reminders_set = %d, want 0 with auto-set off", stats.RemindersSet)
	}

	got, _ := db.GetContact(c.ID)
	if len(got.Advice) == 0 || got.AdviceGenerated == nil {
		t.Error("advice and timestamp should be stored")
	}
	if got.ReminderDate != "" {
		t.Errorf("reminder_date = %q, want empty", got.ReminderDate)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("advisor called %d times, want 1", len(mock.Calls))
	}
}

func TestSweepAutoSetsReminder(t *testing.T) {
	db := testDB(t)
	c := &store.Contact{Name: "Maya"}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	policy := store.DefaultPolicy()
	policy.AutoSetReminders = true
	if err := db.SavePolicy(policy); err != nil {
		t.Fatalf("SavePolicy: %v", err)
	}

	eng := testEngine(t, db, remindMock(90, "2026-09-05"))

	stats := eng.Sweep(true)
	if stats.RemindersSet != 1 {
		t.Errorf("reminders_set = %d, want 1", stats.RemindersSet)
	}
	got, _ := db.GetContact(c.ID)
	if got.ReminderDate != "2026-09-05" {
		t.Errorf("reminder_date = %q", got.ReminderDate)
	}
}

func TestSweepSnoozedNeverCallsAdvisor(t *testing.T) {
	db := testDB(t)
	snooze := time.Now().Add(72 * time.Hour).UnixMilli()
	c := &store.Contact{Name: "Resting", SnoozeUntil: &snooze}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	mock := remindMock(90, "")
	eng := testEngine(t, db, mock)

	stats := eng.Sweep(true)
	if stats.Skipped != 1 || stats.Analyzed != 0 {
		t.Errorf("stats = %+v, want 1 skipped", stats)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("advisor called %d times for a snoozed contact", len(mock.Calls))
	}
}

func TestSweepAdvisorFailureRetriedNextCycle(t *testing.T) {
	db := testDB(t)
	c := &store.Contact{Name: "Flaky"}
	if err := db.CreateContact(c); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	mock := &advisor.MockClient{Err: errTest}
	eng := testEngine(t, db, mock)

	stats := eng.Sweep(true)
	if stats.Errors != 1 || stats.Analyzed != 0 {
		t.Errorf("stats = %+v, want 1 error", stats)
	}

	// No stamp means no cooldown: next sweep tries again.
	got, _ := db.GetContact(c.ID)
	if got.AdviceGenerated != nil {
		t.Error("failed analysis must not stamp advice_generated")
	}

	eng.Sweep(true)
	if len(mock.Calls) != 2 {
		t.Errorf("advisor called %d times, want retry on next sweep", len(mock.Calls))
	}
}

func TestSweepDisabledByPolicy(t *testing.T) {
	db := testDB(t)
	for _, name := range []string{"A", "B"} {
		if err := db.CreateContact(&store.Contact{Name: name}); err != nil {
			t.Fatalf("CreateContact: %v", err)
		}
	}
	policy := store.DefaultPolicy()
	policy.AutoRemindersEnabled = false
	if err := db.SavePolicy(policy); err != nil {
		t.Fatalf("SavePolicy: %v", err)
	}

	mock := remindMock(90, "")
	eng := testEngine(t, db, mock)

	stats := eng.Sweep(true)
	if stats.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", stats.Skipped)
	}
	if len(mock.Calls) != 0 {
		t.Error("advisor should not be called when reminders are disabled")
	}
}

func TestSweepReentryIsNoop(t *testing.T) {
	db := testDB(t)
	eng := testEngine(t, db, remindMock(90, ""))

	eng.processing.Store(true)
	if stats := eng.Sweep(true); stats != nil {
		t.Errorf("re-entrant sweep returned %+v, want nil", stats)
	}
	eng.processing.Store(false)

	if stats := eng.Sweep(true); stats == nil {
		t.Error("sweep after release should run")
	}
}

func TestSweepRecordsRunAndEvent(t *testing.T) {
	db := testDB(t)
	if err := db.CreateContact(&store.Contact{Name: "Maya"}); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	eng := testEngine(t, db, remindMock(90, ""))
	stats := eng.Sweep(true)

	runs, err := db.GetRecentSweepRuns(5)
	if err != nil {
		t.Fatalf("GetRecentSweepRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if !runs[0].Forced || runs[0].Analyzed != 1 {
		t.Errorf("run = %+v", runs[0])
	}

	select {
	case ev := <-eng.Events():
		if ev.Kind != EventSweepCompleted {
			t.Errorf("event kind = %q", ev.Kind)
		}
		if ev.Stats == nil || ev.Stats.Analyzed != stats.Analyzed {
			t.Errorf("event stats = %+v", ev.Stats)
		}
	default:
		t.Error("expected sweep_completed event")
	}
}

func TestSweepStoreFailureSkipsCycle(t *testing.T) {
	db := testDB(t)
	eng := testEngine(t, db, remindMock(90, ""))

	db.Close()
	if stats := eng.Sweep(true); stats != nil {
		t.Errorf("sweep on closed store returned %+v, want nil", stats)
	}
}

func TestSweepStatusSnapshot(t *testing.T) {
	db := testDB(t)
	eng := testEngine(t, db, remindMock(90, ""))

	s := eng.Status()
	if !s.Enabled || s.Processing || s.LastRun != nil {
		t.Errorf("fresh status = %+v", s)
	}

	eng.Sweep(true)
	s = eng.Status()
	if s.LastRun == nil || s.LastStats == nil {
		t.Errorf("status after sweep = %+v", s)
	}

	eng.Stop()
	if s := eng.Status(); s.Enabled {
		t.Error("stopped engine should report disabled")
	}
}

func TestSweepNilAdvisorCountsErrors(t *testing.T) {
	db := testDB(t)
	if err := db.CreateContact(&store.Contact{Name: "Maya"}); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}

	eng := New(db, nil, config.EngineConfig{Enabled: true})
	stats := eng.Sweep(true)
	if stats.Errors != 1 {
		t.Errorf("errors = %d, want 1 without an advisory client", stats.Errors)
	}
}
