package store

import (
	"testing"
)

func TestSweepRunHistory(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 3; i++ {
		run := &SweepRun{
			StartedAt:    int64(1000 + i),
			FinishedAt:   int64(2000 + i),
			Analyzed:     i,
			RemindersSet: 1,
			Skipped:      2,
			Errors:       0,
			Forced:       i == 2,
		}
		if err := db.RecordSweepRun(run); err != nil {
			t.Fatalf("RecordSweepRun: %v", err)
		}
		if run.ID == 0 {
			t.Error("expected run id")
		}
	}

	runs, err := db.GetRecentSweepRuns(2)
	if err != nil {
		t.Fatalf("GetRecentSweepRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].StartedAt != 1002 || !runs[0].Forced {
		t.Errorf("runs[0] = %+v, want newest first", runs[0])
	}
}
