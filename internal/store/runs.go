package store

import (
	"fmt"
)

// SweepRun is the persisted statistics record for one completed sweep.
type SweepRun struct {
	ID           int64 `json:"id"`
	StartedAt    int64 `json:"started_at"`
	FinishedAt   int64 `json:"finished_at"`
	Analyzed     int   `json:"analyzed"`
	RemindersSet int   `json:"reminders_set"`
	Skipped      int   `json:"skipped"`
	Errors       int   `json:"errors"`
	Forced       bool  `json:"forced"`
}

// RecordSweepRun appends a sweep's statistics to the run history.
func (db *DB) RecordSweepRun(r *SweepRun) error {
	forced := 0
	if r.Forced {
		forced = 1
	}
	result, err := db.Exec(`
		INSERT INTO sweep_runs (started_at, finished_at, analyzed, reminders_set, skipped, errors, forced)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.StartedAt, r.FinishedAt, r.Analyzed, r.RemindersSet, r.Skipped, r.Errors, forced)
	if err != nil {
		return fmt.Errorf("record sweep run: %w", err)
	}
	r.ID, _ = result.LastInsertId()
	return nil
}

// GetRecentSweepRuns returns the most recent runs, newest first.
func (db *DB) GetRecentSweepRuns(limit int) ([]SweepRun, error) {
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, analyzed, reminders_set, skipped, errors, forced
		FROM sweep_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("get sweep runs: %w", err)
	}
	defer rows.Close()

	var runs []SweepRun
	for rows.Next() {
		var r SweepRun
		var forced int
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Analyzed, &r.RemindersSet, &r.Skipped, &r.Errors, &forced); err != nil {
			return nil, fmt.Errorf("scan sweep run: %w", err)
		}
		r.Forced = forced != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
