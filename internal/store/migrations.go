package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "contacts: tracked relationships",
		SQL: `
CREATE TABLE contacts (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    relationship_type TEXT NOT NULL DEFAULT 'friend',
    contact_goal      TEXT,

    -- Proximity + health
    orbit_level       INTEGER NOT NULL DEFAULT 3,
    health_score      INTEGER NOT NULL DEFAULT 50,
    previous_health   INTEGER NOT NULL DEFAULT 50,
    sentiment_score   INTEGER NOT NULL DEFAULT 0,
    sentiment_history TEXT,
    tags              TEXT,

    -- Contact cadence
    last_contacted        INTEGER,
    orbit_at_last_contact INTEGER NOT NULL DEFAULT 3,
    reminder_frequency    TEXT NOT NULL DEFAULT 'ai_suggested' CHECK (reminder_frequency IN ('manual', 'ai_suggested')),
    reminder_date         TEXT,
    next_milestone        TEXT,

    -- Engine state
    snooze_until       INTEGER,
    advice             TEXT,
    advice_generated   INTEGER,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX idx_contacts_name    ON contacts(name);
CREATE INDEX idx_contacts_health  ON contacts(health_score);
CREATE INDEX idx_contacts_created ON contacts(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "trigger_rules: user-defined follow-up conditions",
		SQL: `
CREATE TABLE trigger_rules (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    enabled    INTEGER NOT NULL DEFAULT 1,
    condition  TEXT NOT NULL,
    threshold  REAL NOT NULL,
    action     TEXT NOT NULL DEFAULT 'suggest_reminder' CHECK (action IN ('suggest_reminder', 'auto_set_reminder', 'notify_only')),
    priority   INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_rules_priority ON trigger_rules(priority DESC);
`,
	},
	{
		Version:     3,
		Description: "settings: single-row user policy",
		SQL: `
CREATE TABLE settings (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    policy     TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`,
	},
	{
		Version:     4,
		Description: "interactions: logged touch-points per contact",
		SQL: `
CREATE TABLE interactions (
    id         INTEGER PRIMARY KEY,
    contact_id TEXT NOT NULL,
    kind       TEXT NOT NULL DEFAULT 'note',
    note       TEXT,
    sentiment  INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,

    FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX idx_interactions_contact ON interactions(contact_id);
CREATE INDEX idx_interactions_created ON interactions(created_at DESC);
`,
	},
	{
		Version:     5,
		Description: "sweep_runs: per-sweep statistics history",
		SQL: `
CREATE TABLE sweep_runs (
    id            INTEGER PRIMARY KEY,
    started_at    INTEGER NOT NULL,
    finished_at   INTEGER NOT NULL,
    analyzed      INTEGER NOT NULL DEFAULT 0,
    reminders_set INTEGER NOT NULL DEFAULT 0,
    skipped       INTEGER NOT NULL DEFAULT 0,
    errors        INTEGER NOT NULL DEFAULT 0,
    forced        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_runs_started ON sweep_runs(started_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
