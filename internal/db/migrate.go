package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillProjectSequences(db); err != nil {
		return fmt.Errorf("backfilling project sequence allocator state: %w", err)
	}
	return nil
}

// Decimal quantities (story points, hours) are stored as TEXT so they
// round-trip without binary float error.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS project_sequences (
		project_id TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		next_seq   INTEGER NOT NULL CHECK(next_seq > 0)
	)`,

	`CREATE TABLE IF NOT EXISTS scopes (
		id                 TEXT PRIMARY KEY,
		project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		start_date         TEXT,
		end_date           TEXT,
		is_product_backlog INTEGER NOT NULL DEFAULT 0,
		status             TEXT NOT NULL DEFAULT 'open'
		                   CHECK(status IN ('open','closed')),
		created_at         TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_scopes_project ON scopes(project_id, start_date)`,
	// One product backlog per project.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_scopes_product_backlog ON scopes(project_id) WHERE is_product_backlog = 1`,

	`CREATE TABLE IF NOT EXISTS members (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS items (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		seq             INTEGER NOT NULL DEFAULT 0,
		scope_id        TEXT NOT NULL REFERENCES scopes(id) ON DELETE CASCADE,
		parent_id       TEXT REFERENCES items(id) ON DELETE CASCADE,
		kind            TEXT NOT NULL,
		title           TEXT NOT NULL,
		status          TEXT NOT NULL,
		position        INTEGER NOT NULL,
		story_points    TEXT,
		estimated_hours TEXT,
		target_release  TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_items_scope_position ON items(scope_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_project ON items(project_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_project_seq ON items(project_id, seq) WHERE seq > 0`,

	`CREATE TABLE IF NOT EXISTS dependencies (
		predecessor_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		successor_id   TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		kind           TEXT NOT NULL DEFAULT 'precedes'
		               CHECK(kind IN ('precedes','blocks')),
		PRIMARY KEY (predecessor_id, successor_id),
		CHECK(predecessor_id != successor_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_dependencies_successor ON dependencies(successor_id)`,

	`CREATE TABLE IF NOT EXISTS effort_records (
		scope_id        TEXT NOT NULL REFERENCES scopes(id) ON DELETE CASCADE,
		member_id       TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		date            TEXT NOT NULL,
		estimated_hours TEXT NOT NULL,
		PRIMARY KEY (scope_id, member_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS pending_efforts (
		item_id         TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		date            TEXT NOT NULL,
		remaining_hours TEXT NOT NULL,
		PRIMARY KEY (item_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id          TEXT PRIMARY KEY,
		member_id   TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		item_id     TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		hours       TEXT NOT NULL,
		activity_id TEXT REFERENCES activities(id) ON DELETE SET NULL,
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_entries_item ON time_entries(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_date ON time_entries(date)`,

	// Per-scope free-text goal shown on the board header.
	`ALTER TABLE scopes ADD COLUMN goal TEXT NOT NULL DEFAULT ''`,
}

func migrateBackfillProjectSequences(db *sql.DB) error {
	ctx := context.Background()

	// Populate (or raise) next_seq for every known project using the current
	// max assigned item seq.
	query := `INSERT INTO project_sequences (project_id, next_seq)
		SELECT p.id, COALESCE(MAX(i.seq), 0) + 1
		FROM projects p
		LEFT JOIN items i ON i.project_id = p.id AND i.seq > 0
		GROUP BY p.id
		ON CONFLICT(project_id) DO UPDATE
		SET next_seq = MAX(project_sequences.next_seq, excluded.next_seq)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("upserting project sequence rows: %w", err)
	}

	return nil
}
