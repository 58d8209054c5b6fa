package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the event history.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		ok          INTEGER NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		detail      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	// Compound index for "last event of kind" lookups
	`CREATE INDEX IF NOT EXISTS idx_events_kind_created ON events(kind, created_at)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
