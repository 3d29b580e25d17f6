// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type migration struct {
	version  int
	sqlite   string
	postgres string
}

// Migrations are append-only. Never edit a released version.
var migrations = []migration{
	{
		version: 1,
		sqlite: `
-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE CHECK (name <> ''),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Votes (one per device, system-wide)
CREATE TABLE IF NOT EXISTS vote (
    device_id TEXT PRIMARY KEY CHECK (device_id <> ''),
    candidate_id INTEGER NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    os TEXT NOT NULL CHECK (os IN ('android', 'ios')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
`,
		postgres: `
-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE CHECK (name <> ''),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Votes (one per device, system-wide)
CREATE TABLE IF NOT EXISTS vote (
    device_id TEXT PRIMARY KEY CHECK (device_id <> ''),
    candidate_id BIGINT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    os TEXT NOT NULL CHECK (os IN ('android', 'ios')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vote_candidate_id ON vote(candidate_id);
`,
	},
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`

// Migrate brings the schema up to the latest version.
// Safe to call multiple times - applied versions are skipped.
func Migrate(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	if _, err := conn.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := SchemaVersion(ctx, conn)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, conn, dialect, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration, or 0.
func SchemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var version sql.NullInt64
	err := conn.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

func applyMigration(ctx context.Context, conn *sql.DB, dialect Dialect, m migration) error {
	script := m.sqlite
	if dialect == Postgres {
		script = m.postgres
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, dialect.Rebind(`
		INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)
	`), m.version, time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}
