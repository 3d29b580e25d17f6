// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the vote ledger: connection setup, schema migrations, and
the transactional operations on candidates and votes.

# Opening

	dialect, _ := db.ParseDialect(cfg.DatabaseType)
	conn, err := db.Open(ctx, dialect, cfg.DatabaseURL)

SQLite (modernc.org/sqlite) is the default; connections get foreign keys,
a busy timeout, WAL, and immediate transactions, and the pool is capped at
one connection. Postgres uses lib/pq. Queries are written with ? and
rebound to $n for Postgres.

# Migrations

	if err := db.Migrate(ctx, conn, dialect); err != nil {
		log.Fatal(err)
	}

Versions are recorded in schema_migrations and applied once each, inside a
transaction. Safe to call on every start.

# Tables

  - candidate: id (creation order), name UNIQUE, created_at
  - vote: device_id PRIMARY KEY, candidate_id, os, created_at

	candidate 1──* vote

# Ledger

	ledger := db.NewLedger(conn, dialect)

  - CastVote: get-or-create candidate + insert-if-absent vote, one transaction
  - EnsureCandidate: idempotent candidate creation
  - Tally: per-candidate counts from one read snapshot
  - DeleteCandidate: candidate and its votes, one transaction
  - HasVoted: whether a device holds a vote

One vote per device and one candidate per name are enforced by UNIQUE
constraints, never by check-then-insert.
*/
package db
