// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/attested-vote/models"
)

// maxAdmissionAttempts bounds retries when a concurrent delete removes the
// candidate between resolution and vote insertion.
const maxAdmissionAttempts = 3

// Ledger owns candidate and vote rows. Every method runs in its own
// transaction; nothing is cached between calls.
type Ledger struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewLedger(conn *sql.DB, dialect Dialect) *Ledger {
	return &Ledger{
		db:      conn,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CastVote resolves (or creates) the named candidate and inserts the
// device's vote in a single transaction. Returns ErrDuplicateVote if the
// device already holds a vote; in that case nothing is committed, not even
// a newly created candidate.
func (l *Ledger) CastVote(ctx context.Context, deviceID, candidateName, os string) (models.Vote, error) {
	var (
		vote models.Vote
		err  error
	)
	for attempt := 1; attempt <= maxAdmissionAttempts; attempt++ {
		vote, err = l.castVote(ctx, deviceID, candidateName, os)
		if !errors.Is(err, ErrCandidateGone) {
			return vote, err
		}
	}
	return models.Vote{}, err
}

func (l *Ledger) castVote(ctx context.Context, deviceID, candidateName, os string) (models.Vote, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	candidate, _, err := l.ensureCandidate(ctx, tx, candidateName)
	if err != nil {
		return models.Vote{}, err
	}

	now := l.now()
	res, err := tx.ExecContext(ctx, l.dialect.Rebind(`
		INSERT INTO vote (device_id, candidate_id, os, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device_id) DO NOTHING
	`), deviceID, candidate.ID, os, now)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return models.Vote{}, ErrCandidateGone
		case isUniqueViolation(err):
			return models.Vote{}, ErrDuplicateVote
		}
		return models.Vote{}, fmt.Errorf("failed to insert vote: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to read insert result: %w", err)
	}
	if n == 0 {
		return models.Vote{}, ErrDuplicateVote
	}

	if err := tx.Commit(); err != nil {
		if isForeignKeyViolation(err) {
			return models.Vote{}, ErrCandidateGone
		}
		return models.Vote{}, fmt.Errorf("failed to commit vote: %w", err)
	}

	return models.Vote{
		DeviceID:    deviceID,
		CandidateID: candidate.ID,
		Candidate:   candidate.Name,
		OS:          os,
		CreatedAt:   now,
	}, nil
}

// EnsureCandidate returns the candidate with the given name, creating it if
// needed. created reports whether this call inserted the row.
func (l *Ledger) EnsureCandidate(ctx context.Context, name string) (models.Candidate, bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Candidate{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	candidate, created, err := l.ensureCandidate(ctx, tx, name)
	if err != nil {
		return models.Candidate{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return models.Candidate{}, false, fmt.Errorf("failed to commit candidate: %w", err)
	}
	return candidate, created, nil
}

// ensureCandidate relies on UNIQUE(name): the insert is a no-op when another
// transaction already owns the name, and the lookup that follows sees it.
func (l *Ledger) ensureCandidate(ctx context.Context, q execQueryer, name string) (models.Candidate, bool, error) {
	res, err := q.ExecContext(ctx, l.dialect.Rebind(`
		INSERT INTO candidate (name, created_at)
		VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
	`), name, l.now())
	if err != nil && !isUniqueViolation(err) {
		return models.Candidate{}, false, fmt.Errorf("failed to insert candidate: %w", err)
	}

	created := false
	if err == nil {
		n, err := res.RowsAffected()
		if err != nil {
			return models.Candidate{}, false, fmt.Errorf("failed to read insert result: %w", err)
		}
		created = n == 1
	}

	var c models.Candidate
	err = q.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT id, name, created_at FROM candidate WHERE name = ?
	`), name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		// Lost a race with a delete between insert and lookup.
		return models.Candidate{}, false, ErrCandidateGone
	}
	if err != nil {
		return models.Candidate{}, false, fmt.Errorf("failed to query candidate: %w", err)
	}

	return c, created, nil
}

// Tally returns every candidate with its vote count, in creation order,
// read from a single snapshot.
func (l *Ledger) Tally(ctx context.Context) ([]models.CandidateCount, error) {
	tx, err := l.db.BeginTx(ctx, l.dialect.readTxOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(v.device_id)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tally: %w", err)
	}
	defer rows.Close()

	counts := []models.CandidateCount{}
	for rows.Next() {
		var cc models.CandidateCount
		if err := rows.Scan(&cc.CandidateID, &cc.Name, &cc.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally row: %w", err)
		}
		counts = append(counts, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tally: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to close tally snapshot: %w", err)
	}
	return counts, nil
}

// DeleteCandidate removes the candidate and all its votes atomically and
// returns how many votes were removed.
func (l *Ledger) DeleteCandidate(ctx context.Context, name string) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var candidateID int64
	err = tx.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT id FROM candidate WHERE name = ?
	`), name).Scan(&candidateID)
	if err == sql.ErrNoRows {
		return 0, ErrCandidateNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query candidate: %w", err)
	}

	// Children first, so the cascade does not depend on the FK action.
	res, err := tx.ExecContext(ctx, l.dialect.Rebind(`
		DELETE FROM vote WHERE candidate_id = ?
	`), candidateID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete votes: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}

	_, err = tx.ExecContext(ctx, l.dialect.Rebind(`
		DELETE FROM candidate WHERE id = ?
	`), candidateID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return removed, nil
}

// HasVoted reports whether the device currently holds a vote.
func (l *Ledger) HasVoted(ctx context.Context, deviceID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT EXISTS(SELECT 1 FROM vote WHERE device_id = ?)
	`), deviceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query vote: %w", err)
	}
	return exists, nil
}
