// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/attested-vote/attest"
	"github.com/danielhkuo/attested-vote/auth"
	"github.com/danielhkuo/attested-vote/models"
)

// Ledger is the transactional store behind the voting components.
// *db.Ledger implements it.
type Ledger interface {
	CastVote(ctx context.Context, deviceID, candidateName, os string) (models.Vote, error)
	EnsureCandidate(ctx context.Context, name string) (models.Candidate, bool, error)
	Tally(ctx context.Context) ([]models.CandidateCount, error)
	DeleteCandidate(ctx context.Context, name string) (int64, error)
	HasVoted(ctx context.Context, deviceID string) (bool, error)
}

// Attestor decides whether a token is genuine for an OS.
// *attest.Dispatcher implements it.
type Attestor interface {
	Verify(ctx context.Context, os attest.OS, token string) bool
}

// Admission admits at most one vote per device.
type Admission struct {
	ledger   Ledger
	attestor Attestor
}

func NewAdmission(ledger Ledger, attestor Attestor) *Admission {
	return &Admission{ledger: ledger, attestor: attestor}
}

// CastVote validates the request, checks the attestation token, then
// records the vote. Cheapest checks run first; nothing touches the ledger
// until the token is accepted.
func (a *Admission) CastVote(ctx context.Context, deviceID, candidateName, os, token string) (models.Vote, error) {
	if deviceID == "" {
		return models.Vote{}, invalid("device_id is required")
	}
	if candidateName == "" {
		return models.Vote{}, invalid("candidate_name is required")
	}
	deviceOS, err := attest.ParseOS(os)
	if err != nil {
		return models.Vote{}, invalid("os must be one of: android, ios")
	}

	if !a.attestor.Verify(ctx, deviceOS, token) {
		return models.Vote{}, fmt.Errorf("%w: %w", ErrUnauthorized, attest.ErrTokenRejected)
	}

	vote, err := a.ledger.CastVote(ctx, deviceID, candidateName, string(deviceOS))
	if err != nil {
		return models.Vote{}, storeError(err)
	}

	slog.Info("vote admitted", "candidate", vote.Candidate, "os", vote.OS)
	return vote, nil
}

// HasVoted reports whether the device currently holds a vote.
func (a *Admission) HasVoted(ctx context.Context, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, invalid("device_id is required")
	}
	voted, err := a.ledger.HasVoted(ctx, deviceID)
	if err != nil {
		return false, storeError(err)
	}
	return voted, nil
}

// Tally computes the live percentage breakdown.
type Tally struct {
	ledger Ledger
}

func NewTally(ledger Ledger) *Tally {
	return &Tally{ledger: ledger}
}

// Percentages returns one entry per candidate in creation order.
func (t *Tally) Percentages(ctx context.Context) ([]models.PercentageResult, error) {
	counts, err := t.ledger.Tally(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return Percentages(counts), nil
}

// Percentages converts vote counts to percentages of the total. With no
// votes every candidate is at 0. No rounding or redistribution is applied.
func Percentages(counts []models.CandidateCount) []models.PercentageResult {
	var total int64
	for _, c := range counts {
		total += c.Votes
	}

	results := make([]models.PercentageResult, 0, len(counts))
	for _, c := range counts {
		percent := 0.0
		if total > 0 {
			percent = 100.0 * float64(c.Votes) / float64(total)
		}
		results = append(results, models.PercentageResult{
			Name:    c.Name,
			Percent: percent,
		})
	}
	return results
}

// Admin performs privileged candidate management guarded by a shared secret.
type Admin struct {
	ledger Ledger
	secret string
}

// NewAdmin takes the admin secret once; it is never re-read.
func NewAdmin(ledger Ledger, secret string) *Admin {
	return &Admin{ledger: ledger, secret: secret}
}

// Authorize checks the provided key against the admin secret.
func (a *Admin) Authorize(providedKey string) error {
	if err := auth.ValidateAdminKey(providedKey, a.secret); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// DeleteCandidate removes the candidate and all of its votes. Devices that
// voted for it may vote again afterwards.
func (a *Admin) DeleteCandidate(ctx context.Context, providedKey, name string) (int64, error) {
	if err := a.Authorize(providedKey); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, invalid("name is required")
	}

	removed, err := a.ledger.DeleteCandidate(ctx, name)
	if err != nil {
		return 0, storeError(err)
	}

	slog.Info("candidate deleted", "candidate", name, "votes_removed", removed)
	return removed, nil
}

// CreateCandidate provisions a candidate ahead of any vote. Idempotent.
func (a *Admin) CreateCandidate(ctx context.Context, providedKey, name string) (models.Candidate, bool, error) {
	if err := a.Authorize(providedKey); err != nil {
		return models.Candidate{}, false, err
	}
	if name == "" {
		return models.Candidate{}, false, invalid("name is required")
	}

	candidate, created, err := a.ledger.EnsureCandidate(ctx, name)
	if err != nil {
		return models.Candidate{}, false, storeError(err)
	}

	if created {
		slog.Info("candidate created", "candidate", name, "id", candidate.ID)
	}
	return candidate, created, nil
}
