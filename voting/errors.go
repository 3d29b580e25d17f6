// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/attested-vote/db"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Stable kinds reported to clients.
const (
	KindInvalidRequest   = "invalid_request"
	KindUnauthorized     = "unauthorized"
	KindConflict         = "conflict"
	KindNotFound         = "not_found"
	KindStoreUnavailable = "store_unavailable"
)

// Kind returns the client-facing kind of err, or "" if err is not one of
// ours.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	}
	return ""
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// storeError maps ledger errors onto the taxonomy.
func storeError(err error) error {
	switch {
	case errors.Is(err, db.ErrDuplicateVote):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, db.ErrCandidateNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
