// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/attested-vote/models"
)

// OS selects the attestation path for a token.
type OS string

const (
	Android OS = models.OSAndroid
	IOS     OS = models.OSIOS
)

// DefaultTimeout bounds a single verification call.
const DefaultTimeout = 5 * time.Second

var (
	ErrUnknownOS     = errors.New("unknown os")
	ErrNoVerifier    = errors.New("no verifier configured for os")
	ErrTokenRejected = errors.New("attestation token rejected")
)

// ParseOS returns the OS for a wire value.
func ParseOS(s string) (OS, error) {
	switch OS(s) {
	case Android, IOS:
		return OS(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOS, s)
}

// Verifier checks a token for one OS. Implementations must not have side
// effects visible to the ledger.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

// Dispatcher routes a token to the verifier for its OS.
type Dispatcher struct {
	Android Verifier
	IOS     Verifier
	Timeout time.Duration
}

// Verify reports whether the token is valid for the OS. Errors, timeouts,
// unknown OS values and missing verifiers all count as invalid.
func (d *Dispatcher) Verify(ctx context.Context, os OS, token string) bool {
	if token == "" {
		return false
	}

	var v Verifier
	switch os {
	case Android:
		v = d.Android
	case IOS:
		v = d.IOS
	default:
		slog.Warn("attestation rejected", "os", os, "error", ErrUnknownOS)
		return false
	}
	if v == nil {
		slog.Warn("attestation rejected", "os", os, "error", ErrNoVerifier)
		return false
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("verifier panic: %v", r)}
			}
		}()
		ok, err := v.Verify(ctx, token)
		done <- result{ok: ok, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			slog.Warn("attestation check failed", "os", os, "error", res.err)
			return false
		}
		if !res.ok {
			slog.Warn("attestation rejected", "os", os)
		}
		return res.ok
	case <-ctx.Done():
		slog.Warn("attestation check aborted", "os", os, "error", ctx.Err())
		return false
	}
}
