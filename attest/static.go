// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attest

import (
	"context"
	"crypto/subtle"
)

// Development tokens accepted when dev tokens are enabled.
const (
	DevAndroidToken = "mock_android_token"
	DevIOSToken     = "mock_ios_token"
)

// Static accepts exactly one token. Used for local development and tests.
type Static struct {
	Token string
}

func (s Static) Verify(_ context.Context, token string) (bool, error) {
	if s.Token == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) == 1, nil
}

// Fallback tries Primary first and falls back to Secondary when Primary
// does not accept the token.
type Fallback struct {
	Primary   Verifier
	Secondary Verifier
}

func (f Fallback) Verify(ctx context.Context, token string) (bool, error) {
	if f.Primary != nil {
		ok, err := f.Primary.Verify(ctx, token)
		if err == nil && ok {
			return true, nil
		}
		if f.Secondary == nil {
			return ok, err
		}
	}
	if f.Secondary == nil {
		return false, ErrNoVerifier
	}
	return f.Secondary.Verify(ctx, token)
}
