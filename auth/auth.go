// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrMissingAdminKey = errors.New("admin key required")
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

// ValidateAdminKey checks the provided key against the configured secret.
// Both sides are hashed first so the comparison time does not depend on
// either length.
func ValidateAdminKey(provided, secret string) error {
	if provided == "" {
		return ErrMissingAdminKey
	}
	if secret == "" {
		return ErrInvalidAdminKey
	}
	p := sha256.Sum256([]byte(provided))
	s := sha256.Sum256([]byte(secret))
	if !hmac.Equal(p[:], s[:]) {
		return ErrInvalidAdminKey
	}
	return nil
}

// DeriveSalt derives an independent salt from a secret, so one configured
// secret can key unrelated hashes without exposing it.
func DeriveSalt(secret, purpose string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(purpose))
	return hex.EncodeToString(h.Sum(nil))
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for correlation in logs
	return hex.EncodeToString(sum[:8])
}
