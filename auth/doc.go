// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin key validation and privacy helpers.

# Admin Key

The admin key is a single shared secret loaded once at startup
(ADMIN_KEY / --admin-key) and sent by clients in the X-Admin-Key header:

	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey); err != nil {
		// 401
	}

Both values are hashed with SHA-256 and compared with hmac.Equal, so the
comparison is constant time regardless of key length.

# IP Hashing

Vote admissions are logged with a salted hash of the client IP instead of
the raw address:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
