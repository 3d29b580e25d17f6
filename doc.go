// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the attested voting API server.

Devices cast one vote each for a named candidate. Every vote carries a
platform attestation token (Play Integrity on Android, DeviceCheck on iOS)
which must verify before anything is written. A live percentage tally is
public; candidate management is guarded by a shared admin key.

# Starting the Server

	ADMIN_KEY=... go run .

Or with flags:

	go run . -p 3000 -t postgres -d "postgres://..." --admin-key ...

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - ADMIN_KEY (--admin-key): Shared secret for candidate management

Optional settings:

  - PORT (-p): Server port (default: 3000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string or SQLite path (default: voting.db)
  - ATTEST_TIMEOUT: Bound on a single attestation check (default: 5s)
  - ATTEST_DEV_TOKENS: Accept mock_android_token / mock_ios_token
  - PLAY_PACKAGE_NAME, GOOGLE_APPLICATION_CREDENTIALS: Android attestation
  - APPLE_KEY_ID, APPLE_TEAM_ID, APPLE_P8_FILE_CONTENT: iOS attestation

# Architecture

  - handlers: HTTP request handlers (vote, percentage, candidate, devices)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, request-ID logging, JSON helpers
  - voting: Admission, tally and admin components with the error taxonomy
  - attest: Per-OS attestation verifiers and the dispatcher
  - db: Dialect-aware open, migrations and the transactional ledger
  - auth: Admin key comparison and IP hashing
  - models: Request/response and domain types
  - cliparse: Configuration parsing

SIGINT or SIGTERM drains in-flight requests before exit.
*/
package main
