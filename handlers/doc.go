// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the attested voting API.

# Handler Types

Handlers are thin: they decode the request, call a voting component and
translate its result. None of them touches the database directly.

  - VotingHandler: Vote admission (POST /vote)
  - ResultsHandler: Live percentages (GET /percentage)
  - CandidateHandler: Admin create and delete (POST, DELETE /candidate)
  - DeviceHandler: Per-device vote status

	admission := voting.NewAdmission(ledger, dispatcher)
	votingHandler := handlers.NewVotingHandler(admission, cfg)

# Errors

Failures are reported as

	{"error": "Conflict", "kind": "conflict", "message": "..."}

with the status taken from the kind:

	invalid_request   → 400
	unauthorized      → 401
	not_found         → 404
	conflict          → 409
	store_unavailable → 503

Store failures are logged with the request ID; clients only see
"Database error".

# Admin Operations

Candidate management requires the X-Admin-Key header. The key is checked
before the body is read, so a wrong key is always a 401 and never changes
the ledger.
*/
package handlers
