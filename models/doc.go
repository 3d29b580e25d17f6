// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - VoteRequest: device_id, candidate_name, os, token
  - CandidateRequest: name (admin create/delete)

# Response Types

  - VoteResponse: candidate, message, vote (never the device id)
  - PercentageResult: name, percent
  - CreateCandidateResponse: candidate, created
  - DeleteCandidateResponse: name, votes_removed
  - VoteStatusResponse: device_id, has_voted
  - ErrorResponse: error, kind, message

# Domain Types

  - Candidate: id, name, created_at
  - Vote: one row per device, linked to a candidate
  - CandidateCount: a row of a tally snapshot

# Constants

Device OS values:

	OSAndroid = "android"
	OSIOS     = "ios"
*/
package models
