// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting is the vote admission and tally engine.

# Components

	admission := voting.NewAdmission(ledger, dispatcher)
	tally := voting.NewTally(ledger)
	admin := voting.NewAdmin(ledger, cfg.AdminKey)

Admission.CastVote checks, in order: required fields and a known OS
(ErrInvalidRequest), the attestation token (ErrUnauthorized), then records
the vote in one ledger transaction. A device that already holds a vote gets
ErrConflict, even when voting for a different candidate.

Tally.Percentages reads all candidates and counts from one snapshot and
returns 100*votes/total per candidate in creation order. With no votes every
candidate reports 0.

Admin.DeleteCandidate checks the shared secret before touching the ledger,
then removes the candidate and its votes together. Those devices may vote
again. Admin.CreateCandidate provisions a candidate ahead of any vote.

# Errors

Every error wraps one of ErrInvalidRequest, ErrUnauthorized, ErrConflict,
ErrNotFound, or ErrStoreUnavailable. Kind(err) gives the stable string sent
to clients.
*/
package voting
