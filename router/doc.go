// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the attested voting API.

# Route Registration

NewRouter builds the voting components from a ledger and an attestor and
returns a configured http.ServeMux:

	mux := router.NewRouter(ledger, dispatcher, cfg)

# Endpoints

	GET    /health                          - Liveness
	GET    /                                - Banner
	POST   /vote                            - Cast an attested vote
	GET    /percentage                      - Live percentage tally
	GET    /devices/{device_id}/vote-status - Whether a device holds a vote
	POST   /candidate                       - Provision a candidate (X-Admin-Key)
	DELETE /candidate                       - Delete a candidate and its votes (X-Admin-Key)

Every route except /health and / is wrapped with middleware.WithLogging.
*/
package router
