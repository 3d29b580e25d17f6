// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/attested-vote/cliparse"
	"github.com/danielhkuo/attested-vote/handlers"
	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/voting"
)

func NewRouter(ledger voting.Ledger, attestor voting.Attestor, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Voting components
	admission := voting.NewAdmission(ledger, attestor)
	tally := voting.NewTally(ledger)
	admin := voting.NewAdmin(ledger, cfg.AdminKey)

	// Initialize handlers
	votingHandler := handlers.NewVotingHandler(admission, cfg)
	resultsHandler := handlers.NewResultsHandler(tally)
	candidateHandler := handlers.NewCandidateHandler(admin)
	deviceHandler := handlers.NewDeviceHandler(admission)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting (public, attestation token in body)
	mux.HandleFunc("POST /vote", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /devices/{device_id}/vote-status", middleware.WithLogging(deviceHandler.VoteStatus))

	// Results (public)
	mux.HandleFunc("GET /percentage", middleware.WithLogging(resultsHandler.GetPercentages))

	// Candidate management (admin, requires X-Admin-Key)
	mux.HandleFunc("POST /candidate", middleware.WithLogging(candidateHandler.CreateCandidate))
	mux.HandleFunc("DELETE /candidate", middleware.WithLogging(candidateHandler.DeleteCandidate))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("attested-vote API v1"))
	})

	return mux
}
