// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/attested-vote/auth"
	"github.com/danielhkuo/attested-vote/cliparse"
	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/models"
	"github.com/danielhkuo/attested-vote/voting"
)

type VotingHandler struct {
	admission *voting.Admission
	cfg       cliparse.Config
}

func NewVotingHandler(admission *voting.Admission, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{admission: admission, cfg: cfg}
}

// CastVote handles POST /vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, voting.KindInvalidRequest, "Invalid JSON")
		return
	}

	vote, err := h.admission.CastVote(r.Context(), req.DeviceID, req.CandidateName, req.OS, req.Token)
	if err != nil {
		if voting.Kind(err) == voting.KindUnauthorized {
			// Repeated rejections from one address are worth spotting
			slog.Warn("vote rejected",
				"request_id", middleware.RequestID(r.Context()),
				"os", req.OS,
				"ip_hash", auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt),
			)
		}
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteResponse{
		Candidate: vote.Candidate,
		Message:   "Vote recorded",
		Vote:      vote,
	})
}
