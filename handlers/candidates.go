// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/models"
	"github.com/danielhkuo/attested-vote/voting"
)

// AdminKeyHeader carries the shared admin secret
const AdminKeyHeader = "X-Admin-Key"

type CandidateHandler struct {
	admin *voting.Admin
}

func NewCandidateHandler(admin *voting.Admin) *CandidateHandler {
	return &CandidateHandler{admin: admin}
}

// parseCandidate checks the admin key before looking at the body, so a bad
// key is always a 401 whatever the payload
func (h *CandidateHandler) parseCandidate(w http.ResponseWriter, r *http.Request) (key, name string, ok bool) {
	key = r.Header.Get(AdminKeyHeader)
	if err := h.admin.Authorize(key); err != nil {
		writeError(w, r, err)
		return "", "", false
	}

	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, voting.KindInvalidRequest, "Invalid JSON")
		return "", "", false
	}
	return key, req.Name, true
}

// DeleteCandidate handles DELETE /candidate
// Removes the candidate and every vote cast for it
func (h *CandidateHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	key, name, ok := h.parseCandidate(w, r)
	if !ok {
		return
	}

	removed, err := h.admin.DeleteCandidate(r.Context(), key, name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeleteCandidateResponse{
		Name:         name,
		VotesRemoved: removed,
	})
}

// CreateCandidate handles POST /candidate
// Returns 201 when the candidate is new, 200 when it already existed
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	key, name, ok := h.parseCandidate(w, r)
	if !ok {
		return
	}

	candidate, created, err := h.admin.CreateCandidate(r.Context(), key, name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, models.CreateCandidateResponse{
		Candidate: candidate,
		Created:   created,
	})
}
