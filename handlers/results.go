// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/voting"
)

type ResultsHandler struct {
	tally *voting.Tally
}

func NewResultsHandler(tally *voting.Tally) *ResultsHandler {
	return &ResultsHandler{tally: tally}
}

// GetPercentages handles GET /percentage
// Every existing candidate is listed in creation order, zero-vote ones included
func (h *ResultsHandler) GetPercentages(w http.ResponseWriter, r *http.Request) {
	results, err := h.tally.Percentages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
