// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/models"
	"github.com/danielhkuo/attested-vote/voting"
)

type DeviceHandler struct {
	admission *voting.Admission
}

func NewDeviceHandler(admission *voting.Admission) *DeviceHandler {
	return &DeviceHandler{admission: admission}
}

// VoteStatus handles GET /devices/{device_id}/vote-status
// Lets a client hide the ballot once its device has voted
func (h *DeviceHandler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")

	voted, err := h.admission.HasVoted(r.Context(), deviceID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteStatusResponse{
		DeviceID: deviceID,
		HasVoted: voted,
	})
}
