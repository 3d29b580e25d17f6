// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/attested-vote/middleware"
	"github.com/danielhkuo/attested-vote/voting"
)

// statusForKind maps error kinds to HTTP status codes
var statusForKind = map[string]int{
	voting.KindInvalidRequest:   http.StatusBadRequest,
	voting.KindUnauthorized:     http.StatusUnauthorized,
	voting.KindConflict:         http.StatusConflict,
	voting.KindNotFound:         http.StatusNotFound,
	voting.KindStoreUnavailable: http.StatusServiceUnavailable,
}

// writeError translates a voting error into a JSON error response. Store
// failures are logged and reported without driver detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := voting.Kind(err)
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message = "Database error"
	}

	middleware.ErrorResponse(w, status, kind, message)
}
