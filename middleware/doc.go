// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("POST /vote", middleware.WithLogging(handler))

Every request gets a correlation ID. A client-supplied X-Request-ID is
reused, otherwise a UUID is generated. The ID is echoed in the response
header, available to handlers through RequestID(ctx), and attached to the
start and completion log lines along with status and duration_ms.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST, DELETE, OPTIONS with headers Content-Type, X-Admin-Key,
X-Request-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusConflict, "conflict", "device has already voted")

ParseJSONBody decodes at most 64 KiB of request body.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Only ever logged as a salted hash.
*/
package middleware
