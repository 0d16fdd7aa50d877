// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status, client IP and duration_ms on completion. The
wrapped writer still supports hijacking for WebSocket upgrades.

# Admin Routes

	mux.HandleFunc("PUT /admin/access-window",
		middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h.SetAccessWindow)))

The X-Admin-Key header is compared in constant time.

# Rate Limiting

	limiter := middleware.NewRateLimiter(cfg.VoteRate, cfg.VoteBurst)
	mux.HandleFunc("POST /categories/{id}/votes", middleware.WithLogging(limiter.Wrap(h.CastVote)))

One token bucket per client IP; over-limit requests get 429 with a
Retry-After header.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody rejects unknown fields.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Prefers the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
*/
package middleware
