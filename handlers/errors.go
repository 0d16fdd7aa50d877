// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// writeError maps domain errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidConfig):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrAuthRequired):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Sign in or provide a device fingerprint to vote")
	case errors.Is(err, models.ErrAnonymousVotingDisabled):
		middleware.ErrorResponse(w, http.StatusForbidden, "Anonymous voting is disabled")
	case errors.Is(err, models.ErrUnavailable):
		slog.Error("storage unavailable", "action", action, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Service unavailable, your request was not applied")
	default:
		slog.Error("request failed", "action", action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
