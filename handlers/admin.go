// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

const defaultStatsDays = 30

// SettingsStore is the administrator-facing side of the flag store
type SettingsStore interface {
	Flag() models.FeatureFlag
	Window() models.AccessWindow
	SetAnonymousVoting(ctx context.Context, value bool) (models.FeatureFlag, error)
	SetAccessWindow(ctx context.Context, start *time.Time, curtainEnabled bool) (models.AccessWindow, error)
}

// StatsReader computes the administrative summary
type StatsReader interface {
	Stats(ctx context.Context, days int) (models.Stats, error)
}

type AdminHandler struct {
	settings SettingsStore
	stats    StatsReader
}

func NewAdminHandler(settings SettingsStore, stats StatsReader) *AdminHandler {
	return &AdminHandler{settings: settings, stats: stats}
}

// SetFlag handles PUT /admin/flags/{key}
// Only enable_anonymous_voting exists today
func (h *AdminHandler) SetFlag(w http.ResponseWriter, r *http.Request) {
	if key := r.PathValue("key"); key != models.FlagAnonymousVoting {
		middleware.ErrorResponse(w, http.StatusNotFound, "Unknown flag")
		return
	}

	var req models.SetFlagRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Value == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "value is required")
		return
	}

	flag, err := h.settings.SetAnonymousVoting(r.Context(), *req.Value)
	if err != nil {
		writeError(w, err, "set flag")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, flag)
}

// SetAccessWindow handles PUT /admin/access-window
// Both fields are validated before anything is written
func (h *AdminHandler) SetAccessWindow(w http.ResponseWriter, r *http.Request) {
	var req models.SetAccessWindowRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CurtainEnabled == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "curtain_enabled is required")
		return
	}

	var start *time.Time
	if req.StartDate != nil && *req.StartDate != "" {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "start_date must be RFC 3339")
			return
		}
		start = &t
	}

	window, err := h.settings.SetAccessWindow(r.Context(), start, *req.CurtainEnabled)
	if err != nil {
		writeError(w, err, "set access window")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, window)
}

// GetSettings handles GET /admin/settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.SettingsResponse{
		AnonymousVoting: h.settings.Flag(),
		AccessWindow:    h.settings.Window(),
	})
}

// GetStats handles GET /admin/stats?days=N
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}

	stats, err := h.stats.Stats(r.Context(), days)
	if err != nil {
		writeError(w, err, "get stats")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}
