// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// TallyReader derives results from the ledger
type TallyReader interface {
	GetTally(ctx context.Context, categoryID string) (models.TallySnapshot, error)
	Winner(ctx context.Context, categoryID string) (*models.Winner, error)
	Stats(ctx context.Context, days int) (models.Stats, error)
}

// CategoryLister lists the catalog with nominees
type CategoryLister interface {
	Categories(ctx context.Context) ([]models.CategoryWithNominees, error)
}

type ResultsHandler struct {
	tallies TallyReader
	catalog CategoryLister
}

func NewResultsHandler(tallies TallyReader, catalog CategoryLister) *ResultsHandler {
	return &ResultsHandler{tallies: tallies, catalog: catalog}
}

// GetTally handles GET /categories/{id}/tally
func (h *ResultsHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tallies.GetTally(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get tally")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, snap)
}

// GetWinner handles GET /categories/{id}/winner
// Returns 204 when the category has no votes yet
func (h *ResultsHandler) GetWinner(w http.ResponseWriter, r *http.Request) {
	winner, err := h.tallies.Winner(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get winner")
		return
	}
	if winner == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, winner)
}

// ListCategories handles GET /categories
func (h *ResultsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", models.ErrUnavailable, err), "list categories")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, categories)
}
