// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// IdentityResolver turns a request into a voting identity
type IdentityResolver interface {
	Resolve(r *http.Request) (models.Identity, error)
}

// VoteLedger records and looks up votes
type VoteLedger interface {
	CastVote(ctx context.Context, identity models.Identity, categoryID, nomineeID string) (models.CastResult, error)
	VoteFor(ctx context.Context, identity models.Identity, categoryID string) (*models.Vote, error)
}

type VotingHandler struct {
	identities IdentityResolver
	votes      VoteLedger
}

func NewVotingHandler(identities IdentityResolver, votes VoteLedger) *VotingHandler {
	return &VotingHandler{identities: identities, votes: votes}
}

// CastVote handles POST /categories/{id}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	if categoryID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "category id is required")
		return
	}

	identity, err := h.identities.Resolve(r)
	if err != nil {
		writeError(w, err, "resolve identity")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.NomineeID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "nominee_id is required")
		return
	}

	result, err := h.votes.CastVote(r.Context(), identity, categoryID, req.NomineeID)
	if err != nil {
		writeError(w, err, "cast vote")
		return
	}

	resp := models.CastVoteResponse{Status: result.Outcome}
	if result.Vote != nil {
		resp.VoteID = result.Vote.ID
		resp.NomineeID = result.Vote.NomineeID
	}

	status := http.StatusCreated
	if result.Outcome == models.OutcomeAlreadyVoted {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, resp)
}

// MyVote handles GET /categories/{id}/my-vote
func (h *VotingHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")

	identity, err := h.identities.Resolve(r)
	if err != nil {
		writeError(w, err, "resolve identity")
		return
	}

	vote, err := h.votes.VoteFor(r.Context(), identity, categoryID)
	if err != nil {
		writeError(w, err, "get vote")
		return
	}
	if vote == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "No vote in this category")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, vote)
}
