// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// GateStatus reports the access curtain
type GateStatus interface {
	Status() models.GateStatusResponse
}

type SessionHandler struct {
	identities IdentityResolver
	gate       GateStatus
}

func NewSessionHandler(identities IdentityResolver, gate GateStatus) *SessionHandler {
	return &SessionHandler{identities: identities, gate: gate}
}

// GetSession handles GET /auth/session
// Reports which identity a vote from this client would be recorded under
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identities.Resolve(r)
	if err != nil {
		writeError(w, err, "resolve identity")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{
		Kind:  identity.Kind,
		Value: identity.Value,
	})
}

// GetGate handles GET /gate
func (h *SessionHandler) GetGate(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.gate.Status())
}
