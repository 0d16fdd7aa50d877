// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/handlers"
	"github.com/danielhkuo/quickly-vote/middleware"
)

// Deps are the components the HTTP surface is built from
type Deps struct {
	Config      cliparse.Config
	Identities  handlers.IdentityResolver
	Ledger      handlers.VoteLedger
	Tallies     handlers.TallyReader
	Catalog     catalog.Reader
	Broadcaster handlers.TallySubscriber
	Settings    handlers.SettingsStore
	Gate        *gate.Gate
}

// NewRouter registers every route behind the access gate
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	votingHandler := handlers.NewVotingHandler(d.Identities, d.Ledger)
	resultsHandler := handlers.NewResultsHandler(d.Tallies, d.Catalog)
	streamHandler := handlers.NewStreamHandler(d.Broadcaster, d.Catalog, d.Config.WSOrigins)
	adminHandler := handlers.NewAdminHandler(d.Settings, d.Tallies)
	sessionHandler := handlers.NewSessionHandler(d.Identities, d.Gate)

	limiter := middleware.NewRateLimiter(d.Config.VoteRate, d.Config.VoteBurst)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(d.Config.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voting
	mux.HandleFunc("POST /categories/{id}/votes", middleware.WithLogging(limiter.Wrap(votingHandler.CastVote)))
	mux.HandleFunc("GET /categories/{id}/my-vote", middleware.WithLogging(votingHandler.MyVote))

	// Results
	mux.HandleFunc("GET /categories", middleware.WithLogging(resultsHandler.ListCategories))
	mux.HandleFunc("GET /categories/{id}/tally", middleware.WithLogging(resultsHandler.GetTally))
	mux.HandleFunc("GET /categories/{id}/winner", middleware.WithLogging(resultsHandler.GetWinner))
	mux.HandleFunc("GET /categories/{id}/tally/stream", middleware.WithLogging(streamHandler.StreamTally))

	// Session and curtain status
	mux.HandleFunc("GET /auth/session", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("GET /gate", middleware.WithLogging(sessionHandler.GetGate))

	// Administration
	mux.HandleFunc("PUT /admin/flags/{key}", admin(adminHandler.SetFlag))
	mux.HandleFunc("PUT /admin/access-window", admin(adminHandler.SetAccessWindow))
	mux.HandleFunc("GET /admin/settings", admin(adminHandler.GetSettings))
	mux.HandleFunc("GET /admin/stats", admin(adminHandler.GetStats))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-vote API v1"))
	})

	return d.Gate.Middleware(mux)
}
