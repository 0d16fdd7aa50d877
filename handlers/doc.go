// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Vote API.

# Handler Types

Each handler is a struct built from the interfaces it needs:

  - VotingHandler: vote casting and the caller's own vote
  - ResultsHandler: tallies, winners and the category listing
  - StreamHandler: live tallies over WebSocket
  - AdminHandler: feature flag, access window, settings and stats
  - SessionHandler: resolved identity and curtain status

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(resolver, ledger)

# Casting Votes

	POST /categories/{id}/votes  {"nominee_id": "..."}

	201  {"status": "committed", "vote_id": "...", "nominee_id": "..."}
	200  {"status": "already_voted", ...}   the existing vote is returned
	400  unknown nominee or nominee from another category
	401  invalid session token or missing device fingerprint
	403  anonymous voting is disabled
	503  storage unavailable; the vote was not recorded

Callers authenticate with "Authorization: Bearer <token>". When anonymous
voting is enabled, clients without a session send X-Device-Fingerprint.

# Live Tallies

	GET /categories/{id}/tally/stream

Upgrades to a WebSocket and writes a JSON TallySnapshot after votes land
in the category. Client frames are ignored.

# Administration

Admin routes require the X-Admin-Key header:

	PUT /admin/flags/enable_anonymous_voting  {"value": true}
	PUT /admin/access-window                  {"start_date": "RFC 3339", "curtain_enabled": true}
	GET /admin/settings
	GET /admin/stats?days=30
*/
package handlers
