// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Vote API.

# Route Registration

NewRouter builds the handlers from Deps and returns the mux wrapped in the
access gate:

	handler := router.NewRouter(router.Deps{...})

# Endpoints

Health:

	GET /health

Voting (rate limited per client IP):

	POST /categories/{id}/votes   - Cast a vote
	GET  /categories/{id}/my-vote - The caller's vote

Results:

	GET /categories                    - Categories with nominees
	GET /categories/{id}/tally         - Counts and percentages
	GET /categories/{id}/winner        - Current leader
	GET /categories/{id}/tally/stream  - Live tally (WebSocket)

Session and curtain:

	GET /auth/session - Identity a vote would be recorded under
	GET /gate         - Curtain state and countdown

Administration (requires X-Admin-Key):

	PUT /admin/flags/{key}     - Set enable_anonymous_voting
	PUT /admin/access-window   - Set start date and curtain
	GET /admin/settings        - Current settings with versions
	GET /admin/stats?days=N    - Ledger summary

While the curtain is down every route except /health, /gate, /auth/ and
/admin/ answers 503.
*/
package router
