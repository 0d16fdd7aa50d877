// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Vote API server.

Quickly Vote records one vote per voter per category and serves live
results. Voters are either signed in (a session token from the
authentication service) or, when an administrator allows it, anonymous
devices identified by a client fingerprint.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:vote.db SESSION_SECRET=... ADMIN_KEY=... FINGERPRINT_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -nats nats://localhost:4222

A .env file in the working directory is loaded when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite DSN or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): HS256 key for session tokens
  - ADMIN_KEY (--admin-key): Key expected in X-Admin-Key
  - FINGERPRINT_SALT (--fingerprint-salt): HMAC key for device fingerprints

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - NATS_URL (-nats): Share vote and settings events between instances
  - STORE_TIMEOUT: Bound on every storage call (default: 5s)
  - GATE_MAX_WAIT: Longest single curtain timer (default: 1h)
  - RESYNC_INTERVAL: Live tally resync period (default: 5s)
  - VOTE_RATE, VOTE_BURST: Per-IP vote rate limit (default: 5/s, burst 10)
  - WS_ALLOWED_ORIGINS: Comma-separated WebSocket origin patterns

# Architecture

  - identity: Session and fingerprint resolution
  - ledger: Append-only, deduplicated vote store
  - tally: Counts, percentages, winners and stats
  - realtime: Live tally fan-out
  - flags: Versioned settings with change notifications
  - gate: Pre-launch access curtain
  - events: In-process and NATS event buses
  - catalog: Read-only categories and nominees
  - handlers, router, middleware: HTTP surface
  - db: Connections, migrations, constraint errors
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
