// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p                 Server port
	-d                 Database URL
	-t                 Database type (sqlite or postgres)
	-nats              NATS URL
	-session-secret    Session token secret
	-admin-key         Admin key
	-fingerprint-salt  Fingerprint hashing salt
	-env-file          .env file to load

# Environment Variables

Flags fall back to environment variables. A .env file in the working
directory is loaded first when present; it never overrides variables that
are already set.

	PORT             → -p (default 3318)
	DATABASE_URL     → -d (required)
	DATABASE_TYPE    → -t (default sqlite)
	NATS_URL         → -nats (optional, empty = in-process events)
	SESSION_SECRET   → -session-secret (required)
	ADMIN_KEY        → -admin-key (required)
	FINGERPRINT_SALT → -fingerprint-salt (required)

Environment-only tuning:

	STORE_TIMEOUT    storage call timeout (default 5s)
	GATE_MAX_WAIT    longest single access gate sleep (default 1h)
	RESYNC_INTERVAL  live tally resync period (default 5s)
	VOTE_RATE        votes per second per client IP (default 5)
	VOTE_BURST       vote burst per client IP (default 10)

CLI flags take precedence over environment variables.
*/
package cliparse
