// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and applies schema migrations.

# Opening

Open connects, pings and migrates in one call:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

Two dialects are supported: "postgres" (lib/pq) and "sqlite"
(modernc.org/sqlite). SQLite connections get foreign keys and a busy
timeout, and the pool is limited to one connection.

# Migrations

Migrations are embedded per dialect under migrations/ and applied with
golang-migrate. Migrate is safe to call multiple times.

# Tables

  - category, nominee: read-only catalog owned by an external CRUD service
  - vote: append-only ledger, UNIQUE (identity_kind, identity_value, category_id)
  - setting: versioned administrator settings

# Constraint Errors

IsUniqueViolation and IsForeignKeyViolation classify driver errors from
either dialect.
*/
package db
