// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package flags is the versioned configuration store for administrator
settings.

# Settings

	enable_anonymous_voting  bool, default false
	access_window            {start_date, curtain_enabled}, default curtain off

Each setting is one row in the setting table. Every write bumps the row
version in the same upsert statement, and in-memory values only move
forward in version.

# Notifications

Subscribe returns a channel of Change values. It holds a single pending
change and always keeps the newest, so a slow reader never blocks a write.

	changes, cancel := store.Subscribe()
	defer cancel()

When a Publisher is configured, writes are also announced on
settings.changed and other instances pick them up through Watch.
*/
package flags
