// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events carries ledger mutation events and settings notifications.

# Topics

	votes.cast.<category_id>  one message per committed vote (models.MutationEvent)
	settings.changed          an administrator wrote a setting (SettingsChanged)

# Implementations

LocalBus is an in-process bus used when NATS_URL is empty. NATSBus
connects to NATS so that several server instances share commits and
settings changes. Both JSON-encode payloads and never block the
publisher; a subscriber whose buffer is full misses messages, which the
realtime broadcaster covers with periodic resyncs.
*/
package events
