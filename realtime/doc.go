// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes live tally snapshots to subscribers.

The ledger announces each committed vote on the event bus. Run turns those
events into dirty categories and a single worker recomputes them, so a
burst of votes in one category costs one recompute and one push.

# Delivery

Each subscription buffers one snapshot. A newer snapshot replaces an
unread one, and a snapshot that would lower any nominee's count below what
the subscriber was already sent is dropped.

	sub, err := b.Subscribe(categoryID)
	if err != nil {
		return err
	}
	defer sub.Close()
	for snap := range sub.C {
		...
	}

Subscribed categories are also recomputed every resync interval, so a
lost bus message delays a push but never loses it.
*/
package realtime
