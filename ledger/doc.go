// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the append-only store of cast votes and the single
source of truth for dedup and tallies.

# Casting

	res, err := l.CastVote(ctx, identity, categoryID, nomineeID)

Outcomes:

  - models.OutcomeCommitted: the row was inserted; a MutationEvent is
    published on votes.cast.<category_id> after the commit
  - models.OutcomeAlreadyVoted: the identity already has a row in the
    category; the existing vote is returned when it can be read

Errors:

  - models.ErrValidation: unknown nominee, or nominee outside the category
  - models.ErrAuthRequired: empty or unknown identity kind
  - models.ErrUnavailable: storage failed or timed out; nothing was
    committed by this call and it is safe to retry

The insert uses ON CONFLICT DO NOTHING on the unique key, and a unique
violation from the driver is treated the same way, so concurrent casts
for one identity and category commit exactly once.

Voters have no update or delete path.
*/
package ledger
