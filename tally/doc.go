// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally derives read-side views from the vote ledger.

Every view is recomputed from ledger rows on request; nothing here is
cached or incrementally maintained, so a tally can never drift from the
ledger it was read from.

# Percentages

	pct = round(votes * 100 / total)   half-up, 0 when total is 0

Percentages are rounded per nominee and may sum to 99 or 101.

# Winner

The winner has the highest count. Ties go to the nominee whose last
counted vote came first, then to the lowest nominee id.
*/
package tally
