// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CastVoteRequest: nominee_id
  - SetFlagRequest: value
  - SetAccessWindowRequest: start_date, curtain_enabled

# Response Types

  - CastVoteResponse: status, vote_id, nominee_id
  - GateStatusResponse: state, start_date, opens_in
  - SettingsResponse: flag and access window with versions
  - ErrorResponse: error, message

# Domain Types

  - Identity: authenticated user id or hashed anonymous fingerprint
  - Category, Nominee: read-only catalog rows
  - Vote: one ledger row, unique per identity and category
  - MutationEvent: emitted after every committed vote
  - FeatureFlag, AccessWindow: versioned administrator settings
  - TallySnapshot, Winner, Stats: derived from vote rows, never stored

# Errors

Sentinel errors are matched with errors.Is:

	ErrValidation
	ErrAuthRequired
	ErrAnonymousVotingDisabled
	ErrStorageConflict
	ErrUnavailable
	ErrInvalidConfig
*/
package models
