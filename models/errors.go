// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "errors"

var (
	// ErrValidation covers unknown categories and nominees, and nominees
	// that belong to a different category. Nothing is persisted.
	ErrValidation = errors.New("validation failed")

	ErrAuthRequired            = errors.New("authentication required")
	ErrAnonymousVotingDisabled = errors.New("anonymous voting is disabled")

	// ErrStorageConflict means the atomic insert lost a race. It never
	// reaches callers; the ledger reports it as an already-voted outcome.
	ErrStorageConflict = errors.New("storage conflict")

	// ErrUnavailable means storage could not be reached in time. The vote
	// was not committed by this call.
	ErrUnavailable = errors.New("storage unavailable")

	ErrInvalidConfig = errors.New("invalid configuration")
)
