// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Identity kinds
const (
	IdentityAuthenticated = "authenticated"
	IdentityAnonymous     = "anonymous"
)

// Cast outcomes
const (
	OutcomeCommitted    = "committed"
	OutcomeAlreadyVoted = "already_voted"
)

// Setting keys
const (
	FlagAnonymousVoting = "enable_anonymous_voting"
	SettingAccessWindow = "access_window"
)

// Request types

type CastVoteRequest struct {
	NomineeID string `json:"nominee_id"`
}

type SetFlagRequest struct {
	Value *bool `json:"value"`
}

// StartDate is RFC 3339; null or empty clears it.
type SetAccessWindowRequest struct {
	StartDate      *string `json:"start_date"`
	CurtainEnabled *bool   `json:"curtain_enabled"`
}

// Response types

type CastVoteResponse struct {
	Status    string `json:"status"`
	VoteID    string `json:"vote_id,omitempty"`
	NomineeID string `json:"nominee_id,omitempty"`
}

type SessionResponse struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type GateStatusResponse struct {
	State          string     `json:"state"`
	OpensAt        *time.Time `json:"opens_at,omitempty"`
	OpensIn        string     `json:"opens_in,omitempty"`
	CurtainEnabled bool       `json:"curtain_enabled"`
	Version        int64      `json:"version"`
}

type SettingsResponse struct {
	AnonymousVoting FeatureFlag  `json:"enable_anonymous_voting"`
	AccessWindow    AccessWindow `json:"access_window"`
}

// Domain types

// Identity is the resolved voting principal. Anonymous values are hashed
// device fingerprints and only weakly trustworthy.
type Identity struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func Authenticated(userID string) Identity {
	return Identity{Kind: IdentityAuthenticated, Value: userID}
}

func Anonymous(fingerprintHash string) Identity {
	return Identity{Kind: IdentityAnonymous, Value: fingerprintHash}
}

func (i Identity) IsAnonymous() bool {
	return i.Kind == IdentityAnonymous
}

func (i Identity) String() string {
	return i.Kind + ":" + i.Value
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Nominee struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type CategoryWithNominees struct {
	Category Category  `json:"category"`
	Nominees []Nominee `json:"nominees"`
}

type Vote struct {
	ID         string    `json:"id"`
	Identity   Identity  `json:"-"` // Never expose in JSON
	CategoryID string    `json:"category_id"`
	NomineeID  string    `json:"nominee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CastResult is the non-error outcome of a cast. Vote is the committed row,
// or the existing row when it could be read back after AlreadyVoted.
type CastResult struct {
	Outcome string
	Vote    *Vote
}

// MutationEvent is emitted after every committed vote.
type MutationEvent struct {
	CategoryID string    `json:"category_id"`
	NomineeID  string    `json:"nominee_id"`
	VoteID     string    `json:"vote_id"`
	At         time.Time `json:"at"`
}

type FeatureFlag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AccessWindow struct {
	StartDate      *time.Time `json:"start_date"`
	CurtainEnabled bool       `json:"curtain_enabled"`
	Version        int64      `json:"version"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Tally types

type NomineeTally struct {
	NomineeID  string `json:"nominee_id"`
	Name       string `json:"name"`
	VoteCount  int64  `json:"vote_count"`
	Percentage int    `json:"percentage"`
}

// TallySnapshot is derived from vote rows and never persisted.
type TallySnapshot struct {
	CategoryID string         `json:"category_id"`
	Nominees   []NomineeTally `json:"nominees"`
	TotalVotes int64          `json:"total_votes"`
	ComputedAt time.Time      `json:"computed_at"`
}

// Count returns the vote count for a nominee, or 0 when absent.
func (s TallySnapshot) Count(nomineeID string) int64 {
	for _, n := range s.Nominees {
		if n.NomineeID == nomineeID {
			return n.VoteCount
		}
	}
	return 0
}

type Winner struct {
	CategoryID string    `json:"category_id"`
	NomineeID  string    `json:"nominee_id"`
	Name       string    `json:"name"`
	VoteCount  int64     `json:"vote_count"`
	ReachedAt  time.Time `json:"reached_at"`
}

type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int64  `json:"count"`
}

type CategoryTotal struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Total      int64  `json:"total"`
}

type Stats struct {
	TotalVotes       int64           `json:"total_votes"`
	UniqueVoters     int64           `json:"unique_voters"`
	AvgVotesPerVoter float64         `json:"avg_votes_per_voter"`
	Daily            []DayCount      `json:"daily"`
	Categories       []CategoryTotal `json:"categories"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
