// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"net/http"
	"regexp"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/models"
)

// FingerprintHeader carries the client-generated device fingerprint
const FingerprintHeader = "X-Device-Fingerprint"

var fingerprintPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{8,128}$`)

// SessionVerifier returns the user id for a session token.
type SessionVerifier interface {
	Verify(token string) (string, error)
}

// FlagReader exposes the anonymous voting switch.
type FlagReader interface {
	AnonymousVoting() bool
}

// Resolver turns a request into a voting identity. It has no side effects.
type Resolver struct {
	sessions SessionVerifier
	flags    FlagReader
	salt     string
}

func NewResolver(sessions SessionVerifier, flags FlagReader, fingerprintSalt string) *Resolver {
	return &Resolver{sessions: sessions, flags: flags, salt: fingerprintSalt}
}

// Resolve returns an authenticated identity for a valid session token.
// Without a token it falls back to the device fingerprint when anonymous
// voting is enabled.
//
// A token that is present but invalid is ErrAuthRequired; it never
// downgrades to an anonymous identity.
func (r *Resolver) Resolve(req *http.Request) (models.Identity, error) {
	if header := req.Header.Get("Authorization"); header != "" {
		token := auth.BearerToken(header)
		if token == "" {
			return models.Identity{}, models.ErrAuthRequired
		}
		userID, err := r.sessions.Verify(token)
		if err != nil {
			return models.Identity{}, models.ErrAuthRequired
		}
		return models.Authenticated(userID), nil
	}

	if !r.flags.AnonymousVoting() {
		return models.Identity{}, models.ErrAnonymousVotingDisabled
	}

	fp := req.Header.Get(FingerprintHeader)
	if !fingerprintPattern.MatchString(fp) {
		return models.Identity{}, models.ErrAuthRequired
	}
	return models.Anonymous(auth.HashFingerprint(fp, r.salt)), nil
}
