// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/models"
)

type staticFlags bool

func (f staticFlags) AnonymousVoting() bool { return bool(f) }

func newTestResolver(anon bool) *Resolver {
	return NewResolver(auth.NewSessionVerifier("secret", "quickly-vote"), staticFlags(anon), "salt")
}

func TestResolve(t *testing.T) {
	valid, _ := auth.IssueSession("secret", "quickly-vote", "user-7", time.Hour)
	forged, _ := auth.IssueSession("forged", "quickly-vote", "user-7", time.Hour)

	tests := []struct {
		name      string
		anon      bool
		headers   map[string]string
		wantKind  string
		wantValue string
		wantErr   error
	}{
		{
			name:      "valid session with anonymous voting off",
			headers:   map[string]string{"Authorization": "Bearer " + valid},
			wantKind:  models.IdentityAuthenticated,
			wantValue: "user-7",
		},
		{
			name:      "session wins over fingerprint",
			anon:      true,
			headers:   map[string]string{"Authorization": "Bearer " + valid, FingerprintHeader: "device-123456"},
			wantKind:  models.IdentityAuthenticated,
			wantValue: "user-7",
		},
		{
			name:    "invalid session never falls back",
			anon:    true,
			headers: map[string]string{"Authorization": "Bearer " + forged, FingerprintHeader: "device-123456"},
			wantErr: models.ErrAuthRequired,
		},
		{
			name:    "non-bearer authorization",
			anon:    true,
			headers: map[string]string{"Authorization": "Basic abc"},
			wantErr: models.ErrAuthRequired,
		},
		{
			name:    "no session and anonymous voting off",
			headers: map[string]string{FingerprintHeader: "device-123456"},
			wantErr: models.ErrAnonymousVotingDisabled,
		},
		{
			name:      "fingerprint with anonymous voting on",
			anon:      true,
			headers:   map[string]string{FingerprintHeader: "device-123456"},
			wantKind:  models.IdentityAnonymous,
			wantValue: auth.HashFingerprint("device-123456", "salt"),
		},
		{
			name:    "missing fingerprint",
			anon:    true,
			wantErr: models.ErrAuthRequired,
		},
		{
			name:    "malformed fingerprint",
			anon:    true,
			headers: map[string]string{FingerprintHeader: "short"},
			wantErr: models.ErrAuthRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/categories/c/votes", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			id, err := newTestResolver(tt.anon).Resolve(req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if id.Kind != tt.wantKind || id.Value != tt.wantValue {
				t.Errorf("Resolve() = %+v, want %s:%s", id, tt.wantKind, tt.wantValue)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	r := newTestResolver(true)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(FingerprintHeader, "stable-device-fp")

	first, err := r.Resolve(req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(req)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("Resolve() not stable: %v vs %v", first, second)
	}
	if first.Value == "stable-device-fp" {
		t.Error("raw fingerprint must not be used as the identity value")
	}
}
