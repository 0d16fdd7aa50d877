// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies session tokens and hashes weak client identifiers.

# Sessions

Session tokens are HS256 JWTs issued by the authentication service. The
subject claim is the user id; an expiry is required:

	v := auth.NewSessionVerifier(cfg.SessionSecret, "quickly-vote")
	userID, err := v.Verify(auth.BearerToken(r.Header.Get("Authorization")))

Any parse or claim failure is reported as ErrInvalidToken.

# Fingerprints

Anonymous voters send a client-generated device fingerprint. It is stored
only as an HMAC:

	hash := auth.HashFingerprint(fp, cfg.FingerprintSalt)

A fingerprint is a weak identity: dedup for anonymous voters is only as
strong as the client's own storage.

# Admin Key

Administrative routes compare X-Admin-Key with the configured key using
ValidateAdminKey (constant time).
*/
package auth
