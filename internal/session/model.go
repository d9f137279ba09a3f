package session

import (
	"time"

	"github.com/tasteboard/tasteboard/internal/oidc"
)

// Session represents one browser session. A freshly created record only
// carries login-in-progress data (nonce, state, PKCE verifier); Identity is
// populated in a single atomic replace once the callback verified the ID
// token, and the login-in-progress fields are cleared in the same write so a
// nonce is never valid for more than one authorization attempt.
type Session struct {
	ID           string         // Opaque, unguessable session ID
	Nonce        string         // Single-use value bound to one login attempt
	State        string         // CSRF state for the redirect round-trip
	PKCEVerifier string         // PKCE verifier matching the issued challenge
	Fingerprint  string         // Binds the login attempt to a specific client
	Identity     *oidc.Identity // Verified claims, nil until authenticated
	Expiry       time.Time      // Expiry time of the record
}

// Authenticated reports whether the record carries verified identity claims.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// Expired reports whether the record passed its expiry.
func (s Session) Expired() bool {
	return time.Now().After(s.Expiry)
}
