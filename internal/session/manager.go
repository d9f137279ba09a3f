package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/config"
	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/internal/randsrc"
	"github.com/tasteboard/tasteboard/internal/serviceerr"
)

var sessionTokenSigAlgs = []jose.SignatureAlgorithm{jose.HS256}

// Manager owns the session lifecycle: record creation at login initiation,
// the atomic nonce-to-identity transition on a verified callback, identity
// lookups for the authorization gate, and the signed cookie that carries the
// session ID to the browser.
type Manager struct {
	sessions Repository
	rand     randsrc.Source

	signingKey      []byte
	sessionDuration time.Duration
	cookieTemplate  config.CookieTemplate

	// Serializes load-modify-store sequences so a concurrent /login and
	// /authorize on the same session cannot interleave into a record with a
	// mismatched nonce/identity pairing.
	mu sync.Mutex
}

func NewManager(sessions Repository, signingKey []byte, sessionDuration time.Duration, cookieTemplate config.CookieTemplate) (*Manager, error) {
	if len(signingKey) < 32 {
		return nil, errors.New("session signing secret must be at least 32 bytes")
	}

	return &Manager{
		sessions:        sessions,
		signingKey:      signingKey,
		sessionDuration: sessionDuration,
		cookieTemplate:  cookieTemplate,
	}, nil
}

// Begin allocates a session record for one login attempt, with a fresh nonce
// and state and the verifier matching the PKCE challenge embedded in the
// authorization redirect. A previous record under the same ID is replaced
// wholesale, so an abandoned attempt never leaves a reusable nonce behind.
func (m *Manager) Begin(ctx context.Context, sessionID, fingerprint string, pkce randsrc.PKCE) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID == "" {
		sessionID = m.rand.SessionID()
	}

	s := Session{
		ID:           sessionID,
		Nonce:        m.rand.Nonce(),
		State:        m.rand.State(),
		PKCEVerifier: pkce.Verifier,
		Fingerprint:  fingerprint,
		Expiry:       time.Now().Add(m.sessionDuration),
	}

	if err := m.sessions.Store(ctx, s); err != nil {
		return Session{}, fmt.Errorf("storing session: %w", err)
	}

	return s, nil
}

// LoginState loads the record for a pending login. Absent or expired records
// surface as serviceerr errors, never as identity.
func (m *Manager) LoginState(ctx context.Context, sessionID string) (Session, error) {
	s, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}

	if s.Expired() {
		return Session{}, serviceerr.ErrSessionExpired
	}

	return s, nil
}

// Authenticate performs the NonceIssued -> Authenticated transition: it
// replaces the record with one that carries the verified claims and no
// login-in-progress data. It fails closed when no nonce is pending, which
// makes a double-submitted callback a no-op rather than a re-authentication.
func (m *Manager) Authenticate(ctx context.Context, sessionID string, identity oidc.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	if s.Nonce == "" {
		return serviceerr.ErrStateMismatch
	}

	s.Nonce = ""
	s.State = ""
	s.PKCEVerifier = ""
	s.Identity = &identity
	s.Expiry = time.Now().Add(m.sessionDuration)

	if err := m.sessions.Store(ctx, s); err != nil {
		return fmt.Errorf("storing authenticated session: %w", err)
	}

	return nil
}

// ClearLoginState drops the pending nonce after a failed callback. The record
// itself survives so the browser keeps its session ID for a fresh attempt.
func (m *Manager) ClearLoginState(ctx context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return
	}

	s.Nonce = ""
	s.State = ""
	s.PKCEVerifier = ""

	if err := m.sessions.Store(ctx, s); err != nil {
		slogctx.Warn(ctx, "Could not clear login state", "error", err)
	}
}

// Identity returns the verified claims for an authenticated session. Every
// failure mode (unknown ID, expired record, no identity yet) collapses to
// serviceerr.ErrNoSession so the gate leaks nothing about the cause.
func (m *Manager) Identity(ctx context.Context, sessionID string) (oidc.Identity, error) {
	s, err := m.sessions.Load(ctx, sessionID)
	if err != nil {
		return oidc.Identity{}, serviceerr.ErrNoSession
	}

	if s.Expired() || !s.Authenticated() {
		return oidc.Identity{}, serviceerr.ErrNoSession
	}

	return *s.Identity, nil
}

// Clear removes the record entirely. Logout must never fail, so an already
// absent record is fine.
func (m *Manager) Clear(ctx context.Context, sessionID string) {
	if err := m.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, serviceerr.ErrNotFound) {
		slogctx.Warn(ctx, "Could not delete session", "error", err)
	}
}

// CleanupExpiredSessions deletes records past their expiry. Backends with
// native TTLs expire keys on their own; this sweep covers the rest.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) error {
	sessions, err := m.sessions.List(ctx)
	if err != nil {
		return err
	}

	for _, s := range sessions {
		if !s.Expired() {
			continue
		}
		if err := m.sessions.Delete(ctx, s.ID); err != nil {
			slogctx.Warn(ctx, "Could not delete expired session", "error", err)
			continue
		}
		slogctx.Info(ctx, "Deleted expired session")
	}

	return nil
}

// MakeSessionCookie wraps a signed session token into the configured cookie.
func (m *Manager) MakeSessionCookie(ctx context.Context, sessionID string) (*http.Cookie, error) {
	token, err := m.signSessionID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	cookie := m.cookieTemplate.ToCookie(token)
	if err := cookie.Valid(); err != nil {
		return nil, fmt.Errorf("invalid session cookie: %w", err)
	}

	if !cookie.HttpOnly {
		slogctx.Warn(ctx, "Session cookie is not marked as HttpOnly; this is not recommended in production environments")
	}

	return cookie, nil
}

// ExpiredSessionCookie returns a cookie that instructs the browser to drop
// the session token.
func (m *Manager) ExpiredSessionCookie() *http.Cookie {
	cookie := m.cookieTemplate.ToCookie("")
	cookie.MaxAge = -1

	return cookie
}

// SessionIDFromRequest extracts and verifies the session token cookie. A
// missing, malformed, forged or expired token all report ok == false; a bad
// cookie grants nothing but also never produces a user-visible error.
func (m *Manager) SessionIDFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cookieTemplate.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return m.parseSessionToken(cookie.Value)
}

func (m *Manager) CookieName() string {
	return m.cookieTemplate.Name
}

func (m *Manager) signSessionID(sessionID string) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: m.signingKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}

	claims := jwt.Claims{
		Subject:  sessionID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Expiry:   jwt.NewNumericDate(time.Now().Add(m.sessionDuration)),
	}

	raw, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("serializing session token: %w", err)
	}

	return raw, nil
}

func (m *Manager) parseSessionToken(raw string) (string, bool) {
	if strings.Count(raw, ".") != 2 {
		return "", false
	}

	token, err := jwt.ParseSigned(raw, sessionTokenSigAlgs)
	if err != nil {
		return "", false
	}

	var claims jwt.Claims
	if err := token.Claims(m.signingKey, &claims); err != nil {
		return "", false
	}

	if claims.Expiry == nil || time.Now().After(claims.Expiry.Time()) {
		return "", false
	}

	return claims.Subject, claims.Subject != ""
}
