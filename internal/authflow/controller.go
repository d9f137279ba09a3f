// Package authflow orchestrates the login state machine: Anonymous on first
// contact, NonceIssued after /login, Authenticated after a verified
// /authorize callback, and back to Anonymous on logout, expiry or a failed
// callback. It also hosts the authorization gate applied to every
// identity-scoped operation.
package authflow

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/internal/randsrc"
	"github.com/tasteboard/tasteboard/internal/serviceerr"
	"github.com/tasteboard/tasteboard/internal/session"
)

// ErrorRedirectFlag is the only failure detail ever exposed to the browser.
const ErrorRedirectFlag = "auth_failed"

type Controller struct {
	provider *oidc.Client
	sessions *session.Manager
	rand     randsrc.Source

	redirectURL string
	frontendURL string
}

func NewController(provider *oidc.Client, sessions *session.Manager, redirectURL, frontendURL string) *Controller {
	return &Controller{
		provider:    provider,
		sessions:    sessions,
		redirectURL: redirectURL,
		frontendURL: frontendURL,
	}
}

// BeginLogin performs the Anonymous -> NonceIssued transition: a fresh nonce,
// state and PKCE pair are bound to the session and the provider redirect URL
// is returned. Each call issues new values; nothing from a previous attempt
// is reused.
func (c *Controller) BeginLogin(ctx context.Context, currentSessionID, fingerprint string) (sessionID, redirectTo string, err error) {
	pkce := c.rand.PKCE()

	s, err := c.sessions.Begin(ctx, currentSessionID, fingerprint, pkce)
	if err != nil {
		return "", "", fmt.Errorf("beginning login: %w", err)
	}

	u, err := c.provider.AuthorizationURL(s.Nonce, s.State, pkce, c.redirectURL)
	if err != nil {
		return "", "", fmt.Errorf("building authorization url: %w", err)
	}

	slogctx.Info(ctx, "Issued login nonce")

	return s.ID, u, nil
}

// CompleteLogin performs the NonceIssued -> Authenticated transition. Any
// failure clears the pending nonce, so the attempt is terminal and a repeated
// callback with the same state fails closed.
func (c *Controller) CompleteLogin(ctx context.Context, sessionID, code, state, fingerprint string) error {
	s, err := c.sessions.LoginState(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading login state: %w", err)
	}

	if err := c.verifyCallbackBinding(s, state, fingerprint); err != nil {
		c.sessions.ClearLoginState(ctx, sessionID)
		return err
	}

	tokens, err := c.provider.ExchangeCode(ctx, code, c.redirectURL, s.PKCEVerifier)
	if err != nil {
		c.sessions.ClearLoginState(ctx, sessionID)
		return fmt.Errorf("exchanging code for tokens: %w", err)
	}

	identity, err := c.provider.VerifyIDToken(ctx, tokens.IDToken, s.Nonce)
	if err != nil {
		c.sessions.ClearLoginState(ctx, sessionID)
		return fmt.Errorf("verifying id token: %w", err)
	}

	if err := c.sessions.Authenticate(ctx, sessionID, identity); err != nil {
		return fmt.Errorf("storing authenticated session: %w", err)
	}

	slogctx.Info(ctx, "Completed login", "subject", identity.Subject)

	return nil
}

func (c *Controller) verifyCallbackBinding(s session.Session, state, fingerprint string) error {
	if s.Nonce == "" {
		// The nonce was already consumed or cleared; this callback cannot
		// belong to a pending attempt.
		return fmt.Errorf("no pending login: %w", serviceerr.ErrStateMismatch)
	}

	if state == "" || s.State != state {
		return fmt.Errorf("callback state does not match the issued one: %w", serviceerr.ErrStateMismatch)
	}

	if s.Fingerprint != "" && s.Fingerprint != fingerprint {
		return fmt.Errorf("client fingerprint changed between login and callback: %w", serviceerr.ErrStateMismatch)
	}

	return nil
}

// Logout performs the Authenticated -> Anonymous transition. It succeeds
// unconditionally, including for sessions that were already anonymous.
func (c *Controller) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	c.sessions.Clear(ctx, sessionID)
	slogctx.Info(ctx, "Cleared session on logout")
}

// RequireIdentity is the authorization gate: it maps the request's session
// cookie to verified claims using only the local session store. Absent,
// expired and forged cookies are indistinguishable to the caller.
func (c *Controller) RequireIdentity(ctx context.Context, r *http.Request) (oidc.Identity, error) {
	sessionID, ok := c.sessions.SessionIDFromRequest(r)
	if !ok {
		return oidc.Identity{}, serviceerr.ErrNoSession
	}

	return c.sessions.Identity(ctx, sessionID)
}

// FrontendRedirect returns the frontend origin, optionally flagged with the
// generic error indicator. Verification internals never reach the browser.
func (c *Controller) FrontendRedirect(withError bool) string {
	if !withError {
		return c.frontendURL
	}

	u, err := url.Parse(c.frontendURL)
	if err != nil {
		return c.frontendURL
	}

	q := u.Query()
	q.Set("error", ErrorRedirectFlag)
	u.RawQuery = q.Encode()

	return u.String()
}

// Sessions exposes the session manager for cookie handling at the HTTP layer.
func (c *Controller) Sessions() *session.Manager {
	return c.sessions
}

// Provider exposes the identity-provider client for the debug endpoints.
func (c *Controller) Provider() *oidc.Client {
	return c.provider
}
