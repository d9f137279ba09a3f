package server

import (
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/pkg/fingerprint"
)

// Login starts a fresh login attempt and redirects the browser to the
// identity provider. Repeated calls issue a new nonce each time.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fp, err := fingerprint.ExtractFingerprint(ctx)
	if err != nil {
		slogctx.Error(ctx, "Failed to extract fingerprint", "error", err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Login unavailable")
		return
	}

	// Reuse the browser's session ID when it presents a valid cookie, so a
	// retried login does not orphan records.
	currentSessionID, _ := s.flow.Sessions().SessionIDFromRequest(r)

	sessionID, redirectTo, err := s.flow.BeginLogin(ctx, currentSessionID, fp)
	if err != nil {
		slogctx.Error(ctx, "Failed to begin login", "error", err)
		http.Redirect(w, r, s.flow.FrontendRedirect(true), http.StatusFound)
		return
	}

	cookie, err := s.flow.Sessions().MakeSessionCookie(ctx, sessionID)
	if err != nil {
		slogctx.Error(ctx, "Failed to create session cookie", "error", err)
		http.Redirect(w, r, s.flow.FrontendRedirect(true), http.StatusFound)
		return
	}

	http.SetCookie(w, cookie)
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

// Authorize is the provider callback. Whatever goes wrong, the browser only
// ever sees the generic error flag; causes are logged server-side.
func (s *Server) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fp, err := fingerprint.ExtractFingerprint(ctx)
	if err != nil {
		slogctx.Error(ctx, "Failed to extract fingerprint", "error", err)
		http.Redirect(w, r, s.flow.FrontendRedirect(true), http.StatusFound)
		return
	}

	sessionID, ok := s.flow.Sessions().SessionIDFromRequest(r)
	if !ok {
		slogctx.Warn(ctx, "Callback without a valid session cookie")
		http.Redirect(w, r, s.flow.FrontendRedirect(true), http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		slogctx.Warn(ctx, "Callback without an authorization code")
		http.Redirect(w, r, s.flow.FrontendRedirect(true), http.StatusFound)
		return
	}

	if err := s.flow.CompleteLogin(ctx, sessionID, code, state, fp); err != nil {
		slogctx.Error(ctx, "Failed to complete login", "error", err, "kind", oidc.KindOf(err))
		http.Redirect(w, r, s.flow.FrontendRedirect(true), http.StatusFound)
		return
	}

	http.Redirect(w, r, s.flow.FrontendRedirect(false), http.StatusFound)
}

// Logout clears the session and always redirects to the frontend, even when
// there was nothing to clear.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sessionID, ok := s.flow.Sessions().SessionIDFromRequest(r); ok {
		s.flow.Logout(ctx, sessionID)
	}

	http.SetCookie(w, s.flow.Sessions().ExpiredSessionCookie())
	http.Redirect(w, r, s.flow.FrontendRedirect(false), http.StatusFound)
}

// Profile returns the verified claims of the authenticated user.
func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := s.flow.RequireIdentity(ctx, r)
	if err != nil {
		s.unauthenticated(w)
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"user":    identity,
	})
}
