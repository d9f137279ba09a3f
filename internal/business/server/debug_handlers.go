package server

import (
	"net/http"

	slogctx "github.com/veqryn/slog-context"
)

// Health reports process liveness plus whether the recipe search upstream is
// configured at all.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"spoonacular_api_key": s.recipes.HasAPIKey(),
	})
}

// DebugAuth shows the session state the server resolved for this request.
// It never fails: an anonymous caller gets current_user null.
func (s *Server) DebugAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var user any
	if identity, err := s.flow.RequireIdentity(ctx, r); err == nil {
		user = identity
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"current_user":  user,
		"dex_client_id": s.flow.Provider().ClientID(),
	})
}

// DebugDex probes the identity provider's discovery document to tell apart
// "provider down" from "flow misconfigured".
func (s *Server) DebugDex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conf, err := s.flow.Provider().Discover(ctx)
	if err != nil {
		slogctx.Warn(ctx, "Identity provider discovery failed", "error", err)
		s.respondJSON(ctx, w, http.StatusOK, map[string]any{
			"dex_reachable": false,
			"error":         err.Error(),
		})
		return
	}

	s.respondJSON(ctx, w, http.StatusOK, map[string]any{
		"dex_reachable": true,
		"issuer":        conf.Issuer,
	})
}
