// Package server hosts the public HTTP API: the login flow endpoints, the
// recipe search proxy, the taxonomy lists and the user-content operations.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/authflow"
	"github.com/tasteboard/tasteboard/internal/content"
	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/internal/recipes"
)

type Server struct {
	flow    *authflow.Controller
	content *content.Service
	recipes *recipes.Client

	searchLimit int
}

func NewServer(flow *authflow.Controller, contentSvc *content.Service, recipesClient *recipes.Client, searchLimit int) *Server {
	return &Server{
		flow:        flow,
		content:     contentSvc,
		recipes:     recipesClient,
		searchLimit: searchLimit,
	}
}

type identityCtxKey struct{}

// requireIdentity is the authorization gate middleware: it resolves the
// session cookie to verified claims before the wrapped handler runs, or
// answers with the uniform unauthenticated response. It performs no network
// I/O, so protected reads keep working while the identity provider is down.
func (s *Server) requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.flow.RequireIdentity(r.Context(), r)
		if err != nil {
			s.unauthenticated(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityCtxKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}

func identityFromContext(ctx context.Context) oidc.Identity {
	identity, _ := ctx.Value(identityCtxKey{}).(oidc.Identity)
	return identity
}

func (s *Server) respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slogctx.Error(ctx, "Failed to encode response body", "error", err)
	}
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	s.respondJSON(ctx, w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// unauthenticated is the gate's uniform rejection: it says nothing about
// whether the cookie was absent, expired or forged.
func (s *Server) unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"Not logged in"}`))
}
