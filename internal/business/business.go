// Package business wires configuration into running services: the public API
// server, the session housekeeper and the database migrator.
package business

import (
	"context"
	"fmt"
	"net/http"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/authflow"
	"github.com/tasteboard/tasteboard/internal/business/server"
	"github.com/tasteboard/tasteboard/internal/config"
	"github.com/tasteboard/tasteboard/internal/content"
	contentmemory "github.com/tasteboard/tasteboard/internal/content/memory"
	contentsql "github.com/tasteboard/tasteboard/internal/content/sql"
	"github.com/tasteboard/tasteboard/internal/oidc"
	"github.com/tasteboard/tasteboard/internal/recipes"
	"github.com/tasteboard/tasteboard/internal/session"
	sessionmemory "github.com/tasteboard/tasteboard/internal/session/memory"
	sessionvalkey "github.com/tasteboard/tasteboard/internal/session/valkey"
)

// Main starts the public HTTP API server and blocks until ctx is cancelled.
func Main(ctx context.Context, cfg *config.Config) error {
	sessionManager, closeSessions, err := initSessionManager(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the session manager: %w", err)
	}
	defer closeSessions()

	contentService, closeContent, err := initContentService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the content service: %w", err)
	}
	defer closeContent()

	flow := authflow.NewController(
		newProviderClient(cfg),
		sessionManager,
		cfg.OIDC.RedirectURL,
		cfg.Frontend.Origin,
	)

	recipesClient := recipes.NewClient(cfg.Recipes.BaseURL, cfg.Recipes.APIKey, cfg.Recipes.RequestTimeout)

	srv := server.NewServer(flow, contentService, recipesClient, cfg.Recipes.SearchLimit)

	return server.StartHTTPServer(ctx, cfg, srv)
}

// newProviderClient derives the provider endpoints from the configured base
// URLs. The authorization endpoint uses the external base because the browser
// follows it; the rest use the internal one.
func newProviderClient(cfg *config.Config) *oidc.Client {
	endpoints := oidc.Endpoints{
		Authorization: cfg.OIDC.ExternalBaseURL + cfg.OIDC.AuthorizePath,
		Token:         cfg.OIDC.InternalBaseURL + cfg.OIDC.TokenPath,
		JWKS:          cfg.OIDC.InternalBaseURL + cfg.OIDC.JWKSPath,
		Discovery:     cfg.OIDC.InternalBaseURL + "/.well-known/openid-configuration",
	}

	httpClient := &http.Client{Timeout: cfg.OIDC.RequestTimeout}

	return oidc.NewClient(cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.Issuer, endpoints, httpClient)
}

func initSessionManager(ctx context.Context, cfg *config.Config) (_ *session.Manager, closeFn func(), _ error) {
	repo := session.Repository(nil)
	closeRepo := func() {}

	if cfg.ValKey.Host != "" {
		valkeyClient, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{cfg.ValKey.Host},
			Username:    cfg.ValKey.User,
			Password:    cfg.ValKey.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating a new valkey client: %w", err)
		}

		repo = sessionvalkey.NewRepository(valkeyClient, cfg.ValKey.Prefix)
		closeRepo = valkeyClient.Close
	} else {
		slogctx.Warn(ctx, "No valkey host configured, sessions are kept in process memory")
		repo = sessionmemory.NewRepository()
	}

	manager, err := session.NewManager(repo, []byte(cfg.Session.SigningSecret), cfg.Session.Duration, cfg.Session.Cookie)
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("creating session manager: %w", err)
	}

	return manager, closeRepo, nil
}

func initContentService(ctx context.Context, cfg *config.Config) (_ *content.Service, closeFn func(), _ error) {
	if cfg.Database.URL == "" {
		slogctx.Warn(ctx, "No database configured, user content is kept in process memory")
		return content.NewService(contentmemory.NewRepository()), func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising pgxpool connection: %w", err)
	}

	return content.NewService(contentsql.NewRepository(pool)), pool.Close, nil
}
