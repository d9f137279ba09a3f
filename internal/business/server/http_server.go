package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/samber/oops"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/config"
	"github.com/tasteboard/tasteboard/internal/middleware"
)

// StartHTTPServer serves the API until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func StartHTTPServer(ctx context.Context, cfg *config.Config, srv *Server) error {
	if err := initMeters(ctx, cfg.Application.Name); err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.Recipes.RatePerSecond, cfg.Recipes.RateBurst)
	defer limiter.Close()

	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: srv.Router(cfg.Application.Name, cfg.Frontend.Origin, limiter),
	}

	slogctx.Info(ctx, "Starting a listener", "address", server.Addr)

	// Parse network if the address is provided in the format of network://address.
	// Otherwise use tcp network by default. Binding to a unix socket keeps
	// integration tests free of port scanning.
	network := "tcp"
	if idx := strings.IndexRune(server.Addr, ':'); idx != -1 && len(server.Addr) > idx+3 && server.Addr[idx:idx+3] == "://" {
		network = server.Addr[:idx]
		server.Addr = server.Addr[idx+3:]
	}

	listener, err := new(net.ListenConfig).Listen(ctx, network, server.Addr)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create a listener")
	}

	go func() {
		slogctx.Info(ctx, "Serving an HTTP server", "address", listener.Addr().String())

		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogctx.Error(ctx, "Failed to serve an HTTP server", "error", err)
		}

		slogctx.Info(ctx, "Stopped an HTTP server")
	}()

	<-ctx.Done()

	shutdownCtx, shutdownRelease := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	slogctx.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}
