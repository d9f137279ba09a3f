package apiserver

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/business"
	"github.com/tasteboard/tasteboard/internal/config"
	"github.com/tasteboard/tasteboard/internal/logging"
)

func run(ctx context.Context, cfg *config.Config) error {
	err := logging.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	slogctx.Debug(ctx, "Starting the application", "address", cfg.HTTP.Address)

	if err := cfg.Validate(); err != nil {
		return oops.In("main").
			Wrapf(err, "Invalid configuration")
	}

	err = business.Main(ctx, cfg)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to start the main business application")
	}

	return nil
}

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "api-server",
		Short: "Tasteboard API server",
		Long:  "Tasteboard API server hosts the public HTTP API: login flow, recipe search and user content.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("/etc/tasteboard", "$HOME/.tasteboard", ".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := run(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("running the api server: %w", err)
			}

			return nil
		},
	}
}
