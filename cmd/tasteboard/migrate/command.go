package migrate

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tasteboard/tasteboard/internal/business"
	"github.com/tasteboard/tasteboard/internal/config"
	"github.com/tasteboard/tasteboard/internal/logging"
)

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Tasteboard database migration",
		Long:  "Applies the pending database migrations and exits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("/etc/tasteboard", "$HOME/.tasteboard", ".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := logging.InitAsDefault(cfg.Logger, cfg.Application); err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to initialise the logger")
			}

			if err := business.MigrateMain(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("running the migration: %w", err)
			}

			return nil
		},
	}
}
