package housekeeper

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
		Use:   "housekeeper",
		Short: "Tasteboard session housekeeper",
		Long:  "Periodically removes expired sessions from the session store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("/etc/tasteboard", "$HOME/.tasteboard", ".")
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := logging.InitAsDefault(cfg.Logger, cfg.Application); err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to initialise the logger")
			}

			if err := business.HousekeeperMain(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("running the housekeeper: %w", err)
			}

			return nil
		},
	}
}
