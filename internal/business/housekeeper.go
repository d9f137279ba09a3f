package business

import (
	"context"
	"fmt"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/config"
)

// HousekeeperMain runs the expired-session sweep on the configured interval
// until ctx is cancelled.
func HousekeeperMain(ctx context.Context, cfg *config.Config) error {
	sessionManager, closeFn, err := initSessionManager(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the session manager: %w", err)
	}
	defer closeFn()

	c := time.Tick(cfg.Housekeeper.TriggerInterval)
	for {
		if err := sessionManager.CleanupExpiredSessions(ctx); err != nil {
			slogctx.Error(ctx, "Error during session housekeeping", "error", err)
		}

		select {
		case <-c:
			continue
		case <-ctx.Done():
			return nil
		}
	}
}
