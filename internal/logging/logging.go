// Package logging installs the process-wide structured logger.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/tasteboard/tasteboard/internal/config"
)

// InitAsDefault configures slog's default logger from the application config.
// Context attributes added via slogctx flow into every record.
func InitAsDefault(cfg config.Logger, app config.Application) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		inner = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		inner = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format: %q", cfg.Format)
	}

	handler := slogctx.NewHandler(inner, nil)

	logger := slog.New(handler).With(
		"application", app.Name,
		"environment", app.Environment,
	)
	slog.SetDefault(logger)

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
}
