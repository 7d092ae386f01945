package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production gets JSON at info
// level for log shipping; everything else gets a readable text handler at
// debug level with source locations.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		})
	}

	return slog.New(handler).With(
		slog.String("service", "lumen"),
		slog.String("env", env),
	)
}
