package logging

import (
	"log/slog"
	"os"
	"strings"
)

func NewLogger(service, env string) *slog.Logger {
	level := slog.LevelInfo

	if v := strings.ToLower(os.Getenv("LOG_LEVEL")); v != "" {
		switch v {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true, // critical for incident debugging
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", env),
		slog.Int("pid", os.Getpid()),
	)

	slog.SetDefault(logger)
	return logger
}
