package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vetdict/backend-go/internal/config"
)

func New(cfg *config.Config) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, cfg, cfg.LogLevel))

	slog.SetDefault(logger)

	return logger
}

// NewSecurity returns the audit logger used for security events. It never
// drops below WARN so rejected credentials are recorded even when the
// application log level is raised.
func NewSecurity(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	return slog.New(newHandler(os.Stdout, cfg, level)).With(slog.String("logger", "security"))
}

func newHandler(w io.Writer, cfg *config.Config, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.ToLower(cfg.AppEnv) == "production" {
		// JSON format
		return slog.NewJSONHandler(w, opts)
	}
	// Human-readable format
	return slog.NewTextHandler(w, opts)
}

// Discard is a logger that drops everything, handy for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
