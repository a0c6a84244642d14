// Package logging builds slog loggers from gamelink configuration. The text
// format is line oriented for interleaving with a game's own console output,
// json suits log shippers.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/syntrixbase/gamelink/internal/config"
)

// Initialize builds a logger from cfg and installs it as the slog default.
func Initialize(cfg config.LoggingConfig) {
	slog.SetDefault(New(cfg, os.Stderr))
	slog.Info("Logging initialized", "level", cfg.Level, "format", cfg.Format)
}

// New creates a logger writing to w with the configured level and format.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(NewLevelFilter(handler, level))
}

// ParseLevel maps a config level string to a slog level. Unknown strings map
// to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
