package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the process-wide slog.Logger. Production emits JSON for
// the log shipper; development keeps the readable text handler and lowers the
// level to Debug so checkout traces show up locally.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
	}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
