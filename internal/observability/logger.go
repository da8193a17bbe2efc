package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the structured logger threaded through the pipeline:
// a text handler for interactive use, a JSON handler in CI mode, matching
// the teacher's mode-driven handler selection.
func NewLogger(cfg Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogJSON || cfg.Mode == ModeCI {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	return slog.New(handler)
}
