// Package observability provides structured logging and Prometheus
// metrics for the analysis pipeline. Distributed tracing is intentionally
// not carried forward from the teacher's OTel-based package: this is a
// one-shot batch CLI with no distributed caller to correlate spans with.
package observability

import "log/slog"

// AppMode identifies how the binary was launched, used to pick a log
// handler (text for interactive use, JSON for CI).
type AppMode string

const (
	// ModeCLI is an interactive terminal invocation.
	ModeCLI AppMode = "cli"
	// ModeCI is a non-interactive, scripted invocation.
	ModeCI AppMode = "ci"
)

// Config holds logging and metrics configuration.
type Config struct {
	// Mode selects the log handler: ModeCLI uses a text handler, ModeCI
	// uses JSON.
	Mode AppMode

	// LogLevel is the minimum slog severity recorded.
	LogLevel slog.Level

	// LogJSON forces JSON log output regardless of Mode.
	LogJSON bool
}

// DefaultConfig returns a Config with sensible defaults for zero-config
// startup.
func DefaultConfig() Config {
	return Config{Mode: ModeCLI, LogLevel: slog.LevelInfo}
}
