// Package logging provides the structured JSON logger shared by the CLI
// and pipeline.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a JSON logger at the given level. Supported levels:
// debug, info, warn, error; anything else falls back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// WithJob returns a logger carrying the job key attribute.
func WithJob(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}
