// Package applog is a thin structured-logging helper built on the
// standard library's log/slog. No third-party structured logger appears
// directly in any complete example repository in the reference pack —
// the one precedent for direct structured logging in application code
// uses log/slog as well — so this package follows that idiom rather than
// importing an ecosystem logger with no grounding in the pack (see
// DESIGN.md).
package applog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once    sync.Once
	logger  *slog.Logger
)

// Default returns the process-wide structured logger, initialized lazily
// on first use with a JSON handler writing to stderr.
func Default() *slog.Logger {
	once.Do(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	})
	return logger
}

// Warn logs a warning with the given key-value attributes.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs an error with the given key-value attributes.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// Info logs an informational message with the given key-value
// attributes.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}
