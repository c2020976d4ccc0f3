package logger

import (
	"log/slog"
	"os"
)

// Log is the process-wide logger. It starts on a stderr text handler so
// startup failures and test runs log without calling Setup first.
var Log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))

// Setup replaces the default logger with the environment's handler: JSON on
// stdout in production, text with debug level everywhere else.
func Setup(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// With returns a child logger carrying permanent key-value attributes
func With(args ...any) *slog.Logger {
	return Log.With(args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
