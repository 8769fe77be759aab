// Package logger provides a thin wrapper around slog for structured logging.
//
// The TUI owns the terminal while running, so the entrypoint normally
// redirects log output to a file via OpenLogFile; the default handler writes
// to stderr for tests and early startup errors.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is the process-wide logger instance.
var Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// SetOutput replaces the logger destination.
func SetOutput(w io.Writer) {
	Logger = slog.New(slog.NewTextHandler(w, nil))
}

// OpenLogFile switches logging to the given file path, creating parent
// directories as needed. Returns the file so the caller can close it on exit.
func OpenLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	SetOutput(f)
	return f, nil
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}
