package services

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Logger defines common logging interface for all services. *slog.Logger
// satisfies it.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the service logger: human-readable text on stderr and,
// when logFile is set, JSON lines appended to that file. GO_ENV=test
// silences everything. The returned cleanup closes the log file.
func NewLogger(service, level, logFile string) (*slog.Logger, func() error) {
	if os.Getenv("GO_ENV") == "test" {
		return slog.New(slog.DiscardHandler), func() error { return nil }
	}

	if logFile == "" {
		return NewLoggerWithWriters(service, ParseLevel(level), os.Stderr, nil), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := NewLoggerWithWriters(service, ParseLevel(level), os.Stderr, nil)
		logger.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return logger, func() error { return nil }
	}

	logger := NewLoggerWithWriters(service, ParseLevel(level), os.Stderr, file)
	return logger, func() error {
		if err := file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		return nil
	}
}
