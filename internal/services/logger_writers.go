package services

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// NewLoggerWithWriters fans out to a text handler on console and, if jsonOut
// is non-nil, a JSON handler on jsonOut. Every record carries the service name.
func NewLoggerWithWriters(service string, level slog.Level, console io.Writer, jsonOut io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(console, opts)}
	if jsonOut != nil {
		handlers = append(handlers, slog.NewJSONHandler(jsonOut, opts))
	}
	return slog.New(slogmulti.Fanout(handlers...)).With("service", service)
}
