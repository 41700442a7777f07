package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns an identifier for one process run. Every log line of a
// hook invocation carries it so interleaved hook output can be told apart.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID attaches a fresh runId, followed by kv, to the logger in ctx and
// returns the id.
func WithRunID(ctx context.Context, kv ...any) (context.Context, string) {
	id := NewRunID()
	attrs := append([]any{KeyRunID, id}, kv...)
	return WithLogger(ctx, FromContext(ctx).With(attrs...)), id
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a slog level.
// An empty string is INFO.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unsupported log level: %s", s)
}
