// Package logging carries a structured logger through context.Context so the
// CLI, the use cases and the adapters of one run share their attributes.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Output formats accepted by NewWithWriter.
const (
	FormatHuman = "human"
	FormatText  = "text"
	FormatJSON  = "json"
)

// Attribute keys attached to every line of a hook run.
const (
	KeyRunID = "runId"
	KeyUnit  = "unit"
	KeyCharm = "charm"
)

// Logger is the structured logger used across layers. kv are slog-style
// key/value pairs.
type Logger interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) Logger
}

type contextKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a human logger on stderr.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok && l != nil {
		return l
	}
	return defaultLogger()
}

var defaultLogger = sync.OnceValue(func() Logger {
	return newSlogLogger(FormatHuman, slog.LevelInfo, os.Stderr)
})

// WithUnit attaches the unit and charm attributes to the logger in ctx.
func WithUnit(ctx context.Context, unit, charm string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(KeyUnit, unit, KeyCharm, charm))
}

// NewWithWriter returns a Logger writing format to w. The human format has no
// timestamp: the lifecycle framework stamps every line of hook output.
func NewWithWriter(format string, level slog.Leveler, w io.Writer) (Logger, error) {
	switch format {
	case "", FormatHuman, FormatText, FormatJSON:
		return newSlogLogger(format, level, w), nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", format)
}

func newSlogLogger(format string, level slog.Leveler, w io.Writer) *slogLogger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatText:
		h = slog.NewTextHandler(w, opts)
	default:
		opts.ReplaceAttr = dropTime
		h = slog.NewTextHandler(w, opts)
	}
	return &slogLogger{l: slog.New(h)}
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

type slogLogger struct{ l *slog.Logger }

func (s *slogLogger) Debug(ctx context.Context, msg string, kv ...any) {
	s.l.DebugContext(ctx, msg, kv...)
}

func (s *slogLogger) Info(ctx context.Context, msg string, kv ...any) {
	s.l.InfoContext(ctx, msg, kv...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, kv ...any) {
	s.l.WarnContext(ctx, msg, kv...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, kv ...any) {
	s.l.ErrorContext(ctx, msg, kv...)
}

func (s *slogLogger) With(kv ...any) Logger { return &slogLogger{l: s.l.With(kv...)} }
