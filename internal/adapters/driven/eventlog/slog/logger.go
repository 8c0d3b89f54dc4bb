// Package slog provides a structured event logger adapter backed by the
// standard library's log/slog.
package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure Logger implements the interface.
var _ driven.EventLogger = (*Logger)(nil)

// Logger emits pipeline events as structured slog records.
type Logger struct {
	log *slog.Logger
}

// New creates an event logger writing JSON records to w.
func New(w io.Writer) *Logger {
	return &Logger{
		log: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

// NewNop creates an event logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return New(io.Discard)
}

// Log records one event. It never fails the calling operation.
func (l *Logger) Log(event driven.Event) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	attrs := []slog.Attr{
		slog.String("source", event.Source),
		slog.String("action", event.Action),
		slog.Time("ts", ts),
	}
	if event.CorrelationID != "" {
		attrs = append(attrs, slog.String("correlation_id", event.CorrelationID))
	}
	if event.TenantID != "" {
		attrs = append(attrs, slog.String("tenant_id", event.TenantID))
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, slog.Any("details", event.Details))
	}

	l.log.LogAttrs(context.Background(), level(event.Level), event.Message, attrs...)
}

// level maps event severities onto slog levels.
func level(lv driven.EventLevel) slog.Level {
	switch lv {
	case driven.LevelDebug:
		return slog.LevelDebug
	case driven.LevelWarn:
		return slog.LevelWarn
	case driven.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
