// Package fanout combines multiple event sinks into one, so a pipeline
// event can reach both the console log and the durable audit trail.
package fanout

import (
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure Logger implements the interface.
var _ driven.EventLogger = (*Logger)(nil)

// Logger forwards every event to each configured sink in order.
type Logger struct {
	sinks []driven.EventLogger
}

// New creates a fanout logger. Nil sinks are skipped.
func New(sinks ...driven.EventLogger) *Logger {
	kept := make([]driven.EventLogger, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &Logger{sinks: kept}
}

// Log records one event on every sink.
func (l *Logger) Log(event driven.Event) {
	for _, sink := range l.sinks {
		sink.Log(event)
	}
}
