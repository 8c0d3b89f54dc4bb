package driven

import "time"

// EventLevel is the severity of a structured event.
type EventLevel string

// Event levels.
const (
	LevelDebug EventLevel = "DEBUG"
	LevelInfo  EventLevel = "INFO"
	LevelWarn  EventLevel = "WARN"
	LevelError EventLevel = "ERROR"
)

// Event is one structured, correlated log record. Every error path the
// pipeline swallows locally still emits an Event so the failure stays
// observable.
type Event struct {
	// Level is the severity.
	Level EventLevel

	// Source names the emitting component (e.g. "BLOB_STORE").
	Source string

	// Action is the machine-readable event name (e.g. "BLOB_CREATED").
	Action string

	// Message is the human-readable description.
	Message string

	// CorrelationID threads the event to its logical operation.
	CorrelationID string

	// TenantID is the tenant scope, empty for global operations.
	TenantID string

	// Details carries arbitrary structured context.
	Details map[string]any

	// Timestamp is stamped by the logger when zero.
	Timestamp time.Time
}

// EventLogger is the structured event sink consumed by every core service.
// Logging is fire-and-forget: implementations must never fail the calling
// operation, whatever happens to the sink.
type EventLogger interface {
	// Log records one event.
	Log(event Event)
}
