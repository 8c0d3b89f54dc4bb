package domain

import "time"

// IngestState is a document's position in the ingestion lifecycle.
type IngestState string

// Ingestion lifecycle states.
const (
	// StatePending means the document is accepted and awaiting processing.
	StatePending IngestState = "PENDING"

	// StateProcessing means a worker is actively ingesting the document.
	StateProcessing IngestState = "PROCESSING"

	// StateComplete is the successful terminal state.
	StateComplete IngestState = "COMPLETE"

	// StateFailed is the failure terminal state.
	StateFailed IngestState = "FAILED"
)

// stateTransitions is the legal state graph. Terminal states have no edges.
// PROCESSING -> PROCESSING is deliberately absent: a duplicate concurrent
// worker picking up the same job must be rejected.
var stateTransitions = map[IngestState][]IngestState{
	StatePending:    {StateProcessing},
	StateProcessing: {StateComplete, StateFailed},
	StateComplete:   {},
	StateFailed:     {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to IngestState) bool {
	for _, next := range stateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal next states for a state.
func AllowedTransitions(state IngestState) []IngestState {
	return stateTransitions[state]
}

// IsTerminal reports whether a state has no outgoing edges.
func IsTerminal(state IngestState) bool {
	return len(stateTransitions[state]) == 0
}

// IngestionJob tracks one document's ingestion state.
type IngestionJob struct {
	// DocID is the document being ingested.
	DocID string

	// TenantID is the owning tenant.
	TenantID string

	// CorrelationID threads the ingestion through logs.
	CorrelationID string

	// Status is the current lifecycle state. Mutated only through
	// validated transitions.
	Status IngestState

	// Error holds the failure message when Status is FAILED.
	Error string

	// Filename is the original upload name, kept for operator reports.
	Filename string

	// CreatedAt is when ingestion started.
	CreatedAt time.Time

	// UpdatedAt moves on every status mutation. Stuck detection keys
	// off this field.
	UpdatedAt time.Time
}
