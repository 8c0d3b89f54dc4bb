package services

import (
	"fmt"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// StateTransitionValidator is the single gate for ingestion job state
// changes. Every status mutation in the pipeline goes through Validate so
// an illegal transition can never be written, only logged and rejected.
type StateTransitionValidator struct {
	events driven.EventLogger
}

// NewStateTransitionValidator creates a new transition validator.
func NewStateTransitionValidator(events driven.EventLogger) *StateTransitionValidator {
	return &StateTransitionValidator{events: events}
}

// Validate checks a proposed transition. Valid transitions are logged at
// DEBUG and return nil; invalid ones are logged at WARN and return
// domain.ErrInvalidTransition wrapped with the allowed set.
func (v *StateTransitionValidator) Validate(tctx domain.TenantContext, docID string, from, to domain.IngestState) error {
	if domain.CanTransition(from, to) {
		v.events.Log(driven.Event{
			Level:         driven.LevelDebug,
			Source:        "STATE_VALIDATOR",
			Action:        "TRANSITION_OK",
			Message:       fmt.Sprintf("job %s: %s -> %s", docID, from, to),
			CorrelationID: tctx.CorrelationID,
			TenantID:      tctx.TenantID,
		})
		return nil
	}

	allowed := domain.AllowedTransitions(from)
	v.events.Log(driven.Event{
		Level:         driven.LevelWarn,
		Source:        "STATE_VALIDATOR",
		Action:        "TRANSITION_REJECTED",
		Message:       fmt.Sprintf("job %s: %s -> %s rejected", docID, from, to),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details: map[string]any{
			"from":    string(from),
			"to":      string(to),
			"allowed": allowed,
		},
	})
	return fmt.Errorf("%w: %s -> %s (allowed from %s: %v)", domain.ErrInvalidTransition, from, to, from, allowed)
}
