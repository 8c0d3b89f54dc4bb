package driven

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// EvaluationStore persists judged answers. Records are append-only: a
// correction pass inserts a second record, it never mutates the first.
type EvaluationStore interface {
	// Insert appends an evaluation record.
	Insert(ctx context.Context, eval domain.RagEvaluation) error

	// List returns a tenant's evaluations sorted newest-first, capped
	// at limit.
	List(ctx context.Context, tenantID string, limit int) ([]domain.RagEvaluation, error)
}
