package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// EvaluationService scores generated answers against their retrieval
// context and performs at most one self-correction pass.
type EvaluationService interface {
	// EvaluateQuery judges one answer. When the judged faithfulness or
	// answer relevance falls below threshold and a fix strategy was
	// produced, it regenerates once and persists a second, linked
	// record. The returned record is the final one (corrected when a
	// correction happened).
	EvaluateQuery(ctx context.Context, tctx domain.TenantContext, query, generation string, contexts []string) (*domain.RagEvaluation, error)

	// ListEvaluations returns a tenant's recent evaluations.
	ListEvaluations(ctx context.Context, tenantID string, limit int) ([]domain.RagEvaluation, error)

	// GetMetrics aggregates rolling score averages and a daily trend
	// series over the most recent evaluations.
	GetMetrics(ctx context.Context, tenantID string) (*domain.EvaluationReport, error)
}
