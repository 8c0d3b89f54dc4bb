package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

var _ driven.EvaluationStore = (*EvaluationStore)(nil)

// EvaluationStore is an in-memory implementation of driven.EvaluationStore.
type EvaluationStore struct {
	mu    sync.RWMutex
	evals []domain.RagEvaluation

	// InsertErr, when set, makes Insert fail.
	InsertErr error
}

// NewEvaluationStore creates a new in-memory evaluation store.
func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{}
}

// Insert appends an evaluation record.
func (s *EvaluationStore) Insert(_ context.Context, eval domain.RagEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.evals = append(s.evals, eval)
	return nil
}

// List returns the tenant's evaluations newest first, capped at limit.
func (s *EvaluationStore) List(_ context.Context, tenantID string, limit int) ([]domain.RagEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var evals []domain.RagEvaluation
	for _, eval := range s.evals {
		if eval.TenantID == tenantID {
			evals = append(evals, eval)
		}
	}
	sort.SliceStable(evals, func(i, j int) bool {
		return evals[i].Timestamp.After(evals[j].Timestamp)
	})
	if limit > 0 && len(evals) > limit {
		evals = evals[:limit]
	}
	return evals, nil
}
