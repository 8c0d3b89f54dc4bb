package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

var _ driven.DeadLetterStore = (*DeadLetterStore)(nil)

// DeadLetterStore is an in-memory implementation of driven.DeadLetterStore.
type DeadLetterStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.DeadLetterJob

	// InsertErr, when set, makes Insert fail. Used to test the
	// logging fallback path.
	InsertErr error
}

// NewDeadLetterStore creates a new in-memory dead letter store.
func NewDeadLetterStore() *DeadLetterStore {
	return &DeadLetterStore{jobs: make(map[string]domain.DeadLetterJob)}
}

// Insert appends a dead letter record.
func (s *DeadLetterStore) Insert(_ context.Context, job domain.DeadLetterJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.jobs[job.ID] = job
	return nil
}

// Get retrieves a record by ID, scoped to the tenant.
func (s *DeadLetterStore) Get(_ context.Context, id, tenantID string) (*domain.DeadLetterJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok || job.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	out := job
	return &out, nil
}

// List returns the tenant's records newest first.
func (s *DeadLetterStore) List(_ context.Context, tenantID string, opts driven.DeadLetterListOptions) ([]domain.DeadLetterJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []domain.DeadLetterJob
	for _, job := range s.jobs {
		if job.TenantID != tenantID {
			continue
		}
		if opts.UnresolvedOnly && job.Resolved {
			continue
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if opts.Skip > 0 {
		if opts.Skip >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[opts.Skip:]
	}
	if opts.Limit > 0 && len(jobs) > opts.Limit {
		jobs = jobs[:opts.Limit]
	}
	return jobs, nil
}

// MarkResolved flags a record as resolved. The record itself is never
// removed.
func (s *DeadLetterStore) MarkResolved(_ context.Context, id, resolvedBy string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Resolved = true
	job.ResolvedBy = resolvedBy
	job.ResolvedAt = &resolvedAt
	s.jobs[id] = job
	return nil
}
