package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

var _ driven.IngestionJobStore = (*IngestionJobStore)(nil)

// IngestionJobStore is an in-memory implementation of driven.IngestionJobStore.
type IngestionJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.IngestionJob
}

// NewIngestionJobStore creates a new in-memory job store.
func NewIngestionJobStore() *IngestionJobStore {
	return &IngestionJobStore{jobs: make(map[string]domain.IngestionJob)}
}

// Save inserts or replaces a job keyed by document ID.
func (s *IngestionJobStore) Save(_ context.Context, job domain.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.DocID] = job
	return nil
}

// Get retrieves a job by document ID.
func (s *IngestionJobStore) Get(_ context.Context, docID string) (*domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := job
	return &out, nil
}

// UpdateStatus sets a job's status and error message and bumps UpdatedAt.
func (s *IngestionJobStore) UpdateStatus(_ context.Context, docID string, status domain.IngestState, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[docID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now().UTC()
	s.jobs[docID] = job
	return nil
}

// ListStaleProcessing returns PROCESSING jobs last updated before cutoff.
func (s *IngestionJobStore) ListStaleProcessing(_ context.Context, cutoff time.Time) ([]domain.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []domain.IngestionJob
	for _, job := range s.jobs {
		if job.Status == domain.StateProcessing && job.UpdatedAt.Before(cutoff) {
			stale = append(stale, job)
		}
	}
	return stale, nil
}
