package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// Ensure DeadLetterService implements the interface.
var _ driving.DeadLetterService = (*DeadLetterService)(nil)

// DeadLetterService is the append-only sink for jobs that could not
// complete. Records are sealed with an audit hash at insert time and are
// never deleted, only marked resolved.
type DeadLetterService struct {
	store  driven.DeadLetterStore
	events driven.EventLogger
	clock  func() time.Time
}

// NewDeadLetterService creates a new dead letter service.
func NewDeadLetterService(store driven.DeadLetterStore, events driven.EventLogger) *DeadLetterService {
	return &DeadLetterService{
		store:  store,
		events: events,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// auditHash seals the fields that identify a failure. Any later mutation
// of the record is detectable by recomputing the digest.
func auditHash(tenantID, docID, correlationID, reason string, at time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%s", tenantID, docID, correlationID, reason, at.Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Add appends one entry. A store failure here must never mask the original
// job failure, so it is logged at ERROR with the full entry details and
// swallowed.
func (s *DeadLetterService) Add(ctx context.Context, input driving.DeadLetterInput) error {
	now := s.clock()
	job := domain.DeadLetterJob{
		ID:            uuid.NewString(),
		TenantID:      input.TenantID,
		DocID:         input.DocID,
		CorrelationID: input.CorrelationID,
		JobType:       input.JobType,
		FailureReason: input.FailureReason,
		RetryCount:    input.RetryCount,
		LastAttempt:   now,
		AuditHash:     auditHash(input.TenantID, input.DocID, input.CorrelationID, input.FailureReason, now),
		CreatedAt:     now,
	}

	if err := s.store.Insert(ctx, job); err != nil {
		// Last-resort channel: the failure record itself could not be
		// persisted, so the event log is the only trace left.
		s.events.Log(driven.Event{
			Level:         driven.LevelError,
			Source:        "DEAD_LETTER",
			Action:        "DLQ_INSERT_FAILED",
			Message:       fmt.Sprintf("could not persist dead letter for job %s: %v", input.DocID, err),
			CorrelationID: input.CorrelationID,
			TenantID:      input.TenantID,
			Details: map[string]any{
				"doc_id":         input.DocID,
				"job_type":       string(input.JobType),
				"failure_reason": input.FailureReason,
				"retry_count":    input.RetryCount,
			},
		})
		return nil
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelWarn,
		Source:        "DEAD_LETTER",
		Action:        "DLQ_JOB_ADDED",
		Message:       fmt.Sprintf("job %s dead-lettered: %s", input.DocID, input.FailureReason),
		CorrelationID: input.CorrelationID,
		TenantID:      input.TenantID,
		Details: map[string]any{
			"dlq_id":      job.ID,
			"doc_id":      input.DocID,
			"job_type":    string(input.JobType),
			"retry_count": input.RetryCount,
			"audit_hash":  job.AuditHash,
		},
	})
	return nil
}

// GetFailedJobs lists a tenant's entries newest first.
func (s *DeadLetterService) GetFailedJobs(ctx context.Context, tenantID string, opts driven.DeadLetterListOptions) ([]domain.DeadLetterJob, error) {
	if tenantID == "" {
		return nil, domain.NewValidationError("tenantID", "tenant is required")
	}
	jobs, err := s.store.List(ctx, tenantID, opts)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	return jobs, nil
}

// RetryJob marks operator intent to retry a failed job. It validates that
// the entry belongs to the tenant and is not already resolved, then flips
// the resolved flag. Re-running the job is the operator's next step, not
// this call's.
func (s *DeadLetterService) RetryJob(ctx context.Context, jobID, tenantID, retryBy string) error {
	job, err := s.store.Get(ctx, jobID, tenantID)
	if err != nil {
		return fmt.Errorf("get dead letter: %w", err)
	}
	if job.Resolved {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyResolved, jobID)
	}

	now := s.clock()
	if err := s.store.MarkResolved(ctx, jobID, retryBy, now); err != nil {
		return fmt.Errorf("mark resolved: %w", err)
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "DEAD_LETTER",
		Action:        "DLQ_JOB_RETRIED",
		Message:       fmt.Sprintf("dead letter %s marked for retry by %s", jobID, retryBy),
		CorrelationID: job.CorrelationID,
		TenantID:      tenantID,
		Details: map[string]any{
			"dlq_id":   jobID,
			"doc_id":   job.DocID,
			"retry_by": retryBy,
		},
	})
	return nil
}

// GetStats summarises a tenant's queue.
func (s *DeadLetterService) GetStats(ctx context.Context, tenantID string) (*domain.DeadLetterStats, error) {
	jobs, err := s.store.List(ctx, tenantID, driven.DeadLetterListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}

	stats := &domain.DeadLetterStats{
		Total:     len(jobs),
		ByJobType: make(map[domain.JobType]int),
	}
	for _, job := range jobs {
		stats.ByJobType[job.JobType]++
		if !job.Resolved {
			stats.Unresolved++
		}
	}
	return stats, nil
}
