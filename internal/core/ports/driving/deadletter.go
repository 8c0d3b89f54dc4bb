package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// DeadLetterInput describes a failed job being enqueued. The audit hash
// and creation timestamp are stamped by the service.
type DeadLetterInput struct {
	TenantID      string
	DocID         string
	CorrelationID string
	JobType       domain.JobType
	FailureReason string
	RetryCount    int
}

// DeadLetterService is the durable sink for jobs that could not complete.
type DeadLetterService interface {
	// Add appends an entry. An insert failure is logged to the fallback
	// channel rather than silently lost, and is not returned as an
	// error to the caller's primary operation.
	Add(ctx context.Context, input DeadLetterInput) error

	// GetFailedJobs lists a tenant's entries newest-first.
	GetFailedJobs(ctx context.Context, tenantID string, opts driven.DeadLetterListOptions) ([]domain.DeadLetterJob, error)

	// RetryJob marks operator intent to retry: it validates ownership
	// and flips the resolved flag. It does not re-run the job.
	RetryJob(ctx context.Context, jobID, tenantID, retryBy string) error

	// GetStats summarises a tenant's queue.
	GetStats(ctx context.Context, tenantID string) (*domain.DeadLetterStats, error)
}
