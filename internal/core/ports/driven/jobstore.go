package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// IngestionJobStore persists per-document ingestion state.
// Status writes must go through the state transition validator first;
// the store itself does not enforce the state graph.
type IngestionJobStore interface {
	// Save stores or updates a job.
	Save(ctx context.Context, job domain.IngestionJob) error

	// Get retrieves a job by document ID. Returns domain.ErrNotFound
	// when absent.
	Get(ctx context.Context, docID string) (*domain.IngestionJob, error)

	// UpdateStatus writes a new status and error message, moving
	// UpdatedAt to now.
	UpdateStatus(ctx context.Context, docID string, status domain.IngestState, errMsg string) error

	// ListStaleProcessing returns jobs in PROCESSING whose UpdatedAt is
	// strictly before the cutoff, across all tenants. Used by the stuck
	// sweep.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.IngestionJob, error)
}
