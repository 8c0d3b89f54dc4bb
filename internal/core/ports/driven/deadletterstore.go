package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// DeadLetterListOptions filters a dead-letter listing.
type DeadLetterListOptions struct {
	// Limit caps the number of returned entries. Zero means the
	// store default.
	Limit int

	// Skip offsets into the newest-first ordering.
	Skip int

	// UnresolvedOnly excludes resolved entries.
	UnresolvedOnly bool
}

// DeadLetterStore persists the append-only dead-letter queue.
// Entries are never physically deleted.
type DeadLetterStore interface {
	// Insert appends a new entry.
	Insert(ctx context.Context, job domain.DeadLetterJob) error

	// Get retrieves an entry by ID scoped to a tenant. Returns
	// domain.ErrNotFound when absent or owned by another tenant.
	Get(ctx context.Context, id, tenantID string) (*domain.DeadLetterJob, error)

	// List returns a tenant's entries sorted newest-first.
	List(ctx context.Context, tenantID string, opts DeadLetterListOptions) ([]domain.DeadLetterJob, error)

	// MarkResolved flips the resolved flag with an actor and timestamp.
	MarkResolved(ctx context.Context, id, resolvedBy string, resolvedAt time.Time) error
}
