package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// GCReport summarises one garbage-collection sweep.
type GCReport struct {
	// Candidates is how many orphaned rows were listed.
	Candidates int

	// Deleted is how many blobs were actually removed.
	Deleted int

	// Skipped counts candidates that regained a reference between
	// listing and deletion.
	Skipped int

	// FreedBytes is the total payload size removed.
	FreedBytes int64

	// Errors counts per-blob failures; a failure does not abort the
	// sweep.
	Errors int
}

// BlobService is the content-addressable deduplication surface.
type BlobService interface {
	// GetOrCreate deduplicates a payload by content digest. The docID
	// is recorded as a reference on the new or existing blob.
	GetOrCreate(ctx context.Context, tctx domain.TenantContext, docID string, data []byte, meta domain.BlobMetadata) (*domain.BlobResult, error)

	// RemoveReference drops a document's reference from a blob. The
	// blob row survives even at zero references.
	RemoveReference(ctx context.Context, tctx domain.TenantContext, md5, docID string) error

	// FindOrphaned lists blobs eligible for garbage collection.
	FindOrphaned(ctx context.Context) ([]domain.FileBlob, error)

	// DeleteOrphaned deletes one orphaned blob, re-verifying its
	// reference count first.
	DeleteOrphaned(ctx context.Context, md5, correlationID string) error

	// RunGarbageCollection sweeps all orphaned blobs.
	RunGarbageCollection(ctx context.Context, correlationID string) (*GCReport, error)
}
