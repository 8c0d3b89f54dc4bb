package driven

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// UploadFunc writes the payload to the object store and returns its
// storage handle. It is invoked by CreateOrReference only when no blob
// with the candidate's MD5 exists.
type UploadFunc func(ctx context.Context) (storageID string, err error)

// BlobStore persists deduplicated blob rows keyed by MD5.
//
// CreateOrReference is the concurrency-critical primitive: the find, the
// reference increment and the insert of a first writer must share one
// transactional scope, so that of two concurrent uploads of identical
// content exactly one believes it is first.
type BlobStore interface {
	// CreateOrReference atomically looks up candidate.MD5. If a row
	// exists, it increments RefCount, adds docID to the referencing set,
	// touches LastAccessedAt and returns (row, true, nil) without calling
	// upload. Otherwise it calls upload, inserts candidate with
	// RefCount=1 and the single reference docID, and returns
	// (row, false, nil). An upload failure aborts the call leaving no
	// partial row behind.
	CreateOrReference(ctx context.Context, candidate domain.FileBlob, docID string, upload UploadFunc) (*domain.FileBlob, bool, error)

	// RemoveReference decrements RefCount and removes docID from the
	// referencing set. It never deletes the row.
	RemoveReference(ctx context.Context, md5, docID string) error

	// Get retrieves a blob row by MD5. Returns domain.ErrNotFound when
	// absent.
	Get(ctx context.Context, md5 string) (*domain.FileBlob, error)

	// ListOrphaned returns rows with RefCount == 0.
	ListOrphaned(ctx context.Context) ([]domain.FileBlob, error)

	// Delete removes a blob row by MD5. Callers must re-verify the row
	// is still orphaned first.
	Delete(ctx context.Context, md5 string) error
}
