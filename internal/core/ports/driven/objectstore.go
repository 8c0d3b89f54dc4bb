package driven

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// ObjectStore is the binary payload store behind the blob layer, a
// GridFS-like collaborator consumed through a narrow interface. Its
// persistence engine is out of scope.
type ObjectStore interface {
	// Upload writes a payload and returns an opaque storage handle.
	Upload(ctx context.Context, data []byte, meta domain.BlobMetadata) (string, error)

	// Delete removes a payload by its storage handle.
	Delete(ctx context.Context, storageID string) error
}
