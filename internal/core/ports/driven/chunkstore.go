package driven

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// ChunkStore persists the retrieval-ready fragments produced for a
// document.
type ChunkStore interface {
	// SaveChunks replaces a document's fragments.
	SaveChunks(ctx context.Context, docID string, chunks []domain.Chunk) error

	// GetChunks returns a document's fragments in position order.
	GetChunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// DeleteChunks removes a document's fragments.
	DeleteChunks(ctx context.Context, docID string) error
}
