package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// ChunkingMetadata carries optional hints for chunking strategies.
type ChunkingMetadata struct {
	// Filename is the source document name, used in logs.
	Filename string

	// Industry is an optional vertical hint for the generative prompt.
	Industry string
}

// ChunkingService splits text into retrieval-ready fragments.
//
// For any non-empty input Chunk returns a non-empty, ordered chunk list;
// it errors only on true infrastructure failure. Non-SIMPLE strategy
// failures are recovered internally by falling back to SIMPLE.
type ChunkingService interface {
	// Chunk dispatches to the strategy selected by level (normalised
	// case-insensitively, legacy names folded).
	Chunk(ctx context.Context, tctx domain.TenantContext, text, level string, meta ChunkingMetadata) ([]domain.Chunk, error)
}
