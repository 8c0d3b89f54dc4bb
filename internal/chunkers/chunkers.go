// Package chunkers provides the interchangeable text chunking strategies
// dispatched by the chunking service.
package chunkers

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// Metadata carries optional hints passed through to strategies.
type Metadata struct {
	// Filename is the source document name, used in logs.
	Filename string

	// Industry is an optional vertical hint for the generative prompt.
	Industry string
}

// Strategy splits text into ordered chunks. Implementations must return
// chunks whose index ranges are monotonically increasing; only the
// deterministic strategy may produce bounded overlap between neighbours.
type Strategy interface {
	// Level identifies which chunking level this strategy serves.
	Level() domain.ChunkingLevel

	// Chunk splits the text. A strategy that cannot produce a valid
	// result must return an error; the dispatcher owns the fallback.
	Chunk(ctx context.Context, tctx domain.TenantContext, text string, meta Metadata) ([]domain.Chunk, error)
}
