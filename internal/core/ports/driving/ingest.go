package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// IngestReport summarises one document ingestion.
type IngestReport struct {
	// DocID is the identifier assigned to the document.
	DocID string

	// Blob is the deduplication outcome.
	Blob domain.BlobResult

	// ChunkCount is how many fragments were persisted.
	ChunkCount int

	// Level is the chunking level actually requested.
	Level domain.ChunkingLevel
}

// IngestOrchestrator runs the full document lifecycle: job creation,
// validated state transitions, blob deduplication, chunking, persistence.
type IngestOrchestrator interface {
	// Ingest processes one document buffer end to end. On pipeline
	// failure the job is transitioned to FAILED and dead-lettered.
	Ingest(ctx context.Context, tctx domain.TenantContext, filename, mimeType string, data []byte, level string) (*IngestReport, error)
}
