package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/chunkers/simple"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

type ingestFixture struct {
	orch       *IngestOrchestrator
	jobs       *memory.IngestionJobStore
	chunkStore *memory.ChunkStore
	blobStore  *memory.BlobStore
	dlqStore   *memory.DeadLetterStore
	events     *recordingLogger
}

func newIngestFixture(strategies map[domain.ChunkingLevel]chunkers.Strategy, fallback chunkers.Strategy) *ingestFixture {
	jobs := memory.NewIngestionJobStore()
	chunkStore := memory.NewChunkStore()
	blobStore := memory.NewBlobStore()
	dlqStore := memory.NewDeadLetterStore()
	events := &recordingLogger{}

	if fallback == nil {
		fallback = simple.New()
	}
	if strategies == nil {
		strategies = map[domain.ChunkingLevel]chunkers.Strategy{domain.LevelSimple: fallback}
	}

	validator := NewStateTransitionValidator(events)
	blobs := NewBlobService(blobStore, memory.NewObjectStore(), events)
	chunking := NewChunkingService(strategies, fallback, events)
	dlq := NewDeadLetterService(dlqStore, events)

	return &ingestFixture{
		orch:       NewIngestOrchestrator(jobs, chunkStore, blobs, chunking, dlq, validator, events),
		jobs:       jobs,
		chunkStore: chunkStore,
		blobStore:  blobStore,
		dlqStore:   dlqStore,
		events:     events,
	}
}

func TestIngestOrchestrator_HappyPath(t *testing.T) {
	f := newIngestFixture(nil, nil)
	ctx := context.Background()
	text := []byte("# Title\n\nFirst paragraph of the document.\n\nSecond paragraph with more words in it.")

	report, err := f.orch.Ingest(ctx, testTenant(), "doc.md", "text/markdown", text, "SIMPLE")
	require.NoError(t, err)
	require.NotEmpty(t, report.DocID)
	assert.Positive(t, report.ChunkCount)
	assert.Equal(t, domain.LevelSimple, report.Level)
	assert.False(t, report.Blob.Deduplicated)

	job, err := f.jobs.Get(ctx, report.DocID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, job.Status)
	assert.Empty(t, job.Error)

	chunks, err := f.chunkStore.GetChunks(ctx, report.DocID)
	require.NoError(t, err)
	require.Len(t, chunks, report.ChunkCount)
	for _, c := range chunks {
		assert.Equal(t, report.DocID, c.DocID)
	}

	blob, err := f.blobStore.Get(ctx, report.Blob.MD5)
	require.NoError(t, err)
	assert.Equal(t, []string{report.DocID}, blob.ReferencingDocs)
	assert.Len(t, f.events.byAction("INGEST_COMPLETE"), 1)
}

func TestIngestOrchestrator_DuplicateUpload(t *testing.T) {
	f := newIngestFixture(nil, nil)
	ctx := context.Background()
	text := []byte("Identical document body uploaded twice.")

	first, err := f.orch.Ingest(ctx, testTenant(), "a.txt", "text/plain", text, "simple")
	require.NoError(t, err)
	second, err := f.orch.Ingest(ctx, testTenant(), "b.txt", "text/plain", text, "simple")
	require.NoError(t, err)

	assert.NotEqual(t, first.DocID, second.DocID)
	assert.True(t, second.Blob.Deduplicated)

	blob, err := f.blobStore.Get(ctx, first.Blob.MD5)
	require.NoError(t, err)
	assert.Equal(t, 2, blob.RefCount)
}

func TestIngestOrchestrator_ChunkingFailureDeadLetters(t *testing.T) {
	broken := &stubStrategy{level: domain.LevelSimple, err: assert.AnError}
	f := newIngestFixture(map[domain.ChunkingLevel]chunkers.Strategy{domain.LevelSimple: broken}, broken)
	ctx := context.Background()

	_, err := f.orch.Ingest(ctx, testTenant(), "doc.md", "text/markdown", []byte("some text"), "SIMPLE")
	require.Error(t, err)

	entries, err := f.dlqStore.List(ctx, "tenant-1", driven.DeadLetterListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.JobTypeDocumentAnalysis, entries[0].JobType)
	assert.Contains(t, entries[0].FailureReason, "chunk document")

	job, err := f.jobs.Get(ctx, entries[0].DocID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func TestIngestOrchestrator_NonSimpleFailureStillCompletes(t *testing.T) {
	semantic := &stubStrategy{level: domain.LevelSemantic, err: assert.AnError}
	fallback := simple.New()
	f := newIngestFixture(map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSimple:   fallback,
		domain.LevelSemantic: semantic,
	}, fallback)
	ctx := context.Background()

	report, err := f.orch.Ingest(ctx, testTenant(), "doc.md", "text/markdown", []byte("First sentence. Second sentence."), "SEMANTIC")
	require.NoError(t, err)
	assert.Positive(t, report.ChunkCount)
	assert.Equal(t, domain.LevelSemantic, report.Level)

	job, err := f.jobs.Get(ctx, report.DocID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, job.Status)
	assert.Len(t, f.events.byAction("CHUNKING_FALLBACK"), 1)
}

func TestIngestOrchestrator_ValidatesInput(t *testing.T) {
	f := newIngestFixture(nil, nil)
	ctx := context.Background()

	_, err := f.orch.Ingest(ctx, testTenant(), "", "text/plain", []byte("x"), "simple")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "filename", verr.Field)

	_, err = f.orch.Ingest(ctx, testTenant(), "a.txt", "text/plain", nil, "simple")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "data", verr.Field)

	_, err = f.orch.Ingest(ctx, domain.TenantContext{}, "a.txt", "text/plain", []byte("x"), "simple")
	require.ErrorAs(t, err, &verr)
}
