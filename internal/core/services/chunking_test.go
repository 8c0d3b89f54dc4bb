package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/chunkers/simple"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// stubStrategy returns canned chunks or a canned error.
type stubStrategy struct {
	level  domain.ChunkingLevel
	chunks []domain.Chunk
	err    error
	calls  int
}

func (s *stubStrategy) Level() domain.ChunkingLevel { return s.level }

func (s *stubStrategy) Chunk(_ context.Context, _ domain.TenantContext, _ string, _ chunkers.Metadata) ([]domain.Chunk, error) {
	s.calls++
	return s.chunks, s.err
}

func TestChunkingService_DispatchesByLevel(t *testing.T) {
	semantic := &stubStrategy{level: domain.LevelSemantic, chunks: []domain.Chunk{{Text: "semantic chunk"}}}
	fallback := &stubStrategy{level: domain.LevelSimple, chunks: []domain.Chunk{{Text: "simple chunk"}}}
	svc := NewChunkingService(map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSimple:   fallback,
		domain.LevelSemantic: semantic,
	}, fallback, &recordingLogger{})

	chunks, err := svc.Chunk(context.Background(), testTenant(), "some text", "semantic", driving.ChunkingMetadata{Filename: "a.md"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "semantic chunk", chunks[0].Text)
	assert.Equal(t, 1, semantic.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestChunkingService_FallsBackToSimple(t *testing.T) {
	semantic := &stubStrategy{level: domain.LevelSemantic, err: errors.New("embedding service down")}
	fallback := &stubStrategy{level: domain.LevelSimple, chunks: []domain.Chunk{{Text: "fallback chunk"}}}
	events := &recordingLogger{}
	svc := NewChunkingService(map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSemantic: semantic,
	}, fallback, events)

	chunks, err := svc.Chunk(context.Background(), testTenant(), "some text", "SEMANTIC", driving.ChunkingMetadata{Filename: "a.md"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "fallback chunk", chunks[0].Text)

	logged := events.byAction("CHUNKING_FALLBACK")
	require.Len(t, logged, 1)
	assert.Equal(t, "SEMANTIC", logged[0].Details["requested_level"])
}

func TestChunkingService_SimpleFailurePropagates(t *testing.T) {
	fallback := &stubStrategy{level: domain.LevelSimple, err: errors.New("splitter broken")}
	svc := NewChunkingService(map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSimple: fallback,
	}, fallback, &recordingLogger{})

	_, err := svc.Chunk(context.Background(), testTenant(), "some text", "simple", driving.ChunkingMetadata{Filename: "a.md"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "splitter broken")
	assert.Equal(t, 1, fallback.calls)
}

func TestChunkingService_EmptyTextRejected(t *testing.T) {
	fallback := &stubStrategy{level: domain.LevelSimple}
	svc := NewChunkingService(nil, fallback, &recordingLogger{})

	_, err := svc.Chunk(context.Background(), testTenant(), "   \n\t ", "simple", driving.ChunkingMetadata{Filename: "a.md"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)
	assert.Equal(t, 0, fallback.calls)
}

func TestChunkingService_UnknownLevelUsesSimple(t *testing.T) {
	fallback := &stubStrategy{level: domain.LevelSimple, chunks: []domain.Chunk{{Text: "simple chunk"}}}
	svc := NewChunkingService(map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSimple: fallback,
	}, fallback, &recordingLogger{})

	chunks, err := svc.Chunk(context.Background(), testTenant(), "text", "turbo-max", driving.ChunkingMetadata{Filename: "a.md"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "simple chunk", chunks[0].Text)
}

func TestChunkingService_RealSimpleSplitter(t *testing.T) {
	splitter := simple.New()
	svc := NewChunkingService(map[domain.ChunkingLevel]chunkers.Strategy{
		domain.LevelSimple: splitter,
	}, splitter, &recordingLogger{})

	chunks, err := svc.Chunk(context.Background(), testTenant(), "First sentence. Second sentence.", "SIMPLE", driving.ChunkingMetadata{Filename: "a.md"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
}
