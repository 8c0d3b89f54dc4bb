package semantic

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventslog "github.com/custodia-labs/corpora-cli/internal/adapters/driven/eventlog/slog"
	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// fakeEmbedder returns a preset vector per trimmed input text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vec, ok := f.vectors[strings.TrimSpace(text)]
	if !ok {
		return []float32{1, 0}, nil
	}
	return vec, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 2 }
func (f *fakeEmbedder) ModelName() string            { return "fake" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// unit returns a 2D unit vector at the given angle in radians.
func unit(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func TestChunk_SimilarityMerge(t *testing.T) {
	// Pairwise similarities: (1,2)=0.9 merges, (2,3)=0.3 splits.
	// Threshold 0.75 must produce exactly two chunks.
	angle12 := math.Acos(0.9)
	angle23 := math.Acos(0.3)

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"Alpha one.":   unit(0),
		"Beta two.":    unit(angle12),
		"Gamma three.": unit(angle12 + angle23),
	}}

	c := New(embedder, eventslog.NewNop(), WithThreshold(0.75))
	text := "Alpha one. Beta two. Gamma three."
	chunks, err := c.Chunk(context.Background(), domain.TenantContext{TenantID: "t1", CorrelationID: "c1"}, text, chunkers.Metadata{})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha one. Beta two. ", chunks[0].Text)
	assert.Equal(t, "Gamma three.", chunks[1].Text)
}

func TestChunk_OffsetsPartitionText(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	c := New(embedder, eventslog.NewNop())

	text := "First sentence. Second sentence.\n\nThird paragraph starts here. And ends."
	chunks, err := c.Chunk(context.Background(), domain.TenantContext{}, text, chunkers.Metadata{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Identical embeddings merge everything into one chunk covering the
	// whole text.
	assert.Equal(t, 0, chunks[0].StartIndex)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndIndex)
	for _, chunk := range chunks {
		assert.Equal(t, text[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}
}

func TestChunk_EmbeddingFailureFailsStrategy(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("model unreachable")}
	c := New(embedder, eventslog.NewNop())

	_, err := c.Chunk(context.Background(), domain.TenantContext{}, "One sentence. Another sentence. A third one.", chunkers.Metadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unreachable")
}

func TestChunk_SingleSegmentSkipsEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("should not be called")}
	c := New(embedder, eventslog.NewNop())

	chunks, err := c.Chunk(context.Background(), domain.TenantContext{}, "Just one short sentence with no terminator", chunkers.Metadata{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestChunk_NilEmbedder(t *testing.T) {
	c := New(nil, eventslog.NewNop())
	_, err := c.Chunk(context.Background(), domain.TenantContext{}, "Some text. More text.", chunkers.Metadata{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Zero magnitude is defined as 0.
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))

	// Mismatched lengths are defined as 0.
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
}

func TestSegmentise(t *testing.T) {
	segments := segmentise("One. Two! Three? Four")
	require.Len(t, segments, 4)

	// Segments partition the text exactly.
	text := "One. Two! Three? Four"
	prev := 0
	for _, seg := range segments {
		assert.Equal(t, prev, seg.start)
		prev = seg.end
	}
	assert.Equal(t, len(text), prev)
}
