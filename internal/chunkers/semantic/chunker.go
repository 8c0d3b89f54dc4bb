// Package semantic provides the similarity-based chunking strategy. It
// segments text into sentences, embeds every segment and greedily merges
// consecutive segments while their cosine similarity stays at or above a
// threshold.
package semantic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// DefaultThreshold is the cosine similarity at or above which consecutive
// segments merge into one chunk.
const DefaultThreshold = 0.75

// DefaultConcurrency bounds parallel embedding calls. Segments are
// independent, so dispatch order does not matter; the merge pass that
// consumes the embeddings stays strictly sequential.
const DefaultConcurrency = 4

// Ensure Chunker implements the strategy interface.
var _ chunkers.Strategy = (*Chunker)(nil)

// Chunker merges sentence segments by embedding similarity. It requires a
// successful embedding for every segment: a single failed call fails the
// whole strategy and the dispatcher falls back to the deterministic one.
type Chunker struct {
	embedder    driven.EmbeddingService
	events      driven.EventLogger
	threshold   float64
	concurrency int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithThreshold sets the merge similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Chunker) {
		if threshold > 0 && threshold <= 1 {
			c.threshold = threshold
		}
	}
}

// WithConcurrency sets the parallel embedding dispatch limit.
func WithConcurrency(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a semantic chunker.
func New(embedder driven.EmbeddingService, events driven.EventLogger, opts ...Option) *Chunker {
	c := &Chunker{
		embedder:    embedder,
		events:      events,
		threshold:   DefaultThreshold,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Level identifies the chunking level this strategy serves.
func (c *Chunker) Level() domain.ChunkingLevel {
	return domain.LevelSemantic
}

// segment is one sentence-like region of the source text.
type segment struct {
	start int
	end   int
}

func (s segment) text(source string) string {
	return source[s.start:s.end]
}

// Chunk splits the text by embedding similarity.
func (c *Chunker) Chunk(ctx context.Context, tctx domain.TenantContext, text string, _ chunkers.Metadata) ([]domain.Chunk, error) {
	if text == "" {
		return nil, nil
	}
	if c.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	segments := segmentise(text)
	if len(segments) == 1 {
		return c.build(text, [][]segment{segments}), nil
	}

	c.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "SEMANTIC_CHUNKER",
		Action:        "SEGMENTS_CREATED",
		Message:       fmt.Sprintf("split text into %d segments", len(segments)),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details:       map[string]any{"segments": len(segments)},
	})

	embeddings, err := c.embedAll(ctx, text, segments)
	if err != nil {
		return nil, fmt.Errorf("embedding segments: %w", err)
	}

	groups := c.mergeBySimilarity(segments, embeddings)

	c.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "SEMANTIC_CHUNKER",
		Action:        "SEMANTIC_CHUNKING_COMPLETE",
		Message:       fmt.Sprintf("merged %d segments into %d chunks", len(segments), len(groups)),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details:       map[string]any{"segments": len(segments), "chunks": len(groups)},
	})

	return c.build(text, groups), nil
}

// embedAll dispatches one embedding call per segment, bounded-concurrent.
// Any single failure fails the whole pass.
func (c *Chunker) embedAll(ctx context.Context, text string, segments []segment) ([][]float32, error) {
	embeddings := make([][]float32, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, seg := range segments {
		g.Go(func() error {
			vec, err := c.embedder.Embed(gctx, seg.text(text))
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			embeddings[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// mergeBySimilarity greedily groups consecutive segments. The comparison
// anchor is the most recently appended segment's embedding; a similarity
// drop below threshold closes the chunk and re-anchors at the next
// segment. This pass is strictly sequential and order-dependent.
func (c *Chunker) mergeBySimilarity(segments []segment, embeddings [][]float32) [][]segment {
	var groups [][]segment
	current := []segment{segments[0]}
	anchor := embeddings[0]

	for i := 1; i < len(segments); i++ {
		if CosineSimilarity(anchor, embeddings[i]) >= c.threshold {
			current = append(current, segments[i])
		} else {
			groups = append(groups, current)
			current = []segment{segments[i]}
		}
		anchor = embeddings[i]
	}

	return append(groups, current)
}

// build materialises segment groups into chunks.
func (c *Chunker) build(text string, groups [][]segment) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(groups))
	for i, group := range groups {
		start := group[0].start
		end := group[len(group)-1].end
		body := text[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			Text:       body,
			StartIndex: start,
			EndIndex:   end,
			Tokens:     domain.EstimateTokens(body),
			Type:       domain.ChunkTypeParagraph,
			Position:   i,
		})
	}
	return chunks
}

// CosineSimilarity is dot(a,b) / (||a|| * ||b||), defined as 0 when either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// segmentise splits text into sentence-like segments: sentence terminators
// followed by whitespace close a segment, as do blank lines. Offsets
// partition the text exactly.
func segmentise(text string) []segment {
	var segments []segment
	start := 0

	for i := 0; i < len(text); i++ {
		ch := text[i]

		isSentenceEnd := (ch == '.' || ch == '!' || ch == '?') &&
			i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t')
		isParagraphEnd := ch == '\n' && i+1 < len(text) && text[i+1] == '\n'

		if !isSentenceEnd && !isParagraphEnd {
			continue
		}

		// Consume the terminator and trailing whitespace.
		end := i + 1
		for end < len(text) && (text[end] == ' ' || text[end] == '\n' || text[end] == '\t') {
			end++
		}

		if strings.TrimSpace(text[start:end]) != "" {
			segments = append(segments, segment{start: start, end: end})
		} else if len(segments) > 0 {
			// Pure whitespace folds into the previous segment so the
			// offsets stay a partition.
			segments[len(segments)-1].end = end
		}
		start = end
		i = end - 1
	}

	if start < len(text) {
		if strings.TrimSpace(text[start:]) != "" || len(segments) == 0 {
			segments = append(segments, segment{start: start, end: len(text)})
		} else {
			segments[len(segments)-1].end = len(text)
		}
	}

	return segments
}
