// Package simple provides the deterministic recursive-split chunking
// strategy. It is the system's safety net: it never fails and every other
// strategy falls back to it.
package simple

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters between
// adjacent chunks.
const DefaultOverlap = 200

// separators is the split priority: section and chapter markers first,
// then paragraph breaks, then sentence breaks, then whitespace. The empty
// separator means a raw character cut and always succeeds.
var separators = []separator{
	{token: "\n# ", attachToNext: true},
	{token: "\n## ", attachToNext: true},
	{token: "\n### ", attachToNext: true},
	{token: "\n\n", attachToNext: false},
	{token: ". ", attachToNext: false},
	{token: "\n", attachToNext: false},
	{token: " ", attachToNext: false},
	{token: "", attachToNext: false},
}

// separator is one split level. attachToNext keeps the token at the start
// of the following piece (section headers belong to the section they
// open); otherwise the token stays at the end of the preceding piece.
// Either way no byte is dropped, which is what makes zero-overlap
// reconstruction exact.
type separator struct {
	token        string
	attachToNext bool
}

// Ensure Chunker implements the strategy interface.
var _ chunkers.Strategy = (*Chunker)(nil)

// Chunker recursively splits text on a priority list of separators with a
// fixed target size and bounded overlap.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a deterministic chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay strictly below the chunk size.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Level identifies the chunking level this strategy serves.
func (c *Chunker) Level() domain.ChunkingLevel {
	return domain.LevelSimple
}

// piece is an atomic region of the source text, at most chunkSize long.
// A barrier piece opens a section and must not be merged into the chunk
// before it.
type piece struct {
	start   int
	end     int
	barrier bool
}

// Chunk splits the text. It never returns an error.
func (c *Chunker) Chunk(_ context.Context, _ domain.TenantContext, text string, _ chunkers.Metadata) ([]domain.Chunk, error) {
	if text == "" {
		return nil, nil
	}

	pieces := c.split(text, 0, len(text), 0)
	return c.merge(text, pieces), nil
}

// split recursively cuts text[start:end] into pieces no longer than the
// chunk size, trying each separator in priority order.
func (c *Chunker) split(text string, start, end, sepIdx int) []piece {
	if end-start <= c.chunkSize {
		return []piece{{start: start, end: end}}
	}

	sep := separators[sepIdx]
	if sep.token == "" {
		// Raw character cut, the final resort.
		var pieces []piece
		for at := start; at < end; at += c.chunkSize {
			stop := at + c.chunkSize
			if stop > end {
				stop = end
			}
			pieces = append(pieces, piece{start: at, end: stop})
		}
		return pieces
	}

	bounds := splitBounds(text, start, end, sep)
	if len(bounds) == 1 {
		// Separator absent; try the next one.
		return c.split(text, start, end, sepIdx+1)
	}

	var pieces []piece
	for _, b := range bounds {
		if b.end-b.start > c.chunkSize {
			sub := c.split(text, b.start, b.end, sepIdx+1)
			if len(sub) > 0 {
				sub[0].barrier = sub[0].barrier || b.barrier
			}
			pieces = append(pieces, sub...)
		} else {
			pieces = append(pieces, b)
		}
	}
	return pieces
}

// splitBounds cuts text[start:end] at every occurrence of the separator.
// The separator's bytes are kept with one side, so concatenating the
// resulting regions reproduces the input exactly.
func splitBounds(text string, start, end int, sep separator) []piece {
	var bounds []piece
	nextBarrier := false
	at := start
	for at < end {
		idx := strings.Index(text[at:end], sep.token)
		if idx < 0 {
			break
		}
		var cut int
		if sep.attachToNext {
			// Cut before the token; it opens the next piece.
			cut = at + idx
			if cut == boundsStart(bounds, start) {
				// Token opens the piece currently being formed.
				nextBarrier = true
				at = cut + len(sep.token)
				continue
			}
		} else {
			cut = at + idx + len(sep.token)
		}
		bounds = append(bounds, piece{start: boundsStart(bounds, start), end: cut, barrier: nextBarrier})
		nextBarrier = sep.attachToNext
		at = cut
		if sep.attachToNext {
			at += len(sep.token)
		}
	}
	if last := boundsStart(bounds, start); last < end {
		bounds = append(bounds, piece{start: last, end: end, barrier: nextBarrier})
	}
	return bounds
}

// boundsStart returns where the next piece begins: after the previous
// piece, or at the region start for the first.
func boundsStart(bounds []piece, regionStart int) int {
	if len(bounds) == 0 {
		return regionStart
	}
	return bounds[len(bounds)-1].end
}

// merge greedily packs consecutive pieces into chunks up to the target
// size, then applies the configured overlap by extending each chunk's
// start backwards into its predecessor.
func (c *Chunker) merge(text string, pieces []piece) []domain.Chunk {
	var spans []piece
	cur := piece{start: -1}
	for _, p := range pieces {
		if cur.start < 0 {
			cur = p
			continue
		}
		if !p.barrier && p.end-cur.start <= c.chunkSize {
			cur.end = p.end
			continue
		}
		spans = append(spans, cur)
		cur = p
	}
	if cur.start >= 0 {
		spans = append(spans, cur)
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		start := span.start
		if c.overlap > 0 && i > 0 {
			start -= c.overlap
			if start < spans[i-1].start {
				start = spans[i-1].start
			}
		}

		body := text[start:span.end]
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			Text:       body,
			StartIndex: start,
			EndIndex:   span.end,
			Tokens:     domain.EstimateTokens(body),
			Type:       classify(body),
			Position:   i,
		})
	}
	return chunks
}

// classify infers the structural type from the chunk's leading text.
func classify(body string) domain.ChunkType {
	trimmed := strings.TrimLeft(body, "\n ")
	switch {
	case strings.HasPrefix(trimmed, "#"):
		return domain.ChunkTypeSection
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		return domain.ChunkTypeList
	default:
		return domain.ChunkTypeParagraph
	}
}
