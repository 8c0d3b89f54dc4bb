// Package generative provides the model-driven chunking strategy. A
// bounded prefix of the text is sent to a generative model that returns a
// JSON array of logically coherent fragment strings.
package generative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// MaxInputSize is the character budget sent to the model in one call.
// Longer texts are truncated; the caller is expected to pass a document
// component, not a whole book.
const MaxInputSize = 12000

// minInputSize is the size below which the text is returned as a single
// chunk without a model call.
const minInputSize = 500

// promptTemplate instructs the model to cut the text into coherent
// fragments without splitting sentences or tables.
const promptTemplate = `You are an expert in technical documentation%s.
Analyse the following text and divide it into logically coherent fragments (chunks) that each keep their full semantic context.

CUTTING RULES:
- Group by topic: adjustments, error codes, wiring, procedures.
- Never cut a sentence in half.
- Keep tables together where possible.

TEXT:
%s

Respond ONLY with a JSON array of strings: ["chunk 1", "chunk 2", ...]`

// Ensure Chunker implements the strategy interface.
var _ chunkers.Strategy = (*Chunker)(nil)

// Chunker delegates fragment boundaries to a generative model.
type Chunker struct {
	llm    driven.LLMService
	events driven.EventLogger
}

// New creates a generative chunker.
func New(llm driven.LLMService, events driven.EventLogger) *Chunker {
	return &Chunker{llm: llm, events: events}
}

// Level identifies the chunking level this strategy serves.
func (c *Chunker) Level() domain.ChunkingLevel {
	return domain.LevelGenerative
}

// Chunk asks the model for fragment boundaries and locates each returned
// fragment in the original text to recover accurate offsets.
func (c *Chunker) Chunk(ctx context.Context, tctx domain.TenantContext, text string, meta chunkers.Metadata) ([]domain.Chunk, error) {
	if text == "" {
		return nil, nil
	}
	if c.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	if len(text) < minInputSize {
		return []domain.Chunk{{
			ID:         uuid.New().String(),
			Text:       text,
			StartIndex: 0,
			EndIndex:   len(text),
			Tokens:     domain.EstimateTokens(text),
			Type:       domain.ChunkTypeParagraph,
		}}, nil
	}

	safeText := text
	if len(text) > MaxInputSize {
		safeText = text[:MaxInputSize]
		c.events.Log(driven.Event{
			Level:         driven.LevelWarn,
			Source:        "GENERATIVE_CHUNKER",
			Action:        "TEXT_TRUNCATED",
			Message:       fmt.Sprintf("text too long for generative chunking (%d chars), truncated to %d", len(text), MaxInputSize),
			CorrelationID: tctx.CorrelationID,
			TenantID:      tctx.TenantID,
		})
	}

	var industry string
	if meta.Industry != "" {
		industry = fmt.Sprintf(" (sector %s)", meta.Industry)
	}
	prompt := fmt.Sprintf(promptTemplate, industry, safeText)

	// Low temperature for precision.
	raw, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.1})
	if err != nil {
		return nil, fmt.Errorf("generative chunking call: %w", err)
	}

	fragments, err := parseFragments(raw)
	if err != nil {
		return nil, domain.NewAppError(domain.KindLLMInvalidFormat, 502, "chunking model returned no parseable JSON array", err)
	}

	return locate(text, fragments), nil
}

// parseFragments extracts the first well-formed JSON array of strings
// from the raw model output, tolerating code fences and surrounding prose.
func parseFragments(raw string) ([]string, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	for at := 0; at < len(cleaned); {
		idx := strings.Index(cleaned[at:], "[")
		if idx < 0 {
			break
		}
		dec := json.NewDecoder(strings.NewReader(cleaned[at+idx:]))
		var fragments []string
		if err := dec.Decode(&fragments); err == nil && len(fragments) > 0 {
			return fragments, nil
		}
		at += idx + 1
	}

	return nil, fmt.Errorf("no JSON string array in model output")
}

// locate maps each fragment back onto the source text, searching forward
// from where the previous fragment ended to preserve order. Fragments the
// model altered get estimated offsets instead.
func locate(text string, fragments []string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(fragments))
	searchStart := 0
	position := 0

	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}

		start := searchStart
		end := searchStart + len(fragment)
		if idx := strings.Index(text[searchStart:], fragment); idx >= 0 {
			start = searchStart + idx
			end = start + len(fragment)
			searchStart = end
		} else if end > len(text) {
			end = len(text)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			Text:       fragment,
			StartIndex: start,
			EndIndex:   end,
			Tokens:     domain.EstimateTokens(fragment),
			Type:       domain.ChunkTypeSection,
			Position:   position,
		})
		position++
	}
	return chunks
}
