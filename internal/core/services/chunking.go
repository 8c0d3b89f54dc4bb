package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpora-cli/internal/chunkers"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// Ensure ChunkingService implements the interface.
var _ driving.ChunkingService = (*ChunkingService)(nil)

// ChunkingService dispatches text to the strategy selected by level and
// guarantees a result: any non-SIMPLE strategy failure falls back to the
// SIMPLE splitter, so callers always receive chunks for non-empty input
// unless even the deterministic splitter fails.
type ChunkingService struct {
	strategies map[domain.ChunkingLevel]chunkers.Strategy
	fallback   chunkers.Strategy
	events     driven.EventLogger
}

// NewChunkingService creates a chunking dispatcher. The fallback strategy
// must be the SIMPLE splitter and must not be nil.
func NewChunkingService(strategies map[domain.ChunkingLevel]chunkers.Strategy, fallback chunkers.Strategy, events driven.EventLogger) *ChunkingService {
	return &ChunkingService{strategies: strategies, fallback: fallback, events: events}
}

// Chunk splits text at the requested level.
func (s *ChunkingService) Chunk(ctx context.Context, tctx domain.TenantContext, text, level string, meta driving.ChunkingMetadata) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewValidationError("text", "text must not be empty")
	}

	normalised := domain.NormaliseLevel(level)
	strategyMeta := chunkers.Metadata{Filename: meta.Filename, Industry: meta.Industry}

	strategy, ok := s.strategies[normalised]
	if !ok || strategy == nil {
		strategy = s.fallback
		normalised = domain.LevelSimple
	}

	chunks, err := strategy.Chunk(ctx, tctx, text, strategyMeta)
	if err == nil {
		return chunks, nil
	}

	// The SIMPLE splitter has no fallback of its own: its failure is a
	// real infrastructure failure and propagates.
	if normalised == domain.LevelSimple {
		return nil, fmt.Errorf("simple chunking: %w", err)
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelWarn,
		Source:        "CHUNKING_SERVICE",
		Action:        "CHUNKING_FALLBACK",
		Message:       fmt.Sprintf("%s chunking failed, falling back to SIMPLE: %v", normalised, err),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details: map[string]any{
			"requested_level": string(normalised),
			"filename":        meta.Filename,
			"error":           err.Error(),
		},
	})

	chunks, fberr := s.fallback.Chunk(ctx, tctx, text, strategyMeta)
	if fberr != nil {
		return nil, fmt.Errorf("fallback chunking: %w", fberr)
	}
	return chunks, nil
}
