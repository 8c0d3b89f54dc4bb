package domain

import "strings"

// ChunkType classifies the structural origin of a chunk.
type ChunkType string

// Chunk type values.
const (
	ChunkTypeSection   ChunkType = "section"
	ChunkTypeParagraph ChunkType = "paragraph"
	ChunkTypeList      ChunkType = "list"
)

// Chunk is a contiguous fragment of a document's text sized for retrieval.
// Chunks are created once per chunking pass and never mutated; re-chunking
// supersedes the previous set.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocID links to the document this chunk was cut from.
	DocID string

	// Text is the fragment content.
	Text string

	// StartIndex and EndIndex are byte offsets into the source text,
	// 0 <= start < end <= len(text). Ranges within one chunking pass are
	// ordered and non-overlapping, except for the bounded, intentional
	// overlap between adjacent deterministic chunks.
	StartIndex int
	EndIndex   int

	// Tokens is an approximate token count.
	Tokens int

	// Type is the structural classification.
	Type ChunkType

	// Title is an optional heading attached by the generative strategy.
	Title string

	// Position is the ordinal position within the chunking pass.
	Position int
}

// ChunkingLevel selects the chunking strategy.
type ChunkingLevel string

// Chunking levels.
const (
	LevelSimple     ChunkingLevel = "SIMPLE"
	LevelSemantic   ChunkingLevel = "SEMANTIC"
	LevelGenerative ChunkingLevel = "GENERATIVE"
)

// NormaliseLevel folds a raw level string onto the canonical set.
// Matching is case-insensitive and accepts the legacy three-tier names.
// Unknown levels fold to SIMPLE, the safety net.
func NormaliseLevel(raw string) ChunkingLevel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SIMPLE", "BASIC", "FAST":
		return LevelSimple
	case "SEMANTIC", "MEDIUM":
		return LevelSemantic
	case "GENERATIVE", "PREMIUM", "LLM":
		return LevelGenerative
	default:
		return LevelSimple
	}
}

// EstimateTokens approximates the token count of text.
// Uses the 4-characters-per-token heuristic.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
