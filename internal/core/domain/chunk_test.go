package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormaliseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want ChunkingLevel
	}{
		{"SIMPLE", LevelSimple},
		{"simple", LevelSimple},
		{"Basic", LevelSimple},
		{"FAST", LevelSimple},
		{"SEMANTIC", LevelSemantic},
		{"medium", LevelSemantic},
		{"GENERATIVE", LevelGenerative},
		{"premium", LevelGenerative},
		{"llm", LevelGenerative},
		{"  semantic  ", LevelSemantic},
		{"", LevelSimple},
		{"nonsense", LevelSimple},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormaliseLevel(tt.raw), "level %q", tt.raw)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("a"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestValidCause(t *testing.T) {
	assert.True(t, ValidCause(CauseMissingContext))
	assert.True(t, ValidCause(CausePoorReasoning))
	assert.False(t, ValidCause(CauseID("SOMETHING_ELSE")))
}
