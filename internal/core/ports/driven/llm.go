package driven

import "context"

// LLMService provides generative model operations. The generative chunker,
// the judge and the self-correction pass all consume it as an opaque
// prompt-in, text-out function.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Compatible inference servers (Azure OpenAI, local gateways)
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
