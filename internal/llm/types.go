package llm

import (
	"context"
	"errors"
	"fmt"
)

// EmbeddingMode selects which side of an asymmetric embedding space a text belongs to.
type EmbeddingMode string

const (
	// ModeDocument embeds source passages at indexing time.
	ModeDocument EmbeddingMode = "document"
	// ModeQuery embeds user questions at search time.
	ModeQuery EmbeddingMode = "query"
)

var (
	// ErrEmptyResponse is returned when a provider answers without usable content.
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrDimensionMismatch is returned when an embedding does not have the configured size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// GenerateParams holds parameters for a single generation request.
type GenerateParams struct {
	// Temperature controls the randomness of the output.
	Temperature float32

	// MaxTokens caps the number of generated tokens. If 0, the provider default applies.
	MaxTokens int
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string, mode EmbeddingMode) ([]float32, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
}

func checkDimension(vec []float32, expected int) error {
	if expected > 0 && len(vec) != expected {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), expected)
	}
	return nil
}
