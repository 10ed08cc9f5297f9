package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, parts ...genai.Part) (*genai.EmbedContentResponse, error)
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiEmbedder embeds text with a Google embedding model.
// Query and document texts use the matching retrieval task types.
type GeminiEmbedder struct {
	Model        string
	ExpectedSize int

	query    contentEmbedder
	document contentEmbedder
}

// NewGeminiEmbedder creates an embedder backed by the given client.
// If expectedSize > 0, vectors of any other length are rejected.
func NewGeminiEmbedder(client *genai.Client, model string, expectedSize int) *GeminiEmbedder {
	query := client.EmbeddingModel(model)
	query.TaskType = genai.TaskTypeRetrievalQuery

	document := client.EmbeddingModel(model)
	document.TaskType = genai.TaskTypeRetrievalDocument

	return &GeminiEmbedder{
		Model:        model,
		ExpectedSize: expectedSize,
		query:        query,
		document:     document,
	}
}

// Embed returns the embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string, mode EmbeddingMode) ([]float32, error) {
	model := e.document
	if mode == ModeQuery {
		model = e.query
	}

	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ErrEmptyResponse
	}

	if err := checkDimension(resp.Embedding.Values, e.ExpectedSize); err != nil {
		return nil, err
	}
	return resp.Embedding.Values, nil
}

// GeminiGenerator generates text with a Gemini model.
type GeminiGenerator struct {
	Model string

	newModel func(params GenerateParams) contentGenerator
}

// NewGeminiGenerator creates a generator backed by the given client.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{
		Model: model,
		newModel: func(params GenerateParams) contentGenerator {
			m := client.GenerativeModel(model)
			m.SetTemperature(params.Temperature)
			if params.MaxTokens > 0 {
				m.SetMaxOutputTokens(int32(params.MaxTokens))
			}
			return m
		},
	}
}

// Generate sends prompt to the model and returns the text of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	resp, err := g.newModel(params).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := candidateText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
