package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag.go -package=mocks clio-assistant/internal/rag Engine,Embedder,VectorSearcher,TextGenerator

import (
	"context"

	"clio-assistant/internal/llm"
	"clio-assistant/internal/vectorstore"
)

// Embedder turns a query into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string, mode llm.EmbeddingMode) ([]float32, error)
}

// VectorSearcher runs nearest-neighbour queries against the index.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]vectorstore.SearchResult, error)
}

// TextGenerator is the generative model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, params llm.GenerateParams) (string, error)
}
