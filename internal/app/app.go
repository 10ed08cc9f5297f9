// Package app wires the answer pipeline, the indexer and their clients from
// configuration. Both the API server and the CLI build on it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"clio-assistant/internal/config"
	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/embcache"
	"clio-assistant/internal/indexer"
	"clio-assistant/internal/llm"
	"clio-assistant/internal/rag"
	"clio-assistant/internal/storage"
	"clio-assistant/internal/vectorstore"
)

// Options selects the optional parts of the application.
type Options struct {
	// History opens the SQLite query history.
	History bool
}

// App holds the wired components. Close releases every client.
type App struct {
	Config *config.Config

	// Embedder is the paced provider embedder shared by indexing and search.
	Embedder llm.Embedder
	// QueryEmbedder is Embedder behind the optional Redis cache.
	QueryEmbedder llm.Embedder
	Generator     llm.Generator

	VectorStore *vectorstore.QdrantStore
	Engine      rag.Engine
	Pipeline    *indexer.Pipeline

	DB      *sql.DB
	History *storage.QueryRepo

	closers []func()
}

// Build creates every client named in cfg. Nothing is contacted except Redis,
// which is skipped with a warning when unreachable.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)
	a := &App{Config: cfg}

	embedder, generator, closeProvider, err := newProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeProvider)

	if cfg.EmbeddingInterval <= 0 {
		logger.WarnContext(ctx, "embedding pacing disabled", "provider", cfg.LLMProvider)
	}
	a.Embedder = llm.NewPacedEmbedder(embedder, cfg.EmbeddingInterval)
	a.Generator = generator
	a.QueryEmbedder = a.Embedder

	if cfg.RedisAddr != "" {
		cache, err := embcache.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			logger.WarnContext(ctx, "embedding cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			a.closers = append(a.closers, cache.Close)
			a.QueryEmbedder = embcache.New(a.Embedder, cache, cfg.EmbeddingModelName, cfg.EmbeddingCacheTTL)
			logger.InfoContext(ctx, "embedding cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.EmbeddingCacheTTL)
		}
	}

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	a.VectorStore = store
	a.closers = append(a.closers, func() { _ = store.Close() })

	retriever := rag.NewRetriever(a.QueryEmbedder, store, cfg.QdrantCollection,
		rag.WithTimeouts(cfg.EmbeddingTimeout, cfg.SearchTimeout))
	answerer := rag.NewAnswerGenerator(generator, llm.GenerateParams{
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	}, cfg.GenerationTimeout)
	a.Engine = rag.NewEngine(retriever, answerer, cfg.RetrievalTopK)
	a.Pipeline = indexer.NewPipeline(a.Embedder, store, cfg.QdrantCollection)

	if opts.History {
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := storage.Migrate(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		a.DB = db
		a.History = storage.NewQueryRepo(db)
		logger.InfoContext(ctx, "query history enabled", "path", cfg.DBPath)
	}

	logger.DebugContext(ctx, "application wired",
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModelName,
		"embedding_model", cfg.EmbeddingModelName,
		"collection", cfg.QdrantCollection,
	)
	return a, nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// ValidateEmbedding embeds a probe text and checks the vector size against the
// configured collection dimension.
func (a *App) ValidateEmbedding(ctx context.Context) error {
	vec, err := a.Embedder.Embed(ctx, "Clio Awards", llm.ModeQuery)
	if err != nil {
		return fmt.Errorf("failed to validate embedding model: %w", err)
	}
	if len(vec) != a.Config.QdrantVectorSize {
		return fmt.Errorf("%w: expected %d, got %d", llm.ErrDimensionMismatch, a.Config.QdrantVectorSize, len(vec))
	}
	return nil
}

func newProviders(ctx context.Context, cfg *config.Config) (llm.Embedder, llm.Generator, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAPIKey))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Warn("failed to close Gemini client", "error", err)
			}
		}
		return llm.NewGeminiEmbedder(client, cfg.EmbeddingModelName, cfg.QdrantVectorSize),
			llm.NewGeminiGenerator(client, cfg.LLMModelName),
			closeClient, nil
	case config.ProviderOpenAI:
		return llm.NewOpenAIEmbedder(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize),
			llm.NewOpenAIGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName),
			func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
