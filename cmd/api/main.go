package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clio-assistant/internal/app"
	"clio-assistant/internal/config"
	"clio-assistant/internal/http"
	"clio-assistant/internal/indexer"
	"clio-assistant/internal/metrics"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about the Clio Awards from indexed award pages.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Clio Awards Assistant API
//   description: |
//     Retrieval-augmented question answering over Clio Awards winners, jury and event pages.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg, app.Options{History: true})
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	info, err := indexer.EnsureIndex(ctx, application.VectorStore, cfg.QdrantCollection, cfg.QdrantVectorSize)
	if err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready",
		"collection", cfg.QdrantCollection,
		"vector_size", info.VectorSize,
		"points", info.PointsCount,
	)

	if err := application.ValidateEmbedding(ctx); err != nil {
		log.Fatalf("Failed to validate embedding model: %v", err)
	}
	slog.Info("Embedding model validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.QdrantVectorSize)

	router := http.NewRouter(&http.Deps{
		Engine:       application.Engine,
		History:      application.History,
		Database:     application.DB,
		VectorStore:  application.VectorStore,
		IndexManager: application.VectorStore,
		Collection:   cfg.QdrantCollection,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
	slog.Info("API server stopped")
}
