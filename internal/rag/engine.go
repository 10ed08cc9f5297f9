package rag

import (
	"context"
	"time"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/metrics"
)

// Engine answers questions about the Clio Awards corpus.
type Engine interface {
	// Answer runs filter extraction, retrieval, context assembly and generation in order.
	// It always returns a well-formed result and never an error.
	Answer(ctx context.Context, query string, enableFilters bool) AnswerResult
}

type ragEngine struct {
	retriever *Retriever
	generator *AnswerGenerator
	topK      int
}

// NewEngine creates the pipeline. A non-positive topK uses DefaultTopK.
func NewEngine(retriever *Retriever, generator *AnswerGenerator, topK int) Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ragEngine{
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// Answer implements Engine.
func (e *ragEngine) Answer(ctx context.Context, query string, enableFilters bool) AnswerResult {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	var filters FilterSet
	if enableFilters {
		filters = ExtractFilters(query)
	}
	logger.InfoContext(ctx, "answer started", "query_length", len(query), "filters_enabled", enableFilters, "filters", filters)

	stageStart := time.Now()
	sources := e.retriever.Retrieve(ctx, query, filters, e.topK)
	metrics.ObserveStage("retrieve", time.Since(stageStart))

	stageStart = time.Now()
	block := BuildContext(sources)
	metrics.ObserveStage("context", time.Since(stageStart))

	stageStart = time.Now()
	result := e.generator.Generate(ctx, query, block, sources)
	metrics.ObserveStage("generate", time.Since(stageStart))

	result.Sources = sources
	result.FiltersUsed = filters
	result.ProcessingTime = time.Since(start)

	metrics.ObserveStage("total", result.ProcessingTime)
	metrics.AnswersTotal.WithLabelValues(string(result.Confidence)).Inc()
	logger.InfoContext(ctx, "answer completed",
		"confidence", result.Confidence,
		"has_answer", result.HasAnswer,
		"sources", len(sources),
		"duration", result.ProcessingTime,
	)
	return result
}
