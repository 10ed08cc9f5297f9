package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"clio-assistant/internal/metrics"
)

// PacedEmbedder spaces calls to an Embedder so that no two requests start
// closer than the configured interval. One PacedEmbedder must be shared by
// every caller drawing on the same provider quota.
type PacedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewPacedEmbedder wraps inner with a token bucket of burst 1 refilled every interval.
// The bucket starts empty, so the first request also waits one interval: a
// previous process on the same key may have just made a call.
// An interval of zero disables pacing.
func NewPacedEmbedder(inner Embedder, interval time.Duration) *PacedEmbedder {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)
	limiter.Allow()
	return &PacedEmbedder{
		inner:   inner,
		limiter: limiter,
	}
}

// Embed waits for the shared quota and then calls the wrapped embedder.
// If ctx expires before a slot opens, the provider is never called.
func (p *PacedEmbedder) Embed(ctx context.Context, text string, mode EmbeddingMode) ([]float32, error) {
	waitStart := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(mode), "throttled").Inc()
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	metrics.EmbeddingLimiterWait.Observe(time.Since(waitStart).Seconds())

	start := time.Now()
	vec, err := p.inner.Embed(ctx, text, mode)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(string(mode), "error").Inc()
		return nil, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(string(mode), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	return vec, nil
}
