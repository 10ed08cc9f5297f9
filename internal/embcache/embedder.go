package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/llm"
	"clio-assistant/internal/metrics"
)

const keyPrefix = "clio:emb:"

// ErrKeyNotFound is returned by a store when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches embeddings in a key-value store in front of another Embedder.
// Hits never reach the wrapped embedder, so they do not consume provider quota.
// Store failures are logged and treated as misses.
type CachedEmbedder struct {
	inner llm.Embedder
	store store
	model string
	ttl   time.Duration
}

// New creates a caching decorator. The model name is part of the key so
// switching models never serves stale vectors.
func New(inner llm.Embedder, s store, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		store: s,
		model: model,
		ttl:   ttl,
	}
}

// Embed returns a cached embedding or calls the wrapped embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string, mode llm.EmbeddingMode) ([]float32, error) {
	key := c.cacheKey(text, mode)

	if vec, ok := c.get(ctx, key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.inner.Embed(ctx, text, mode)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	c.put(ctx, key, vec)
	return vec, nil
}

func (c *CachedEmbedder) cacheKey(text string, mode llm.EmbeddingMode) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + c.model + ":" + string(mode) + ":" + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) get(ctx context.Context, key string) ([]float32, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			logger.WarnContext(ctx, "failed to read cached embedding", "key", key, "error", err)
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode cached embedding", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) put(ctx context.Context, key string, vec []float32) {
	if err := c.store.SetWithTTL(ctx, key, vectorToBytes(vec), c.ttl); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to cache embedding", "key", key, "error", err)
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached embedding: len=%d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
