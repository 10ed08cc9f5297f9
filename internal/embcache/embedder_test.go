package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clio-assistant/internal/llm"
)

type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(context.Context, string, llm.EmbeddingMode) ([]float32, error) {
	c.calls++
	return c.vec, c.err
}

func TestCachedEmbedder_MissThenHit(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{0.1, -0.2, 0.3}}
	s := newMemStore()
	ce := New(inner, s, "text-embedding-004", time.Hour)
	ctx := context.Background()

	first, err := ce.Embed(ctx, "Who won Clio Sports 2025?", llm.ModeQuery)
	if err != nil {
		t.Fatalf("first Embed() error = %v", err)
	}
	second, err := ce.Embed(ctx, "Who won Clio Sports 2025?", llm.ModeQuery)
	if err != nil {
		t.Fatalf("second Embed() error = %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if len(second) != len(first) {
		t.Fatalf("cached len = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("cached[%d] = %v, want %v", i, second[i], first[i])
		}
	}
	for key, ttl := range s.ttls {
		if ttl != time.Hour {
			t.Errorf("ttl for %s = %v, want 1h", key, ttl)
		}
		if !strings.HasPrefix(key, "clio:emb:text-embedding-004:query:") {
			t.Errorf("key = %q", key)
		}
	}
}

func TestCachedEmbedder_ModeIsPartOfKey(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}}
	ce := New(inner, newMemStore(), "m", 0)
	ctx := context.Background()

	if _, err := ce.Embed(ctx, "same text", llm.ModeQuery); err != nil {
		t.Fatal(err)
	}
	if _, err := ce.Embed(ctx, "same text", llm.ModeDocument); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestCachedEmbedder_StoreFailuresDegradeToMiss(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 2}}
	s := newMemStore()
	s.getErr = errors.New("connection refused")
	s.setErr = errors.New("connection refused")
	ce := New(inner, s, "m", time.Minute)

	vec, err := ce.Embed(context.Background(), "q", llm.ModeQuery)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || inner.calls != 1 {
		t.Errorf("vec = %v, calls = %d", vec, inner.calls)
	}
}

func TestCachedEmbedder_CorruptEntryIsMiss(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{5}}
	s := newMemStore()
	ce := New(inner, s, "m", 0)
	s.data[ce.cacheKey("q", llm.ModeQuery)] = []byte{1, 2, 3}

	vec, err := ce.Embed(context.Background(), "q", llm.ModeQuery)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if inner.calls != 1 || vec[0] != 5 {
		t.Errorf("vec = %v, calls = %d", vec, inner.calls)
	}
}

func TestCachedEmbedder_InnerErrorNotCached(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &countingEmbedder{err: wantErr}
	s := newMemStore()
	ce := New(inner, s, "m", 0)

	_, err := ce.Embed(context.Background(), "q", llm.ModeQuery)
	if !errors.Is(err, wantErr) {
		t.Errorf("Embed() error = %v, want %v", err, wantErr)
	}
	if len(s.data) != 0 {
		t.Errorf("store has %d entries, want 0", len(s.data))
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -3.25, 1e-7}
	out, err := bytesToVector(vectorToBytes(in))
	if err != nil {
		t.Fatalf("bytesToVector() error = %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}
