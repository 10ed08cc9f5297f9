package rag

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/llm"
	"clio-assistant/internal/metrics"
	"clio-assistant/internal/vectorstore"
)

const (
	// DefaultTopK is used when a caller asks for zero or fewer results.
	DefaultTopK = 5
	// ExcerptLength is the number of characters kept in an excerpt.
	ExcerptLength = 300

	excerptMarker        = "..."
	defaultTitle         = "Untitled"
	defaultURL           = "#"
	defaultEmbedTimeout  = 30 * time.Second
	defaultSearchTimeout = 10 * time.Second
)

// Retriever embeds a query and fetches the nearest passages from the index.
type Retriever struct {
	embedder      Embedder
	searcher      VectorSearcher
	collection    string
	embedTimeout  time.Duration
	searchTimeout time.Duration
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTimeouts bounds the embedding call (including any pacing wait) and the index search.
// Non-positive values keep the defaults.
func WithTimeouts(embed, search time.Duration) RetrieverOption {
	return func(r *Retriever) {
		if embed > 0 {
			r.embedTimeout = embed
		}
		if search > 0 {
			r.searchTimeout = search
		}
	}
}

// NewRetriever creates a Retriever over the given collection.
func NewRetriever(embedder Embedder, searcher VectorSearcher, collection string, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:      embedder,
		searcher:      searcher,
		collection:    collection,
		embedTimeout:  defaultEmbedTimeout,
		searchTimeout: defaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK documents in similarity order.
// Failures are logged and produce an empty, non-nil slice.
func (r *Retriever) Retrieve(ctx context.Context, query string, filters FilterSet, topK int) []RetrievedDocument {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		topK = DefaultTopK
	}

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	vector, err := r.embedder.Embed(embedCtx, query, llm.ModeQuery)
	cancel()
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return []RetrievedDocument{}
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	hits, err := r.searcher.Search(searchCtx, r.collection, vector, topK, filters.Predicate())
	cancel()
	if err != nil {
		logger.ErrorContext(ctx, "failed to search index", "collection", r.collection, "filters", filters, "error", err)
		return []RetrievedDocument{}
	}

	docs := make([]RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, documentFromHit(hit))
	}

	metrics.RetrievedDocuments.Observe(float64(len(docs)))
	logger.InfoContext(ctx, "retrieval completed", "results", len(docs), "top_k", topK, "filtered", !filters.IsEmpty())
	return docs
}

func documentFromHit(hit vectorstore.SearchResult) RetrievedDocument {
	content := metaString(hit.Meta, FieldText)
	if content == "" {
		content = metaString(hit.Meta, FieldContent)
	}

	id := metaString(hit.Meta, FieldChunkID)
	if id == "" {
		id = hit.PointID
	}

	return RetrievedDocument{
		ID:       id,
		Score:    hit.Score,
		Title:    metaStringOr(hit.Meta, FieldTitle, defaultTitle),
		URL:      metaStringOr(hit.Meta, FieldURL, defaultURL),
		Content:  content,
		Excerpt:  Excerpt(content),
		Year:     metaInt(hit.Meta, FieldYear),
		Category: metaString(hit.Meta, FieldCategory),
		PageType: PageType(metaString(hit.Meta, FieldPageType)),
	}
}

// Excerpt returns the first ExcerptLength characters of content followed by
// "..." when anything was cut. Shorter content is returned unchanged.
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + excerptMarker
}

func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func metaStringOr(meta map[string]any, key, fallback string) string {
	if s := metaString(meta, key); s != "" {
		return s
	}
	return fallback
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
