package indexer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/llm"
	"clio-assistant/internal/rag"
	"clio-assistant/internal/vectorstore"
)

const (
	// DefaultBatchSize is the number of points sent per upsert.
	DefaultBatchSize = 100

	maxLineSize = 16 * 1024 * 1024
)

// Skip reasons reported in IngestStats.SkippedReasons.
const (
	SkipInvalidJSON    = "invalid_json"
	SkipMissingFields  = "missing_fields"
	SkipEmbeddingError = "embedding_error"
)

// Pipeline populates the vector index from preprocessed chunk files.
type Pipeline struct {
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	batchSize   int
}

// NewPipeline creates a new indexing pipeline. The embedder should be the
// same paced embedder the query path uses so both share one quota.
func NewPipeline(embedder llm.Embedder, vectorStore vectorstore.VectorStore, collection string) *Pipeline {
	return &Pipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		batchSize:   DefaultBatchSize,
	}
}

// PointID maps a chunk id to the deterministic UUID used as its point id,
// so re-indexing a chunk overwrites the previous point.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// IndexChunks embeds every chunk in r (JSON lines of ChunkRecord) in document
// mode and upserts them in batches. Bad lines and failed embeddings are skipped
// and counted. An error is returned when reading fails, ctx ends, or a batch
// could not be stored.
func (p *Pipeline) IndexChunks(ctx context.Context, r io.Reader) (*IngestStats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	stats := newIngestStats()
	batch := make([]vectorstore.Point, 0, p.batchSize)
	var tokenCounts []int

	err := forEachLine(r, func(line []byte) error {
		stats.RecordsRead++

		var rec ChunkRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			stats.skip(SkipInvalidJSON)
			logger.WarnContext(ctx, "skipping invalid chunk line", "line", stats.RecordsRead, "error", err)
			return nil
		}
		if rec.ChunkID == "" || strings.TrimSpace(rec.Content) == "" {
			stats.skip(SkipMissingFields)
			logger.WarnContext(ctx, "skipping chunk without id or content", "line", stats.RecordsRead)
			return nil
		}

		vec, err := p.embedder.Embed(ctx, rec.Content, llm.ModeDocument)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.skip(SkipEmbeddingError)
			logger.ErrorContext(ctx, "failed to embed chunk", "chunk_id", rec.ChunkID, "error", err)
			return nil
		}
		stats.ChunksEmbedded++
		tokenCounts = append(tokenCounts, estimateTokens(rec.Content))

		batch = append(batch, vectorstore.Point{
			ID:   PointID(rec.ChunkID),
			Vec:  vec,
			Meta: rec.payload(),
		})
		if len(batch) >= p.batchSize {
			p.flush(ctx, batch, stats)
			batch = make([]vectorstore.Point, 0, p.batchSize)
		}
		if stats.ChunksEmbedded%10 == 0 {
			logger.InfoContext(ctx, "indexing progress", "embedded", stats.ChunksEmbedded, "read", stats.RecordsRead)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	p.flush(ctx, batch, stats)
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)

	logger.InfoContext(ctx, "indexing completed",
		"read", stats.RecordsRead,
		"embedded", stats.ChunksEmbedded,
		"upserted", stats.PointsUpserted,
		"skipped", stats.Skipped(),
		"failed_batches", stats.BatchesFailed,
	)
	return stats, stats.err()
}

// UploadEmbeddings upserts precomputed points from r (JSON lines of EmbeddingRecord).
// A failing batch is logged and the upload continues.
func (p *Pipeline) UploadEmbeddings(ctx context.Context, r io.Reader) (*IngestStats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	stats := newIngestStats()
	batch := make([]vectorstore.Point, 0, p.batchSize)

	err := forEachLine(r, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.RecordsRead++

		var rec EmbeddingRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			stats.skip(SkipInvalidJSON)
			logger.WarnContext(ctx, "skipping invalid embedding line", "line", stats.RecordsRead, "error", err)
			return nil
		}
		if rec.ID == "" || len(rec.Values) == 0 {
			stats.skip(SkipMissingFields)
			logger.WarnContext(ctx, "skipping embedding without id or values", "line", stats.RecordsRead)
			return nil
		}

		batch = append(batch, vectorstore.Point{
			ID:   PointID(rec.ID),
			Vec:  rec.Values,
			Meta: normalizePayload(rec.ID, rec.Metadata),
		})
		if len(batch) >= p.batchSize {
			p.flush(ctx, batch, stats)
			batch = make([]vectorstore.Point, 0, p.batchSize)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	p.flush(ctx, batch, stats)

	logger.InfoContext(ctx, "upload completed",
		"read", stats.RecordsRead,
		"upserted", stats.PointsUpserted,
		"skipped", stats.Skipped(),
		"failed_batches", stats.BatchesFailed,
	)
	return stats, stats.err()
}

func (p *Pipeline) flush(ctx context.Context, batch []vectorstore.Point, stats *IngestStats) {
	if len(batch) == 0 {
		return
	}
	if err := p.vectorStore.Upsert(ctx, p.collection, batch); err != nil {
		stats.BatchesFailed++
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to upsert batch",
			"batch", stats.BatchesFailed+stats.BatchesUpserted, "size", len(batch), "error", err)
		return
	}
	stats.BatchesUpserted++
	stats.PointsUpserted += len(batch)
}

// normalizePayload turns JSON numbers with no fraction, and a numeric year
// string, into integers so that integer filters match. It also makes sure the
// chunk id is present.
func normalizePayload(id string, meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		switch val := v.(type) {
		case nil:
			continue
		case float64:
			if val == math.Trunc(val) {
				out[k] = int64(val)
				continue
			}
		case string:
			if k == rag.FieldYear {
				if n, err := strconv.ParseInt(val, 10, 64); err == nil {
					out[k] = n
					continue
				}
			}
		}
		out[k] = v
	}
	if _, ok := out[rag.FieldChunkID]; !ok {
		out[rag.FieldChunkID] = id
	}
	return out
}

func forEachLine(r io.Reader, fn func(line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
