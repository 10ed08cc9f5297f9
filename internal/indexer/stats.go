package indexer

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// TokensPerRune approximates token counts at 4 characters per token.
const TokensPerRune = 4.0

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	// RecordsRead is the number of non-blank input lines.
	RecordsRead int `json:"records_read"`
	// ChunksEmbedded is the number of chunks that got a vector. Zero for precomputed uploads.
	ChunksEmbedded  int            `json:"chunks_embedded"`
	PointsUpserted  int            `json:"points_upserted"`
	BatchesUpserted int            `json:"batches_upserted"`
	BatchesFailed   int            `json:"batches_failed"`
	SkippedReasons  map[string]int `json:"skipped_reasons,omitempty"`
	// ChunkTokenStats describes the estimated token size of embedded chunks.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func newIngestStats() *IngestStats {
	return &IngestStats{SkippedReasons: make(map[string]int)}
}

func (s *IngestStats) skip(reason string) {
	s.SkippedReasons[reason]++
}

// Skipped returns the total number of skipped records.
func (s *IngestStats) Skipped() int {
	n := 0
	for _, c := range s.SkippedReasons {
		n += c
	}
	return n
}

func (s *IngestStats) err() error {
	if s.BatchesFailed > 0 {
		return fmt.Errorf("ingestion completed with %d failed batches", s.BatchesFailed)
	}
	return nil
}

func estimateTokens(text string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
