package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"clio-assistant/internal/rag"
)

// ChunkRecord is one line of a chunk JSONL file produced by the preprocessing step.
type ChunkRecord struct {
	ChunkID  string `json:"chunk_id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Year     Year   `json:"year"`
	Category string `json:"category"`
	PageType string `json:"page_type"`
}

// EmbeddingRecord is one line of an embeddings JSONL file: a point ready for upload.
type EmbeddingRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

// Year accepts a JSON number, a numeric string, or null. Zero means unknown.
type Year int

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*y = 0
		return nil
	}

	var s string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*y = 0
			return nil
		}
	} else {
		s = string(data)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid year %q: %w", s, err)
	}
	*y = Year(f)
	return nil
}

// payload returns the point payload the retriever reads back.
// Empty attributes are left out so they never match a filter.
func (c ChunkRecord) payload() map[string]any {
	meta := map[string]any{
		rag.FieldChunkID: c.ChunkID,
		rag.FieldText:    c.Content,
	}
	if c.URL != "" {
		meta[rag.FieldURL] = c.URL
	}
	if c.Title != "" {
		meta[rag.FieldTitle] = c.Title
	}
	if c.Year != 0 {
		meta[rag.FieldYear] = int64(c.Year)
	}
	if c.Category != "" {
		meta[rag.FieldCategory] = c.Category
	}
	if c.PageType != "" {
		meta[rag.FieldPageType] = c.PageType
	}
	return meta
}
