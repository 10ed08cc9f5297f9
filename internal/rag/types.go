package rag

import "time"

// PageType classifies the kind of award-site page a passage came from.
type PageType string

const (
	PageTypeWinners PageType = "winners"
	PageTypeJury    PageType = "jury"
	PageTypeEvents  PageType = "events"
)

// Confidence indicates how an answer was produced.
type Confidence string

const (
	// ConfidenceHigh means the generative model produced the answer.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium means the model failed and the answer is a template over the top source.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow means nothing relevant was retrieved.
	ConfidenceLow Confidence = "low"
)

// Payload keys written by the indexer and read by the retriever.
const (
	FieldChunkID  = "chunk_id"
	FieldText     = "text"
	FieldContent  = "content"
	FieldURL      = "url"
	FieldTitle    = "title"
	FieldYear     = "year"
	FieldCategory = "category"
	FieldPageType = "page_type"
)

// FilterSet holds metadata constraints detected in a query. Zero values mean absent.
type FilterSet struct {
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	PageType PageType `json:"page_type,omitempty" yaml:"page_type,omitempty"`
}

// IsEmpty reports whether no constraint is set, which means an unfiltered search.
func (f FilterSet) IsEmpty() bool {
	return f.Year == 0 && f.Category == "" && f.PageType == ""
}

// Predicate returns the equality conditions for the vector index, or nil when empty.
func (f FilterSet) Predicate() map[string]any {
	if f.IsEmpty() {
		return nil
	}
	p := make(map[string]any, 3)
	if f.Year != 0 {
		p[FieldYear] = int64(f.Year)
	}
	if f.Category != "" {
		p[FieldCategory] = f.Category
	}
	if f.PageType != "" {
		p[FieldPageType] = string(f.PageType)
	}
	return p
}

// RetrievedDocument is one search hit mapped from the index payload.
type RetrievedDocument struct {
	ID       string   `json:"id"`
	Score    float32  `json:"score"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Year     int      `json:"year,omitempty"`
	Category string   `json:"category,omitempty"`
	PageType PageType `json:"page_type,omitempty"`
}

// ContextBlock is the formatted grounding text handed to the generator.
type ContextBlock struct {
	Text        string
	SourceCount int
}

// AnswerResult is the outcome of one pipeline run. It is always well formed.
type AnswerResult struct {
	Answer         string
	Confidence     Confidence
	HasAnswer      bool
	Sources        []RetrievedDocument
	FiltersUsed    FilterSet
	ProcessingTime time.Duration
	// Error describes a recovered generation failure. Empty on the normal path.
	Error string
}
