package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_store.go -package=mocks clio-assistant/internal/storage QueryStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clio-assistant/internal/rag"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DefaultListLimit is used when ListRecent is called with a non-positive limit.
const DefaultListLimit = 20

// QueryRecord is one answered question.
type QueryRecord struct {
	ID           string
	Query        string
	Answer       string
	Confidence   rag.Confidence
	HasAnswer    bool
	Filters      rag.FilterSet
	SourceIDs    []string
	ProcessingMs int64
	Error        string
	CreatedAt    time.Time
}

// NewQueryRecord captures an answer for the history table.
func NewQueryRecord(query string, res rag.AnswerResult) *QueryRecord {
	ids := make([]string, 0, len(res.Sources))
	for _, src := range res.Sources {
		ids = append(ids, src.ID)
	}
	return &QueryRecord{
		Query:        query,
		Answer:       res.Answer,
		Confidence:   res.Confidence,
		HasAnswer:    res.HasAnswer,
		Filters:      res.FiltersUsed,
		SourceIDs:    ids,
		ProcessingMs: res.ProcessingTime.Milliseconds(),
		Error:        res.Error,
	}
}

// QueryStore defines the interface for query history storage.
type QueryStore interface {
	// Insert stores a record. An empty ID is filled with a new UUID.
	Insert(ctx context.Context, rec *QueryRecord) error
	// Get returns a record by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*QueryRecord, error)
	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]QueryRecord, error)
}

// QueryRepo implements QueryStore on SQLite.
type QueryRepo struct {
	db *sql.DB
}

// NewQueryRepo creates a new QueryRepo.
func NewQueryRepo(db *sql.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

// Insert stores a record. An empty ID is filled with a new UUID.
func (r *QueryRepo) Insert(ctx context.Context, rec *QueryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	filters, err := json.Marshal(rec.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}
	sourceIDs := rec.SourceIDs
	if sourceIDs == nil {
		sourceIDs = []string{}
	}
	sources, err := json.Marshal(sourceIDs)
	if err != nil {
		return fmt.Errorf("failed to encode source ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO queries (id, query, answer, confidence, has_answer, filters, source_ids, processing_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query, rec.Answer, string(rec.Confidence), rec.HasAnswer,
		string(filters), string(sources), rec.ProcessingMs, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query: %w", err)
	}
	return nil
}

const selectQueryColumns = `SELECT id, query, answer, confidence, has_answer, filters, source_ids, processing_ms, error, created_at FROM queries`

// Get returns a record by ID, or ErrNotFound.
func (r *QueryRepo) Get(ctx context.Context, id string) (*QueryRecord, error) {
	row := r.db.QueryRowContext(ctx, selectQueryColumns+" WHERE id = ?", id)
	rec, err := scanQuery(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit records, newest first.
// Returns an empty slice if there are none.
func (r *QueryRepo) ListRecent(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, selectQueryColumns+" ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []QueryRecord{}
	for rows.Next() {
		rec, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuery(s scanner) (*QueryRecord, error) {
	var rec QueryRecord
	var confidence, filters, sources, createdAt string

	if err := s.Scan(&rec.ID, &rec.Query, &rec.Answer, &confidence, &rec.HasAnswer,
		&filters, &sources, &rec.ProcessingMs, &rec.Error, &createdAt); err != nil {
		return nil, err
	}
	rec.Confidence = rag.Confidence(confidence)

	if err := json.Unmarshal([]byte(filters), &rec.Filters); err != nil {
		return nil, fmt.Errorf("failed to decode filters: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &rec.SourceIDs); err != nil {
		return nil, fmt.Errorf("failed to decode source ids: %w", err)
	}

	var err error
	rec.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
