package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/rag"
	"clio-assistant/internal/storage"
)

// MaxHistoryLimit caps the limit query parameter.
const MaxHistoryLimit = 100

// HistoryHandler serves previously answered questions.
type HistoryHandler struct {
	history storage.QueryStore
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history storage.QueryStore) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// HistoryEntry is one answered question.
//
// swagger:model HistoryEntry
type HistoryEntry struct {
	ID               string         `json:"id"`
	Question         string         `json:"question"`
	Answer           string         `json:"answer"`
	Confidence       rag.Confidence `json:"confidence"`
	HasAnswer        bool           `json:"has_answer"`
	FiltersUsed      rag.FilterSet  `json:"filters_used"`
	SourceIDs        []string       `json:"source_ids"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        string         `json:"created_at"`
}

// HistoryResponse lists recent entries, newest first.
//
// swagger:model HistoryResponse
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// List handles GET /api/v1/history?limit=N.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	records, err := h.history.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	resp := HistoryResponse{Entries: make([]HistoryEntry, 0, len(records))}
	for _, rec := range records {
		resp.Entries = append(resp.Entries, toHistoryEntry(rec))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Get handles GET /api/v1/history/{id}.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.history.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "History entry not found")
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to load history entry", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toHistoryEntry(*rec))
}

func toHistoryEntry(rec storage.QueryRecord) HistoryEntry {
	sourceIDs := rec.SourceIDs
	if sourceIDs == nil {
		sourceIDs = []string{}
	}
	return HistoryEntry{
		ID:               rec.ID,
		Question:         rec.Query,
		Answer:           rec.Answer,
		Confidence:       rec.Confidence,
		HasAnswer:        rec.HasAnswer,
		FiltersUsed:      rec.Filters,
		SourceIDs:        sourceIDs,
		ProcessingTimeMs: rec.ProcessingMs,
		Error:            rec.Error,
		CreatedAt:        rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
