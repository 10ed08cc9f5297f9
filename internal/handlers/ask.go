package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/rag"
	"clio-assistant/internal/storage"
)

const (
	// MaxQuestionLength bounds the accepted question size in runes.
	MaxQuestionLength = 2000
	// MaxRequestBodyBytes bounds the ask request body before decoding.
	MaxRequestBodyBytes = 64 << 10
)

// AskHandler handles HTTP requests for answering questions.
type AskHandler struct {
	engine   rag.Engine
	history  storage.QueryStore
	markdown goldmark.Markdown
}

// NewAskHandler creates a new AskHandler. history may be nil to disable persistence.
func NewAskHandler(engine rag.Engine, history storage.QueryStore) *AskHandler {
	return &AskHandler{
		engine:  engine,
		history: history,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithHardWraps(),
			),
		),
	}
}

// AskRequest represents the HTTP request payload.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
	// FiltersEnabled turns metadata filter extraction on or off. Defaults to true.
	FiltersEnabled *bool `json:"filters_enabled,omitempty"`
}

// AskResponse represents the HTTP response payload.
//
// swagger:model AskResponse
type AskResponse struct {
	Answer string `json:"answer"`
	// AnswerHTML is the answer rendered from markdown.
	AnswerHTML            string                  `json:"answer_html"`
	Confidence            rag.Confidence          `json:"confidence"`
	HasAnswer             bool                    `json:"has_answer"`
	Sources               []rag.RetrievedDocument `json:"sources"`
	FiltersUsed           rag.FilterSet           `json:"filters_used"`
	ProcessingTimeSeconds float64                 `json:"processing_time_seconds"`
	Error                 string                  `json:"error,omitempty"`
}

// ServeHTTP answers a question about the Clio Awards.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question
//
// Extracts year, category and page type filters from the question, retrieves
// matching pages and generates a grounded answer. Failures of the embedding or
// generation services degrade the answer instead of failing the request.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with sources
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Missing or oversized question
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'413':
//	  description: Request body too large
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "request body too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	if len([]rune(question)) > MaxQuestionLength {
		logger.WarnContext(ctx, "question too long", "length", len([]rune(question)))
		writeError(w, http.StatusBadRequest, "Question is too long")
		return
	}

	enableFilters := true
	if req.FiltersEnabled != nil {
		enableFilters = *req.FiltersEnabled
	}

	result := h.engine.Answer(ctx, question, enableFilters)

	if h.history != nil {
		if err := h.history.Insert(ctx, storage.NewQueryRecord(question, result)); err != nil {
			logger.ErrorContext(ctx, "failed to save query history", "error", err)
		}
	}

	writeJSON(ctx, w, http.StatusOK, h.toResponse(r, result))
}

func (h *AskHandler) toResponse(r *http.Request, result rag.AnswerResult) AskResponse {
	sources := result.Sources
	if sources == nil {
		sources = []rag.RetrievedDocument{}
	}

	return AskResponse{
		Answer:                result.Answer,
		AnswerHTML:            h.renderAnswer(r, result.Answer),
		Confidence:            result.Confidence,
		HasAnswer:             result.HasAnswer,
		Sources:               sources,
		FiltersUsed:           result.FiltersUsed,
		ProcessingTimeSeconds: math.Round(result.ProcessingTime.Seconds()*100) / 100,
		Error:                 result.Error,
	}
}

// renderAnswer converts the markdown answer to HTML. Raw HTML in the answer is
// escaped by the renderer.
func (h *AskHandler) renderAnswer(r *http.Request, answer string) string {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(answer), &buf); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to render answer", "error", err)
		return ""
	}
	return buf.String()
}
