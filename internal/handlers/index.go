package handlers

import (
	"net/http"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/indexer"
)

// IndexHandler reports the state of the vector index.
type IndexHandler struct {
	manager    indexer.IndexManager
	collection string
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(manager indexer.IndexManager, collection string) *IndexHandler {
	return &IndexHandler{
		manager:    manager,
		collection: collection,
	}
}

// IndexResponse describes the collection.
//
// swagger:model IndexResponse
type IndexResponse struct {
	Collection  string `json:"collection"`
	Dimension   int    `json:"dimension"`
	Metric      string `json:"metric"`
	Status      string `json:"status"`
	PointsCount int    `json:"points_count"`
}

// ServeHTTP handles GET /api/v1/index.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	info, err := indexer.Stats(ctx, h.manager, h.collection)
	if err != nil {
		logger.ErrorContext(ctx, "failed to describe index", "collection", h.collection, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Vector index unavailable")
		return
	}

	writeJSON(ctx, w, http.StatusOK, IndexResponse{
		Collection:  h.collection,
		Dimension:   info.VectorSize,
		Metric:      info.Distance,
		Status:      info.Status,
		PointsCount: info.PointsCount,
	})
}
