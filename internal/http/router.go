package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clio-assistant/internal/handlers"
	"clio-assistant/internal/indexer"
	"clio-assistant/internal/metrics"
	"clio-assistant/internal/rag"
	"clio-assistant/internal/storage"
	"clio-assistant/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine       rag.Engine
	History      storage.QueryStore // optional
	Database     handlers.Pinger    // optional
	VectorStore  vectorstore.VectorStore
	IndexManager indexer.IndexManager
	Collection   string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(metrics.Middleware)

	askHandler := handlers.NewAskHandler(deps.Engine, deps.History)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Database, deps.Collection)
	indexHandler := handlers.NewIndexHandler(deps.IndexManager, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Method(http.MethodGet, "/index", indexHandler)

			if deps.History != nil {
				historyHandler := handlers.NewHistoryHandler(deps.History)
				r.Get("/history", historyHandler.List)
				r.Get("/history/{id}", historyHandler.Get)
			}
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
