package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xoptymiz/xoptymiz/internal/extract"
	"github.com/xoptymiz/xoptymiz/internal/metrics"
	"github.com/xoptymiz/xoptymiz/internal/models"
	"github.com/xoptymiz/xoptymiz/internal/pipeline"
	"github.com/xoptymiz/xoptymiz/internal/store"
)

// Processor runs the ingestion pipeline for the process and batch routes.
type Processor interface {
	ProcessContent(ctx context.Context, in extract.Input, opts pipeline.Options) (*pipeline.Result, error)
	ProcessBatch(ctx context.Context, urls []string, opts pipeline.BatchOptions) *pipeline.BatchResult
}

// GraphReader serves the analytics, visualization and export routes.
type GraphReader interface {
	Overview(ctx context.Context) (*store.OverviewStats, error)
	TopEntities(ctx context.Context, limit int) ([]models.Entity, error)
	TypeHistogram(ctx context.Context) ([]store.TypeCount, error)
	ContentGaps(ctx context.Context, minImportance int) ([]models.Entity, error)
	Visualization(ctx context.Context, maxNodes, minImportance int) (*store.Graph, error)
	Export(ctx context.Context, domain string, opts store.ExportOptions) (string, error)
}

// Handler holds the API route handlers.
type Handler struct {
	processor Processor
	graph     GraphReader
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewHandler(processor Processor, graph GraphReader, collector *metrics.Collector, logger *slog.Logger) *Handler {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{processor: processor, graph: graph, collector: collector, logger: logger}
}

// writeError maps pipeline and store failures onto HTTP statuses. Bad input
// is the caller's fault, unreachable origins are a bad gateway, everything
// else is internal.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var fetchErr *extract.FetchError
	var storeErr *store.StoreError
	switch {
	case errors.Is(err, extract.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &fetchErr):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody("processing deadline exceeded"))
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.As(err, &storeErr):
		h.logger.Error("store operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Process handles POST /api/process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.processor.ProcessContent(r.Context(), extract.Input{
		URL:   req.URL,
		HTML:  req.HTML,
		Text:  req.Text,
		Title: req.Title,
	}, pipeline.Options{
		MaxEntities:   req.MaxEntities,
		MinImportance: req.MinImportance,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Batch handles POST /api/batch. Individual failures are reported per item
// in the response, never as a whole-request error.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res := h.processor.ProcessBatch(r.Context(), req.URLs, pipeline.BatchOptions{
		Options: pipeline.Options{
			MaxEntities:   req.MaxEntities,
			MinImportance: req.MinImportance,
		},
		Concurrency: req.Concurrency,
	})
	writeJSON(w, http.StatusOK, res)
}

// Export handles GET /api/export/{domain}. A domain with no ingested pages
// still renders a placeholder document, so the route never 404s.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	if domain == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("domain is required"))
		return
	}

	q := r.URL.Query()
	maxPages, _ := strconv.Atoi(q.Get("max_pages"))
	opts := store.ExportOptions{
		MaxPages:        maxPages,
		IncludeMetadata: q.Get("metadata") != "false",
		SortBy:          q.Get("sort"),
	}

	var doc string
	err := h.collector.Timed(metrics.OpExport, func() error {
		var err error
		doc, err = h.graph.Export(r.Context(), domain, opts)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Overview handles GET /api/analytics/overview.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	var stats *store.OverviewStats
	err := h.collector.Timed(metrics.OpQuery, func() error {
		var err error
		stats, err = h.graph.Overview(r.Context())
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Entities handles GET /api/analytics/entities.
func (h *Handler) Entities(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var entities []models.Entity
	err := h.collector.Timed(metrics.OpQuery, func() error {
		var err error
		entities, err = h.graph.TopEntities(r.Context(), limit)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": entities})
}

// Types handles GET /api/analytics/types.
func (h *Handler) Types(w http.ResponseWriter, r *http.Request) {
	var counts []store.TypeCount
	err := h.collector.Timed(metrics.OpQuery, func() error {
		var err error
		counts, err = h.graph.TypeHistogram(r.Context())
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": counts})
}

// Gaps handles GET /api/analytics/gaps.
func (h *Handler) Gaps(w http.ResponseWriter, r *http.Request) {
	minImportance, _ := strconv.Atoi(r.URL.Query().Get("min_importance"))

	var entities []models.Entity
	err := h.collector.Timed(metrics.OpQuery, func() error {
		var err error
		entities, err = h.graph.ContentGaps(r.Context(), minImportance)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gaps": entities})
}

// Visualization handles GET /api/visualization.
func (h *Handler) Visualization(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	maxNodes, _ := strconv.Atoi(q.Get("max_nodes"))
	minImportance, _ := strconv.Atoi(q.Get("min_importance"))

	var graph *store.Graph
	err := h.collector.Timed(metrics.OpQuery, func() error {
		var err error
		graph, err = h.graph.Visualization(r.Context(), maxNodes, minImportance)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.collector.Snapshot())
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
