// Package server implements the XoptYmiZ HTTP API using chi.
package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/xoptymiz/xoptymiz/internal/metrics"
)

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(processor Processor, graph GraphReader, collector *metrics.Collector, logger *slog.Logger) chi.Router {
	h := NewHandler(processor, graph, collector, logger)

	r := chi.NewRouter()
	r.Use(requestLogger(h.logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Ingestion.
		r.Post("/process", h.Process)
		r.Post("/batch", h.Batch)

		// Read side.
		r.Get("/export/{domain}", h.Export)
		r.Get("/analytics/overview", h.Overview)
		r.Get("/analytics/entities", h.Entities)
		r.Get("/analytics/types", h.Types)
		r.Get("/analytics/gaps", h.Gaps)
		r.Get("/visualization", h.Visualization)
		r.Get("/stats", h.Stats)
	})

	return r
}
