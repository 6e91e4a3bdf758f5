// Package pipeline chains extraction, annotation and graph ingestion into
// single-page and batch processing flows.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xoptymiz/xoptymiz/internal/annotate"
	"github.com/xoptymiz/xoptymiz/internal/extract"
	"github.com/xoptymiz/xoptymiz/internal/metrics"
	"github.com/xoptymiz/xoptymiz/internal/models"
	"github.com/xoptymiz/xoptymiz/internal/store"
)

// DefaultTimeout bounds a single page's full extract-annotate-ingest run.
const DefaultTimeout = 60 * time.Second

// Extractor produces normalized content from one input source.
type Extractor interface {
	Extract(ctx context.Context, in extract.Input) (*models.NormalizedContent, error)
}

// Annotator produces entities and relationships from normalized text.
type Annotator interface {
	Annotate(ctx context.Context, text string, opts annotate.Options) ([]models.Entity, []models.Relationship, error)
}

// GraphStore persists one page's annotations as a single transaction.
type GraphStore interface {
	Ingest(ctx context.Context, page models.Page, entities []models.Entity, rels []models.Relationship) (*store.IngestReceipt, error)
}

// Options tunes a single processing run. Zero values fall back to the
// annotation defaults and DefaultTimeout.
type Options struct {
	MaxEntities   int
	MinImportance int
	Timeout       time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Result is the outcome of processing one page.
type Result struct {
	Page          models.Page           `json:"page"`
	Entities      []models.Entity       `json:"entities"`
	Relationships []models.Relationship `json:"relationships"`
	Receipt       *store.IngestReceipt  `json:"receipt"`
}

// Pipeline orchestrates the three stages. It owns no connections itself;
// the injected store and strategy carry those.
type Pipeline struct {
	extractor Extractor
	annotator Annotator
	store     GraphStore
	collector *metrics.Collector
	logger    *slog.Logger
}

func New(extractor Extractor, annotator Annotator, graph GraphStore, collector *metrics.Collector, logger *slog.Logger) *Pipeline {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: extractor,
		annotator: annotator,
		store:     graph,
		collector: collector,
		logger:    logger,
	}
}

// Metrics exposes the pipeline's collector for the server stats endpoint.
func (p *Pipeline) Metrics() *metrics.Collector {
	return p.collector
}

// ProcessURL fetches, annotates and ingests a single URL.
func (p *Pipeline) ProcessURL(ctx context.Context, url string, opts Options) (*Result, error) {
	return p.ProcessContent(ctx, extract.Input{URL: url}, opts)
}

// ProcessContent runs the full pipeline on any input source. Raw HTML and
// text inputs get a synthetic content:// identity so re-submissions of the
// same text create distinct pages.
func (p *Pipeline) ProcessContent(ctx context.Context, in extract.Input, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()

	var content *models.NormalizedContent
	err := p.collector.Timed(metrics.OpFetch, func() error {
		var err error
		content, err = p.extractor.Extract(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	var entities []models.Entity
	var rels []models.Relationship
	err = p.collector.Timed(metrics.OpInference, func() error {
		var err error
		entities, rels, err = p.annotator.Annotate(ctx, content.Text, annotate.Options{
			MaxEntities:   opts.MaxEntities,
			MinImportance: opts.MinImportance,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	pageURL := content.URL
	if pageURL == "" {
		pageURL = models.SyntheticScheme + uuid.NewString()
	}
	page := models.Page{
		URL:           pageURL,
		Domain:        models.DomainOf(pageURL),
		Title:         content.Title,
		WordCount:     content.WordCount,
		SentenceCount: content.SentenceCount,
		Readability:   content.Readability,
		Language:      content.Language,
		ContentHash:   content.ContentHash,
	}

	var receipt *store.IngestReceipt
	err = p.collector.Timed(metrics.OpIngest, func() error {
		var err error
		receipt, err = p.store.Ingest(ctx, page, entities, rels)
		return err
	})
	if err != nil {
		return nil, err
	}

	page.ID = receipt.PageID
	page.Version = receipt.PageVersion
	page.ProcessedAt = receipt.ProcessedAt

	p.logger.Info("processed page",
		"url", pageURL,
		"entities", len(entities),
		"relationships", len(rels),
		"duration", time.Since(start))

	return &Result{
		Page:          page,
		Entities:      entities,
		Relationships: rels,
		Receipt:       receipt,
	}, nil
}
