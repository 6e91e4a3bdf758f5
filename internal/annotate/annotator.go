// Package annotate turns normalized text into typed entities and
// proximity-scored relationships. Primary inference runs through a
// pluggable Strategy; deterministic local methods always run and merge in,
// so a failed external call degrades the result instead of erroring.
package annotate

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/xoptymiz/xoptymiz/internal/metrics"
	"github.com/xoptymiz/xoptymiz/internal/models"
)

// Options tunes the annotation post-filter.
type Options struct {
	MaxEntities   int
	MinImportance int
}

const (
	DefaultMaxEntities   = 25
	DefaultMinImportance = 3
)

func (o Options) withDefaults() Options {
	if o.MaxEntities <= 0 {
		o.MaxEntities = DefaultMaxEntities
	}
	if o.MinImportance <= 0 {
		o.MinImportance = DefaultMinImportance
	}
	return o
}

type Annotator struct {
	strategy  Strategy
	collector *metrics.Collector
	logger    *slog.Logger
}

// New builds an annotator. A nil strategy skips primary inference and runs
// local extraction only; a nil collector disables fallback counting.
func New(strategy Strategy, collector *metrics.Collector, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{strategy: strategy, collector: collector, logger: logger}
}

// Annotate extracts entities and relationships from the text. A failed or
// unparsable primary inference is logged and masked; there is no retry.
// Empty text yields empty results.
func (a *Annotator) Annotate(ctx context.Context, text string, opts Options) ([]models.Entity, []models.Relationship, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}

	var observed []models.Entity
	if a.strategy != nil {
		primary, err := a.strategy.Infer(ctx, text)
		switch {
		case err == nil:
			observed = append(observed, primary...)
		case ctx.Err() != nil:
			return nil, nil, ctx.Err()
		default:
			a.logger.Warn("primary inference failed, continuing with local extraction", "error", err)
			if a.collector != nil {
				a.collector.RecordError(metrics.OpFallback)
			}
		}
	}

	observed = append(observed, structuralEntities(text)...)
	observed = append(observed, patternEntities(text)...)

	entities := filterAndCap(mergeObservations(observed), opts)
	rels := inferRelationships(text, entities)

	a.logger.Debug("annotated text",
		"entities", len(entities),
		"relationships", len(rels))
	return entities, rels, nil
}

// mergeObservations groups by case-folded text and keeps the highest
// confidence observation per group. No averaging here; the store reconciles
// repeated observations over time, annotation picks a single best one.
func mergeObservations(observed []models.Entity) []models.Entity {
	index := make(map[string]int, len(observed))
	var out []models.Entity
	for _, e := range observed {
		key := models.IdentityKey(e.Text)
		if key == "" {
			continue
		}
		if at, ok := index[key]; ok {
			if e.Confidence > out[at].Confidence {
				out[at] = e
			}
			continue
		}
		index[key] = len(out)
		out = append(out, e)
	}
	return out
}

// filterAndCap drops entities below the importance floor and keeps the
// MaxEntities most important, stable on equal importance.
func filterAndCap(entities []models.Entity, opts Options) []models.Entity {
	var kept []models.Entity
	for _, e := range entities {
		if e.Importance >= opts.MinImportance {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Importance > kept[j].Importance
	})
	if len(kept) > opts.MaxEntities {
		kept = kept[:opts.MaxEntities]
	}
	return kept
}
