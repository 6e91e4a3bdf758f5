package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency bounds how many pages are in flight per wave.
	DefaultConcurrency = 5
	// DefaultWaveDelay is the pause between waves so target sites are not
	// hammered back to back.
	DefaultWaveDelay = 500 * time.Millisecond
)

// BatchOptions tunes a batch run. Progress, when set, receives one event
// per finished URL; the channel is never closed by the pipeline.
type BatchOptions struct {
	Options
	Concurrency int
	WaveDelay   time.Duration
	Progress    chan<- Progress
}

func (o BatchOptions) withDefaults() BatchOptions {
	o.Options = o.Options.withDefaults()
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.WaveDelay <= 0 {
		o.WaveDelay = DefaultWaveDelay
	}
	return o
}

// Progress reports one finished URL out of a batch.
type Progress struct {
	URL       string
	Completed int
	Total     int
	Err       error
}

// BatchItem is the per-URL outcome. Exactly one of Result and Err is set.
type BatchItem struct {
	URL    string  `json:"url"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult aggregates a whole batch run.
type BatchResult struct {
	Items     []BatchItem   `json:"items"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"-"`
}

// ProcessBatch runs the URLs in waves of Concurrency with a delay between
// waves. Individual failures are collected per item and never abort the
// rest; only context cancellation stops the batch early, marking the
// remaining URLs with the context error.
func (p *Pipeline) ProcessBatch(ctx context.Context, urls []string, opts BatchOptions) *BatchResult {
	opts = opts.withDefaults()
	start := time.Now()

	items := make([]BatchItem, len(urls))
	var completed atomic.Int64

	p.logger.Info("starting batch",
		"urls", len(urls),
		"concurrency", opts.Concurrency)

	for wave := 0; wave < len(urls); wave += opts.Concurrency {
		if ctx.Err() != nil {
			for i := wave; i < len(urls); i++ {
				items[i] = BatchItem{URL: urls[i], Err: ctx.Err(), Error: ctx.Err().Error()}
			}
			break
		}

		end := min(wave+opts.Concurrency, len(urls))

		var g errgroup.Group
		g.SetLimit(opts.Concurrency)
		for i := wave; i < end; i++ {
			g.Go(func() error {
				res, err := p.ProcessURL(ctx, urls[i], opts.Options)
				items[i] = BatchItem{URL: urls[i], Result: res, Err: err}
				if err != nil {
					items[i].Error = err.Error()
					p.logger.Warn("batch item failed", "url", urls[i], "error", err)
				}
				if opts.Progress != nil {
					opts.Progress <- Progress{
						URL:       urls[i],
						Completed: int(completed.Add(1)),
						Total:     len(urls),
						Err:       err,
					}
				}
				return nil
			})
		}
		_ = g.Wait()

		if end < len(urls) {
			select {
			case <-ctx.Done():
			case <-time.After(opts.WaveDelay):
			}
		}
	}

	result := &BatchResult{Items: items, Duration: time.Since(start)}
	for _, item := range items {
		if item.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	p.logger.Info("batch finished",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration)
	return result
}
