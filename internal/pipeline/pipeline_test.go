package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xoptymiz/xoptymiz/internal/annotate"
	"github.com/xoptymiz/xoptymiz/internal/extract"
	"github.com/xoptymiz/xoptymiz/internal/models"
	"github.com/xoptymiz/xoptymiz/internal/store"
)

type fakeExtractor struct {
	delay    time.Duration
	failURLs map[string]bool

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeExtractor) Extract(ctx context.Context, in extract.Input) (*models.NormalizedContent, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if cur <= peak || f.maxInFlight.CompareAndSwap(peak, cur) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.failURLs[in.URL] {
		return nil, &extract.FetchError{URL: in.URL, StatusCode: 503}
	}
	return &models.NormalizedContent{
		URL:       in.URL,
		Title:     "Fixture",
		Text:      "Alice works at Acme.",
		WordCount: 4,
	}, nil
}

type fakeAnnotator struct{}

func (fakeAnnotator) Annotate(ctx context.Context, text string, opts annotate.Options) ([]models.Entity, []models.Relationship, error) {
	return []models.Entity{models.NewEntity("Alice", models.EntityPerson, 8, 0.9)}, nil, nil
}

type fakeStore struct {
	mu    sync.Mutex
	pages []models.Page
	err   error
}

func (f *fakeStore) Ingest(ctx context.Context, page models.Page, entities []models.Entity, rels []models.Relationship) (*store.IngestReceipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()
	return &store.IngestReceipt{
		PageID:        models.PageID(page.URL),
		PageVersion:   1,
		Domain:        page.Domain,
		Entities:      len(entities),
		Relationships: len(rels),
		ProcessedAt:   time.Now(),
	}, nil
}

func newTestPipeline(ext *fakeExtractor, st *fakeStore) *Pipeline {
	return New(ext, fakeAnnotator{}, st, nil, nil)
}

func TestProcessContentSyntheticIdentity(t *testing.T) {
	st := &fakeStore{}
	p := newTestPipeline(&fakeExtractor{}, st)

	res, err := p.ProcessContent(context.Background(), extract.Input{Text: "Alice works at Acme."}, Options{})
	if err != nil {
		t.Fatalf("ProcessContent: %v", err)
	}
	if !strings.HasPrefix(res.Page.URL, models.SyntheticScheme) {
		t.Errorf("raw text should get a synthetic identity, got %q", res.Page.URL)
	}
	if res.Page.Domain != "content" {
		t.Errorf("synthetic pages group under content, got %q", res.Page.Domain)
	}
	if res.Page.Version != 1 {
		t.Errorf("version = %d, want 1", res.Page.Version)
	}
	if len(st.pages) != 1 || st.pages[0].URL != res.Page.URL {
		t.Errorf("store did not receive the synthetic page: %+v", st.pages)
	}
}

func TestProcessURLPropagatesFetchError(t *testing.T) {
	p := newTestPipeline(&fakeExtractor{failURLs: map[string]bool{"https://down.example/": true}}, &fakeStore{})

	_, err := p.ProcessURL(context.Background(), "https://down.example/", Options{})
	var fe *extract.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("want *extract.FetchError, got %v", err)
	}
	if fe.StatusCode != 503 {
		t.Errorf("status = %d, want 503", fe.StatusCode)
	}
}

func TestProcessContentTimeout(t *testing.T) {
	p := newTestPipeline(&fakeExtractor{delay: time.Second}, &fakeStore{})

	_, err := p.ProcessContent(context.Background(), extract.Input{Text: "slow"}, Options{Timeout: 20 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestProcessBatchCollectsFailures(t *testing.T) {
	urls := []string{
		"https://a.example/",
		"https://b.example/",
		"https://down.example/",
		"https://c.example/",
		"https://d.example/",
	}
	st := &fakeStore{}
	p := newTestPipeline(&fakeExtractor{failURLs: map[string]bool{"https://down.example/": true}}, st)

	res := p.ProcessBatch(context.Background(), urls, BatchOptions{WaveDelay: time.Millisecond})
	if res.Succeeded != 4 || res.Failed != 1 {
		t.Fatalf("succeeded/failed = %d/%d, want 4/1", res.Succeeded, res.Failed)
	}
	for i, item := range res.Items {
		if item.URL != urls[i] {
			t.Errorf("item %d out of order: %q", i, item.URL)
		}
	}
	bad := res.Items[2]
	if bad.Err == nil || bad.Result != nil || bad.Error == "" {
		t.Errorf("failed item must carry the error and no result: %+v", bad)
	}
	if len(st.pages) != 4 {
		t.Errorf("store received %d pages, want 4", len(st.pages))
	}
}

func TestProcessBatchBoundsConcurrency(t *testing.T) {
	urls := make([]string, 6)
	for i := range urls {
		urls[i] = "https://example.com/" + string(rune('a'+i))
	}
	ext := &fakeExtractor{delay: 20 * time.Millisecond}
	p := newTestPipeline(ext, &fakeStore{})

	p.ProcessBatch(context.Background(), urls, BatchOptions{Concurrency: 2, WaveDelay: time.Millisecond})
	if peak := ext.maxInFlight.Load(); peak > 2 {
		t.Errorf("in-flight peak = %d, want at most 2", peak)
	}
}

func TestProcessBatchProgress(t *testing.T) {
	urls := []string{"https://a.example/", "https://b.example/", "https://c.example/"}
	progress := make(chan Progress, len(urls))
	p := newTestPipeline(&fakeExtractor{}, &fakeStore{})

	p.ProcessBatch(context.Background(), urls, BatchOptions{WaveDelay: time.Millisecond, Progress: progress})
	close(progress)

	var events int
	var last int
	for ev := range progress {
		events++
		if ev.Total != len(urls) {
			t.Errorf("total = %d, want %d", ev.Total, len(urls))
		}
		if ev.Completed > last {
			last = ev.Completed
		}
	}
	if events != len(urls) || last != len(urls) {
		t.Errorf("events/last = %d/%d, want %d/%d", events, last, len(urls), len(urls))
	}
}

func TestProcessBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{"https://a.example/", "https://b.example/"}
	res := newTestPipeline(&fakeExtractor{}, &fakeStore{}).ProcessBatch(ctx, urls, BatchOptions{})
	if res.Failed != len(urls) {
		t.Fatalf("failed = %d, want %d", res.Failed, len(urls))
	}
	for _, item := range res.Items {
		if !errors.Is(item.Err, context.Canceled) {
			t.Errorf("item %q error = %v, want context.Canceled", item.URL, item.Err)
		}
	}
}
