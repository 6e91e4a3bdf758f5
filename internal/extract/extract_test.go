package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestExtractor() *Extractor {
	return New(5*time.Second, nil)
}

func TestExtractRequiresExactlyOneSource(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name string
		in   Input
	}{
		{"all empty", Input{}},
		{"url and text", Input{URL: "https://example.com", Text: "hello"}},
		{"html and text", Input{HTML: "<p>x</p>", Text: "hello"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestExtractTextMetrics(t *testing.T) {
	e := newTestExtractor()

	nc, err := e.Extract(context.Background(), Input{
		Text:  "One two three. Four five! Six?",
		Title: "Numbers",
	})
	if err != nil {
		t.Fatal(err)
	}
	if nc.WordCount != 6 {
		t.Errorf("word count = %d, want 6", nc.WordCount)
	}
	if nc.SentenceCount != 3 {
		t.Errorf("sentence count = %d, want 3", nc.SentenceCount)
	}
	// avg words per sentence = 2 -> 100 - 2*2 = 96
	if nc.Readability != 96 {
		t.Errorf("readability = %f, want 96", nc.Readability)
	}
	if nc.Title != "Numbers" {
		t.Errorf("title = %q", nc.Title)
	}
	if nc.ContentHash == "" {
		t.Error("content hash should be set")
	}
}

func TestExtractEmptyTextIsValid(t *testing.T) {
	e := newTestExtractor()

	nc, err := e.Extract(context.Background(), Input{HTML: "<html><body></body></html>"})
	if err != nil {
		t.Fatalf("empty content should not fail: %v", err)
	}
	if nc.WordCount != 0 || nc.SentenceCount != 0 {
		t.Errorf("expected zero counts, got %d/%d", nc.WordCount, nc.SentenceCount)
	}
	if nc.Readability != 0 {
		t.Errorf("readability for empty content = %f, want 0", nc.Readability)
	}
}

func TestReadabilityScore(t *testing.T) {
	tests := []struct {
		words, sentences int
		want             float64
	}{
		{0, 0, 0},
		{10, 5, 96},
		{30, 1, 40},
		{60, 1, 0},  // clamped at zero
		{10, 0, 80}, // no terminator, treated as one sentence
	}
	for _, tt := range tests {
		if got := readabilityScore(tt.words, tt.sentences); got != tt.want {
			t.Errorf("readabilityScore(%d, %d) = %f, want %f", tt.words, tt.sentences, got, tt.want)
		}
	}
}

func TestCountSentences(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"No terminator", 1},
		{"One. Two. Three.", 3},
		{"Really?! Yes.", 2},
		{"Trailing dots...", 1},
	}
	for _, tt := range tests {
		if got := countSentences(tt.in); got != tt.want {
			t.Errorf("countSentences(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExtractFromURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><head><title>Test Page</title></head><body><main><p>Alice works at Acme. She writes software.</p></main></body></html>`))
	}))
	defer srv.Close()

	e := newTestExtractor()
	nc, err := e.Extract(context.Background(), Input{URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != userAgent {
		t.Errorf("user agent = %q, want %q", gotUA, userAgent)
	}
	if nc.Title != "Test Page" {
		t.Errorf("title = %q, want Test Page", nc.Title)
	}
	if nc.WordCount == 0 {
		t.Error("expected extracted words")
	}
	if nc.URL != srv.URL {
		t.Errorf("url = %q, want %q", nc.URL, srv.URL)
	}
}

func TestExtractFetchErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newTestExtractor()
	_, err := e.Extract(context.Background(), Input{URL: srv.URL})

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", fe.StatusCode)
	}
	if fe.URL != srv.URL {
		t.Errorf("url = %q, want %q", fe.URL, srv.URL)
	}
}

func TestExtractFetchErrorOnConnectionFailure(t *testing.T) {
	e := newTestExtractor()
	_, err := e.Extract(context.Background(), Input{URL: "http://127.0.0.1:1/nope"})

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("status for transport failure = %d, want 0", fe.StatusCode)
	}
}

func TestParseHTMLTitleFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantTitle string
	}{
		{
			"title tag",
			`<html><head><title>From Title</title></head><body><p>body text here</p></body></html>`,
			"From Title",
		},
		{
			"h1 fallback",
			`<html><body><h1>From Heading</h1><p>body text here</p></body></html>`,
			"From Heading",
		},
		{
			"no title at all",
			`<html><body><p>body text here</p></body></html>`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, title := parseHTML(tt.html, "")
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
		})
	}
}

func TestParseHTMLStripsChrome(t *testing.T) {
	html := `<html><body>
		<nav>Navigation links</nav>
		<script>var x = 1;</script>
		<main><p>The actual article content lives here.</p></main>
		<footer>Copyright notice</footer>
	</body></html>`

	text, _ := parseHTML(html, "")
	if text == "" {
		t.Fatal("expected extracted text")
	}
	lower := strings.ToLower(text)
	for _, noise := range []string{"navigation links", "var x", "copyright"} {
		if strings.Contains(lower, noise) {
			t.Errorf("chrome text %q leaked into content: %q", noise, text)
		}
	}
	if !strings.Contains(lower, "actual article content") {
		t.Errorf("main content missing from %q", text)
	}
}

func TestParseHTMLArticleDocument(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 12; i++ {
		body.WriteString("<p>The knowledge graph links pages to the entities they mention, ")
		body.WriteString("so repeated observations of the same entity merge instead of duplicating.</p>")
	}
	html := `<html><head><title>Graph Ingestion</title></head><body><article>` +
		body.String() + `</article></body></html>`

	text, title := parseHTML(html, "https://example.com/article")
	if title != "Graph Ingestion" {
		t.Errorf("title = %q, want %q", title, "Graph Ingestion")
	}
	if !strings.Contains(text, "repeated observations of the same entity merge") {
		t.Errorf("article body missing from extracted text: %q", text)
	}
}

func TestNormalizeText(t *testing.T) {
	in := "  First   line \n\n\t second\tline \n"
	want := "First line second line"
	if got := normalizeText(in); got != want {
		t.Errorf("normalizeText = %q, want %q", got, want)
	}
}

func TestContentHashStable(t *testing.T) {
	a := contentHash("same text")
	b := contentHash("same text")
	if a != b {
		t.Error("hash should be deterministic")
	}
	if a == contentHash("other text") {
		t.Error("distinct text should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64", len(a))
	}
}
