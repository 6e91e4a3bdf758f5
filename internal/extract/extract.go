// Package extract turns raw input (a URL, an HTML document, or plain text)
// into normalized text plus the structural metadata stored on the page
// record.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/xoptymiz/xoptymiz/internal/models"
)

// Input carries exactly one content source. Title optionally overrides the
// extracted title.
type Input struct {
	URL   string `json:"url,omitempty"`
	HTML  string `json:"html,omitempty"`
	Text  string `json:"text,omitempty"`
	Title string `json:"title,omitempty"`
}

type Extractor struct {
	client *http.Client
	logger *slog.Logger
}

func New(fetchTimeout time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client: newHTTPClient(fetchTimeout),
		logger: logger,
	}
}

// Extract normalizes the input into plain text and computes word count,
// sentence count, readability, content hash and language. Empty extracted
// text is valid and produces zero entities downstream.
func (e *Extractor) Extract(ctx context.Context, in Input) (*models.NormalizedContent, error) {
	sources := 0
	for _, s := range []string{in.URL, in.HTML, in.Text} {
		if strings.TrimSpace(s) != "" {
			sources++
		}
	}
	if sources != 1 {
		return nil, ErrInvalidInput
	}

	var text, title string
	switch {
	case strings.TrimSpace(in.URL) != "":
		start := time.Now()
		html, err := e.fetch(ctx, in.URL)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("fetched page",
			"url", in.URL,
			"bytes", len(html),
			"duration", time.Since(start))
		text, title = parseHTML(html, in.URL)
	case strings.TrimSpace(in.HTML) != "":
		text, title = parseHTML(in.HTML, "")
	default:
		text = normalizeText(in.Text)
	}

	if in.Title != "" {
		title = in.Title
	}

	nc := &models.NormalizedContent{
		URL:   in.URL,
		Title: title,
		Text:  text,
	}
	nc.WordCount = len(strings.Fields(text))
	nc.SentenceCount = countSentences(text)
	nc.Readability = readabilityScore(nc.WordCount, nc.SentenceCount)
	nc.ContentHash = contentHash(text)
	nc.Language = detectLanguage(text)

	e.logger.Debug("extracted content",
		"title", title,
		"words", nc.WordCount,
		"sentences", nc.SentenceCount,
		"readability", nc.Readability)
	return nc, nil
}

func countSentences(text string) int {
	n := 0
	for _, seg := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}

// readabilityScore maps average sentence length to a 0-100 scale; longer
// sentences lower the score.
func readabilityScore(words, sentences int) float64 {
	if words == 0 {
		return 0
	}
	if sentences == 0 {
		sentences = 1
	}
	avg := float64(words) / float64(sentences)
	return math.Max(0, 100-2*avg)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
