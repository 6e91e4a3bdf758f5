package models

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// SyntheticScheme prefixes page identities for non-URL input.
const SyntheticScheme = "content://"

// Page is a processed unit of content. Identity key is the URL (or a
// synthetic content:// identity for raw text); re-processing the same URL
// overwrites derived fields and bumps Version, never duplicating the record.
type Page struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Domain        string    `json:"domain"`
	Title         string    `json:"title"`
	WordCount     int       `json:"word_count"`
	SentenceCount int       `json:"sentence_count"`
	Readability   float64   `json:"readability"`
	Language      string    `json:"language,omitempty"`
	ContentHash   string    `json:"content_hash"`
	Version       int       `json:"version"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// NormalizedContent is the extractor's output: plain text plus structural
// metadata, ready for annotation.
type NormalizedContent struct {
	URL           string
	Title         string
	Text          string
	WordCount     int
	SentenceCount int
	Readability   float64
	Language      string
	ContentHash   string
}

// PageID derives the stable record ID for a page URL.
func PageID(rawURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(rawURL)))
	return hex.EncodeToString(sum[:])[:16]
}

// DomainOf extracts the hostname grouping key for a URL. Synthetic
// content:// identities and unparsable URLs group under "content".
func DomainOf(rawURL string) string {
	if strings.HasPrefix(rawURL, SyntheticScheme) {
		return "content"
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "content"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Domain is the hostname-level rollup. Counts are recomputed from live
// contained pages after each ingestion, never incrementally patched.
type Domain struct {
	Name        string    `json:"name"`
	PageCount   int       `json:"page_count"`
	EntityCount int       `json:"entity_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}
