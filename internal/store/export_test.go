package store

import (
	"strings"
	"testing"
	"time"
)

func samplePages() []exportPage {
	return []exportPage{
		{
			ID: "p1", URL: "https://example.com/one", Title: "First Page",
			WordCount: 200, Readability: 90,
			ProcessedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			Entities: []exportEntity{
				{Text: "Alice", Type: "PERSON", Importance: 8},
				{Text: "Acme", Type: "ORGANIZATION", Importance: 7},
			},
		},
		{
			ID: "p2", URL: "https://example.com/two", Title: "Second Page",
			WordCount: 100, Readability: 60,
			ProcessedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			Entities: []exportEntity{
				{Text: "Widget", Type: "PRODUCT", Importance: 9},
			},
		},
	}
}

func TestRenderLLMsTxtStructure(t *testing.T) {
	doc := renderLLMsTxt("example.com", samplePages(), ExportOptions{IncludeMetadata: true},
		time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))

	wantInOrder := []string{
		"# example.com",
		"> Generated: 2026-02-01T12:00:00Z",
		"## Table of Contents",
		"1. First Page",
		"2. Second Page",
		"## 1. First Page",
		"URL: https://example.com/one",
		"Words: 200 | Readability: 90.0",
		"- Alice (PERSON, importance 8)",
		"## 2. Second Page",
		"- Widget (PRODUCT, importance 9)",
		"---\nGenerated by XoptYmiZ",
	}
	at := 0
	for _, want := range wantInOrder {
		idx := strings.Index(doc[at:], want)
		if idx < 0 {
			t.Fatalf("missing or out of order: %q\n%s", want, doc)
		}
		at += idx
	}
}

func TestRenderLLMsTxtWithoutMetadata(t *testing.T) {
	doc := renderLLMsTxt("example.com", samplePages(), ExportOptions{}, time.Now())

	if strings.Contains(doc, "> Generated:") {
		t.Error("metadata block present without IncludeMetadata")
	}
	if strings.Contains(doc, "Readability:") {
		t.Error("per-page metadata present without IncludeMetadata")
	}
}

func TestRenderLLMsTxtPlaceholder(t *testing.T) {
	doc := renderLLMsTxt("empty.example", nil, ExportOptions{IncludeMetadata: true}, time.Now())

	if !strings.Contains(doc, "empty.example") {
		t.Error("placeholder must name the domain")
	}
	if strings.Contains(doc, "## Table of Contents") {
		t.Error("placeholder must have no table of contents")
	}
	if !strings.Contains(doc, "Generated by XoptYmiZ") {
		t.Error("placeholder keeps the fixed footer")
	}
}

func TestSortExportPages(t *testing.T) {
	byDate := samplePages()
	sortExportPages(byDate, SortByDate)
	if byDate[0].Title != "Second Page" {
		t.Errorf("date sort: newest first, got %q", byDate[0].Title)
	}

	byEntities := samplePages()
	sortExportPages(byEntities, SortByEntities)
	if byEntities[0].Title != "First Page" {
		t.Errorf("entities sort: most entities first, got %q", byEntities[0].Title)
	}

	byImportance := samplePages()
	sortExportPages(byImportance, SortByImportance)
	if byImportance[0].Title != "Second Page" {
		t.Errorf("importance sort: strongest entity first, got %q", byImportance[0].Title)
	}
}
