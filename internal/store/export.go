package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// ExportOptions controls the LLMs.txt rendering.
type ExportOptions struct {
	MaxPages        int
	IncludeMetadata bool
	SortBy          string // "importance", "entities" or "date"
}

const (
	SortByImportance = "importance"
	SortByEntities   = "entities"
	SortByDate       = "date"

	defaultExportPages      = 50
	entitiesPerExportedPage = 10
)

func (o ExportOptions) withDefaults() ExportOptions {
	if o.MaxPages <= 0 {
		o.MaxPages = defaultExportPages
	}
	switch o.SortBy {
	case SortByImportance, SortByEntities, SortByDate:
	default:
		o.SortBy = SortByImportance
	}
	return o
}

// exportPage is one page section of the export document.
type exportPage struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	WordCount   int       `json:"word_count"`
	Readability float64   `json:"readability"`
	ProcessedAt time.Time `json:"processed_at"`

	Entities []exportEntity `json:"-"`
}

type exportEntity struct {
	Text       string `json:"text"`
	Type       string `json:"type"`
	Importance int    `json:"importance"`
}

// Export renders the LLMs.txt document for a domain. A domain with no
// ingested pages yields a placeholder document naming the domain, not an
// error.
func (s *Store) Export(ctx context.Context, domain string, opts ExportOptions) (string, error) {
	opts = opts.withDefaults()

	pages, err := s.exportPages(ctx, domain)
	if err != nil {
		return "", err
	}

	for i := range pages {
		entities, err := s.pageEntities(ctx, pages[i].ID, entitiesPerExportedPage)
		if err != nil {
			return "", err
		}
		pages[i].Entities = entities
	}

	sortExportPages(pages, opts.SortBy)
	if len(pages) > opts.MaxPages {
		pages = pages[:opts.MaxPages]
	}

	return renderLLMsTxt(domain, pages, opts, time.Now().UTC()), nil
}

func (s *Store) exportPages(ctx context.Context, domain string) ([]exportPage, error) {
	results, err := surrealdb.Query[[]exportPage](ctx, s.db, `
		SELECT record::id(id) AS id, url, title, word_count, readability, processed_at
		FROM page
		WHERE domain = $domain
	`, map[string]any{"domain": domain})
	if err != nil {
		return nil, &StoreError{Op: "export pages", Err: classifyQueryError(err)}
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

func (s *Store) pageEntities(ctx context.Context, pageID string, limit int) ([]exportEntity, error) {
	results, err := surrealdb.Query[[]exportEntity](ctx, s.db, `
		SELECT out.text AS text, out.type AS type, importance
		FROM mentions
		WHERE in = type::record("page", $page_id)
		ORDER BY importance DESC
		LIMIT $limit
	`, map[string]any{"page_id": pageID, "limit": limit})
	if err != nil {
		return nil, &StoreError{Op: "export entities", Err: classifyQueryError(err)}
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// sortExportPages orders pages by the requested key. Importance means the
// page's strongest entity; ties fall back to URL so output is stable.
func sortExportPages(pages []exportPage, sortBy string) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		switch sortBy {
		case SortByDate:
			if !a.ProcessedAt.Equal(b.ProcessedAt) {
				return a.ProcessedAt.After(b.ProcessedAt)
			}
		case SortByEntities:
			if len(a.Entities) != len(b.Entities) {
				return len(a.Entities) > len(b.Entities)
			}
		default: // importance
			ai, bi := topImportance(a), topImportance(b)
			if ai != bi {
				return ai > bi
			}
		}
		return a.URL < b.URL
	})
}

// topImportance is the importance of the page's strongest entity. Entity
// lists arrive sorted by importance descending.
func topImportance(p exportPage) int {
	if len(p.Entities) == 0 {
		return 0
	}
	return p.Entities[0].Importance
}

// renderLLMsTxt produces the export document. The heading levels and field
// order are a stable contract consumed by other tools.
func renderLLMsTxt(domain string, pages []exportPage, opts ExportOptions, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", domain)

	if len(pages) == 0 {
		fmt.Fprintf(&b, "No content has been ingested for %s yet.\n\n", domain)
		b.WriteString(exportFooter)
		return b.String()
	}

	if opts.IncludeMetadata {
		fmt.Fprintf(&b, "> Knowledge graph export for %s\n", domain)
		fmt.Fprintf(&b, "> Generated: %s\n", now.Format(time.RFC3339))
		fmt.Fprintf(&b, "> Pages: %d\n\n", len(pages))
	}

	b.WriteString("## Table of Contents\n\n")
	for i, p := range pages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, pageHeading(p))
	}
	b.WriteString("\n")

	for i, p := range pages {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, pageHeading(p))
		fmt.Fprintf(&b, "URL: %s\n", p.URL)
		if opts.IncludeMetadata {
			fmt.Fprintf(&b, "Words: %d | Readability: %.1f\n", p.WordCount, p.Readability)
		}
		b.WriteString("\n")

		if len(p.Entities) > 0 {
			b.WriteString("Key entities:\n")
			for _, e := range p.Entities {
				fmt.Fprintf(&b, "- %s (%s, importance %d)\n", e.Text, e.Type, e.Importance)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(exportFooter)
	return b.String()
}

const exportFooter = "---\nGenerated by XoptYmiZ. This file summarizes the domain's content for consumption by language-model tools.\n"

func pageHeading(p exportPage) string {
	if strings.TrimSpace(p.Title) != "" {
		return p.Title
	}
	return p.URL
}
