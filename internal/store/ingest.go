package store

import (
	"context"
	"errors"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/xoptymiz/xoptymiz/internal/models"
)

// IngestReceipt summarizes one committed ingestion.
type IngestReceipt struct {
	PageID        string    `json:"page_id"`
	PageVersion   int       `json:"page_version"`
	Domain        string    `json:"domain"`
	Entities      int       `json:"entities"`
	Relationships int       `json:"relationships"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// ingestSQL performs the whole ingestion inside one transaction: page
// upsert, entity upserts, containment edges, relationship edges and the
// domain rollup. Merge rules:
//   - page: derived fields overwritten, version incremented
//   - entity: importance = max, confidence = running average, mention_count += 1
//   - mentions edge: importance = max, never duplicated
//   - related_to edge: strength and confidence averaged, never duplicated
//   - domain: counts recomputed from live records, not patched
const ingestSQL = `
BEGIN TRANSACTION;

LET $page = type::record("page", $page_id);

UPSERT $page SET
    url = $url,
    domain = $domain_name,
    title = $title,
    word_count = $word_count,
    sentence_count = $sentence_count,
    readability = $readability,
    language = $language,
    content_hash = $content_hash,
    version = (version ?? 0) + 1,
    processed_at = time::now();

FOR $e IN $entities {
    LET $rec = type::record("entity", $e.id);
    LET $exists = array::len((SELECT VALUE id FROM $rec)) > 0;
    IF $exists {
        UPDATE $rec SET
            importance = math::max([importance, $e.importance]),
            confidence = (confidence + $e.confidence) / 2,
            mention_count += 1,
            description = IF $e.description THEN $e.description ELSE description END,
            aliases = array::union(aliases ?? [], $e.aliases);
    } ELSE {
        CREATE $rec SET
            text = $e.text,
            type = $e.type,
            importance = $e.importance,
            description = $e.description,
            aliases = $e.aliases,
            confidence = $e.confidence,
            mention_count = 1;
    };

    LET $edge = array::len((SELECT VALUE id FROM mentions WHERE in = $page AND out = $rec)) > 0;
    IF $edge {
        UPDATE mentions SET importance = math::max([importance, $e.importance])
            WHERE in = $page AND out = $rec;
    } ELSE {
        RELATE $page->mentions->$rec SET importance = $e.importance;
    };
};

FOR $r IN $relationships {
    LET $from = type::record("entity", $r.from_id);
    LET $to = type::record("entity", $r.to_id);
    LET $edge = array::len((SELECT VALUE id FROM related_to
        WHERE in = $from AND out = $to AND rel_type = $r.rel_type)) > 0;
    IF $edge {
        UPDATE related_to SET
            strength = (strength + $r.strength) / 2,
            confidence = (confidence + $r.confidence) / 2
            WHERE in = $from AND out = $to AND rel_type = $r.rel_type;
    } ELSE {
        RELATE $from->related_to->$to SET
            rel_type = $r.rel_type,
            strength = $r.strength,
            confidence = $r.confidence,
            description = $r.description,
            evidence = $r.evidence;
    };
};

UPSERT type::record("domain", $domain_name) SET
    name = $domain_name,
    page_count = array::len((SELECT VALUE id FROM page WHERE domain = $domain_name)),
    entity_count = array::len(array::distinct((SELECT VALUE out FROM mentions WHERE in.domain = $domain_name))),
    updated = time::now();

COMMIT TRANSACTION;
`

// Ingest commits one page with its entities and relationships atomically.
// A failure at any step rolls back the whole call; repeating the call is
// safe because every write is an upsert.
func (s *Store) Ingest(ctx context.Context, page models.Page, entities []models.Entity, rels []models.Relationship) (*IngestReceipt, error) {
	if page.URL == "" {
		return nil, &StoreError{Op: "ingest", Err: errors.New("page url required")}
	}

	pageID := models.PageID(page.URL)
	domainName := models.DomainOf(page.URL)

	ents := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		ents = append(ents, map[string]any{
			"id":          e.ID,
			"text":        e.Text,
			"type":        string(e.Type),
			"importance":  e.Importance,
			"confidence":  e.Confidence,
			"description": optString(e.Description),
			"aliases":     orEmpty(e.Aliases),
		})
	}

	edges := make([]map[string]any, 0, len(rels))
	for _, r := range rels {
		edges = append(edges, map[string]any{
			"from_id":     r.FromID,
			"to_id":       r.ToID,
			"rel_type":    string(r.Type),
			"strength":    r.Strength,
			"confidence":  r.Confidence,
			"description": optString(r.Description),
			"evidence":    orEmpty(r.Evidence),
		})
	}

	vars := map[string]any{
		"page_id":        pageID,
		"url":            page.URL,
		"domain_name":    domainName,
		"title":          page.Title,
		"word_count":     page.WordCount,
		"sentence_count": page.SentenceCount,
		"readability":    page.Readability,
		"language":       optString(page.Language),
		"content_hash":   page.ContentHash,
		"entities":       ents,
		"relationships":  edges,
	}

	start := time.Now()
	if _, err := surrealdb.Query[any](ctx, s.db, ingestSQL, vars); err != nil {
		return nil, &StoreError{Op: "ingest", Err: classifyQueryError(err)}
	}

	version, err := s.pageVersion(ctx, pageID)
	if err != nil {
		return nil, &StoreError{Op: "ingest", Err: err}
	}

	s.logger.Info("ingested page",
		"url", page.URL,
		"version", version,
		"entities", len(entities),
		"relationships", len(rels),
		"duration", time.Since(start))

	return &IngestReceipt{
		PageID:        pageID,
		PageVersion:   version,
		Domain:        domainName,
		Entities:      len(entities),
		Relationships: len(rels),
		ProcessedAt:   time.Now(),
	}, nil
}

func (s *Store) pageVersion(ctx context.Context, pageID string) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Version int `json:"version"`
	}](ctx, s.db, `SELECT version FROM type::record("page", $id)`, map[string]any{"id": pageID})
	if err != nil {
		return 0, classifyQueryError(err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, ErrNotFound
	}
	return (*results)[0].Result[0].Version, nil
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orEmpty(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}
