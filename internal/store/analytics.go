package store

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/xoptymiz/xoptymiz/internal/models"
)

// OverviewStats holds graph-wide record counts.
type OverviewStats struct {
	Pages         int `json:"pages"`
	Entities      int `json:"entities"`
	Domains       int `json:"domains"`
	Relationships int `json:"relationships"`
}

// TypeCount is one bucket of the entity-type histogram.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// GraphNode is an entity prepared for visualization.
type GraphNode struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Type       models.EntityType `json:"type"`
	Importance int               `json:"importance"`
}

// GraphEdge is a relationship between two visualized nodes.
type GraphEdge struct {
	FromID     string              `json:"from_id"`
	ToID       string              `json:"to_id"`
	Type       models.RelationType `json:"type"`
	Strength   float64             `json:"strength"`
	Confidence float64             `json:"confidence"`
}

// Graph is the node/edge list served to visualization clients.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// entityFields selects an entity with its derived page count.
const entityFields = `
    record::id(id) AS id, text, type, importance, confidence, mention_count,
    array::len(array::distinct(<-mentions<-page)) AS page_count
`

// Overview returns graph-wide counts.
func (s *Store) Overview(ctx context.Context) (*OverviewStats, error) {
	results, err := surrealdb.Query[OverviewStats](ctx, s.db, `
		RETURN {
			pages: array::len((SELECT VALUE id FROM page)),
			entities: array::len((SELECT VALUE id FROM entity)),
			domains: array::len((SELECT VALUE id FROM domain)),
			relationships: array::len((SELECT VALUE id FROM related_to))
		}
	`, nil)
	if err != nil {
		return nil, &StoreError{Op: "overview", Err: classifyQueryError(err)}
	}
	if results == nil || len(*results) == 0 {
		return &OverviewStats{}, nil
	}
	stats := (*results)[0].Result
	return &stats, nil
}

// TopEntities returns the most important entities.
func (s *Store) TopEntities(ctx context.Context, limit int) ([]models.Entity, error) {
	if limit <= 0 {
		limit = 20
	}
	results, err := surrealdb.Query[[]models.Entity](ctx, s.db, `
		SELECT `+entityFields+`
		FROM entity
		ORDER BY importance DESC, mention_count DESC
		LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, &StoreError{Op: "top entities", Err: classifyQueryError(err)}
	}
	if results == nil || len(*results) == 0 {
		return []models.Entity{}, nil
	}
	return (*results)[0].Result, nil
}

// TypeHistogram returns entity counts per type.
func (s *Store) TypeHistogram(ctx context.Context) ([]TypeCount, error) {
	results, err := surrealdb.Query[[]TypeCount](ctx, s.db, `
		SELECT type, count() AS count FROM entity GROUP BY type ORDER BY count DESC
	`, nil)
	if err != nil {
		return nil, &StoreError{Op: "type histogram", Err: classifyQueryError(err)}
	}
	if results == nil || len(*results) == 0 {
		return []TypeCount{}, nil
	}
	return (*results)[0].Result, nil
}

// ContentGaps returns high-importance entities that appear on only one
// page. These mark topics worth more coverage.
func (s *Store) ContentGaps(ctx context.Context, minImportance int) ([]models.Entity, error) {
	if minImportance <= 0 {
		minImportance = 7
	}
	results, err := surrealdb.Query[[]models.Entity](ctx, s.db, `
		SELECT `+entityFields+`
		FROM entity
		WHERE importance >= $min_importance
		  AND array::len(array::distinct(<-mentions<-page)) == 1
		ORDER BY importance DESC
	`, map[string]any{"min_importance": minImportance})
	if err != nil {
		return nil, &StoreError{Op: "content gaps", Err: classifyQueryError(err)}
	}
	if results == nil || len(*results) == 0 {
		return []models.Entity{}, nil
	}
	return (*results)[0].Result, nil
}

// Visualization returns at most maxNodes entities at or above the
// importance floor, with edges restricted to pairs where both endpoints
// made the cut.
func (s *Store) Visualization(ctx context.Context, maxNodes, minImportance int) (*Graph, error) {
	if maxNodes <= 0 {
		maxNodes = 50
	}

	nodeResults, err := surrealdb.Query[[]GraphNode](ctx, s.db, `
		SELECT record::id(id) AS id, text, type, importance
		FROM entity
		WHERE importance >= $min_importance
		ORDER BY importance DESC
		LIMIT $max_nodes
	`, map[string]any{"min_importance": minImportance, "max_nodes": maxNodes})
	if err != nil {
		return nil, &StoreError{Op: "visualization nodes", Err: classifyQueryError(err)}
	}

	graph := &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	if nodeResults != nil && len(*nodeResults) > 0 {
		graph.Nodes = (*nodeResults)[0].Result
	}
	if len(graph.Nodes) == 0 {
		return graph, nil
	}

	included := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		included[n.ID] = true
	}

	edgeResults, err := surrealdb.Query[[]GraphEdge](ctx, s.db, `
		SELECT record::id(in) AS from_id, record::id(out) AS to_id,
		       rel_type AS type, strength, confidence
		FROM related_to
	`, nil)
	if err != nil {
		return nil, &StoreError{Op: "visualization edges", Err: classifyQueryError(err)}
	}
	if edgeResults != nil && len(*edgeResults) > 0 {
		for _, e := range (*edgeResults)[0].Result {
			if included[e.FromID] && included[e.ToID] {
				graph.Edges = append(graph.Edges, e)
			}
		}
	}

	return graph, nil
}
