package models

// RelationType classifies a directed entity-to-entity edge.
type RelationType string

const (
	RelWorksFor       RelationType = "WORKS_FOR"
	RelLocatedIn      RelationType = "LOCATED_IN"
	RelDevelops       RelationType = "DEVELOPS"
	RelUses           RelationType = "USES"
	RelPartOf         RelationType = "PART_OF"
	RelParticipatesIn RelationType = "PARTICIPATES_IN"
	RelAssociatedWith RelationType = "ASSOCIATED_WITH"
	RelRelatedTo      RelationType = "RELATED_TO"
)

// Relationship is a typed, directed, weighted edge between two entities.
// At most one edge of a given type exists between an ordered pair; repeated
// observations average strength and confidence in the store.
type Relationship struct {
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	FromText string `json:"from_text,omitempty"`
	ToText   string `json:"to_text,omitempty"`

	Type        RelationType `json:"type"`
	Strength    float64      `json:"strength"`   // (0,1]
	Confidence  float64      `json:"confidence"` // [0,1]
	Description string       `json:"description,omitempty"`
	Evidence    []string     `json:"evidence,omitempty"`
}

// relationRule maps an ordered pair of entity types to an edge type.
// First matching rule wins; the order below is the documented priority.
type relationRule struct {
	from, to EntityType
	rel      RelationType
}

// relationRules is consulted in order; the first match wins, so typing is
// deterministic for any pair.
var relationRules = []relationRule{
	{EntityPerson, EntityOrganization, RelWorksFor},
	{EntityOrganization, EntityLocation, RelLocatedIn},
	{EntityPerson, EntityLocation, RelLocatedIn},
	{EntityOrganization, EntityProduct, RelDevelops},
	{EntityOrganization, EntityTechnology, RelUses},
	{EntityPerson, EntityTechnology, RelUses},
	{EntityProduct, EntityTechnology, RelUses},
	{EntityTechnology, EntityConcept, RelPartOf},
	{EntityProduct, EntityConcept, RelPartOf},
	{EntityPerson, EntityEvent, RelParticipatesIn},
	{EntityOrganization, EntityEvent, RelParticipatesIn},
	{EntityConcept, EntityConcept, RelAssociatedWith},
}

// RelationTypeFor returns the edge type for an ordered pair of entity types.
// Pairs with no specific rule fall back to RELATED_TO.
func RelationTypeFor(from, to EntityType) RelationType {
	for _, r := range relationRules {
		if r.from == from && r.to == to {
			return r.rel
		}
	}
	return RelRelatedTo
}
