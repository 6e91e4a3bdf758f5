// Package models defines the data structures shared across the XoptYmiZ
// ingestion pipeline: pages, entities, relationships and domain rollups.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EntityType is the closed set of entity classifications.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
	EntityConcept      EntityType = "CONCEPT"
	EntityTechnology   EntityType = "TECHNOLOGY"
	EntityProduct      EntityType = "PRODUCT"
	EntityEvent        EntityType = "EVENT"
	EntityOther        EntityType = "OTHER"
)

// EntityTypes lists all valid entity types.
var EntityTypes = []EntityType{
	EntityPerson,
	EntityOrganization,
	EntityLocation,
	EntityConcept,
	EntityTechnology,
	EntityProduct,
	EntityEvent,
	EntityOther,
}

// ParseEntityType normalizes a free-form type string to a member of the
// closed set. Unknown values map to OTHER.
func ParseEntityType(s string) EntityType {
	t := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range EntityTypes {
		if t == known {
			return t
		}
	}
	return EntityOther
}

// Entity is a named thing recognized in content. Its identity key is the
// case-folded, trimmed text; everything else merges under the store's rules
// (max importance, running-average confidence, mention counting).
type Entity struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Type        EntityType `json:"type"`
	Importance  int        `json:"importance"` // 1-10
	Description string     `json:"description,omitempty"`
	Aliases     []string   `json:"aliases,omitempty"`
	Confidence  float64    `json:"confidence"` // 0.0-1.0

	// Populated on reads from the store, zero on annotation output.
	MentionCount int `json:"mention_count,omitempty"`
	PageCount    int `json:"page_count,omitempty"`
}

// IdentityKey returns the merge key for an entity text: case-folded and
// trimmed.
func IdentityKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// EntityID derives the stable record ID for an entity text by hashing its
// identity key.
func EntityID(text string) string {
	sum := sha256.Sum256([]byte(IdentityKey(text)))
	return hex.EncodeToString(sum[:])[:16]
}

// NewEntity builds an entity with its ID derived from the text.
func NewEntity(text string, typ EntityType, importance int, confidence float64) Entity {
	return Entity{
		ID:         EntityID(text),
		Text:       strings.TrimSpace(text),
		Type:       typ,
		Importance: clampImportance(importance),
		Confidence: clampConfidence(confidence),
	}
}

func clampImportance(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
