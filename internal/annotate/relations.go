package annotate

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xoptymiz/xoptymiz/internal/models"
)

const (
	// proximityWindow is the mention distance, in characters, beyond which
	// two mentions do not count toward a pair's score.
	proximityWindow = 100

	// neighborSpan pairs each entity with this many of its successors in
	// importance order, regardless of proximity.
	neighborSpan = 2

	// minStrength is the floor below which no edge is recorded. False
	// positives are worse than missed edges here.
	minStrength = 0.1

	// maxRelationships bounds the result list.
	maxRelationships = 50
)

// inferRelationships pairs entities by importance adjacency and textual
// proximity and scores each pair by how close together their mentions sit.
// Entities must already be sorted by importance, highest first; edges run
// from the more important entity to the less important one.
func inferRelationships(text string, entities []models.Entity) []models.Relationship {
	if len(entities) < 2 {
		return nil
	}

	lower := strings.ToLower(text)
	positions := make([][]int, len(entities))
	for i, e := range entities {
		positions[i] = mentionPositions(lower, models.IdentityKey(e.Text))
	}

	type pair struct{ i, j int }
	candidates := make(map[pair]bool)
	for i := range entities {
		for n := 1; n <= neighborSpan && i+n < len(entities); n++ {
			candidates[pair{i, i + n}] = true
		}
		for j := i + 1; j < len(entities); j++ {
			if nearestDistance(positions[i], positions[j]) <= proximityWindow {
				candidates[pair{i, j}] = true
			}
		}
	}

	var rels []models.Relationship
	for p := range candidates {
		from, to := entities[p.i], entities[p.j]
		strength := math.Min(proximityScore(positions[p.i], positions[p.j])/10, 1)
		if strength <= minStrength {
			continue
		}

		rel := models.Relationship{
			FromID:     from.ID,
			ToID:       to.ID,
			FromText:   from.Text,
			ToText:     to.Text,
			Type:       models.RelationTypeFor(from.Type, to.Type),
			Strength:   strength,
			Confidence: math.Min(from.Confidence*to.Confidence*strength, 1),
		}
		if snippet := evidenceSnippet(text, positions[p.i], positions[p.j]); snippet != "" {
			rel.Evidence = []string{snippet}
		}
		rels = append(rels, rel)
	}

	// Strength descending; text tie-break keeps the order deterministic
	// across runs.
	sort.SliceStable(rels, func(a, b int) bool {
		if rels[a].Strength != rels[b].Strength {
			return rels[a].Strength > rels[b].Strength
		}
		if rels[a].FromText != rels[b].FromText {
			return rels[a].FromText < rels[b].FromText
		}
		return rels[a].ToText < rels[b].ToText
	})
	if len(rels) > maxRelationships {
		rels = rels[:maxRelationships]
	}
	return rels
}

// proximityScore sums a distance-weighted contribution for every mention
// pair inside the window. Distance is normalized by the window size, so a
// couple of close co-mentions are enough to clear the strength floor while
// a single borderline one is not.
func proximityScore(a, b []int) float64 {
	score := 0.0
	for _, pa := range a {
		for _, pb := range b {
			d := math.Abs(float64(pa - pb))
			if d > proximityWindow {
				continue
			}
			score += 1 / (1 + d/proximityWindow)
		}
	}
	return score
}

// mentionPositions finds all occurrences of the identity key in the
// case-folded text.
func mentionPositions(lowerText, key string) []int {
	if key == "" {
		return nil
	}
	var out []int
	for start := 0; ; {
		idx := strings.Index(lowerText[start:], key)
		if idx < 0 {
			return out
		}
		out = append(out, start+idx)
		start += idx + len(key)
	}
}

func nearestDistance(a, b []int) int {
	best := math.MaxInt32
	for _, pa := range a {
		for _, pb := range b {
			d := pa - pb
			if d < 0 {
				d = -d
			}
			if d < best {
				best = d
			}
		}
	}
	return best
}

// evidenceSnippet extracts the text surrounding the closest mention pair.
func evidenceSnippet(text string, a, b []int) string {
	if len(a) == 0 || len(b) == 0 {
		return ""
	}
	bestA, bestB, best := -1, -1, math.MaxInt32
	for _, pa := range a {
		for _, pb := range b {
			d := pa - pb
			if d < 0 {
				d = -d
			}
			if d < best {
				best, bestA, bestB = d, pa, pb
			}
		}
	}
	if best > proximityWindow {
		return ""
	}

	lo := bestA
	if bestB < lo {
		lo = bestB
	}
	hi := bestA
	if bestB > hi {
		hi = bestB
	}
	hi += 40
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}
