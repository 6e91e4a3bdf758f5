package annotate

import (
	"regexp"
	"strings"

	"github.com/xoptymiz/xoptymiz/internal/models"
)

// capitalizedStopwords are sentence-initial or mid-sentence capitalized
// words that are never proper nouns on their own.
var capitalizedStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true,
	"these": true, "those": true, "it": true, "its": true, "he": true,
	"she": true, "they": true, "we": true, "i": true, "you": true,
	"his": true, "her": true, "their": true, "our": true, "my": true,
	"and": true, "or": true, "but": true, "if": true, "so": true,
	"when": true, "while": true, "after": true, "before": true,
	"however": true, "also": true, "as": true, "at": true, "in": true,
	"on": true, "for": true, "to": true, "of": true, "with": true,
	"by": true, "from": true, "not": true, "no": true, "yes": true,
	"then": true, "there": true, "here": true, "what": true,
	"which": true, "who": true, "how": true, "why": true, "where": true,
}

var organizationSuffixes = map[string]bool{
	"inc": true, "corp": true, "corporation": true, "ltd": true,
	"llc": true, "gmbh": true, "company": true, "co": true,
	"technologies": true, "labs": true, "group": true, "systems": true,
	"software": true, "industries": true, "partners": true,
}

var personTitles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"sir": true,
}

// personVerbs follow a name: "Alice works at ...".
var personVerbs = map[string]bool{
	"works": true, "worked": true, "says": true, "said": true,
	"wrote": true, "writes": true, "met": true, "joined": true,
	"leads": true, "led": true, "announced": true, "explained": true,
	"argues": true, "believes": true, "teaches": true, "studied": true,
}

var organizationPrepositions = map[string]bool{
	"at": true, "for": true,
}

var locationPrepositions = map[string]bool{
	"in": true, "from": true, "near": true, "across": true,
}

// structuralEntities pulls proper-noun phrases out of the text and
// classifies them from local context cues. Importance is fixed at 6-7 and
// confidence at 0.7-0.8; these are supplementary observations, not
// authoritative ones.
func structuralEntities(text string) []models.Entity {
	var out []models.Entity
	for _, sentence := range splitSentences(text) {
		words := strings.Fields(sentence)
		for i := 0; i < len(words); i++ {
			w := cleanToken(words[i])
			if !isProperToken(w) {
				continue
			}
			j := i
			phrase := []string{w}
			for j+1 < len(words) {
				next := cleanToken(words[j+1])
				if !isProperToken(next) {
					break
				}
				phrase = append(phrase, next)
				j++
			}

			prev := ""
			if i > 0 {
				prev = strings.ToLower(cleanToken(words[i-1]))
			}
			next := ""
			if j+1 < len(words) {
				next = strings.ToLower(cleanToken(words[j+1]))
			}

			out = append(out, classifyPhrase(strings.Join(phrase, " "), prev, next))
			i = j
		}
	}
	return out
}

func classifyPhrase(phrase, prev, next string) models.Entity {
	parts := strings.Fields(phrase)
	first := strings.ToLower(parts[0])
	last := strings.ToLower(strings.TrimSuffix(parts[len(parts)-1], "."))

	switch {
	case organizationSuffixes[last]:
		return models.NewEntity(phrase, models.EntityOrganization, 7, 0.8)
	case personTitles[first]:
		return models.NewEntity(phrase, models.EntityPerson, 7, 0.8)
	case organizationPrepositions[prev]:
		return models.NewEntity(phrase, models.EntityOrganization, 6, 0.75)
	case locationPrepositions[prev]:
		return models.NewEntity(phrase, models.EntityLocation, 6, 0.75)
	case personVerbs[next]:
		return models.NewEntity(phrase, models.EntityPerson, 6, 0.75)
	default:
		return models.NewEntity(phrase, models.EntityConcept, 6, 0.7)
	}
}

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	domainPattern = regexp.MustCompile(`https?://([a-zA-Z0-9.-]+)`)
)

// patternEntities detects email addresses and URL domains. Emails are
// regex-exact so they carry full confidence; domains slightly less.
func patternEntities(text string) []models.Entity {
	var out []models.Entity
	for _, m := range emailPattern.FindAllString(text, -1) {
		e := models.NewEntity(m, models.EntityOther, 5, 1.0)
		e.Description = "email address"
		out = append(out, e)
	}
	for _, m := range domainPattern.FindAllStringSubmatch(text, -1) {
		e := models.NewEntity(m[1], models.EntityOther, 5, 0.9)
		e.Description = "referenced domain"
		out = append(out, e)
	}
	return out
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

func cleanToken(tok string) string {
	return strings.Trim(tok, `,;:()[]{}"'`)
}

func isProperToken(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	r := rune(tok[0])
	if r < 'A' || r > 'Z' {
		return false
	}
	return !capitalizedStopwords[strings.ToLower(tok)]
}
