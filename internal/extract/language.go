package extract

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// detectLanguage returns the ISO 639-1 code of the text's language, or an
// empty string when detection is inconclusive. The detector is built
// lazily; loading the language models is expensive.
func detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.German, lingua.French, lingua.Spanish,
				lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Russian,
				lingua.Japanese, lingua.Chinese,
			).
			Build()
	})
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
