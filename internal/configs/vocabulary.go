package configs

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Kind identifies which enumeration an INI value belongs to.
type Kind int

const (
	KindNone Kind = iota
	KindWorldType
	KindPreset
	KindLevel
)

type term struct {
	english string
	display string
}

// Vocabulary maps the English enumeration values the server reads to the
// words shown to the user.
type Vocabulary struct {
	Name  string
	terms map[Kind][]term
}

// English shows values exactly as the server file spells them.
var English = Vocabulary{Name: "en"}

// French matches the labels of the original manager UI.
var French = Vocabulary{
	Name: "fr",
	terms: map[Kind][]term{
		KindWorldType: {
			{"campaign", "Campagne"},
			{"sandbox", "Bac à sable"},
		},
		KindPreset: {
			{"story", "Histoire"},
			{"solo", "Solo"},
			{"normal", "Normal"},
			{"hard", "Difficile"},
			{"custom", "Personnalisé"},
		},
		KindLevel: {
			{"verylow", "Très faible"},
			{"low", "Faible"},
			{"default", "Par défaut"},
			{"high", "Élevé"},
			{"veryhigh", "Très élevé"},
		},
	},
}

// EnglishValues lists the values the server accepts for each kind.
var EnglishValues = map[Kind][]string{
	KindWorldType: {"campaign", "sandbox"},
	KindPreset:    {"story", "solo", "normal", "hard", "custom"},
	KindLevel:     {"verylow", "low", "default", "high", "veryhigh"},
}

// VocabularyFor returns the vocabulary for a language code.
func VocabularyFor(lang string) (Vocabulary, error) {
	switch strings.ToLower(lang) {
	case "fr", "":
		return French, nil
	case "en":
		return English, nil
	default:
		return Vocabulary{}, fmt.Errorf("unsupported language %q: must be fr or en", lang)
	}
}

// sameWord compares two words ignoring case, including accented letters.
// A fresh Caser is used per call because Casers are not safe for
// concurrent use.
func sameWord(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// ToEnglish converts a display value to the value written to the file.
// Unknown values are lower-cased and otherwise passed through.
func (v Vocabulary) ToEnglish(kind Kind, display string) string {
	for _, t := range v.terms[kind] {
		if sameWord(t.display, display) {
			return t.english
		}
	}
	return strings.ToLower(display)
}

// ToDisplay converts a file value to the word shown to the user. Unknown
// values are returned unchanged.
func (v Vocabulary) ToDisplay(kind Kind, english string) string {
	for _, t := range v.terms[kind] {
		if sameWord(t.english, english) {
			return t.display
		}
	}
	return english
}

// Normalize maps a user-supplied value in either English or this
// vocabulary to its canonical display form, reporting whether it is a
// value the server knows.
func (v Vocabulary) Normalize(kind Kind, value string) (string, bool) {
	english := v.ToEnglish(kind, value)
	for _, known := range EnglishValues[kind] {
		if sameWord(known, english) {
			return v.ToDisplay(kind, known), true
		}
	}
	return value, false
}

// Choices lists the display values for kind, sorted.
func (v Vocabulary) Choices(kind Kind) []string {
	var out []string
	for _, e := range EnglishValues[kind] {
		out = append(out, v.ToDisplay(kind, e))
	}
	sort.Strings(out)
	return out
}
