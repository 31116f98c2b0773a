package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are generic venue words that carry no identity signal.
// "The Afghan Horsemen Restaurant" and "Afghan Horsemen" must normalize
// to the same key.
var stopwords = map[string]struct{}{
	"restaurant":  {},
	"restaurants": {},
	"bar":         {},
	"cafe":        {},
	"bistro":      {},
	"kitchen":     {},
	"grill":       {},
	"grille":      {},
	"pub":         {},
	"the":         {},
	"and":         {},
	"lounge":      {},
	"house":       {},
	"eatery":      {},
}

var foldDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize reduces a restaurant name to its comparison form: diacritics
// folded, lowercased, "&" expanded to "and", punctuation stripped, and
// stopwords removed.
func Normalize(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(folded)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if _, drop := stopwords[tok]; drop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Tokens returns the normalized token list for a name.
func Tokens(name string) []string {
	n := Normalize(name)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}

// FSA returns the forward sortation area (first three characters) of a
// Canadian postal code, uppercased, or "" when the code is too short.
func FSA(postalCode string) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postalCode), " ", ""))
	if len(cleaned) < 3 {
		return ""
	}
	return cleaned[:3]
}
