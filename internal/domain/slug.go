package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so accented product names slug to
// their ASCII skeleton ("Café" -> "cafe").
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a product name into the filesystem-and-URL-safe slug used
// as the run's output directory name. Lowercase, diacritics folded, characters
// outside letters/digits/whitespace/hyphen dropped, runs of whitespace and
// underscores collapsed into single hyphens, repeated and edge hyphens
// trimmed. Idempotent.
func Slugify(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_' || r == '-':
			pendingHyphen = true
		}
	}
	return b.String()
}
