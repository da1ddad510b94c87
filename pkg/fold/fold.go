package fold

import (
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// collators are reused across calls; a collate.Collator is not safe for concurrent use.
var collators = sync.Pool{
	New: func() any {
		return collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics, collate.Loose)
	},
}

// String folds s for matching: surrounding whitespace is trimmed, diacritics
// are removed and case is folded, so "  Café " and "cafe" fold equally.
func String(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		stripped = strings.TrimSpace(s)
	}
	return cases.Fold().String(stripped)
}

// Contains reports whether the folded form of s contains the folded query.
// An empty query matches everything.
func Contains(s, query string) bool {
	return strings.Contains(String(s), String(query))
}

// Compare orders a and b ignoring case and diacritics.
func Compare(a, b string) int {
	c := collators.Get().(*collate.Collator)
	defer collators.Put(c)
	return c.CompareString(a, b)
}

// SortFunc sorts s in place by the folded order of key, keeping the original
// order of elements that compare equal.
func SortFunc[T any](s []T, key func(T) string) {
	slices.SortStableFunc(s, func(a, b T) int {
		return Compare(key(a), key(b))
	})
}
