package sanitizer

import (
	"strings"
	"unicode"
)

// MaxFieldLength bounds item names and usernames, in runes.
const MaxFieldLength = 256

// Field cleans an item name or username. It drops control characters and
// collapses whitespace, then cuts the result to MaxFieldLength runes.
var Field = Compose(RemoveControlChars, NormalizeWhitespace, MaxLength(MaxFieldLength))

// Compose chains transforms left to right.
func Compose(transforms ...func(string) string) func(string) string {
	return func(s string) string {
		for _, t := range transforms {
			s = t(s)
		}
		return s
	}
}

// RemoveControlChars drops control characters. Tabs and newlines are kept
// for NormalizeWhitespace.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeWhitespace collapses whitespace runs into single spaces and trims both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MaxLength returns a transform cutting strings to at most n runes.
func MaxLength(n int) func(string) string {
	return func(s string) string {
		if n <= 0 {
			return ""
		}
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return string(runes[:n])
	}
}

// Mask keeps the first visible runes of s and replaces the rest with '*'.
// Strings no longer than visible are masked entirely.
func Mask(s string, visible int) string {
	runes := []rune(s)
	if visible < 0 || len(runes) <= visible {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:visible]) + strings.Repeat("*", len(runes)-visible)
}
