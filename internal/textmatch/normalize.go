// Package textmatch scores user messages against course titles so the
// prompt can hint which catalog entries the user most likely means. The
// scoring is plain token-set overlap; it ranks candidates, it never decides
// anything on its own.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes the input and removes combining marks, so
// "Herrería" and "herreria" normalize to the same tokens.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowers the text, strips diacritics, and replaces every
// non-alphanumeric rune with a space, collapsing runs of whitespace.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(s)

	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns the normalized text split into its word tokens.
func Tokens(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// TokenSet returns the distinct normalized tokens of the text.
func TokenSet(s string) map[string]struct{} {
	tokens := Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
