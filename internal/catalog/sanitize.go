package catalog

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// markupReplacer neutralizes characters that carry meaning in channel
// markup (WhatsApp emphasis, markdown, backticks). They are removed rather
// than escaped so catalog text can never open an emphasis span in a reply.
var markupReplacer = strings.NewReplacer(
	"*", "",
	"_", "",
	"~", "",
	"`", "",
)

// SanitizeText reduces a raw catalog value to plain text: HTML is parsed
// and flattened, control characters and markup-significant characters are
// neutralized, and whitespace is collapsed and trimmed.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}

	if strings.ContainsAny(s, "<>") {
		s = stripHTML(s)
	}

	s = markupReplacer.Replace(s)

	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// stripHTML extracts the text content of markup-laden input. Falls back to
// removing angle brackets when the input is not parseable.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.NewReplacer("<", " ", ">", " ").Replace(s)
	}
	return doc.Text()
}

// SanitizeList sanitizes every entry of a raw list, drops entries that are
// empty after sanitization, and caps the result at limit preserving
// front-to-back order. Returns the retained list and how many raw entries
// were dropped by the cap.
func SanitizeList(values []string, limit int) ([]string, int) {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if s := SanitizeText(v); s != "" {
			cleaned = append(cleaned, s)
		}
	}

	dropped := 0
	if limit > 0 && len(cleaned) > limit {
		dropped = len(cleaned) - limit
		cleaned = cleaned[:limit]
	}
	return cleaned, dropped
}

// SanitizeLink keeps only a plausible single-token URL out of a raw link
// field. Unlike SanitizeText it preserves underscores and tildes, which are
// legal inside URLs; only control characters are neutralized. The first
// token that looks like a URL wins, otherwise empty.
func SanitizeLink(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	for _, tok := range strings.Fields(s) {
		if strings.HasPrefix(tok, "http://") || strings.HasPrefix(tok, "https://") {
			return tok
		}
	}
	return ""
}
