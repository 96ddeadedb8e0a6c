// Package postprocess turns raw model output into channel-ready text and
// extracts the course suggestion the reply contains. The model writes
// markdown-flavored text; each channel has its own emphasis syntax, so the
// rewrite happens here rather than in the prompt.
package postprocess

import (
	"regexp"
	"strings"
)

// Style selects the emphasis syntax of the destination channel.
type Style int

const (
	// StyleAsterisk renders emphasis as *text* (WhatsApp).
	StyleAsterisk Style = iota
	// StylePlain drops emphasis entirely (LINE).
	StylePlain
)

var (
	boldSpanRe   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	singleSpanRe = regexp.MustCompile(`\*([^*\n]+)\*`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]\n]+)\]\((https?://[^)\s]+)\)`)
	anchorRe     = regexp.MustCompile(`(?is)<a\s+[^>]*href="(https?://[^"]+)"[^>]*>(.*?)</a>`)
	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]+>`)

	// Date shapes the model tends to emphasize: Spanish prose dates,
	// dd/mm/yyyy, and ISO dates.
	proseDateRe   = regexp.MustCompile(`(?i)\d{1,2}\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)`)
	numericDateRe = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}`)
)

// Rewrite converts raw model output to the destination channel's plain
// text. Transformations apply in a fixed order:
//  1. emphasized date spans lose their emphasis
//  2. remaining emphasis converts to the channel's syntax
//  3. markdown links flatten to "label: url"
//  4. HTML anchors flatten to "label: url"
//  5. leftover HTML tags are stripped
func Rewrite(text string, style Style) string {
	text = unemphasizeDates(text)
	text = applyEmphasis(text, style)

	text = mdLinkRe.ReplaceAllString(text, "$1: $2")
	text = anchorRe.ReplaceAllString(text, "$2: $1")
	text = htmlTagRe.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}

// unemphasizeDates removes emphasis from spans that look like dates.
// Both **...** and *...* spans are checked.
func unemphasizeDates(text string) string {
	text = boldSpanRe.ReplaceAllStringFunc(text, func(span string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(span, "**"), "**")
		if looksLikeDate(inner) {
			return inner
		}
		return span
	})
	return singleSpanRe.ReplaceAllStringFunc(text, func(span string) string {
		inner := strings.Trim(span, "*")
		if looksLikeDate(inner) {
			return inner
		}
		return span
	})
}

func looksLikeDate(s string) bool {
	return proseDateRe.MatchString(s) || numericDateRe.MatchString(s)
}

// applyEmphasis converts **span** markers to the channel syntax. Stray
// single-asterisk spans are normalized the same way so the output never
// mixes syntaxes.
func applyEmphasis(text string, style Style) string {
	replace := func(inner string) string {
		switch style {
		case StyleAsterisk:
			return "*" + inner + "*"
		default:
			return inner
		}
	}

	text = boldSpanRe.ReplaceAllStringFunc(text, func(span string) string {
		return replace(strings.TrimSuffix(strings.TrimPrefix(span, "**"), "**"))
	})

	if style == StylePlain {
		text = singleSpanRe.ReplaceAllStringFunc(text, func(span string) string {
			return strings.Trim(span, "*")
		})
	}

	return text
}
