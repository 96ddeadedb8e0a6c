package postprocess

import (
	"regexp"
	"strings"
)

// LinkLinePrefix is the exact lead-in the rules make the model use when it
// hands out a registration link. The shortcut reply uses it too.
const LinkLinePrefix = "Formulario de inscripción: "

var linkLineRe = regexp.MustCompile(`Formulario de inscripción:\s*(https?://\S+)`)

// Suggestion is the course a reply pointed the user at.
type Suggestion struct {
	Title string
	Link  string
}

// ExtractSuggestion finds the last registration link in raw model output
// and pairs it with the closest preceding emphasized span, which the rules
// make the course title. Returns false when the reply hands out no link.
func ExtractSuggestion(raw string) (Suggestion, bool) {
	locs := linkLineRe.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return Suggestion{}, false
	}

	last := locs[len(locs)-1]
	link := strings.TrimRight(raw[last[2]:last[3]], ".,;:)")

	title := closestTitleBefore(raw[:last[0]])
	return Suggestion{Title: title, Link: link}, true
}

// closestTitleBefore returns the inner text of the last emphasized span in
// the prefix, or empty when the reply emphasized nothing.
func closestTitleBefore(prefix string) string {
	if spans := boldSpanRe.FindAllStringSubmatch(prefix, -1); len(spans) > 0 {
		return strings.TrimSpace(spans[len(spans)-1][1])
	}
	if spans := singleSpanRe.FindAllStringSubmatch(prefix, -1); len(spans) > 0 {
		return strings.TrimSpace(spans[len(spans)-1][1])
	}
	return ""
}
