package bot

import (
	"github.com/martinvidela/cursobot-go/internal/postprocess"
	"github.com/martinvidela/cursobot-go/internal/session"
	"github.com/martinvidela/cursobot-go/internal/textmatch"
)

// shortcutTokens are the normalized words that signal a "send me the link"
// follow-up. Matching is token-exact on the normalized text, so "link"
// matches but "linkedin" does not.
var shortcutTokens = map[string]struct{}{
	"link":        {},
	"enlace":      {},
	"formulario":  {},
	"form":        {},
	"inscripcion": {},
	"inscribir":   {},
	"inscribirme": {},
	"anotar":      {},
	"anotarme":    {},
	"registrar":   {},
	"registrarme": {},
}

// tryShortcut answers a link follow-up from session state alone. It only
// fires when a previous exchange left a suggestion with a non-empty link;
// otherwise the message goes through the model path. The reply repeats the
// stored link verbatim, so it can never drift from what the user was
// already shown.
func tryShortcut(sess *session.Session, userText string) (string, bool) {
	if sess.LastSuggestion == nil || sess.LastSuggestion.Link == "" {
		return "", false
	}

	for _, token := range textmatch.Tokens(userText) {
		if _, ok := shortcutTokens[token]; ok {
			return postprocess.LinkLinePrefix + sess.LastSuggestion.Link, true
		}
	}
	return "", false
}
