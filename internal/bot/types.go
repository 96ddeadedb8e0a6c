// Package bot orchestrates one inbound message through the conversation
// pipeline: shortcut check, candidate retrieval, prompt assembly, the
// model call, response post-processing and session bookkeeping. Channel
// adapters hand it plain inbound turns and deliver whatever text it
// returns; everything channel-specific stays outside.
package bot

// InboundTurn is one message as received from a channel adapter.
type InboundTurn struct {
	ConversationID   string
	Text             string
	IsSelfOriginated bool
}

// Message outcomes recorded in metrics.
const (
	outcomeDiscarded   = "discarded"
	outcomeRateLimited = "rate_limited"
	outcomeBudget      = "model_budget"
	outcomeShortcut    = "shortcut"
	outcomeModel       = "model"
	outcomeFailed      = "failed"
)

// Fixed user-visible texts. Failures never leak diagnostics to the user;
// detail goes to the logs only.
const (
	apologyText = "Disculpá, en este momento no puedo responder tu consulta. Probá de nuevo en unos minutos."

	rateLimitText = "Estás enviando mensajes muy seguido. Esperá un momento y volvé a intentar."

	busyText = "Estoy recibiendo muchas consultas en este momento. Probá de nuevo en unos minutos."
)
