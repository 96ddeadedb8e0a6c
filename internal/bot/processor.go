package bot

import (
	"context"
	"strings"
	"time"

	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/ctxutil"
	"github.com/martinvidela/cursobot-go/internal/genai"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/postprocess"
	"github.com/martinvidela/cursobot-go/internal/prompt"
	"github.com/martinvidela/cursobot-go/internal/rag"
	"github.com/martinvidela/cursobot-go/internal/ratelimit"
	"github.com/martinvidela/cursobot-go/internal/session"
)

// CourseProvider supplies the current catalog. Satisfied by *storage.DB.
type CourseProvider interface {
	All(ctx context.Context) ([]catalog.Course, error)
}

// modelBudgetKey is the single key under which the model-call budget
// limiter tracks usage; the budget is global, not per conversation.
const modelBudgetKey = "global"

// Processor runs the conversation pipeline for inbound messages.
type Processor struct {
	courses      CourseProvider
	retriever    *rag.Retriever
	assembler    *prompt.Assembler
	responder    genai.Responder
	sessions     *session.Store
	userLimiter  *ratelimit.KeyedLimiter
	modelLimiter *ratelimit.KeyedLimiter
	style        postprocess.Style
	logger       *logger.Logger
	metrics      *metrics.Metrics

	grounded         bool
	modelCallTimeout time.Duration
}

// ProcessorConfig holds the collaborators for a new Processor.
type ProcessorConfig struct {
	Courses      CourseProvider
	Retriever    *rag.Retriever
	Assembler    *prompt.Assembler
	Responder    genai.Responder // nil when no provider is configured
	Sessions     *session.Store
	UserLimiter  *ratelimit.KeyedLimiter
	ModelLimiter *ratelimit.KeyedLimiter
	Style        postprocess.Style
	Logger       *logger.Logger
	Metrics      *metrics.Metrics

	PromptRuleset    string
	ModelCallTimeout time.Duration
}

// NewProcessor creates the message processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		courses:          cfg.Courses,
		retriever:        cfg.Retriever,
		assembler:        cfg.Assembler,
		responder:        cfg.Responder,
		sessions:         cfg.Sessions,
		userLimiter:      cfg.UserLimiter,
		modelLimiter:     cfg.ModelLimiter,
		style:            cfg.Style,
		logger:           cfg.Logger,
		metrics:          cfg.Metrics,
		grounded:         prompt.IsGrounded(cfg.PromptRuleset),
		modelCallTimeout: cfg.ModelCallTimeout,
	}
}

// HandleMessage runs one inbound turn through the pipeline.
// The returned bool reports whether there is a reply to deliver; discarded
// and rate-limited turns never mutate the session.
func (p *Processor) HandleMessage(ctx context.Context, turn InboundTurn) (string, bool) {
	text := strings.TrimSpace(turn.Text)
	if text == "" || turn.IsSelfOriginated || len(text) > config.MaxInboundTextLength {
		p.metrics.RecordMessage(outcomeDiscarded)
		return "", false
	}

	ctx = ctxutil.WithConversationID(ctx, turn.ConversationID)
	log := p.logger.WithConversationID(turn.ConversationID)

	if p.userLimiter != nil && !p.userLimiter.Allow(turn.ConversationID) {
		log.Debug("Conversation rate limited")
		p.metrics.RecordMessage(outcomeRateLimited)
		return rateLimitText, true
	}

	// Everything from the session read to the reply append runs under the
	// conversation's lock: two messages from the same conversation are
	// strictly sequential even across the model call.
	var reply string
	var replied bool
	p.sessions.Do(turn.ConversationID, func(sess *session.Session) {
		reply, replied = p.handleLocked(ctx, log, sess, text)
	})
	return reply, replied
}

func (p *Processor) handleLocked(ctx context.Context, log *logger.Logger, sess *session.Session, text string) (string, bool) {
	if shortcutReply, ok := tryShortcut(sess, text); ok {
		session.AppendTurn(sess, session.RoleUser, text)
		session.AppendTurn(sess, session.RoleAssistant, shortcutReply)
		p.metrics.RecordShortcutHit()
		p.metrics.RecordMessage(outcomeShortcut)
		log.Debug("Shortcut reply served")
		return shortcutReply, true
	}

	if p.modelLimiter != nil && !p.modelLimiter.Allow(modelBudgetKey) {
		log.Warn("Model call budget exhausted")
		p.metrics.RecordMessage(outcomeBudget)
		return busyText, true
	}

	if p.responder == nil {
		log.Warn("No model provider configured")
		p.metrics.RecordMessage(outcomeFailed)
		return apologyText, true
	}

	in := prompt.Input{History: sess.History, UserText: text}
	if p.grounded {
		courses, err := p.courses.All(ctx)
		if err != nil {
			log.WithError(err).Error("Catalog read failed")
			p.metrics.RecordMessage(outcomeFailed)
			return apologyText, true
		}
		in.Courses = courses
		in.Candidates = p.retriever.TopCandidates(text, courses, config.TopKCandidates)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.modelCallTimeout)
	defer cancel()

	raw, err := p.responder.Respond(callCtx, p.assembler.Assemble(in))
	if err != nil {
		// The failed exchange stays out of history so it cannot pollute
		// the grounding context of the next turn.
		log.WithError(err).Error("Model call failed")
		p.metrics.RecordMessage(outcomeFailed)
		return apologyText, true
	}

	reply := postprocess.Rewrite(raw, p.style)
	if suggestion, ok := postprocess.ExtractSuggestion(reply); ok {
		session.RecordSuggestion(sess, suggestion.Title, suggestion.Link)
		p.metrics.RecordSuggestion()
	}

	session.AppendTurn(sess, session.RoleUser, text)
	session.AppendTurn(sess, session.RoleAssistant, reply)
	p.metrics.RecordMessage(outcomeModel)
	return reply, true
}
