package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/genai"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/postprocess"
	"github.com/martinvidela/cursobot-go/internal/prompt"
	"github.com/martinvidela/cursobot-go/internal/rag"
	"github.com/martinvidela/cursobot-go/internal/ratelimit"
	"github.com/martinvidela/cursobot-go/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// fakeResponder scripts the model call for pipeline tests.
type fakeResponder struct {
	reply string
	err   error
	calls int
}

func (f *fakeResponder) Respond(_ context.Context, _ genai.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeResponder) Provider() genai.Provider { return genai.ProviderGemini }
func (f *fakeResponder) Close() error             { return nil }

// staticCourses satisfies CourseProvider without a database.
type staticCourses struct {
	courses []catalog.Course
	err     error
}

func (s *staticCourses) All(_ context.Context) ([]catalog.Course, error) {
	return s.courses, s.err
}

func testProcessor(t *testing.T, responder genai.Responder, courses CourseProvider) (*Processor, *session.Store) {
	t.Helper()
	log := logger.New("error")
	store := session.NewStore(session.StoreConfig{})
	t.Cleanup(store.Stop)

	if courses == nil {
		courses = &staticCourses{courses: []catalog.Course{
			{ID: "curso-1", Title: "Herrería artística", Status: catalog.StatusOpen, RegistrationLink: "https://forms.example.org/h"},
			{ID: "curso-2", Title: "Panadería", Status: catalog.StatusOpen},
		}}
	}

	return NewProcessor(ProcessorConfig{
		Courses:          courses,
		Retriever:        rag.NewRetriever(nil, false, log),
		Assembler:        prompt.NewAssembler("status"),
		Responder:        responder,
		Sessions:         store,
		Style:            postprocess.StyleAsterisk,
		Logger:           log,
		Metrics:          metrics.New(prometheus.NewRegistry()),
		PromptRuleset:    "status",
		ModelCallTimeout: 5 * time.Second,
	}), store
}

func TestHandleMessage_Discards(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{reply: "hola"}
	p, store := testProcessor(t, responder, nil)

	tests := []struct {
		name string
		turn InboundTurn
	}{
		{name: "empty text", turn: InboundTurn{ConversationID: "c1", Text: "   "}},
		{name: "self originated", turn: InboundTurn{ConversationID: "c1", Text: "hola", IsSelfOriginated: true}},
		{name: "over length", turn: InboundTurn{ConversationID: "c1", Text: strings.Repeat("a", config.MaxInboundTextLength+1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := p.HandleMessage(context.Background(), tt.turn)
			if ok || reply != "" {
				t.Errorf("HandleMessage() = (%q, %v), want discarded", reply, ok)
			}
		})
	}

	if responder.calls != 0 {
		t.Errorf("model called %d times for discarded turns", responder.calls)
	}
	if _, exists := store.Snapshot("c1"); exists {
		t.Error("discarded turn created a session")
	}
}

func TestHandleMessage_Shortcut(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{reply: "should not be used"}
	p, store := testProcessor(t, responder, nil)

	store.Do("c1", func(sess *session.Session) {
		session.RecordSuggestion(sess, "Herrería artística", "https://forms.example.org/h")
	})

	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "mandame el link"})
	if !ok {
		t.Fatal("HandleMessage() returned no reply")
	}
	if want := "Formulario de inscripción: https://forms.example.org/h"; reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if responder.calls != 0 {
		t.Errorf("model called %d times on shortcut path, want 0", responder.calls)
	}

	sess, _ := store.Snapshot("c1")
	if len(sess.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(sess.History))
	}
	if sess.History[0].Role != session.RoleUser || sess.History[1].Role != session.RoleAssistant {
		t.Error("shortcut exchange not appended in user/assistant order")
	}
}

func TestHandleMessage_ModelPath(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{
		reply: "Te recomiendo **Herrería artística**.\nFormulario de inscripción: https://forms.example.org/h",
	}
	p, store := testProcessor(t, responder, nil)

	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "quiero aprender herrería"})
	if !ok {
		t.Fatal("HandleMessage() returned no reply")
	}
	if responder.calls != 1 {
		t.Fatalf("model calls = %d, want 1", responder.calls)
	}
	// Double emphasis rewritten to the channel's single-asterisk form
	if want := "Te recomiendo *Herrería artística*.\nFormulario de inscripción: https://forms.example.org/h"; reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}

	sess, _ := store.Snapshot("c1")
	if len(sess.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(sess.History))
	}
	if sess.LastSuggestion == nil {
		t.Fatal("suggestion not recorded")
	}
	if sess.LastSuggestion.Link != "https://forms.example.org/h" {
		t.Errorf("suggestion link = %q", sess.LastSuggestion.Link)
	}
	if sess.LastSuggestion.Title != "Herrería artística" {
		t.Errorf("suggestion title = %q", sess.LastSuggestion.Title)
	}

	// Follow-up can now take the shortcut path
	followUp, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "pasame el formulario"})
	if !ok || followUp != "Formulario de inscripción: https://forms.example.org/h" {
		t.Errorf("follow-up = (%q, %v)", followUp, ok)
	}
	if responder.calls != 1 {
		t.Errorf("model calls = %d after shortcut follow-up, want 1", responder.calls)
	}
}

func TestHandleMessage_ModelFailure(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{err: errors.New("upstream unavailable")}
	p, store := testProcessor(t, responder, nil)

	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "hola, qué cursos hay?"})
	if !ok {
		t.Fatal("HandleMessage() returned no reply")
	}
	if reply != apologyText {
		t.Errorf("reply = %q, want apology", reply)
	}

	// The failed exchange must not enter history
	sess, _ := store.Snapshot("c1")
	if len(sess.History) != 0 {
		t.Errorf("history length = %d after failure, want 0", len(sess.History))
	}
}

func TestHandleMessage_CatalogReadFailure(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{reply: "hola"}
	p, _ := testProcessor(t, responder, &staticCourses{err: errors.New("db locked")})

	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "qué cursos hay?"})
	if !ok || reply != apologyText {
		t.Errorf("HandleMessage() = (%q, %v), want apology", reply, ok)
	}
	if responder.calls != 0 {
		t.Errorf("model called %d times after catalog failure, want 0", responder.calls)
	}
}

func TestHandleMessage_NoResponder(t *testing.T) {
	t.Parallel()
	p, _ := testProcessor(t, nil, nil)

	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "hola"})
	if !ok || reply != apologyText {
		t.Errorf("HandleMessage() = (%q, %v), want apology", reply, ok)
	}
}

func TestHandleMessage_UserRateLimit(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{reply: "hola"}
	p, store := testProcessor(t, responder, nil)
	p.userLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         1,
		RefillRate:    0.001,
		CleanupPeriod: time.Hour,
	})
	t.Cleanup(p.userLimiter.Stop)

	if _, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "hola"}); !ok {
		t.Fatal("first message got no reply")
	}
	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "hola de nuevo"})
	if !ok || reply != rateLimitText {
		t.Errorf("second message = (%q, %v), want rate limit text", reply, ok)
	}

	// The limited turn must not enter history
	sess, _ := store.Snapshot("c1")
	if len(sess.History) != 2 {
		t.Errorf("history length = %d, want 2 (only the first exchange)", len(sess.History))
	}
}

func TestHandleMessage_ModelBudget(t *testing.T) {
	t.Parallel()
	responder := &fakeResponder{reply: "hola"}
	p, _ := testProcessor(t, responder, nil)
	p.modelLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "model",
		Burst:         1,
		RefillRate:    0.001,
		CleanupPeriod: time.Hour,
	})
	t.Cleanup(p.modelLimiter.Stop)

	if _, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c1", Text: "hola"}); !ok {
		t.Fatal("first message got no reply")
	}
	reply, ok := p.HandleMessage(context.Background(), InboundTurn{ConversationID: "c2", Text: "hola"})
	if !ok || reply != busyText {
		t.Errorf("budget-exhausted reply = (%q, %v), want busy text", reply, ok)
	}
	if responder.calls != 1 {
		t.Errorf("model calls = %d, want 1", responder.calls)
	}
}
