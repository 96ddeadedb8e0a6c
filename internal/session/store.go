// Package session keeps short-lived conversation memory: the last few
// turns and the last course suggestion per conversation. Everything lives
// in process memory; an idle conversation is forgotten after its TTL so
// the store cannot grow without bound.
package session

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/metrics"
)

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation's rolling history.
type Turn struct {
	Role Role
	Text string
}

// Suggestion is the last course the assistant pointed the user at, kept so
// a bare "mandame el link" can be answered without re-ranking anything.
type Suggestion struct {
	Title string
	Link  string
}

// Session is the memory of one conversation. Callers only touch it inside
// Store.Do, which serializes all access for the conversation.
type Session struct {
	History        []Turn
	LastSuggestion *Suggestion
	LastActive     time.Time
}

// entry wraps a session with its serialization mutex. The mutex makes
// turns for the same conversation strictly sequential; distinct
// conversations never contend.
type entry struct {
	mu      sync.Mutex
	session Session
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// IdleTTL evicts a conversation after this much inactivity.
	IdleTTL time.Duration

	// SweepInterval is how often the eviction loop runs.
	SweepInterval time.Duration

	// Optional metrics reporter.
	Metrics *metrics.Metrics
}

// Store holds the sessions of all active conversations.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	config  StoreConfig
	now     func() time.Time
	stopCh  chan struct{}
}

// NewStore creates a session store and starts its eviction loop.
func NewStore(cfg StoreConfig) *Store {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 12 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 10 * time.Minute
	}

	s := &Store{
		entries: make(map[string]*entry),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go s.sweepLoop()

	return s
}

// Do runs fn with exclusive access to the conversation's session, creating
// it if needed. Calls for the same conversation id execute strictly in
// arrival order; calls for different conversations run concurrently.
// Mutations fn makes to the session are retained.
func (s *Store) Do(conversationID string, fn func(*Session)) {
	e := s.getOrCreateEntry(conversationID)

	e.mu.Lock()
	defer e.mu.Unlock()

	fn(&e.session)
	e.session.LastActive = s.now()
}

// AppendTurn records a turn in the conversation's history, clamping the
// text and trimming the history to the configured window. Oldest turns go
// first.
func AppendTurn(sess *Session, role Role, text string) {
	if utf8.RuneCountInString(text) > config.TurnCharLimit {
		text = string([]rune(text)[:config.TurnCharLimit])
	}
	sess.History = append(sess.History, Turn{Role: role, Text: text})
	if len(sess.History) > config.HistoryLimit {
		sess.History = sess.History[len(sess.History)-config.HistoryLimit:]
	}
}

// RecordSuggestion remembers the course the assistant just suggested.
// A suggestion without a link is not worth remembering.
func RecordSuggestion(sess *Session, title, link string) {
	if link == "" {
		return
	}
	sess.LastSuggestion = &Suggestion{Title: title, Link: link}
}

// Snapshot returns a copy of the conversation's session, or false when the
// conversation is unknown. Intended for read-only inspection; use Do for
// anything that mutates.
func (s *Store) Snapshot(conversationID string) (Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[conversationID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copied := e.session
	copied.History = append([]Turn(nil), e.session.History...)
	if e.session.LastSuggestion != nil {
		sg := *e.session.LastSuggestion
		copied.LastSuggestion = &sg
	}
	return copied, true
}

// ActiveCount returns how many conversations currently hold a session.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) getOrCreateEntry(conversationID string) *entry {
	s.mu.RLock()
	e, exists := s.entries[conversationID]
	s.mu.RUnlock()

	if exists {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	e, exists = s.entries[conversationID]
	if exists {
		return e
	}

	e = &entry{session: Session{LastActive: s.now()}}
	s.entries[conversationID] = e
	return e
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep evicts conversations idle past the TTL. LastActive is read under
// the entry lock, then re-checked under the store write lock so a turn
// that lands mid-sweep keeps its session.
func (s *Store) sweep() {
	cutoff := s.now().Add(-s.config.IdleTTL)

	s.mu.RLock()
	candidates := make(map[string]*entry, len(s.entries))
	for id, e := range s.entries {
		candidates[id] = e
	}
	s.mu.RUnlock()

	var stale []string
	for id, e := range candidates {
		e.mu.Lock()
		idle := e.session.LastActive.Before(cutoff)
		e.mu.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}

	s.mu.Lock()
	evicted := 0
	for _, id := range stale {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		e.mu.Lock()
		idle := e.session.LastActive.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.entries, id)
			evicted++
		}
	}
	active := len(s.entries)
	s.mu.Unlock()

	if s.config.Metrics != nil {
		if evicted > 0 {
			s.config.Metrics.RecordSessionEvictions(evicted)
		}
		s.config.Metrics.SetActiveSessions(active)
	}
}

// Stop terminates the eviction loop. Safe to call multiple times.
func (s *Store) Stop() {
	select {
	case <-s.stopCh:
		// Already stopped
	default:
		close(s.stopCh)
	}
}
