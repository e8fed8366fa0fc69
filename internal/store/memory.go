package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishrut/portfolio-chat/internal"
)

// Clock is injected so expiry can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type session struct {
	messages []internal.Message
	touched  time.Time
}

// MemoryStore keeps ephemeral conversations keyed by session ID. Nothing
// is persisted; a session expires ttl after its last use.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	clock    Clock
	maxTurns int
}

func NewMemoryStore(ttl time.Duration, clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		clock:    clock,
		maxTurns: 50,
	}
}

// NewSessionID issues a fresh random session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// History returns a copy of the session's messages, or nil if the session
// is unknown or expired.
func (s *MemoryStore) History(id string) []internal.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.live(id)
	if sess == nil {
		return nil
	}
	cp := make([]internal.Message, len(sess.messages))
	copy(cp, sess.messages)
	return cp
}

// Append adds messages to the session, creating it if needed. Only the
// newest maxTurns messages are kept.
func (s *MemoryStore) Append(id string, msgs ...internal.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.live(id)
	if sess == nil {
		sess = &session{messages: make([]internal.Message, 0, 16)}
		s.sessions[id] = sess
	}
	sess.messages = append(sess.messages, msgs...)
	if over := len(sess.messages) - s.maxTurns; over > 0 {
		sess.messages = append(sess.messages[:0:0], sess.messages[over:]...)
	}
	sess.touched = s.clock.Now()
}

// Replace overwrites the session with msgs; the caller's copy of the
// conversation is authoritative whenever it sends one.
func (s *MemoryStore) Replace(id string, msgs []internal.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if over := len(msgs) - s.maxTurns; over > 0 {
		msgs = msgs[over:]
	}
	cp := make([]internal.Message, len(msgs))
	copy(cp, msgs)
	s.sessions[id] = &session{messages: cp, touched: s.clock.Now()}
}

func (s *MemoryStore) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops expired sessions and returns how many are left.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
	return len(s.sessions)
}

// live returns the session if it exists and has not expired. Callers hold mu.
func (s *MemoryStore) live(id string) *session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.clock.Now().Sub(sess.touched) > s.ttl {
		delete(s.sessions, id)
		return nil
	}
	return sess
}
