// Package history keeps short-lived per-session chat context in memory.
// Each session holds a bounded window of the most recent exchanges; old
// pairs fall off the front so prompts stay small regardless of how long
// a student keeps talking.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tutord/internal/manager"
)

// maxPairs bounds retained user/assistant exchanges per session.
const maxPairs = 3

// Exchange is one user turn and the tutor's reply.
type Exchange struct {
	UserMessage string
	Response    string
	At          time.Time
}

type session struct {
	exchanges []Exchange
	lastSeen  time.Time
}

// Store is a concurrency-safe session table.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	log      zerolog.Logger
}

func NewStore(log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*session),
		log:      log.With().Str("component", "history").Logger(),
	}
}

// NewSessionID mints an identifier for callers that did not supply one.
func NewSessionID() string { return uuid.NewString() }

// Record appends one exchange to the session, creating it on first use
// and trimming to the retention window.
func (s *Store) Record(sessionID, userMessage, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.exchanges = append(sess.exchanges, Exchange{
		UserMessage: userMessage,
		Response:    response,
		At:          time.Now(),
	})
	if len(sess.exchanges) > maxPairs {
		sess.exchanges = sess.exchanges[len(sess.exchanges)-maxPairs:]
	}
	sess.lastSeen = time.Now()
}

// Context projects the retained exchanges into alternating turns,
// oldest first, ready to splice into a prompt.
func (s *Store) Context(sessionID string) []manager.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		return nil
	}
	turns := make([]manager.Turn, 0, len(sess.exchanges)*2)
	for _, ex := range sess.exchanges {
		turns = append(turns, manager.Turn{Role: "user", Content: ex.UserMessage})
		turns = append(turns, manager.Turn{Role: "assistant", Content: ex.Response})
	}
	return turns
}

// Len reports retained exchange count for a session.
func (s *Store) Len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[sessionID]
	if sess == nil {
		return 0
	}
	return len(sess.exchanges)
}

// Clear drops one session. Clearing an unknown session is a no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// ClearAll drops every session and reports how many were removed.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.sessions)
	s.sessions = make(map[string]*session)
	if n > 0 {
		s.log.Info().Int("sessions", n).Msg("cleared chat history")
	}
	return n
}

// Prune removes sessions idle longer than maxIdle and reports the count.
func (s *Store) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
