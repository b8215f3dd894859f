package history

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore() *Store {
	return NewStore(zerolog.Nop())
}

func TestRecordAndContext(t *testing.T) {
	s := newTestStore()
	s.Record("s1", "what is 2+2", "4")

	turns := s.Context("s1")
	if len(turns) != 2 {
		t.Fatalf("len = %d, want 2", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Content != "what is 2+2" {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != "assistant" || turns[1].Content != "4" {
		t.Fatalf("unexpected second turn: %+v", turns[1])
	}
}

func TestRetentionWindowDropsOldest(t *testing.T) {
	s := newTestStore()
	s.Record("s1", "q1", "a1")
	s.Record("s1", "q2", "a2")
	s.Record("s1", "q3", "a3")
	s.Record("s1", "q4", "a4")

	if got := s.Len("s1"); got != maxPairs {
		t.Fatalf("len = %d, want %d", got, maxPairs)
	}
	turns := s.Context("s1")
	if turns[0].Content != "q2" {
		t.Fatalf("oldest retained = %q, want q2", turns[0].Content)
	}
	if turns[len(turns)-1].Content != "a4" {
		t.Fatalf("newest = %q, want a4", turns[len(turns)-1].Content)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestStore()
	s.Record("a", "qa", "aa")
	s.Record("b", "qb", "ab")

	if got := s.Context("a"); len(got) != 2 || got[0].Content != "qa" {
		t.Fatalf("session a polluted: %+v", got)
	}
	if got := s.Context("b"); len(got) != 2 || got[0].Content != "qb" {
		t.Fatalf("session b polluted: %+v", got)
	}
}

func TestContextUnknownSession(t *testing.T) {
	s := newTestStore()
	if got := s.Context("nope"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore()
	s.Record("s1", "q", "a")
	s.Clear("s1")
	if s.Len("s1") != 0 {
		t.Fatal("session survived Clear")
	}
	s.Clear("s1") // idempotent
}

func TestClearAll(t *testing.T) {
	s := newTestStore()
	s.Record("a", "q", "a")
	s.Record("b", "q", "a")
	if n := s.ClearAll(); n != 2 {
		t.Fatalf("cleared %d, want 2", n)
	}
	if s.Len("a") != 0 || s.Len("b") != 0 {
		t.Fatal("sessions survived ClearAll")
	}
}

func TestPruneIdleSessions(t *testing.T) {
	s := newTestStore()
	s.Record("old", "q", "a")
	s.sessions["old"].lastSeen = time.Now().Add(-2 * time.Hour)
	s.Record("fresh", "q", "a")

	if n := s.Prune(time.Hour); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if s.Len("old") != 0 {
		t.Fatal("idle session survived Prune")
	}
	if s.Len("fresh") != 1 {
		t.Fatal("fresh session was pruned")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	if NewSessionID() == NewSessionID() {
		t.Fatal("expected distinct session ids")
	}
}
