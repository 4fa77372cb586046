package app

import (
	"context"
	"sync"

	"github.com/dkeye/fastcall/internal/core"
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Sessions tracks every live connection so it can be cancelled from
// outside its own dispatch loop (kick, shutdown).
type Sessions struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[domain.SessionID]*sessionEntry)}
}

func (s *Sessions) Bind(sess core.MemberSession, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Debug().Str("module", "app.sessions").Str("sid", string(sess.ID())).Msg("bound session")
}

func (s *Sessions) Unbind(sid domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	log.Debug().Str("module", "app.sessions").Str("sid", string(sid)).Msg("unbind session")
}

func (s *Sessions) Get(sid domain.SessionID) (core.MemberSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// Cancel stops the session's dispatch loop. The loop itself runs the
// leave and close steps.
func (s *Sessions) Cancel(sid domain.SessionID) bool {
	s.mu.RLock()
	e, ok := s.sessions[sid]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// CancelAll cancels every live session and returns how many there were.
func (s *Sessions) CancelAll() int {
	s.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(s.sessions))
	for _, e := range s.sessions {
		if e.Cancel != nil {
			cancels = append(cancels, e.Cancel)
		}
	}
	s.mu.RUnlock()
	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
