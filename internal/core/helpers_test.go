package core

import (
	"sync"
	"testing"

	"github.com/dkeye/fastcall/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	err    error
	closed bool
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, string(f))
	}
	return out
}

func newMember(t *testing.T, sid string) (MemberSession, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	meta := domain.NewMember(domain.SessionID(sid), domain.ClientID("client-"+sid))
	return NewMemberSession(meta, conn), conn
}

func ids(members []MemberSession) []domain.SessionID {
	out := make([]domain.SessionID, 0, len(members))
	for _, m := range members {
		out = append(out, m.ID())
	}
	return out
}
