package app

import (
	"testing"

	"github.com/dkeye/fastcall/internal/core"
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(sid string) core.MemberSession {
	return core.NewMemberSession(domain.NewMember(domain.SessionID(sid), "c"), newFakeTransport())
}

func TestSessionsBindGetUnbind(t *testing.T) {
	s := NewSessions()
	a := newSession("a")
	s.Bind(a, nil)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.Equal(t, 1, s.Len())

	s.Unbind("a")
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestSessionsCancel(t *testing.T) {
	s := NewSessions()
	calls := 0
	s.Bind(newSession("a"), func() { calls++ })

	assert.True(t, s.Cancel("a"))
	assert.False(t, s.Cancel("missing"))
	assert.Equal(t, 1, calls)
}

func TestSessionsCancelAll(t *testing.T) {
	s := NewSessions()
	calls := 0
	for _, sid := range []string{"a", "b", "c"} {
		s.Bind(newSession(sid), func() { calls++ })
	}

	assert.Equal(t, 3, s.CancelAll())
	assert.Equal(t, 3, calls)
}
