package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/fastcall/internal/core"
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type fakeTransport struct {
	in     chan core.Inbound
	closed chan struct{}
	once   sync.Once
	closes atomic.Int32

	mu      sync.Mutex
	sent    []string
	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan core.Inbound, 128),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) Receive(ctx context.Context) core.Inbound {
	select {
	case in := <-f.in:
		return in
	case <-f.closed:
		return core.Inbound{Outcome: core.OutcomeDisconnected}
	}
}

func (f *fakeTransport) TrySend(fr core.Frame) error {
	select {
	case <-f.closed:
		return core.ErrConnClosed
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, string(fr))
	return nil
}

func (f *fakeTransport) Close() {
	f.closes.Add(1)
	f.once.Do(func() { close(f.closed) })
}

func (f *fakeTransport) send(msg string) {
	f.in <- core.Inbound{Frame: core.Frame(msg), Outcome: core.OutcomeMessage}
}

func (f *fakeTransport) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeTransport) setSendErr(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	opened  int
	closed  int
	routed  map[domain.MessageType]int
	dropped map[string]int
	failed  map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		routed:  map[domain.MessageType]int{},
		dropped: map[string]int{},
		failed:  map[string]int{},
	}
}

func (r *fakeRecorder) SessionOpened() {
	r.mu.Lock()
	r.opened++
	r.mu.Unlock()
}

func (r *fakeRecorder) SessionClosed() {
	r.mu.Lock()
	r.closed++
	r.mu.Unlock()
}

func (r *fakeRecorder) MessageRouted(t domain.MessageType) {
	r.mu.Lock()
	r.routed[t]++
	r.mu.Unlock()
}

func (r *fakeRecorder) MessageDropped(reason string) {
	r.mu.Lock()
	r.dropped[reason]++
	r.mu.Unlock()
}

func (r *fakeRecorder) SendFailed(reason string) {
	r.mu.Lock()
	r.failed[reason]++
	r.mu.Unlock()
}

func (r *fakeRecorder) routedTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.routed {
		n += v
	}
	return n
}

func (r *fakeRecorder) routedFor(t domain.MessageType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routed[t]
}

func (r *fakeRecorder) droppedFor(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped[reason]
}

type harness struct {
	d        *Dispatcher
	reg      *core.Registry
	sessions *Sessions
	rec      *fakeRecorder
	ctx      context.Context

	mu     sync.Mutex
	states map[domain.SessionID][]State
	active chan domain.SessionID
}

type client struct {
	sid  domain.SessionID
	t    *fakeTransport
	done chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		reg:      core.NewRegistry(),
		sessions: NewSessions(),
		rec:      newFakeRecorder(),
		ctx:      ctx,
		states:   map[domain.SessionID][]State{},
		active:   make(chan domain.SessionID, 16),
	}
	h.d = &Dispatcher{
		Registry:    h.reg,
		Broadcaster: core.NewBroadcaster(h.reg),
		Sessions:    h.sessions,
		Policy:      KickPolicy{},
		Routes:      DefaultRoutes(),
		Metrics:     h.rec,
		OnState: func(sid domain.SessionID, s State) {
			h.mu.Lock()
			h.states[sid] = append(h.states[sid], s)
			h.mu.Unlock()
			if s == StateActive {
				h.active <- sid
			}
		},
	}
	return h
}

func (h *harness) connect(t *testing.T, room domain.RoomName, id domain.ClientID) *client {
	return h.connectWith(t, h.ctx, room, id, newFakeTransport())
}

func (h *harness) connectWith(t *testing.T, ctx context.Context, room domain.RoomName, id domain.ClientID, tr core.Transport) *client {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.d.Serve(ctx, Peer{Room: room, Client: id, Transport: tr})
	}()

	select {
	case sid := <-h.active:
		ft, _ := tr.(*fakeTransport)
		return &client{sid: sid, t: ft, done: done}
	case <-time.After(waitFor):
		t.Fatal("connection never became active")
		return nil
	}
}

func (h *harness) statesOf(sid domain.SessionID) []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]State(nil), h.states[sid]...)
}

func waitDone(t *testing.T, c *client) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(waitFor):
		t.Fatal("dispatch loop did not exit")
	}
}

func requireReceived(t *testing.T, c *client, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool { return len(c.t.received()) >= len(want) }, waitFor, 5*time.Millisecond)
	require.Equal(t, want, c.t.received())
}
