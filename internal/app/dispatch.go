package app

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/dkeye/fastcall/internal/core"
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// State is a connection's position in its dispatch loop.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "invalid"
}

// Peer is what the transport layer hands over for an accepted connection.
type Peer struct {
	Room   domain.RoomName
	Client domain.ClientID
	// Token is the browser's cookie token, used only for logs.
	Token     string
	Transport core.Transport
}

// Dispatcher runs the per-connection loop: join, receive, route, leave.
type Dispatcher struct {
	Registry    *core.Registry
	Broadcaster *core.Broadcaster
	Sessions    *Sessions
	Policy      Policy
	Routes      RouteTable
	Metrics     Recorder

	// MessagesPerSecond caps inbound messages per connection; 0 disables.
	MessagesPerSecond float64
	MessageBurst      int

	// OnState observes every state transition when set.
	OnState func(sid domain.SessionID, s State)
}

type session struct {
	sid     domain.SessionID
	peer    Peer
	cancel  context.CancelFunc
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Serve drives one connection until it disconnects, fails, or ctx is
// cancelled. It always leaves the room and closes the transport before
// returning, exactly once.
func (d *Dispatcher) Serve(ctx context.Context, p Peer) {
	ctx, cancel := context.WithCancel(ctx)
	sid := domain.NewSessionID()
	s := &session{
		sid:    sid,
		peer:   p,
		cancel: cancel,
		logger: log.With().
			Str("module", "app.dispatch").
			Str("sid", string(sid)).
			Str("room", string(p.Room)).
			Str("client", string(p.Client)).
			Logger(),
	}
	if d.MessagesPerSecond > 0 {
		burst := d.MessageBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(d.MessagesPerSecond), burst)
	}
	d.transition(s, StateConnecting)

	member := core.NewMemberSession(domain.NewMember(sid, p.Client), p.Transport)
	if d.Sessions != nil {
		d.Sessions.Bind(member, cancel)
	}
	d.Registry.Join(p.Room, member)
	d.recorder().SessionOpened()
	s.logger.Info().Str("token", p.Token).Msg("client connected")
	d.transition(s, StateActive)

	defer d.close(s)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("dispatch loop panic, closing connection")
		}
	}()

	// Closing the transport is what unblocks Receive on kick or shutdown.
	stop := context.AfterFunc(ctx, p.Transport.Close)
	defer stop()

	for {
		in := p.Transport.Receive(ctx)
		switch in.Outcome {
		case core.OutcomeMessage:
			d.handle(s, in.Frame)
		case core.OutcomeDisconnected:
			s.logger.Debug().Msg("peer disconnected")
			return
		default:
			s.logger.Warn().Err(in.Err).Msg("transport error")
			return
		}
	}
}

// Kick cancels a live session; its own loop then leaves and closes.
func (d *Dispatcher) Kick(sid domain.SessionID) bool {
	if d.Sessions == nil {
		return false
	}
	return d.Sessions.Cancel(sid)
}

func (d *Dispatcher) handle(s *session, f core.Frame) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Warn().Msg("rate limit exceeded, message dropped")
		d.recorder().MessageDropped(ReasonRateLimited)
		return
	}

	msg, err := domain.DecodeMessage(f)
	if err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(f)).Msg("bad json")
		d.recorder().MessageDropped(ReasonDecodeError)
		return
	}

	switch d.routes().Lookup(msg.Type) {
	case ActionRelay:
		d.relay(s, msg)
	default:
		s.logger.Warn().Str("type", msg.Tag).Msg("unknown message type")
		d.recorder().MessageDropped(ReasonUnknownType)
	}
}

func (d *Dispatcher) relay(s *session, msg domain.Message) {
	res := d.broadcaster().Broadcast(s.peer.Room, core.Frame(msg.Raw), s.sid)
	d.recorder().MessageRouted(msg.Type)
	s.logger.Info().
		Str("type", msg.Type.String()).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("relayed")

	for _, drop := range res.Dropped {
		d.onSendFailed(s, drop)
	}
}

func (d *Dispatcher) onSendFailed(s *session, drop core.DroppedSend) {
	reason := "backpressure"
	if errors.Is(drop.Err, core.ErrConnClosed) {
		reason = "closed"
	}
	d.recorder().SendFailed(reason)

	action := NoAction
	if d.Policy != nil {
		action = d.Policy.OnBackPressure(s.peer.Room, drop.Session, drop.Err)
	}
	s.logger.Warn().
		Err(drop.Err).
		Str("dst_sid", string(drop.Session.ID())).
		Stringer("action", action).
		Msg("send failed")

	if action == KickMember && !d.Kick(drop.Session.ID()) {
		drop.Session.Signal().Close()
	}
}

func (d *Dispatcher) close(s *session) {
	d.transition(s, StateClosing)
	d.Registry.Leave(s.peer.Room, s.sid)
	s.peer.Transport.Close()
	if d.Sessions != nil {
		d.Sessions.Unbind(s.sid)
	}
	s.cancel()
	d.recorder().SessionClosed()
	s.logger.Info().Msg("client disconnected")
	d.transition(s, StateClosed)
}

func (d *Dispatcher) transition(s *session, st State) {
	if d.OnState != nil {
		d.OnState(s.sid, st)
	}
}

func (d *Dispatcher) routes() RouteTable {
	if d.Routes == nil {
		return DefaultRoutes()
	}
	return d.Routes
}

func (d *Dispatcher) broadcaster() *core.Broadcaster {
	if d.Broadcaster == nil {
		return core.NewBroadcaster(d.Registry)
	}
	return d.Broadcaster
}

func (d *Dispatcher) recorder() Recorder {
	if d.Metrics == nil {
		return noopRecorder{}
	}
	return d.Metrics
}
