package signal

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dkeye/fastcall/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Options tunes one websocket connection. Zero PingPeriod disables keepalive.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendQueue  int
}

func (o Options) pongWait() time.Duration {
	return o.PingPeriod * 10 / 9
}

func (o Options) writeWait() time.Duration {
	if o.WriteWait <= 0 {
		return 5 * time.Second
	}
	return o.WriteWait
}

// WsSignalConn is a core.Transport over a gorilla websocket. Outbound
// frames go through a bounded queue drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame
	opts Options

	mu     sync.RWMutex
	closed bool
}

func NewWsSignalConn(ws *websocket.Conn, opts Options) *WsSignalConn {
	if opts.SendQueue < 1 {
		opts.SendQueue = 1
	}
	c := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, opts.SendQueue),
		opts: opts,
	}
	if opts.ReadLimit > 0 {
		ws.SetReadLimit(opts.ReadLimit)
	}
	if opts.PingPeriod > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(opts.pongWait()))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(opts.pongWait()))
		})
	}
	return c
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close sends a close frame, stops the writer and closes the socket.
// Frames still queued are discarded.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.writeWait()))
	_ = c.conn.Close()
}

func (c *WsSignalConn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Receive returns the next text frame. Binary frames are skipped.
func (c *WsSignalConn) Receive(ctx context.Context) core.Inbound {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return c.classify(ctx, err)
		}
		if mt != websocket.TextMessage {
			log.Debug().Str("module", "signal").Int("bytes", len(data)).Msg("binary frame ignored")
			continue
		}
		return core.Inbound{Frame: data, Outcome: core.OutcomeMessage}
	}
}

func (c *WsSignalConn) classify(ctx context.Context, err error) core.Inbound {
	var ce *websocket.CloseError
	switch {
	case ctx.Err() != nil, c.isClosed(), errors.Is(err, net.ErrClosed):
		return core.Inbound{Outcome: core.OutcomeDisconnected}
	case errors.As(err, &ce):
		return core.Inbound{Outcome: core.OutcomeDisconnected}
	}
	return core.Inbound{Outcome: core.OutcomeTransportError, Err: err}
}

// writePump is the only writer of data frames. It exits when the queue
// is closed or a write fails.
func (c *WsSignalConn) writePump() {
	var tick <-chan time.Time
	if c.opts.PingPeriod > 0 {
		ticker := time.NewTicker(c.opts.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.Close()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.writeWait())); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-tick:
			deadline := time.Now().Add(c.opts.writeWait())
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}
