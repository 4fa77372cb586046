package core

import (
	"context"
	"errors"
)

var (
	// ErrBackpressure is returned by TrySend when the outbound queue is full.
	ErrBackpressure = errors.New("backpressure")
	// ErrConnClosed is returned by TrySend after Close.
	ErrConnClosed = errors.New("connection closed")
)

// Frame is a raw text payload as it travels on the wire.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the dispatch loop must Close() it.
type SignalConnection interface {
	// TrySend queues f for delivery without blocking.
	TrySend(f Frame) error
	// Close is idempotent.
	Close()
}

type Outcome int

const (
	OutcomeMessage Outcome = iota
	OutcomeDisconnected
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMessage:
		return "message"
	case OutcomeDisconnected:
		return "disconnected"
	case OutcomeTransportError:
		return "transport_error"
	}
	return "unknown"
}

// Inbound is the result of one Receive call. Frame is set only for
// OutcomeMessage, Err only for OutcomeTransportError.
type Inbound struct {
	Frame   Frame
	Outcome Outcome
	Err     error
}

// Transport is the full bidirectional channel driven by one dispatch loop.
type Transport interface {
	SignalConnection
	// Receive blocks until the next message or the end of the connection.
	// Only one goroutine may call Receive.
	Receive(ctx context.Context) Inbound
}
