package app

import "github.com/dkeye/fastcall/internal/domain"

// Drop reasons reported to the Recorder.
const (
	ReasonUnknownType = "unknown_type"
	ReasonDecodeError = "decode_error"
	ReasonRateLimited = "rate_limited"
)

// Recorder receives counters from the dispatch loop.
type Recorder interface {
	SessionOpened()
	SessionClosed()
	MessageRouted(t domain.MessageType)
	MessageDropped(reason string)
	SendFailed(reason string)
}

type noopRecorder struct{}

func (noopRecorder) SessionOpened()                   {}
func (noopRecorder) SessionClosed()                   {}
func (noopRecorder) MessageRouted(domain.MessageType) {}
func (noopRecorder) MessageDropped(string)            {}
func (noopRecorder) SendFailed(string)                {}
