package core

import (
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/rs/zerolog/log"
)

// DroppedSend is a recipient whose TrySend failed.
type DroppedSend struct {
	Session MemberSession
	Err     error
}

// PublishResult reports delivery stats/backpressure to the dispatcher.
type PublishResult struct {
	SentTo  int
	Dropped []DroppedSend
}

// Broadcaster fans a frame out to a room. It holds no state of its own.
type Broadcaster struct {
	reg *Registry
}

func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// Broadcast sends f to every member of the room except exclude (pass ""
// to exclude nobody). A failed send never stops delivery to the others.
func (b *Broadcaster) Broadcast(name domain.RoomName, f Frame, exclude domain.SessionID) PublishResult {
	res := PublishResult{}
	for _, m := range b.reg.Members(name) {
		if m.ID() == exclude {
			continue
		}
		if err := m.Signal().TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, DroppedSend{Session: m, Err: err})
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.broadcast").Str("room", string(name)).Str("from", string(exclude)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
