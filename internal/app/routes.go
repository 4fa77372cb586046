package app

import "github.com/dkeye/fastcall/internal/domain"

type Action int

const (
	// ActionIgnore logs the message and drops it.
	ActionIgnore Action = iota
	// ActionRelay broadcasts the message to the rest of the room.
	ActionRelay
)

// RouteTable maps a message type to what the dispatcher does with it.
// Types absent from the table are ignored.
type RouteTable map[domain.MessageType]Action

func (t RouteTable) Lookup(mt domain.MessageType) Action {
	if a, ok := t[mt]; ok {
		return a
	}
	return ActionIgnore
}

// DefaultRoutes relays every signaling type verbatim.
func DefaultRoutes() RouteTable {
	return RouteTable{
		domain.TypeJoin:      ActionRelay,
		domain.TypeOffer:     ActionRelay,
		domain.TypeAnswer:    ActionRelay,
		domain.TypeCandidate: ActionRelay,
		domain.TypeChat:      ActionRelay,
	}
}
