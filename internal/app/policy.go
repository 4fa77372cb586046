package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/fastcall/internal/core"
	"github.com/dkeye/fastcall/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

func (a BackpressureAction) String() string {
	switch a {
	case DropFrame:
		return "drop"
	case KickMember:
		return "kick"
	}
	return "none"
}

// Policy decides what happens to a recipient whose send failed.
type Policy interface {
	OnBackPressure(room domain.RoomName, member core.MemberSession, err error) BackpressureAction
}

// KickPolicy disconnects any recipient that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomName, core.MemberSession, error) BackpressureAction {
	return KickMember
}

// DropPolicy loses the frame for a slow recipient but keeps it connected.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(_ domain.RoomName, _ core.MemberSession, err error) BackpressureAction {
	if errors.Is(err, core.ErrConnClosed) {
		// already tearing down on its own loop
		return NoAction
	}
	return DropFrame
}

// PolicyFor maps the slow_consumer config value to a Policy.
func PolicyFor(name string) (Policy, error) {
	switch name {
	case "kick", "":
		return KickPolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown slow consumer policy %q", name)
}
