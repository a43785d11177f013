package app

import (
	"fmt"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a participant whose send buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomService, tid domain.TransportID) BackpressureAction
}

// SimplePolicy applies the same action to every slow receiver.
type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.RoomService, domain.TransportID) BackpressureAction {
	return p.Action
}

// ParsePolicy maps the config value ("drop" or "kick") onto a policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return SimplePolicy{Action: DropFrame}, nil
	case "kick":
		return SimplePolicy{Action: KickMember}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
