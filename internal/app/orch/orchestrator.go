package orch

import (
	"context"
	"errors"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

var (
	// ErrStopped is returned once Run has exited.
	ErrStopped = errors.New("orchestrator stopped")
	// ErrEventFailed is returned when the handler of an event panicked.
	ErrEventFailed = errors.New("event handler failed")
	// ErrUnknownTransport is returned for events from a transport that is not bound.
	ErrUnknownTransport = errors.New("unknown transport")
)

const eventQueueSize = 256

// Orchestrator routes gateway events into the registry, room store and presence
// tracker. Every event runs to completion on the Run goroutine before the next
// one starts, so room state never sees interleaved mutations.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomStore
	Presence *app.Presence
	Policy   app.Policy

	events  chan func()
	stopped chan struct{}
}

func New(reg *app.Registry, rooms core.RoomStore, presence *app.Presence, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Presence: presence,
		Policy:   policy,
		events:   make(chan func(), eventQueueSize),
		stopped:  make(chan struct{}),
	}
}

// Run processes events until ctx is done. It must be running for any other
// method to return.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.stopped)
	log.Info().Str("module", "orch").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("event loop stopped")
			return nil
		case fn := <-o.events:
			o.handle(fn)
		}
	}
}

func (o *Orchestrator) handle(fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		log.Error().Err(r.AsError()).Str("module", "orch").Str("stack", string(r.Stack)).Msg("event handler panicked")
	}
}

// do runs fn on the event loop and waits for it.
func (o *Orchestrator) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	completed := false
	wrapped := func() {
		defer close(done)
		fn()
		completed = true
	}
	select {
	case o.events <- wrapped:
	case <-o.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
	case <-o.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	if !completed {
		return ErrEventFailed
	}
	return nil
}

// publish encodes v once and fans it out to the transports of to without blocking.
func (o *Orchestrator) publish(room core.RoomService, to []domain.Participant, v any) core.PublishResult {
	res := core.PublishResult{}
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("publish encode")
		return res
	}
	for _, p := range to {
		conn, ok := o.Registry.Conn(p.TransportID)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, p.TransportID)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "orch").Str("room", string(room.ID())).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	o.applyPolicy(room, res)
	return res
}

func (o *Orchestrator) applyPolicy(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, tid := range res.Dropped {
		switch o.Policy.OnBackPressure(room, tid) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("tid", string(tid)).Msg("kicking slow receiver")
			if conn, ok := o.Registry.Conn(tid); ok {
				conn.Close()
			}
			o.Registry.Cancel(tid)
		case app.DropFrame:
			log.Warn().Str("module", "orch").Str("tid", string(tid)).Msg("frame dropped for slow receiver")
		case app.NoAction:
		}
	}
}

// reply sends v to a single transport.
func (o *Orchestrator) reply(tid domain.TransportID, v any) {
	conn, ok := o.Registry.Conn(tid)
	if !ok {
		return
	}
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("reply encode")
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("tid", string(tid)).Msg("reply dropped")
	}
}

func (o *Orchestrator) broadcastPresence(room core.RoomService) {
	o.publish(room, room.ActiveParticipants(), protocol.NewParticipantsUpdate(room.ID(), room.Presence()))
}

// ListRooms lists the live rooms.
func (o *Orchestrator) ListRooms(ctx context.Context) ([]core.RoomInfo, error) {
	var out []core.RoomInfo
	if err := o.do(ctx, func() { out = o.Rooms.List() }); err != nil {
		return nil, err
	}
	return out, nil
}

// RoomSnapshot returns the snapshot of one room.
func (o *Orchestrator) RoomSnapshot(ctx context.Context, raw string) (core.RoomSnapshot, bool, error) {
	id, err := domain.ParseRoomID(raw)
	if err != nil {
		return core.RoomSnapshot{}, false, err
	}
	var (
		snap core.RoomSnapshot
		ok   bool
	)
	if err := o.do(ctx, func() {
		var room core.RoomService
		if room, ok = o.Rooms.Get(id); ok {
			snap = room.Snapshot()
		}
	}); err != nil {
		return core.RoomSnapshot{}, false, err
	}
	return snap, ok, nil
}
