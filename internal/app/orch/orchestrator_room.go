package orch

import (
	"context"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

type JoinRequest struct {
	Ref         string
	RoomID      string
	LogicalID   string
	DisplayName string
}

type LeaveRequest struct {
	Ref       string
	RoomID    string
	LogicalID string
}

// Connect registers a freshly accepted transport.
func (o *Orchestrator) Connect(ctx context.Context, tid domain.TransportID, conn core.SignalConnection, cancel context.CancelFunc) error {
	return o.do(ctx, func() { o.Registry.Bind(tid, conn, cancel) })
}

// Join puts the participant into the room and queues the snapshot ack to the
// joiner before the presence update goes out to every member.
func (o *Orchestrator) Join(ctx context.Context, tid domain.TransportID, req JoinRequest) (core.RoomSnapshot, error) {
	var (
		snap    core.RoomSnapshot
		joinErr error
	)
	if err := o.do(ctx, func() { snap, joinErr = o.join(tid, req) }); err != nil {
		return core.RoomSnapshot{}, err
	}
	return snap, joinErr
}

func (o *Orchestrator) join(tid domain.TransportID, req JoinRequest) (core.RoomSnapshot, error) {
	if _, ok := o.Registry.Conn(tid); !ok {
		return core.RoomSnapshot{}, ErrUnknownTransport
	}
	roomID, logical, name, err := parseJoin(req)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("tid", string(tid)).Msg("join rejected")
		o.reply(tid, protocol.NewRejection(protocol.TypeJoinRoom, req.Ref, err))
		return core.RoomSnapshot{}, err
	}

	if prevRoom, prevLogical, ok := o.Registry.RoomOf(tid); ok && (prevRoom != roomID || prevLogical != logical) {
		log.Info().Str("module", "orch").Str("tid", string(tid)).Str("from_room", string(prevRoom)).Msg("leaving previous room")
		o.evict(prevRoom, prevLogical)
	}

	out := o.Presence.Join(roomID, logical, tid, name)
	o.Registry.Attach(tid, roomID, logical)

	snap := out.Room.Snapshot()
	o.reply(tid, protocol.NewJoinAck(req.Ref, snap))
	o.broadcastPresence(out.Room)
	return snap, nil
}

func parseJoin(req JoinRequest) (domain.RoomID, domain.LogicalID, string, error) {
	roomID, err := domain.ParseRoomID(req.RoomID)
	if err != nil {
		return "", "", "", err
	}
	logical, err := domain.ParseLogicalID(req.LogicalID)
	if err != nil {
		return "", "", "", err
	}
	name, err := domain.ParseDisplayName(req.DisplayName)
	if err != nil {
		return "", "", "", err
	}
	return roomID, logical, name, nil
}

// Leave evicts the participant explicitly. Leaving a room one is not in is
// acknowledged like any other leave.
func (o *Orchestrator) Leave(ctx context.Context, tid domain.TransportID, req LeaveRequest) error {
	var leaveErr error
	if err := o.do(ctx, func() { leaveErr = o.leave(tid, req) }); err != nil {
		return err
	}
	return leaveErr
}

func (o *Orchestrator) leave(tid domain.TransportID, req LeaveRequest) error {
	roomID, logical, err := parseLeave(req)
	if err != nil {
		o.reply(tid, protocol.NewRejection(protocol.TypeLeaveRoom, req.Ref, err))
		return err
	}

	o.reply(tid, protocol.Ack{Type: protocol.TypeLeaveRoom, Ref: req.Ref, Success: true})
	// A slot owned by another transport belongs to a newer session; the
	// superseded one only gets its ack.
	if owner, ok := o.Registry.Owner(roomID, logical); ok && owner != tid {
		log.Info().Str("module", "orch").Str("tid", string(tid)).Str("owner", string(owner)).Msg("leave from superseded transport ignored")
		return nil
	}
	o.evict(roomID, logical)
	return nil
}

func parseLeave(req LeaveRequest) (domain.RoomID, domain.LogicalID, error) {
	roomID, err := domain.ParseRoomID(req.RoomID)
	if err != nil {
		return "", "", err
	}
	logical, err := domain.ParseLogicalID(req.LogicalID)
	if err != nil {
		return "", "", err
	}
	return roomID, logical, nil
}

// evict removes a participant and tells the remaining members.
func (o *Orchestrator) evict(roomID domain.RoomID, logical domain.LogicalID) {
	res := o.Presence.Leave(roomID, logical)
	o.Registry.DetachParticipant(roomID, logical)
	if res.Removed && !res.RoomDeleted {
		if room, ok := o.Rooms.Get(roomID); ok {
			o.broadcastPresence(room)
		}
	}
}

// Disconnect handles a transport close without explicit leave. The slot stays
// for the grace window but disappears from the visible presence list at once.
func (o *Orchestrator) Disconnect(ctx context.Context, tid domain.TransportID) error {
	return o.do(ctx, func() { o.disconnect(tid) })
}

func (o *Orchestrator) disconnect(tid domain.TransportID) {
	info, ok := o.Registry.Unbind(tid)
	if !ok || info.RoomID == "" {
		return
	}
	if !o.Presence.Disconnect(info.RoomID, info.LogicalID, tid) {
		return
	}
	if room, ok := o.Rooms.Get(info.RoomID); ok {
		o.broadcastPresence(room)
	}
}

// Heartbeat refreshes the activity timestamp of the participant behind tid.
func (o *Orchestrator) Heartbeat(ctx context.Context, tid domain.TransportID) error {
	return o.do(ctx, func() {
		if roomID, logical, ok := o.Registry.RoomOf(tid); ok {
			o.Presence.Touch(roomID, logical, tid)
		}
	})
}
