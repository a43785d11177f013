package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	tid domain.TransportID,
	conn *WsSignalConn,
	data []byte,
) {
	var p protocol.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, protocol.Ack{Type: protocol.TypeJoinRoom, Error: protocol.CodeBadPayload})
		return
	}
	if !ctl.limiter.Allow(conn.client) {
		log.Warn().Str("module", "signal").Str("tid", string(tid)).Msg("join rate limited")
		ctl.sendJSON(conn, protocol.NewRejection(protocol.TypeJoinRoom, p.Ref, protocol.ErrRateLimited))
		return
	}

	log.Info().Str("module", "signal").Str("tid", string(tid)).Str("room", p.RoomID).Msg("join")
	// The orchestrator acks the joiner itself so the snapshot is queued ahead of
	// any broadcast that follows it.
	if _, err := ctl.Orch.Join(ctx, tid, orch.JoinRequest{
		Ref:         p.Ref,
		RoomID:      p.RoomID,
		LogicalID:   p.LogicalID,
		DisplayName: p.DisplayName,
	}); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("join failed")
	}
}

// handleLeave leaves the room; the connection itself stays open.
func (ctl *SignalWSController) handleLeave(
	ctx context.Context,
	tid domain.TransportID,
	conn *WsSignalConn,
	data []byte,
) {
	var p protocol.LeaveRoom
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendJSON(conn, protocol.Ack{Type: protocol.TypeLeaveRoom, Error: protocol.CodeBadPayload})
		return
	}
	log.Info().Str("module", "signal").Str("tid", string(tid)).Str("room", p.RoomID).Msg("leave")
	if err := ctl.Orch.Leave(ctx, tid, orch.LeaveRequest{Ref: p.Ref, RoomID: p.RoomID, LogicalID: p.LogicalID}); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("leave failed")
	}
}
