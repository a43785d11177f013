package signal

import (
	"context"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handlePing doubles as the application-level heartbeat.
func (ctl *SignalWSController) handlePing(
	ctx context.Context,
	tid domain.TransportID,
	conn *WsSignalConn,
) {
	if err := ctl.Orch.Heartbeat(ctx, tid); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("heartbeat")
	}
	resp := struct {
		Type string `json:"type"`
	}{
		Type: protocol.TypePong,
	}
	ctl.sendJSON(conn, resp)
}
