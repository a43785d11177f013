package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleCodeUpdate(
	ctx context.Context,
	tid domain.TransportID,
	_ *WsSignalConn,
	data []byte,
) {
	var p protocol.CodeUpdateRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad code-update payload")
		return
	}
	if err := ctl.Orch.CodeUpdate(ctx, tid, p.RoomID, p.Text); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("code-update")
	}
}

func (ctl *SignalWSController) handleLanguageChange(
	ctx context.Context,
	tid domain.TransportID,
	conn *WsSignalConn,
	data []byte,
) {
	var p protocol.LanguageChangeRequest
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad language-change payload")
		ctl.sendJSON(conn, protocol.Ack{Type: protocol.TypeLanguageChange, Error: protocol.CodeBadPayload})
		return
	}
	if err := ctl.Orch.LanguageChange(ctx, tid, p.Ref, p.RoomID, p.LanguageTag); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("language-change")
	}
}
