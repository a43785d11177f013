package signal

import (
	"context"
	"time"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

// readPump feeds inbound frames to the dispatcher. When it returns the
// transport is gone, which the core treats as an abrupt disconnect unless the
// participant already left.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, tid domain.TransportID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("tid", string(tid)).Msg("readPump closing")
		if err := ctl.Orch.Disconnect(context.Background(), tid); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("disconnect")
		}
		cancel()
		c.Close()
	}()

	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait)) }
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		_ = extend()
		ctl.handleSignal(ctx, tid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, tid domain.TransportID, c *WsSignalConn, data []byte) {
	typ, err := protocol.ParseType(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("tid", string(tid)).Msg("bad json")
		ctl.sendJSON(c, protocol.Ack{Type: protocol.TypeError, Error: protocol.CodeBadPayload})
		return
	}

	switch typ {
	case protocol.TypeJoinRoom:
		ctl.handleJoin(ctx, tid, c, data)
	case protocol.TypeLeaveRoom:
		ctl.handleLeave(ctx, tid, c, data)
	case protocol.TypeCodeUpdate:
		ctl.handleCodeUpdate(ctx, tid, c, data)
	case protocol.TypeLanguageChange:
		ctl.handleLanguageChange(ctx, tid, c, data)
	case protocol.TypePing:
		ctl.handlePing(ctx, tid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", typ).Msg("unknown signal")
		ctl.sendJSON(c, protocol.Ack{Type: protocol.TypeError, Error: protocol.CodeUnknownType})
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(frame)
}
