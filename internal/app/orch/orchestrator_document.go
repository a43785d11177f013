package orch

import (
	"context"
	"errors"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/dkeye/CodeRoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

// CodeUpdate overwrites the room document (last write wins) and forwards the
// text to every other active participant. Edits from a transport that is not
// in roomID are dropped: a leave racing an in-flight edit is expected.
func (o *Orchestrator) CodeUpdate(ctx context.Context, tid domain.TransportID, roomID string, text string) error {
	return o.do(ctx, func() { o.codeUpdate(tid, roomID, text) })
}

func (o *Orchestrator) codeUpdate(tid domain.TransportID, raw string, text string) {
	roomID, logical, ok := o.roomOf(tid, raw)
	if !ok {
		log.Debug().Str("module", "orch").Str("tid", string(tid)).Str("room", raw).Msg("code update dropped: not joined")
		return
	}
	to, err := o.Rooms.ApplyEdit(roomID, text, logical)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("tid", string(tid)).Msg("code update dropped")
		return
	}
	o.Presence.Touch(roomID, logical, tid)
	if room, ok := o.Rooms.Get(roomID); ok {
		o.publish(room, to, protocol.NewCodeUpdate(roomID, text, logical))
	}
}

// LanguageChange switches the room language for everyone, originator included.
// An unsupported tag is rejected to the caller and nothing is broadcast.
func (o *Orchestrator) LanguageChange(ctx context.Context, tid domain.TransportID, ref, roomID, tag string) error {
	var changeErr error
	if err := o.do(ctx, func() { changeErr = o.languageChange(tid, ref, roomID, tag) }); err != nil {
		return err
	}
	return changeErr
}

func (o *Orchestrator) languageChange(tid domain.TransportID, ref, raw, tag string) error {
	if _, err := domain.ParseLanguage(tag); err != nil {
		log.Info().Err(err).Str("module", "orch").Str("tid", string(tid)).Msg("language change rejected")
		o.reply(tid, protocol.NewRejection(protocol.TypeLanguageChange, ref, err))
		return err
	}
	roomID, logical, ok := o.roomOf(tid, raw)
	if !ok {
		log.Debug().Str("module", "orch").Str("tid", string(tid)).Str("room", raw).Msg("language change dropped: not joined")
		return nil
	}
	lang, to, err := o.Rooms.ApplyLanguageChange(roomID, tag)
	if errors.Is(err, domain.ErrUnknownRoom) {
		return nil
	}
	if err != nil {
		o.reply(tid, protocol.NewRejection(protocol.TypeLanguageChange, ref, err))
		return err
	}
	o.Presence.Touch(roomID, logical, tid)
	if room, ok := o.Rooms.Get(roomID); ok {
		o.publish(room, to, protocol.NewLanguageChange(roomID, lang))
	}
	return nil
}

// roomOf resolves the room tid occupies. A non-empty raw id must name that room.
func (o *Orchestrator) roomOf(tid domain.TransportID, raw string) (domain.RoomID, domain.LogicalID, bool) {
	roomID, logical, ok := o.Registry.RoomOf(tid)
	if !ok {
		return "", "", false
	}
	if raw == "" {
		return roomID, logical, true
	}
	if want, err := domain.ParseRoomID(raw); err != nil || want != roomID {
		return "", "", false
	}
	return roomID, logical, true
}
