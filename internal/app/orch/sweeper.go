package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/rs/zerolog/log"
)

// Sweep evicts participants whose grace window ran out and tells the members
// that remain.
func (o *Orchestrator) Sweep(ctx context.Context) ([]app.Eviction, error) {
	var evictions []app.Eviction
	if err := o.do(ctx, func() { evictions = o.sweep() }); err != nil {
		return nil, err
	}
	return evictions, nil
}

func (o *Orchestrator) sweep() []app.Eviction {
	evictions := o.Presence.Sweep()
	for _, ev := range evictions {
		for _, logical := range ev.Evicted {
			o.Registry.DetachParticipant(ev.RoomID, logical)
		}
		if ev.RoomDeleted {
			continue
		}
		if room, ok := o.Rooms.Get(ev.RoomID); ok {
			o.broadcastPresence(room)
		}
	}
	return evictions
}

// RunSweeper calls Sweep every interval until ctx is done.
func (o *Orchestrator) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = app.DefaultGraceWindow
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Str("module", "orch.sweeper").Dur("interval", interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := o.Sweep(ctx); err != nil {
				if ctx.Err() != nil || errors.Is(err, ErrStopped) {
					return nil
				}
				log.Error().Err(err).Str("module", "orch.sweeper").Msg("sweep")
			}
		}
	}
}
