package app

import (
	"time"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultGraceWindow is how long a disconnected participant keeps its slot.
const DefaultGraceWindow = 5 * time.Minute

// JoinOutcome describes what a join did to the room.
type JoinOutcome struct {
	Room core.RoomService
	// Reconnect is set when the logical id already had a slot in the room.
	Reconnect bool
	// WasActive is set when that slot was still active (duplicate tab or a
	// reconnect that raced the close of the old transport).
	WasActive bool
}

type LeaveOutcome struct {
	Removed     bool
	RoomDeleted bool
}

// Eviction lists the participants a sweep removed from one room.
type Eviction struct {
	RoomID      domain.RoomID
	Evicted     []domain.LogicalID
	RoomDeleted bool
}

// Presence reconciles participant lists on join, reconnect, leave and disconnect.
// It is not safe for concurrent mutation of the same room; the orchestrator
// serializes calls.
type Presence struct {
	rooms core.RoomStore
	grace time.Duration
	now   func() time.Time
}

// NewPresence builds a tracker over rooms. A zero grace uses DefaultGraceWindow,
// a nil clock uses time.Now.
func NewPresence(rooms core.RoomStore, grace time.Duration, clock func() time.Time) *Presence {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	if clock == nil {
		clock = time.Now
	}
	return &Presence{rooms: rooms, grace: grace, now: clock}
}

func (p *Presence) Grace() time.Duration { return p.grace }

// Join appends a fresh participant or revives the existing slot of logical in place.
func (p *Presence) Join(roomID domain.RoomID, logical domain.LogicalID, tid domain.TransportID, name string) JoinOutcome {
	now := p.now()
	room := p.rooms.GetOrCreate(roomID)
	logger := log.With().Str("module", "app.presence").Str("room", string(roomID)).Str("logical", string(logical)).Logger()

	cur, ok := room.Participant(logical)
	if !ok {
		room.Upsert(*domain.NewParticipant(logical, tid, name, now))
		logger.Info().Str("tid", string(tid)).Msg("participant joined")
		return JoinOutcome{Room: room}
	}

	wasActive := cur.Active
	cur.TransportID = tid
	cur.DisplayName = name
	cur.Active = true
	cur.LastActiveAt = now
	room.Upsert(cur)
	logger.Info().Str("tid", string(tid)).Bool("was_active", wasActive).Msg("participant reconnected")
	return JoinOutcome{Room: room, Reconnect: true, WasActive: wasActive}
}

// Leave removes logical from the room. Leaving twice is a no-op.
func (p *Presence) Leave(roomID domain.RoomID, logical domain.LogicalID) LeaveOutcome {
	room, ok := p.rooms.Get(roomID)
	if !ok {
		return LeaveOutcome{}
	}
	if !room.Remove(logical) {
		return LeaveOutcome{}
	}
	log.Info().Str("module", "app.presence").Str("room", string(roomID)).Str("logical", string(logical)).Msg("participant left")
	return LeaveOutcome{Removed: true, RoomDeleted: p.rooms.DeleteIfEmpty(roomID)}
}

// Disconnect marks the slot of logical inactive, keeping it for the grace window.
// It only acts when tid still owns the slot, so a superseded transport closing
// late cannot knock out the fresher session.
func (p *Presence) Disconnect(roomID domain.RoomID, logical domain.LogicalID, tid domain.TransportID) bool {
	room, ok := p.rooms.Get(roomID)
	if !ok {
		return false
	}
	cur, ok := room.Participant(logical)
	if !ok || !cur.Active || cur.TransportID != tid {
		return false
	}
	cur.Active = false
	cur.LastActiveAt = p.now()
	room.Upsert(cur)
	log.Info().Str("module", "app.presence").Str("room", string(roomID)).Str("logical", string(logical)).Msg("participant pending eviction")
	return true
}

// Touch refreshes LastActiveAt for an active slot owned by tid.
func (p *Presence) Touch(roomID domain.RoomID, logical domain.LogicalID, tid domain.TransportID) bool {
	room, ok := p.rooms.Get(roomID)
	if !ok {
		return false
	}
	cur, ok := room.Participant(logical)
	if !ok || !cur.Active || cur.TransportID != tid {
		return false
	}
	cur.LastActiveAt = p.now()
	room.Upsert(cur)
	return true
}

// Sweep evicts inactive participants idle for longer than the grace window
// and deletes rooms left empty.
func (p *Presence) Sweep() []Eviction {
	now := p.now()
	var out []Eviction
	for _, info := range p.rooms.List() {
		room, ok := p.rooms.Get(info.ID)
		if !ok {
			continue
		}
		var ev Eviction
		for _, part := range room.Participants() {
			if part.Active || now.Sub(part.LastActiveAt) <= p.grace {
				continue
			}
			if room.Remove(part.LogicalID) {
				ev.Evicted = append(ev.Evicted, part.LogicalID)
			}
		}
		if len(ev.Evicted) == 0 {
			continue
		}
		ev.RoomID = info.ID
		ev.RoomDeleted = p.rooms.DeleteIfEmpty(info.ID)
		log.Info().Str("module", "app.presence").Str("room", string(info.ID)).Int("evicted", len(ev.Evicted)).Bool("room_deleted", ev.RoomDeleted).Msg("stale sweep")
		out = append(out, ev)
	}
	return out
}
