package app

import (
	"context"
	"sync"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Conn      core.SignalConnection
	RoomID    domain.RoomID
	LogicalID domain.LogicalID
	Cancel    context.CancelFunc
}

type memberKey struct {
	room    domain.RoomID
	logical domain.LogicalID
}

// SessionInfo is a copy of a registry entry handed out to callers.
type SessionInfo struct {
	TransportID domain.TransportID
	Conn        core.SignalConnection
	RoomID      domain.RoomID
	LogicalID   domain.LogicalID
}

// Registry maps live transports to the logical participant and room they occupy.
// It is the only owner of connection objects; rooms reference transports by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.TransportID]*sessionEntry
	owners   map[memberKey]domain.TransportID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.TransportID]*sessionEntry),
		owners:   make(map[memberKey]domain.TransportID),
	}
}

func (r *Registry) Bind(tid domain.TransportID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[tid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("tid", string(tid)).Msg("bound transport")
}

// Unbind forgets tid and returns what it was attached to.
func (r *Registry) Unbind(tid domain.TransportID) (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[tid]
	if !ok {
		return SessionInfo{}, false
	}
	info := e.info(tid)
	r.detachLocked(tid, e)
	delete(r.sessions, tid)
	log.Info().Str("module", "app.registry").Str("tid", string(tid)).Msg("unbind transport")
	return info, true
}

// Attach records that tid now speaks for logical in room. If another transport
// held the same pair it is detached and returned as superseded.
func (r *Registry) Attach(tid domain.TransportID, room domain.RoomID, logical domain.LogicalID) (superseded domain.TransportID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, exists := r.sessions[tid]
	if !exists {
		return "", false
	}
	r.detachLocked(tid, e)

	key := memberKey{room: room, logical: logical}
	if prev, held := r.owners[key]; held && prev != tid {
		if pe, live := r.sessions[prev]; live {
			pe.RoomID, pe.LogicalID = "", ""
		}
		superseded = prev
		log.Info().Str("module", "app.registry").Str("tid", string(prev)).Str("by", string(tid)).Msg("transport superseded")
	}
	e.RoomID, e.LogicalID = room, logical
	r.owners[key] = tid
	log.Info().Str("module", "app.registry").Str("tid", string(tid)).Str("room", string(room)).Str("logical", string(logical)).Msg("attached")
	return superseded, true
}

// Detach clears the room association of tid; the transport stays bound.
func (r *Registry) Detach(tid domain.TransportID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[tid]
	if !ok || e.RoomID == "" {
		return false
	}
	r.detachLocked(tid, e)
	return true
}

// DetachParticipant clears whichever transport currently owns (room, logical).
func (r *Registry) DetachParticipant(room domain.RoomID, logical domain.LogicalID) (domain.TransportID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tid, ok := r.owners[memberKey{room: room, logical: logical}]
	if !ok {
		return "", false
	}
	if e, live := r.sessions[tid]; live {
		r.detachLocked(tid, e)
	} else {
		delete(r.owners, memberKey{room: room, logical: logical})
	}
	return tid, true
}

func (r *Registry) detachLocked(tid domain.TransportID, e *sessionEntry) {
	if e.RoomID == "" {
		return
	}
	key := memberKey{room: e.RoomID, logical: e.LogicalID}
	if r.owners[key] == tid {
		delete(r.owners, key)
	}
	log.Info().Str("module", "app.registry").Str("tid", string(tid)).Str("room", string(e.RoomID)).Msg("removed room association")
	e.RoomID, e.LogicalID = "", ""
}

func (r *Registry) RoomOf(tid domain.TransportID) (domain.RoomID, domain.LogicalID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[tid]
	if !ok || e.RoomID == "" {
		return "", "", false
	}
	return e.RoomID, e.LogicalID, true
}

func (r *Registry) Conn(tid domain.TransportID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[tid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Owner reports which transport currently speaks for (room, logical).
func (r *Registry) Owner(room domain.RoomID, logical domain.LogicalID) (domain.TransportID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tid, ok := r.owners[memberKey{room: room, logical: logical}]
	return tid, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the connection-scoped context of tid, which tears its pumps down.
func (r *Registry) Cancel(tid domain.TransportID) bool {
	r.mu.RLock()
	e, ok := r.sessions[tid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("tid", string(tid)).Msg("canceled session")
	return true
}

func (e *sessionEntry) info(tid domain.TransportID) SessionInfo {
	return SessionInfo{TransportID: tid, Conn: e.Conn, RoomID: e.RoomID, LogicalID: e.LogicalID}
}
