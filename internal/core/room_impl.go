package core

import (
	"sync"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	id domain.RoomID

	mu        sync.RWMutex
	document  string
	language  domain.Language
	order     []domain.LogicalID
	byLogical map[domain.LogicalID]*domain.Participant
}

func NewRoomService(id domain.RoomID, document string) RoomService {
	return &roomImpl{
		id:        id,
		document:  document,
		language:  domain.DefaultLanguage,
		byLogical: make(map[domain.LogicalID]*domain.Participant),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) Document() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.document
}

func (r *roomImpl) Language() domain.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.language
}

func (r *roomImpl) SetDocument(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.document = text
}

func (r *roomImpl) SetLanguage(l domain.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = l
}

func (r *roomImpl) Participant(id domain.LogicalID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byLogical[id]
	if !ok {
		return domain.Participant{}, false
	}
	return *p, true
}

func (r *roomImpl) Participants() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byLogical[id])
	}
	return out
}

func (r *roomImpl) ActiveParticipants() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLocked()
}

func (r *roomImpl) activeLocked() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		if p := r.byLogical[id]; p.Active {
			out = append(out, *p)
		}
	}
	return out
}

func (r *roomImpl) Upsert(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byLogical[p.LogicalID]; ok {
		*cur = p
		return
	}
	r.byLogical[p.LogicalID] = &p
	r.order = append(r.order, p.LogicalID)
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("logical", string(p.LogicalID)).Msg("participant appended")
}

func (r *roomImpl) Remove(id domain.LogicalID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byLogical[id]; !ok {
		return false
	}
	delete(r.byLogical, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("logical", string(id)).Msg("participant removed")
	return true
}

func (r *roomImpl) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *roomImpl) Presence() []ParticipantDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.presenceLocked()
}

func (r *roomImpl) presenceLocked() []ParticipantDTO {
	active := r.activeLocked()
	out := make([]ParticipantDTO, 0, len(active))
	for _, p := range active {
		out = append(out, ParticipantDTO{LogicalID: p.LogicalID, DisplayName: p.DisplayName, IsActive: p.Active})
	}
	return out
}

func (r *roomImpl) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomSnapshot{
		RoomID:       r.id,
		Document:     r.document,
		Language:     r.language,
		Participants: r.presenceLocked(),
	}
}
