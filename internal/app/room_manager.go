package app

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomManagerImpl struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]core.RoomService
	document string
}

// NewRoomManager returns the in-memory room store. New rooms start with
// document, or domain.DefaultDocument when it is empty.
func NewRoomManager(document string) core.RoomStore {
	if document == "" {
		document = domain.DefaultDocument
	}
	return &RoomManagerImpl{
		rooms:    make(map[domain.RoomID]core.RoomService),
		document: document,
	}
}

func (f *RoomManagerImpl) GetOrCreate(id domain.RoomID) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room
	}
	room = core.NewRoomService(id, f.document)
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) Get(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) DeleteIfEmpty(id domain.RoomID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok || room.Len() > 0 {
		return false
	}
	delete(f.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted (empty)")
	return true
}

func (f *RoomManagerImpl) ApplyEdit(id domain.RoomID, text string, exclude domain.LogicalID) ([]domain.Participant, error) {
	room, ok := f.Get(id)
	if !ok {
		return nil, fmt.Errorf("apply edit to %s: %w", id, domain.ErrUnknownRoom)
	}
	room.SetDocument(text)
	active := room.ActiveParticipants()
	out := active[:0]
	for _, p := range active {
		if p.LogicalID != exclude {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *RoomManagerImpl) ApplyLanguageChange(id domain.RoomID, tag string) (domain.Language, []domain.Participant, error) {
	lang, err := domain.ParseLanguage(tag)
	if err != nil {
		return "", nil, err
	}
	room, ok := f.Get(id)
	if !ok {
		return "", nil, fmt.Errorf("change language of %s: %w", id, domain.ErrUnknownRoom)
	}
	room.SetLanguage(lang)
	return lang, room.ActiveParticipants(), nil
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{
			ID:           id,
			Language:     r.Language(),
			Participants: r.Len(),
			Active:       len(r.ActiveParticipants()),
		})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
