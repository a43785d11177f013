package core

import (
	"github.com/dkeye/CodeRoom/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []domain.TransportID
}

// ParticipantDTO is a read-only view for APIs (no transport fields).
type ParticipantDTO struct {
	LogicalID   domain.LogicalID `json:"logicalId"`
	DisplayName string           `json:"displayName"`
	IsActive    bool             `json:"isActive"`
}

// RoomSnapshot is the state a joining participant receives.
type RoomSnapshot struct {
	RoomID       domain.RoomID    `json:"roomId"`
	Document     string           `json:"document"`
	Language     domain.Language  `json:"languageTag"`
	Participants []ParticipantDTO `json:"participants"`
}

// RoomService is the core-facing API of a room.
// It owns the participant sequence but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	Document() string
	Language() domain.Language
	SetDocument(text string)
	SetLanguage(l domain.Language)

	// Participant returns a copy of the entry for id.
	Participant(id domain.LogicalID) (domain.Participant, bool)
	// Participants returns copies of every entry in join order, inactive ones included.
	Participants() []domain.Participant
	ActiveParticipants() []domain.Participant
	// Upsert replaces the entry with the same logical id in place or appends a new one.
	Upsert(p domain.Participant)
	Remove(id domain.LogicalID) bool
	Len() int

	// Presence is the ordered list of active participants.
	Presence() []ParticipantDTO
	Snapshot() RoomSnapshot
}

type RoomInfo struct {
	ID           domain.RoomID   `json:"id"`
	Language     domain.Language `json:"languageTag"`
	Participants int             `json:"participants"`
	Active       int             `json:"active"`
}

// RoomStore owns room lifecycle: lazy creation on join and deletion once empty.
type RoomStore interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	DeleteIfEmpty(id domain.RoomID) bool
	// ApplyEdit overwrites the document and returns the active participants except exclude.
	ApplyEdit(id domain.RoomID, text string, exclude domain.LogicalID) ([]domain.Participant, error)
	// ApplyLanguageChange validates tag, stores it and returns every active participant.
	ApplyLanguageChange(id domain.RoomID, tag string) (domain.Language, []domain.Participant, error)
	List() []RoomInfo
}
