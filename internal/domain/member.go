package domain

import "time"

// Participant represents one logical user inside one room.
// No transport or lifecycle logic here.
type Participant struct {
	LogicalID    LogicalID
	TransportID  TransportID
	DisplayName  string
	JoinedAt     time.Time
	LastActiveAt time.Time
	Active       bool
}

// NewParticipant avoids raw literals in the presence code and keeps construction obvious.
func NewParticipant(id LogicalID, tid TransportID, name string, now time.Time) *Participant {
	return &Participant{
		LogicalID:    id,
		TransportID:  tid,
		DisplayName:  name,
		JoinedAt:     now,
		LastActiveAt: now,
		Active:       true,
	}
}
