package domain

import "strings"

const MaxRoomIDLen = 36

// DefaultDocument is the text a freshly created room starts with.
const DefaultDocument = "// Start coding...\n"

// RoomID is the case-normalized room key.
type RoomID string

// ParseRoomID trims and upper-cases raw so "abc123" and " ABC123" name the same room.
func ParseRoomID(raw string) (RoomID, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if id == "" {
		return "", missing("roomId")
	}
	if len(id) > MaxRoomIDLen {
		return "", tooLong("roomId")
	}
	return RoomID(id), nil
}
