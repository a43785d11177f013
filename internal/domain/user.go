// Package domain contains entity without logic, just meta-data
package domain

import "strings"

const (
	MaxLogicalIDLen   = 64
	MaxDisplayNameLen = 36
)

// LogicalID is the client-chosen token that survives reconnects.
type LogicalID string

// TransportID identifies one live connection. It changes on every reconnect.
type TransportID string

// ParseLogicalID trims and validates a client supplied logical id.
func ParseLogicalID(raw string) (LogicalID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", missing("logicalId")
	}
	if len(id) > MaxLogicalIDLen {
		return "", tooLong("logicalId")
	}
	return LogicalID(id), nil
}

// ParseDisplayName trims and validates a display name.
func ParseDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", missing("displayName")
	}
	if len(name) > MaxDisplayNameLen {
		return "", tooLong("displayName")
	}
	return name, nil
}
