// Package protocol defines the JSON frames exchanged with participants.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

// Inbound event types.
const (
	TypeJoinRoom       = "join-room"
	TypeLeaveRoom      = "leave-room"
	TypeCodeUpdate     = "code-update"
	TypeLanguageChange = "language-change"
	TypePing           = "ping"
)

// Outbound-only event types.
const (
	TypeParticipantsUpdate = "participants-update"
	TypePong               = "pong"
	TypeHello              = "hello"
	TypeError              = "error"
)

// Error codes carried in rejected acks.
const (
	CodeMissingField    = "missing_field"
	CodeInvalidField    = "invalid_field"
	CodeInvalidLanguage = "invalid_language"
	CodeRateLimited     = "rate_limited"
	CodeBadPayload      = "bad_payload"
	CodeUnknownType     = "unknown_type"
	CodeInternal        = "internal"
)

// ErrRateLimited is raised by the gateway before an event reaches the core.
var ErrRateLimited = errors.New("rate limited")

type Envelope struct {
	Type string `json:"type"`
}

// ParseType extracts the event type from a raw frame.
func ParseType(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return "", errors.New("decode envelope: empty type")
	}
	return env.Type, nil
}

type JoinRoom struct {
	Ref         string `json:"ref,omitempty"`
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
	LogicalID   string `json:"logicalId"`
}

type LeaveRoom struct {
	Ref       string `json:"ref,omitempty"`
	RoomID    string `json:"roomId"`
	LogicalID string `json:"logicalId"`
}

type CodeUpdateRequest struct {
	RoomID    string `json:"roomId"`
	Text      string `json:"text"`
	LogicalID string `json:"logicalId,omitempty"`
}

type LanguageChangeRequest struct {
	Ref         string `json:"ref,omitempty"`
	RoomID      string `json:"roomId"`
	LanguageTag string `json:"languageTag"`
}

// Ack answers a request/response event. Rejections carry Error and, for
// validation failures, the offending Field.
type Ack struct {
	Type    string `json:"type"`
	Ref     string `json:"ref,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
}

type JoinAck struct {
	Ack
	Document     string                `json:"document"`
	Language     domain.Language       `json:"languageTag"`
	Participants []core.ParticipantDTO `json:"participants"`
}

type ParticipantsUpdate struct {
	Type         string                `json:"type"`
	RoomID       domain.RoomID         `json:"roomId"`
	Participants []core.ParticipantDTO `json:"participants"`
}

type CodeUpdate struct {
	Type   string           `json:"type"`
	RoomID domain.RoomID    `json:"roomId"`
	Text   string           `json:"text"`
	From   domain.LogicalID `json:"from"`
}

type LanguageChange struct {
	Type        string          `json:"type"`
	RoomID      domain.RoomID   `json:"roomId"`
	LanguageTag domain.Language `json:"languageTag"`
}

type Hello struct {
	Type        string             `json:"type"`
	TransportID domain.TransportID `json:"transportId"`
	ClientToken string             `json:"clientToken,omitempty"`
}

func NewJoinAck(ref string, s core.RoomSnapshot) JoinAck {
	return JoinAck{
		Ack:          Ack{Type: TypeJoinRoom, Ref: ref, Success: true},
		Document:     s.Document,
		Language:     s.Language,
		Participants: s.Participants,
	}
}

// NewRejection builds a failed ack of the given type from err.
func NewRejection(typ, ref string, err error) Ack {
	ack := Ack{Type: typ, Ref: ref, Error: ErrorCode(err)}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		ack.Field = fe.Field
	}
	return ack
}

func NewParticipantsUpdate(id domain.RoomID, ps []core.ParticipantDTO) ParticipantsUpdate {
	return ParticipantsUpdate{Type: TypeParticipantsUpdate, RoomID: id, Participants: ps}
}

func NewCodeUpdate(id domain.RoomID, text string, from domain.LogicalID) CodeUpdate {
	return CodeUpdate{Type: TypeCodeUpdate, RoomID: id, Text: text, From: from}
}

func NewLanguageChange(id domain.RoomID, l domain.Language) LanguageChange {
	return LanguageChange{Type: TypeLanguageChange, RoomID: id, LanguageTag: l}
}

// ErrorCode maps core errors onto wire codes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return CodeMissingField
	case errors.Is(err, domain.ErrFieldTooLong):
		return CodeInvalidField
	case errors.Is(err, domain.ErrInvalidLanguage):
		return CodeInvalidLanguage
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

// Encode marshals v into a frame ready for SignalConnection.TrySend.
func Encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return core.Frame(b), nil
}
