package domain

import (
	"encoding/json"
	"time"
)

// Outbound message kinds. One envelope schema is used for everything
// the server pushes, whether it originates from a socket frame or a
// REST mutation.
const (
	TypeUserJoined       = "user_joined"
	TypeUserLeft         = "user_left"
	TypePresenceSnapshot = "presence_snapshot"
	TypePong             = "pong"
	TypeError            = "error"
	TypeUserTyping       = "user_typing"
	TypeCursorPosition   = "cursor_position"
	TypeSelectionChange  = "selection_change"

	TypeProjectUpdated = "project_updated"
	TypeBoardUpdated   = "board_updated"
	TypeListCreated    = "list_created"
	TypeListUpdated    = "list_updated"
	TypeListDeleted    = "list_deleted"
	TypeCardCreated    = "card_created"
	TypeCardUpdated    = "card_updated"
	TypeCardDeleted    = "card_deleted"
	TypeCardMoved      = "card_moved"
)

// Inbound-only kinds.
const (
	TypePing               = "ping"
	TypeRequestOnlineUsers = "request_online_users"
)

// Envelope is the outbound wire format. UserID is zero for
// system-originated messages (pongs, errors, snapshots) and omitted
// from the serialized form in that case. An Envelope is immutable
// once constructed and serialized once per broadcast.
type Envelope struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	UserID    int64     `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Frame is the inbound wire format sent by clients.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent builds a user-originated envelope.
func NewEvent(kind string, payload any, userID int64) Envelope {
	return Envelope{
		Type:      kind,
		Payload:   payload,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// NewSystemEvent builds an envelope with no originating user.
func NewSystemEvent(kind string, payload any) Envelope {
	return Envelope{
		Type:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ErrorPayload is carried by "error" envelopes.
type ErrorPayload struct {
	Message string `json:"message"`
}

func NewErrorEvent(message string) Envelope {
	return NewSystemEvent(TypeError, ErrorPayload{Message: message})
}

// PresencePayload is carried by presence_snapshot envelopes.
type PresencePayload struct {
	ProjectID int64   `json:"project_id"`
	Users     []int64 `json:"users"`
}

// JoinLeavePayload is carried by user_joined / user_left envelopes.
type JoinLeavePayload struct {
	UserID    int64 `json:"user_id"`
	ProjectID int64 `json:"project_id"`
}
