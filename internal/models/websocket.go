package models

import "github.com/google/uuid"

// WebSocket event types
const (
	EventMessageNew      = "message.new"
	EventMessageSend     = "message.send"
	EventMessageRead     = "message.read"
	EventMessageWarning  = "message.warning"
	EventTypingStart     = "typing.start"
	EventTypingStop      = "typing.stop"
	EventPresenceUpdate  = "presence.update"
	EventSanctionApplied = "sanction.applied"
	EventError           = "error"
)

type WSMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type WSMessageSendPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Body           string    `json:"body"`
}

type WSMessageReadPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type WSTypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// WSWarningPayload is sent back to the author when their message was
// sanitized before delivery.
type WSWarningPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Warning        string    `json:"warning"`
}

// WSSanctionPayload notifies a user that a sanction was applied to
// their account as a result of a flagged message.
type WSSanctionPayload struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
