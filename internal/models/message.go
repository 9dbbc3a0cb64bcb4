package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat message. Body always holds the sanitized text; the
// raw submission is never stored. Flagged marks messages whose original
// content violated the rules, with the detected kinds kept for audit.
type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id" db:"sender_id"`
	Body           string    `json:"body" db:"body"`
	Flagged        bool      `json:"flagged" db:"flagged"`
	ViolationKinds []string  `json:"violation_kinds,omitempty" db:"violation_kinds"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	Sender         *User     `json:"sender,omitempty"`
}

type MessageRead struct {
	ID        uuid.UUID `json:"id" db:"id"`
	MessageID uuid.UUID `json:"message_id" db:"message_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ReadAt    time.Time `json:"read_at" db:"read_at"`
}

type SendMessageRequest struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
	Body           string    `json:"body" binding:"required,max=5000"`
}

// SendMessageResponse carries the stored message plus the moderation
// warning, when the original text was sanitized.
type SendMessageResponse struct {
	Message Message `json:"message"`
	Warning string  `json:"warning,omitempty"`
}

type GetMessagesRequest struct {
	ConversationID uuid.UUID `form:"conversation_id" binding:"required"`
	Limit          int       `form:"limit"`
	Offset         int       `form:"offset"`
}

type TypingIndicator struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	IsTyping       bool      `json:"is_typing"`
}
