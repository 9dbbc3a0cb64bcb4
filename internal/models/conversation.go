package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a direct chat between a client and a freelancer,
// optionally anchored to a project they are negotiating.
type Conversation struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty" db:"project_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Members     []User     `json:"members,omitempty"`
	LastMessage *Message   `json:"last_message,omitempty"`
}

type ConversationMember struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
}

type CreateConversationRequest struct {
	RecipientID uuid.UUID  `json:"recipient_id" binding:"required"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
}

type ConversationWithDetails struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}
