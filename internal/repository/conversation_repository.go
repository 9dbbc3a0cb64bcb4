package repository

import (
	"database/sql"
	"fmt"

	"github.com/freelaz/backend/internal/database"
	"github.com/freelaz/backend/internal/models"
	"github.com/google/uuid"
)

type ConversationRepository struct {
	db *database.DB
}

func NewConversationRepository(db *database.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(id uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, project_id, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	conversation := &models.Conversation{}
	err := r.db.QueryRow(query, id).Scan(
		&conversation.ID,
		&conversation.ProjectID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conversation, nil
}

// GetByUserID retrieves all conversations for a user
func (r *ConversationRepository) GetByUserID(userID uuid.UUID) ([]models.Conversation, error) {
	query := `
		SELECT c.id, c.project_id, c.created_at, c.updated_at
		FROM conversations c
		INNER JOIN conversation_members cm ON c.id = cm.conversation_id
		WHERE cm.user_id = $1
		ORDER BY c.updated_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		err := rows.Scan(
			&conv.ID,
			&conv.ProjectID,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// GetMembers retrieves all members of a conversation
func (r *ConversationRepository) GetMembers(conversationID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.display_name, u.role, u.bio, u.hourly_rate, u.avatar_url, u.password_hash, u.created_at, u.updated_at
		FROM users u
		INNER JOIN conversation_members cm ON u.id = cm.user_id
		WHERE cm.conversation_id = $1
	`

	rows, err := r.db.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := []models.User{}
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.DisplayName,
			&user.Role,
			&user.Bio,
			&user.HourlyRate,
			&user.AvatarURL,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, user)
	}

	return members, nil
}

// IsMember checks if a user is a member of a conversation
func (r *ConversationRepository) IsMember(conversationID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2
		)
	`

	var exists bool
	err := r.db.QueryRow(query, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// GetOrCreateDirectConversation gets or creates the 1:1 conversation between
// a client and a freelancer, optionally anchored to a project
func (r *ConversationRepository) GetOrCreateDirectConversation(user1ID, user2ID uuid.UUID, projectID *uuid.UUID) (*models.Conversation, error) {
	// Check if conversation already exists
	query := `
		SELECT c.id, c.project_id, c.created_at, c.updated_at
		FROM conversations c
		INNER JOIN conversation_members cm1 ON c.id = cm1.conversation_id
		INNER JOIN conversation_members cm2 ON c.id = cm2.conversation_id
		WHERE cm1.user_id = $1
		AND cm2.user_id = $2
		AND ($3::uuid IS NULL OR c.project_id = $3)
		LIMIT 1
	`

	conversation := &models.Conversation{}
	err := r.db.QueryRow(query, user1ID, user2ID, projectID).Scan(
		&conversation.ID,
		&conversation.ProjectID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)

	if err == nil {
		return conversation, nil
	}

	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing conversation: %w", err)
	}

	// Create new conversation
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	conversation.ID = uuid.New()
	conversation.ProjectID = projectID

	_, err = tx.Exec(
		`INSERT INTO conversations (id, project_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())`,
		conversation.ID,
		conversation.ProjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	// Add both members
	_, err = tx.Exec(
		`INSERT INTO conversation_members (id, conversation_id, user_id, joined_at) VALUES ($1, $2, $3, NOW())`,
		uuid.New(), conversation.ID, user1ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add first member: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO conversation_members (id, conversation_id, user_id, joined_at) VALUES ($1, $2, $3, NOW())`,
		uuid.New(), conversation.ID, user2ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add second member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetByID(conversation.ID)
}
