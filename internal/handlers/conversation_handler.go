package handlers

import (
	"net/http"

	"github.com/freelaz/backend/internal/cache"
	"github.com/freelaz/backend/internal/models"
	"github.com/freelaz/backend/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	convRepo *repository.ConversationRepository
	userRepo *repository.UserRepository
	msgRepo  *repository.MessageRepository
	redis    *cache.RedisClient
}

// NewConversationHandler creates a conversation handler. redis may be nil
// when the cache is not configured.
func NewConversationHandler(
	convRepo *repository.ConversationRepository,
	userRepo *repository.UserRepository,
	msgRepo *repository.MessageRepository,
	redis *cache.RedisClient,
) *ConversationHandler {
	return &ConversationHandler{
		convRepo: convRepo,
		userRepo: userRepo,
		msgRepo:  msgRepo,
		redis:    redis,
	}
}

// CreateConversation opens (or returns) the direct conversation between the
// caller and the recipient
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req models.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	if req.RecipientID == uid {
		ErrorResponse(c, http.StatusBadRequest, "Cannot open a conversation with yourself")
		return
	}

	if _, err := h.userRepo.GetByID(req.RecipientID); err != nil {
		ErrorResponse(c, http.StatusNotFound, "Recipient not found")
		return
	}

	conv, err := h.convRepo.GetOrCreateDirectConversation(uid, req.RecipientID, req.ProjectID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	members, _ := h.convRepo.GetMembers(conv.ID)
	conv.Members = members

	c.JSON(http.StatusOK, conv)
}

// GetConversations returns all conversations for the current user
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	conversations, err := h.convRepo.GetByUserID(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get conversations")
		return
	}

	// Load members and last message for each conversation
	result := make([]models.ConversationWithDetails, 0, len(conversations))
	for i := range conversations {
		members, _ := h.convRepo.GetMembers(conversations[i].ID)
		conversations[i].Members = members

		messages, _ := h.msgRepo.GetByConversationID(conversations[i].ID, 1, 0)
		if len(messages) > 0 {
			conversations[i].LastMessage = &messages[0]
		}

		unread, _ := h.msgRepo.GetUnreadCount(conversations[i].ID, uid)
		result = append(result, models.ConversationWithDetails{
			Conversation: conversations[i],
			UnreadCount:  unread,
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": result})
}

// GetConversation returns one conversation the caller belongs to
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	isMember, err := h.convRepo.IsMember(id, uid)
	if err != nil || !isMember {
		ErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	conv, err := h.convRepo.GetByID(id)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Conversation not found")
		return
	}

	members, _ := h.convRepo.GetMembers(conv.ID)
	conv.Members = members

	typing := []uuid.UUID{}
	if h.redis != nil {
		if users, err := h.redis.GetTypingUsers(conv.ID); err == nil {
			typing = users
		}
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "typing_users": typing})
}
