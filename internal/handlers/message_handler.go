package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/freelaz/backend/internal/cache"
	"github.com/freelaz/backend/internal/models"
	"github.com/freelaz/backend/internal/moderation"
	"github.com/freelaz/backend/internal/repository"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	msgRepo   *repository.MessageRepository
	convRepo  *repository.ConversationRepository
	sanctions *sanction.Engine
	redis     *cache.RedisClient
}

func NewMessageHandler(
	msgRepo *repository.MessageRepository,
	convRepo *repository.ConversationRepository,
	sanctions *sanction.Engine,
	redis *cache.RedisClient,
) *MessageHandler {
	return &MessageHandler{
		msgRepo:   msgRepo,
		convRepo:  convRepo,
		sanctions: sanctions,
		redis:     redis,
	}
}

// GetMessages returns messages for a conversation
func (h *MessageHandler) GetMessages(c *gin.Context) {
	var req models.GetMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	// Check if user is a member
	isMember, err := h.convRepo.IsMember(req.ConversationID, uid)
	if err != nil || !isMember {
		ErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	if req.Limit == 0 {
		req.Limit = 50
	}

	messages, err := h.msgRepo.GetByConversationID(req.ConversationID, req.Limit, req.Offset)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage sends a new message (REST endpoint). The text is scanned
// before it is stored: only the sanitized body is persisted, and detected
// violations feed the sanction engine.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	// Check if user is a member
	isMember, err := h.convRepo.IsMember(req.ConversationID, uid)
	if err != nil || !isMember {
		ErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	canChat, err := h.sanctions.CanUseChat(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to check account status")
		return
	}
	if !canChat {
		ErrorResponse(c, http.StatusForbidden, h.sanctions.GetBanMessage(uid))
		return
	}

	scan := moderation.Moderate(req.Body)

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: req.ConversationID,
		SenderID:       uid,
		Body:           scan.SanitizedText,
		Flagged:        scan.HasViolation,
		ViolationKinds: kindStrings(scan.Violations),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := h.msgRepo.Create(message); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to send message")
		return
	}

	if scan.HasViolation {
		h.applySanction(c, uid, scan.Violations)
	}

	// Publish to Redis for WebSocket broadcast
	if h.redis != nil {
		h.redis.PublishMessage(models.WSMessage{
			Event:   models.EventMessageNew,
			Payload: message,
		})
	}

	c.JSON(http.StatusCreated, models.SendMessageResponse{
		Message: *message,
		Warning: scan.Warning,
	})
}

// applySanction feeds detected violations to the sanction engine. The
// message is already stored sanitized at this point, so engine failures
// are logged and broadcast but never fail the send.
func (h *MessageHandler) applySanction(c *gin.Context, uid uuid.UUID, kinds []moderation.ViolationKind) {
	displayName := c.GetString("user_email")
	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)

	record, err := h.sanctions.ApplySanction(uid, displayName, roleStr, kinds)
	if errors.Is(err, sanction.ErrNoSanctionWarranted) {
		return
	}
	if err != nil {
		log.Printf("Failed to apply sanction for user %s: %v", uid, err)
		return
	}

	if h.redis != nil {
		h.redis.InvalidateSanctionStatus(uid)
		h.redis.PublishSanction(cache.SanctionNotice{
			UserID:  uid,
			Tier:    string(record.Tier),
			Message: sanctionNoticeMessage(h.sanctions, record),
		})
	}
}

func sanctionNoticeMessage(engine *sanction.Engine, record *sanction.Record) string {
	switch record.Tier {
	case sanction.TierBan:
		return engine.GetBanMessage(record.UserID)
	case sanction.TierPenalty:
		if record.ExpiresAt != nil {
			return sanction.GetPenaltyMessage(*record.ExpiresAt)
		}
		return sanction.GetViolationWarningMessage()
	default:
		return sanction.GetViolationWarningMessage()
	}
}

func kindStrings(kinds []moderation.ViolationKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// MarkMessageAsRead marks a message as read
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid message ID")
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	// Get message to verify conversation membership
	message, err := h.msgRepo.GetByID(messageID)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Message not found")
		return
	}

	// Check if user is a member
	isMember, err := h.convRepo.IsMember(message.ConversationID, uid)
	if err != nil || !isMember {
		ErrorResponse(c, http.StatusForbidden, "Access denied")
		return
	}

	if err := h.msgRepo.MarkAsRead(messageID, uid); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to mark message as read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

// GetFlagged returns messages flagged by moderation, newest first
func (h *MessageHandler) GetFlagged(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.msgRepo.GetFlagged(limit, offset)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list flagged messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
