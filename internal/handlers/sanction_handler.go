package handlers

import (
	"net/http"

	"github.com/freelaz/backend/internal/cache"
	"github.com/freelaz/backend/internal/models"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SanctionHandler exposes the sanction engine over HTTP: the caller's own
// restriction state and appeals, plus the admin review surface.
type SanctionHandler struct {
	sanctions *sanction.Engine
	redis     *cache.RedisClient
}

func NewSanctionHandler(sanctions *sanction.Engine, redis *cache.RedisClient) *SanctionHandler {
	return &SanctionHandler{
		sanctions: sanctions,
		redis:     redis,
	}
}

// GetMyStatus returns the caller's current restriction state
func (h *SanctionHandler) GetMyStatus(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	if h.redis != nil {
		if cached, err := h.redis.GetCachedSanctionStatus(uid); err == nil && cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	status, err := h.sanctions.GetUserSanctionStatus(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get sanction status")
		return
	}

	if h.redis != nil {
		h.redis.CacheSanctionStatus(status)
	}

	c.JSON(http.StatusOK, status)
}

// GetMySanctions returns the caller's sanction history
func (h *SanctionHandler) GetMySanctions(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	records, err := h.sanctions.GetUserSanctions(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get sanctions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sanctions": records})
}

// Appeal opens an appeal on one of the caller's sanctions
func (h *SanctionHandler) Appeal(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	var req models.AppealSanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// Users may only appeal their own records
	records, err := h.sanctions.GetUserSanctions(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get sanctions")
		return
	}
	owned := false
	for _, r := range records {
		if r.ID == req.SanctionID {
			owned = true
			break
		}
	}
	if !owned {
		ErrorResponse(c, http.StatusNotFound, "Sanction not found")
		return
	}

	ok, err := h.sanctions.AppealSanction(req.SanctionID, req.Reason)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to appeal sanction")
		return
	}
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "Sanction not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recurso registrado. Sua solicitação será analisada."})
}

// Admin endpoints

// ListAll returns the complete sanction audit trail
func (h *SanctionHandler) ListAll(c *gin.Context) {
	records, err := h.sanctions.GetAllSanctions()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list sanctions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sanctions": records})
}

// ListActive returns every sanction still in force
func (h *SanctionHandler) ListActive(c *gin.Context) {
	records, err := h.sanctions.GetActiveSanctions()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list sanctions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sanctions": records})
}

// GetUserStatus returns any user's restriction state
func (h *SanctionHandler) GetUserStatus(c *gin.Context) {
	uid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	status, err := h.sanctions.GetUserSanctionStatus(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get sanction status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// Lift removes a sanction by admin decision
func (h *SanctionHandler) Lift(c *gin.Context) {
	var req models.LiftSanctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	adminEmail := c.GetString("user_email")

	ok, err := h.sanctions.LiftSanction(req.SanctionID, adminEmail)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to lift sanction")
		return
	}
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "Sanction not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sanção removida"})
}

// ProcessAppeal resolves a pending appeal
func (h *SanctionHandler) ProcessAppeal(c *gin.Context) {
	var req models.ProcessAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ok, err := h.sanctions.ProcessAppeal(req.SanctionID, req.Approve)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to process appeal")
		return
	}
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "No pending appeal for this sanction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recurso processado"})
}
