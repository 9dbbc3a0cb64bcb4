package websocket

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/freelaz/backend/internal/auth"
	"github.com/freelaz/backend/internal/cache"
	"github.com/freelaz/backend/internal/repository"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate origin properly
		return true
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub            *Hub
	jwtService     *auth.JWTService
	msgRepo        *repository.MessageRepository
	convRepo       *repository.ConversationRepository
	sanctions      *sanction.Engine
	redis          *cache.RedisClient
	allowedOrigins []string
}

// NewHandler creates a new WebSocket handler
func NewHandler(
	hub *Hub,
	jwtService *auth.JWTService,
	msgRepo *repository.MessageRepository,
	convRepo *repository.ConversationRepository,
	sanctions *sanction.Engine,
	redis *cache.RedisClient,
	allowedOrigins []string,
) *Handler {
	return &Handler{
		hub:            hub,
		jwtService:     jwtService,
		msgRepo:        msgRepo,
		convRepo:       convRepo,
		sanctions:      sanctions,
		redis:          redis,
		allowedOrigins: allowedOrigins,
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(c *gin.Context) {
	// Get token from query parameter
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	// Validate token
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	// Banned accounts do not get a live connection at all
	banned, err := h.sanctions.IsUserBanned(claims.UserID)
	if err == nil && banned {
		c.JSON(http.StatusForbidden, gin.H{"error": h.sanctions.GetBanMessage(claims.UserID)})
		return
	}

	// Validate origin using configured allowed origins if provided
	if len(h.allowedOrigins) > 0 {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return false
			}
			// allow exact match or wildcard like *.example.com
			for _, pattern := range h.allowedOrigins {
				if matchOrigin(pattern, origin) {
					return true
				}
			}
			return false
		}
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	// Create client
	client := NewClient(
		h.hub,
		conn,
		claims.UserID,
		claims.Email,
		claims.Role,
		h.msgRepo,
		h.convRepo,
		h.sanctions,
		h.redis,
	)

	// Register client
	h.hub.register <- client

	// Start client pumps
	go client.WritePump()
	go client.ReadPump()
}

// GetOnlineUsers returns online users (for testing/admin)
func (h *Handler) GetOnlineUsers(c *gin.Context) {
	if _, exists := c.Get("user_id"); !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	onlineUsers := h.hub.GetOnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"online_users": onlineUsers,
		"count":        len(onlineUsers),
	})
}

// matchOrigin supports exact matches or wildcard patterns like *.example.com
func matchOrigin(pattern, origin string) bool {
	if pattern == origin {
		return true
	}
	// simple wildcard support: pattern starts with *.
	if strings.HasPrefix(pattern, "*.") {
		originHost := origin
		if u, err := url.Parse(origin); err == nil {
			originHost = u.Hostname()
		}
		patHost := strings.TrimPrefix(pattern, "*.")
		if strings.HasSuffix(originHost, patHost) {
			return true
		}
	}
	return false
}
