package main

import (
	"log"

	"github.com/freelaz/backend/config"
	"github.com/freelaz/backend/internal/auth"
	"github.com/freelaz/backend/internal/cache"
	"github.com/freelaz/backend/internal/database"
	"github.com/freelaz/backend/internal/handlers"
	"github.com/freelaz/backend/internal/middleware"
	"github.com/freelaz/backend/internal/repository"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/freelaz/backend/internal/websocket"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Connect to Redis
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Running without Redis - real-time features will be limited")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	sanctionRepo := repository.NewSanctionRepository(db)

	// Sanction engine over the Postgres store
	sanctions := sanction.NewEngine(sanctionRepo, cfg.Moderation.PenaltyDays)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, jwtService)
	projectHandler := handlers.NewProjectHandler(projectRepo, sanctions)
	proposalHandler := handlers.NewProposalHandler(proposalRepo, projectRepo, sanctions)
	convHandler := handlers.NewConversationHandler(convRepo, userRepo, msgRepo, redis)
	msgHandler := handlers.NewMessageHandler(msgRepo, convRepo, sanctions, redis)
	sanctionHandler := handlers.NewSanctionHandler(sanctions, redis)

	// Initialize WebSocket hub (only if Redis is available)
	var hub *websocket.Hub
	var wsHandler *websocket.Handler
	if redis != nil {
		hub = websocket.NewHub(redis)
		go hub.Run()
		wsHandler = websocket.NewHandler(hub, jwtService, msgRepo, convRepo, sanctions, redis, cfg.CORS.AllowedOrigins)
	}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitMessagesPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// WebSocket endpoint (only if Redis is available)
	if wsHandler != nil {
		router.GET("/ws", wsHandler.HandleWebSocket)
	}

	// Protected routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		// User routes
		api.GET("/me", authHandler.GetMe)

		// Project routes
		api.GET("/projects", projectHandler.List)
		api.POST("/projects", projectHandler.Create)
		api.GET("/projects/mine", projectHandler.GetMine)
		api.GET("/projects/:id", projectHandler.Get)
		api.PUT("/projects/:id/status", projectHandler.UpdateStatus)
		api.GET("/projects/:id/proposals", proposalHandler.GetByProject)

		// Proposal routes
		api.POST("/proposals", proposalHandler.Create)
		api.GET("/proposals/mine", proposalHandler.GetMine)
		api.POST("/proposals/:id/accept", proposalHandler.Accept)
		api.POST("/proposals/:id/withdraw", proposalHandler.Withdraw)

		// Conversation routes
		api.GET("/conversations", convHandler.GetConversations)
		api.POST("/conversations", convHandler.CreateConversation)
		api.GET("/conversations/:id", convHandler.GetConversation)

		// Message routes
		api.GET("/messages", msgHandler.GetMessages)
		api.POST("/messages", middleware.RateLimitMiddleware(rateLimiter), msgHandler.SendMessage)
		api.PUT("/messages/:id/read", msgHandler.MarkMessageAsRead)

		// Sanction routes (own account)
		api.GET("/sanctions/status", sanctionHandler.GetMyStatus)
		api.GET("/sanctions/mine", sanctionHandler.GetMySanctions)
		api.POST("/sanctions/appeal", sanctionHandler.Appeal)

		// WebSocket info (only if Redis is available)
		if wsHandler != nil {
			api.GET("/online-users", wsHandler.GetOnlineUsers)
		}
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireAdmin())
	{
		admin.GET("/sanctions", sanctionHandler.ListAll)
		admin.GET("/sanctions/active", sanctionHandler.ListActive)
		admin.GET("/sanctions/users/:id", sanctionHandler.GetUserStatus)
		admin.POST("/sanctions/lift", sanctionHandler.Lift)
		admin.POST("/sanctions/appeals/process", sanctionHandler.ProcessAppeal)
		admin.GET("/messages/flagged", msgHandler.GetFlagged)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Starting Freelaz server on %s (env: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
