package main

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-chat-api/internal/config"
	"github.com/yukikurage/group-chat-api/internal/constants"
	"github.com/yukikurage/group-chat-api/internal/database"
	"github.com/yukikurage/group-chat-api/internal/handlers"
	"github.com/yukikurage/group-chat-api/internal/logging"
	"github.com/yukikurage/group-chat-api/internal/middleware"
	"github.com/yukikurage/group-chat-api/internal/repository"
	"github.com/yukikurage/group-chat-api/internal/services"
	"github.com/yukikurage/group-chat-api/internal/storage"
	"github.com/yukikurage/group-chat-api/internal/thumbnail"
	"github.com/yukikurage/group-chat-api/internal/validation"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logging.NewLogger(cfg.AppEnv)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	validation.Init()

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	db := database.GetDB()

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	authService := services.NewAuthService(userRepo)
	sentinel, err := authService.EnsureSentinelUser()
	if err != nil {
		log.WithError(err).Fatal("failed to ensure deleted-user placeholder")
	}
	log.WithField("user_id", sentinel.ID).Info("deleted-user placeholder ready")

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StorageDriver).Fatal("failed to initialize storage")
	}
	normalizer := thumbnail.NewNormalizer(store, cfg.ImageMaxDimension,
		thumbnail.WithMaxPixels(int64(cfg.ImageMaxPixels)))

	groupService := services.NewGroupService(groupRepo)
	messageService := services.NewMessageService(messageRepo, groupRepo)
	profileService := services.NewProfileService(profileRepo, store, normalizer)

	// AI digest is optional
	aiService := services.NewAIService(cfg.OpenAIAPIKey)
	if aiService == nil {
		log.Info("OPENAI_API_KEY not set, group digest disabled")
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(logging.RequestLogger(log))

	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
		}))
	}

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to create session store")
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, log)
	groupHandler := handlers.NewGroupHandler(groupService, log)
	messageHandler := handlers.NewMessageHandler(messageService, authService, aiService, log)
	profileHandler := handlers.NewProfileHandler(profileService, authService, cfg.MaxUploadSizeMB, log)
	mediaHandler := handlers.NewMediaHandler(store, log)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Group Chat API is running",
		})
	})

	r.GET("/media/*path", mediaHandler.Serve)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.DELETE("/me", middleware.RequireAuth(), authHandler.DeleteAccount)
		}

		// Profile routes (protected)
		profile := api.Group("/profile")
		profile.Use(middleware.RequireAuth())
		{
			profile.GET("", profileHandler.GetProfile)
			profile.PATCH("", profileHandler.UpdateProfile)
			profile.PUT("/image", profileHandler.UploadProfileImage)
		}

		// Group routes (protected)
		groups := api.Group("/groups")
		groups.Use(middleware.RequireAuth())
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.POST("/:name/join", groupHandler.JoinGroup)

			member := groups.Group("/:name", middleware.RequireGroupMember(groupService))
			{
				member.GET("", groupHandler.GetGroup)
				member.PATCH("", groupHandler.UpdateGroup)
				member.DELETE("", groupHandler.DeleteGroup)
				member.POST("/leave", groupHandler.LeaveGroup)
				member.GET("/messages", messageHandler.ListMessages)
				member.POST("/messages", messageHandler.PostMessage)
				member.GET("/digest", messageHandler.Digest)
				member.PUT("/image", profileHandler.UploadGroupImage)
			}
		}
	}

	// Start server
	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("server starting")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.SessionStore == "cookie" {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	}

	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		return nil, err
	}
	store.Options(options)
	return store, nil
}
