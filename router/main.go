package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/taskboard-api/config"
	"github.com/taskboard/taskboard-api/database"
	"github.com/taskboard/taskboard-api/handlers"
	auth_handlers "github.com/taskboard/taskboard-api/handlers/auth"
	todo_handlers "github.com/taskboard/taskboard-api/handlers/todo"
	"github.com/taskboard/taskboard-api/services"
	"github.com/taskboard/taskboard-api/utils/auth"
	"github.com/taskboard/taskboard-api/utils/cache"
	"github.com/taskboard/taskboard-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	getEnv, err := config.Get()
	if err != nil {
		log.Fatal("Failed to load configuration")
	}

	jwtSecret := getEnv.JWT_SECRET
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := getEnv.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "taskboard-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db := store.GetDB()

	// Initialize Redis cache for brute force protection
	redisURL := getEnv.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	todoService := services.NewTodoService(db)
	todoHandler := todo_handlers.NewTodoHandler(todoService)

	// Apply security middleware
	allowedOrigins := getEnv.ALLOWED_ORIGINS
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/health", handlers.HandleCheckHealth)

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.Refresh)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Todo routes (all protected)
	todos := api.Group("/todos", authMiddleware.Required())

	// Fixed paths must be registered before /:id to avoid conflicts
	todos.Get("/stats", todoHandler.Stats)
	todos.Get("/kanban", todoHandler.Kanban)
	todos.Put("/reorder", todoHandler.Reorder)

	todos.Post("/", todoHandler.Create)
	todos.Get("/", todoHandler.List)
	todos.Get("/:id", todoHandler.GetByID)
	todos.Put("/:id", todoHandler.Update)
	todos.Delete("/:id", todoHandler.Delete)
}
