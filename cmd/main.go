package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/careerbridge/careerbridge-backend/internal/clients/redis"
	"github.com/careerbridge/careerbridge-backend/internal/db"
	"github.com/careerbridge/careerbridge-backend/internal/handlers"
	"github.com/careerbridge/careerbridge-backend/internal/middleware"
	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/repos"
	"github.com/careerbridge/careerbridge-backend/internal/server"
	"github.com/careerbridge/careerbridge-backend/internal/services"
	"github.com/careerbridge/careerbridge-backend/internal/sse"
	"github.com/careerbridge/careerbridge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	heartbeatInterval := utils.GetEnvAsDuration("SSE_HEARTBEAT_INTERVAL", 30*time.Second, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	userRepo := repos.NewUserRepo(thePG, log)

	// Progress cache (optional: the store remains the source of truth)
	var progressCache services.ProgressCache
	if cache, err := redis.NewProgressCache(log); err != nil {
		log.Warn("Progress cache disabled", "error", err)
	} else {
		progressCache = cache
		defer cache.Close()
	}

	// SSE hub with process-wide heartbeat
	hub := sse.NewHub(log)
	hub.StartHeartbeat(context.Background(), heartbeatInterval)

	// Services
	authService := services.NewAuthService(log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	progressService := services.NewProgressService(log, userRepo, progressCache, hub)
	leaderboardService := services.NewLeaderboardService(log, userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	progressHandler := handlers.NewProgressHandler(log, progressService, leaderboardService, hub)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:    server.SplitOrigins(utils.GetEnv("CORS_ORIGINS", "", log)),
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		ProgressHandler: progressHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
