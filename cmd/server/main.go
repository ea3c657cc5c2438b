package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/internal/api"
	"github.com/ShazeRx/pigeon-app/internal/auth"
	"github.com/ShazeRx/pigeon-app/internal/cache"
	"github.com/ShazeRx/pigeon-app/internal/db"
	"github.com/ShazeRx/pigeon-app/internal/mail"
	"github.com/ShazeRx/pigeon-app/internal/service"
	"github.com/ShazeRx/pigeon-app/pkg/config"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
	"github.com/ShazeRx/pigeon-app/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Pigeon API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to Postgres and migrate the schema
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	repo := db.NewRepository(database.DB)
	if err := repo.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis is optional; the feed cache degrades to pass-through.
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	// Wire services
	users := db.NewUserRepository(repo)
	channels := db.NewChannelRepository(repo)
	posts := db.NewPostRepository(repo)
	comments := db.NewCommentRepository(repo)
	likes := db.NewLikeRepository(repo)
	tags := db.NewTagRepository(repo)
	images := db.NewImageRepository(repo)

	tokens := auth.NewTokenService(&cfg.Auth)
	passwords := auth.NewPasswordService()
	sender := mail.NewSender(&cfg.Mail)
	linker := service.NewTagLinker(tags)

	authSvc := service.NewAuthService(users, tokens, passwords, sender, cfg.Mail.BaseURL)
	channelSvc := service.NewChannelService(channels, users, posts, images, linker)
	postSvc := service.NewPostService(posts, channels, users, comments, likes, images, linker, channelSvc, redisCache)
	commentSvc := service.NewCommentService(comments, posts, users)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	apiRouter := api.NewRouter(tokens, authSvc, channelSvc, postSvc, commentSvc)
	apiRouter.SetupRoutes(router)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
