package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vetdict/backend-go/internal/api"
	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/config"
	"github.com/vetdict/backend-go/internal/database"
	"github.com/vetdict/backend-go/internal/database/repository"
	"github.com/vetdict/backend-go/internal/database/service"
	"github.com/vetdict/backend-go/internal/handler"
	"github.com/vetdict/backend-go/internal/logger"
	"github.com/vetdict/backend-go/internal/middleware"
	"github.com/vetdict/backend-go/internal/worker"
)

func main() {
	// 1. Config (.env is optional)
	_ = godotenv.Load()
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)
	securityLogger := logger.NewSecurity(cfg)

	appLogger.Info("🚀 [Go] Starting VetDict API...",
		"environment", cfg.AppEnv,
		"google_sign_in", cfg.GoogleSignInEnabled(),
	)

	// 3. Connect to Database
	db, err := database.ConnectDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Initialize Leaderboard Cache
	var leaderboardCache database.LeaderboardCache
	redisClient, err := database.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, leaderboard will not be cached", "error", err)
		leaderboardCache = database.NewNoOpLeaderboardCache(appLogger)
	} else {
		leaderboardCache = redisClient
	}
	defer leaderboardCache.Close()

	// 6. Initialize Auth Primitives
	hasher := auth.NewPasswordHasher(int(cfg.BcryptCost), securityLogger)
	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL())
	if err != nil {
		appLogger.Error("❌ Invalid JWT configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.GoogleSignInEnabled() {
		appLogger.Warn("⚠️ GOOGLE_CLIENT_ID is not set, Google sign-in will fail with a configuration error")
	}
	googleVerifier := auth.NewGoogleVerifier(cfg.GoogleClientID)

	// 7. Initialize Services
	refreshStore := service.NewRefreshTokenStore(refreshTokenRepo, cfg, appLogger, securityLogger)
	authService, err := service.NewAuthService(userRepo, refreshStore, hasher, issuer, appLogger, securityLogger)
	if err != nil {
		appLogger.Error("❌ Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	federationService := service.NewFederationService(userRepo, googleVerifier, hasher, authService, appLogger, securityLogger)
	userService := service.NewUserService(userRepo, authService, hasher, leaderboardCache, appLogger)

	if cfg.HasAdminBootstrap() {
		if err := userService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			appLogger.Error("❌ Failed to bootstrap admin account", "error", err)
			os.Exit(1)
		}
	}

	// 8. Background Workers
	pool := worker.NewPool(appLogger)
	pool.ScheduleDailyUTC("reset-daily-points", func(ctx context.Context) error {
		_, err := userService.ResetDailyPoints(ctx)
		return err
	})

	// 9. Initialize Handlers, Middleware & Router
	authHandler := handler.NewAuthHandler(authService, federationService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)
	adminHandler := handler.NewAdminHandler(userService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	r := api.SetupRouter(authHandler, userHandler, adminHandler, authMiddleware, func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})

	// 10. Start HTTP Server
	addr := fmt.Sprintf(":%s", cfg.ApiServicePort)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("❌ HTTP Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// 11. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("🛑 [Go] Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("❌ HTTP Server shutdown failed", "error", err)
	}
	pool.Shutdown(cfg.ShutdownGracePeriod())

	appLogger.Info("👋 [Go] Server stopped")
}
