package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vetdict/backend-go/internal/handler"
	"github.com/vetdict/backend-go/internal/middleware"
)

// HealthCheck reports whether the backing store is reachable
type HealthCheck func(ctx context.Context) error

func SetupRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	healthCheck HealthCheck,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Public routes
	r.GET("/api/v1/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := healthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/v1/leaderboard", userHandler.Leaderboard)

	// Auth routes (Public)
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/google/login", authHandler.GoogleLogin)
		authGroup.POST("/google/register", authHandler.GoogleRegister)
		authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
	}

	// Self-service routes
	me := r.Group("/api/v1/users/me")
	me.Use(authMiddleware.RequireAuth())
	{
		me.GET("", userHandler.GetMe)
		me.DELETE("", userHandler.DeleteMe)
	}

	// Admin routes
	admin := r.Group("/api/v1/users")
	admin.Use(authMiddleware.RequireAdmin())
	{
		admin.GET("", adminHandler.ListUsers)
		admin.POST("/reset-daily-points", adminHandler.ResetDailyPoints)
		admin.GET("/:username", adminHandler.GetUser)
		admin.PUT("/:username", adminHandler.UpdateUser)
		admin.DELETE("/:username", adminHandler.DeleteUser)
		admin.POST("/:username/points", adminHandler.AddPoints)
		admin.PATCH("/:username/active", adminHandler.SetActive)
	}

	return r
}
