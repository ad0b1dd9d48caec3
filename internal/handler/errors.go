package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/database/service"
)

// handleServiceError maps service errors to HTTP responses
func handleServiceError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already registered"})
	case errors.Is(err, service.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, service.ErrAccountAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Account already exists, please log in"})
	case errors.Is(err, service.ErrInvalidCredentials):
		unauthorized(c, "Incorrect username or password")
	case errors.Is(err, service.ErrInactiveUser):
		unauthorized(c, "Inactive user")
	case errors.Is(err, service.ErrUnauthorized):
		unauthorized(c, "Could not validate credentials")
	case errors.Is(err, auth.ErrInvalidExternalToken):
		unauthorized(c, "Invalid Google token")
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
	case errors.Is(err, auth.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at most 72 bytes"})
	case errors.Is(err, service.ErrInvalidLimit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, auth.ErrProviderNotConfigured):
		logger.Error("❌ [Handler] Google sign-in requested but GOOGLE_CLIENT_ID is not set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
	default:
		logger.Error("❌ [Handler] Internal server error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
}
