package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/service"
)

// UserKey is the gin context key holding the authenticated *models.User
const UserKey = "user"

type resolveFunc func(ctx context.Context, accessToken string) (*models.User, error)

// AuthMiddleware runs the authorization gate in front of protected routes
type AuthMiddleware struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(service service.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		logger:  logger,
	}
}

// RequireAuth validates the bearer token and sets the user in context
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.gate(m.service.CurrentUser)
}

// RequireAdmin is RequireAuth restricted to admin users
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.gate(m.service.AuthorizeAdmin)
}

func (m *AuthMiddleware) gate(resolve resolveFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.logger.Warn("⚠️ [Middleware] Missing Authorization header")
			unauthorized(c, "Not authenticated")
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.logger.Warn("⚠️ [Middleware] Invalid Authorization header format")
			unauthorized(c, "Invalid authorization header format")
			return
		}

		user, err := resolve(c.Request.Context(), parts[1])
		switch {
		case err == nil:
		case errors.Is(err, service.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		case errors.Is(err, service.ErrInactiveUser):
			unauthorized(c, "Inactive user")
			return
		case errors.Is(err, service.ErrUnauthorized):
			m.logger.Warn("⚠️ [Middleware] Invalid token")
			unauthorized(c, "Could not validate credentials")
			return
		default:
			m.logger.Error("❌ [Middleware] Failed to resolve user", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(UserKey, user)
		m.logger.Debug("✅ [Middleware] Token validated", "user_id", user.ID)

		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth or RequireAdmin
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
