package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vetdict/backend-go/internal/database/service"
	"github.com/vetdict/backend-go/internal/middleware"
)

// UserHandler handles self-service account requests and the public leaderboard
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetMe handles GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.logger.Error("❌ [UserHandler] User not found in context")
		unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteMe handles DELETE /users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.logger.Error("❌ [UserHandler] User not found in context")
		unauthorized(c, "Not authenticated")
		return
	}

	if err := h.userService.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

// Leaderboard handles GET /leaderboard?limit=N
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit := service.DefaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.userService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
