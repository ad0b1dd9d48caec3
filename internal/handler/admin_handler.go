package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vetdict/backend-go/internal/database/service"
	"github.com/vetdict/backend-go/internal/middleware"
)

// AdminHandler handles admin API requests for user management
type AdminHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(userService service.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsersQuery represents pagination query parameters
type ListUsersQuery struct {
	Skip  int `form:"skip" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=1,max=100"`
}

// UpdateUserRequest carries the editable profile fields. The admin flag is not
// editable here.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// SetActiveRequest represents the request body for toggling the active flag
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ListUsers handles GET /users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be >= 0 and limit between 1 and 100"})
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), query.Skip, query.Limit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": page.Items,
		"total": page.Total,
		"page":  page.Page,
		"size":  page.Size,
		"pages": page.Pages,
	})
}

// GetUser handles GET /users/:username
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PUT /users/:username
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("⚠️ [AdminHandler] Invalid update request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Username must be 3-50 chars and email valid."})
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("username"), service.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:username
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), c.Param("username")); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// AddPoints handles POST /users/:username/points?points=N
func (h *AdminHandler) AddPoints(c *gin.Context) {
	points, err := strconv.Atoi(c.Query("points"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points must be an integer"})
		return
	}

	user, err := h.userService.AddPoints(c.Request.Context(), c.Param("username"), points)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Added " + strconv.Itoa(points) + " points to user",
		"total_points": user.TotalPoints,
	})
}

// SetActive handles PATCH /users/:username/active
func (h *AdminHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active required"})
		return
	}

	if admin, ok := middleware.CurrentUser(c); ok && admin.Username == c.Param("username") && !*req.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot deactivate themselves"})
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), c.Param("username"), *req.IsActive)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ResetDailyPoints handles POST /users/reset-daily-points
func (h *AdminHandler) ResetDailyPoints(c *gin.Context) {
	count, err := h.userService.ResetDailyPoints(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Daily points reset for all users", "users": count})
}
