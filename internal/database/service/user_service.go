package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vetdict/backend-go/internal/database"
	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/repository"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
	MaxPageSize             = 100
)

// UserService defines the interface for user business logic
type UserService interface {
	// User retrieval
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, skip, limit int) (*Page, error)

	// Administration
	UpdateUser(ctx context.Context, username string, update UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error
	DeleteAccount(ctx context.Context, userID string) error
	SetActive(ctx context.Context, username string, active bool) (*models.User, error)
	EnsureAdmin(ctx context.Context, username, email, password string) error

	// Points
	AddPoints(ctx context.Context, username string, points int) (*models.User, error)
	ResetDailyPoints(ctx context.Context) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Page is one slice of a paginated listing
type Page struct {
	Items []models.User
	Total int64
	Page  int
	Size  int
	Pages int
}

// UserUpdate carries the fields an admin may change. Nil fields are left as is.
type UserUpdate struct {
	Username *string
	Email    *string
}

type userService struct {
	userRepo repository.UserRepository
	authSvc  AuthService
	hasher   passwordHasher
	cache    database.LeaderboardCache
	logger   *slog.Logger
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// NewUserService creates a new user service instance
func NewUserService(
	userRepo repository.UserRepository,
	authSvc AuthService,
	hasher passwordHasher,
	cache database.LeaderboardCache,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo: userRepo,
		authSvc:  authSvc,
		hasher:   hasher,
		cache:    cache,
		logger:   logger,
	}
}

// ==================== User Retrieval ====================

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	return user, notFound(err)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	return user, notFound(err)
}

func (s *userService) ListUsers(ctx context.Context, skip, limit int) (*Page, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	users, total, err := s.userRepo.List(ctx, skip, limit)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to list users", "error", err)
		return nil, err
	}

	return &Page{
		Items: users,
		Total: total,
		Page:  skip/limit + 1,
		Size:  limit,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// ==================== Administration ====================

func (s *userService) UpdateUser(ctx context.Context, username string, update UserUpdate) (*models.User, error) {
	s.logger.Info("✏️ [UserService] Updating user", "username", username)

	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	newUsername, newEmail := user.Username, user.Email
	if update.Username != nil {
		newUsername = strings.TrimSpace(*update.Username)
	}
	if update.Email != nil {
		newEmail = normalizeEmail(*update.Email)
	}

	if newUsername != user.Username {
		if exists, err := s.userRepo.UsernameExists(ctx, newUsername); err != nil {
			return nil, err
		} else if exists {
			return nil, ErrUsernameTaken
		}
	}
	if newEmail != user.Email {
		if _, err := s.userRepo.FindByEmail(ctx, newEmail); err == nil {
			return nil, ErrEmailAlreadyExists
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user.ID, newUsername, newEmail); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("❌ [UserService] Failed to update user", "user_id", user.ID, "error", err)
		return nil, notFound(err)
	}

	if newUsername != user.Username {
		s.invalidateLeaderboard(ctx)
	}

	s.logger.Info("✅ [UserService] User updated", "user_id", user.ID)
	return s.GetUser(ctx, user.ID)
}

func (s *userService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.DeleteAccount(ctx, user.ID)
}

// DeleteAccount removes the user together with its refresh tokens
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	s.logger.Info("🗑️ [UserService] Deleting account", "user_id", userID)

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error("❌ [UserService] Failed to delete account", "user_id", userID, "error", err)
		}
		return notFound(err)
	}

	s.invalidateLeaderboard(ctx)
	s.logger.Info("✅ [UserService] Account deleted", "user_id", userID)
	return nil
}

// SetActive toggles the active flag. Deactivation revokes every refresh token.
func (s *userService) SetActive(ctx context.Context, username string, active bool) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, user.ID, active); err != nil {
		return nil, notFound(err)
	}
	user.IsActive = active

	if !active {
		if err := s.authSvc.RevokeAllForUser(ctx, user.ID); err != nil {
			s.logger.Error("❌ [UserService] Failed to revoke tokens on deactivation", "user_id", user.ID, "error", err)
			return nil, err
		}
	}

	s.logger.Info("✅ [UserService] User active flag changed", "user_id", user.ID, "active", active)
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account unless the username is already present
func (s *userService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	existing, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			// Not promoted: the account may have been registered by anyone
			s.logger.Warn("⚠️ [UserService] Admin username held by a non-admin account", "username", username, "user_id", existing.ID)
			return nil
		}
		s.logger.Info("👑 [UserService] Admin account already present", "username", username)
		return nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:       username,
		Email:          normalizeEmail(email),
		HashedPassword: hashedPassword,
		IsActive:       true,
		IsAdmin:        true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailAlreadyExists
		}
		return err
	}

	s.logger.Info("👑 [UserService] Admin account created", "username", username, "user_id", admin.ID)
	return nil
}

// ==================== Points ====================

func (s *userService) AddPoints(ctx context.Context, username string, points int) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.AddPoints(ctx, user.ID, points)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to add points", "user_id", user.ID, "error", err)
		return nil, notFound(err)
	}

	s.invalidateLeaderboard(ctx)
	s.logger.Info("🏅 [UserService] Points added", "user_id", user.ID, "points", points, "total", updated.TotalPoints)
	return updated, nil
}

func (s *userService) ResetDailyPoints(ctx context.Context) (int64, error) {
	count, err := s.userRepo.ResetDailyPoints(ctx)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to reset daily points", "error", err)
		return 0, err
	}

	s.invalidateLeaderboard(ctx)
	s.logger.Info("🔁 [UserService] Daily points reset", "users", count)
	return count, nil
}

// Leaderboard returns non-admin users ranked by total points. Cache failures
// degrade to a database read.
func (s *userService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 || limit > MaxLeaderboardLimit {
		return nil, ErrInvalidLimit
	}

	if entries, ok, err := s.cache.GetLeaderboard(ctx, limit); err != nil {
		s.logger.Warn("⚠️ [UserService] Leaderboard cache read failed", "error", err)
	} else if ok {
		return entries, nil
	}

	users, err := s.userRepo.TopByPoints(ctx, limit)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to load leaderboard", "error", err)
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, models.LeaderboardEntry{
			Rank:        i + 1,
			Username:    user.Username,
			TotalPoints: user.TotalPoints,
			TodayPoints: user.TodayPoints,
			PhotoURL:    user.PhotoURL,
		})
	}

	if err := s.cache.SetLeaderboard(ctx, limit, entries); err != nil {
		s.logger.Warn("⚠️ [UserService] Leaderboard cache write failed", "error", err)
	}
	return entries, nil
}

func (s *userService) invalidateLeaderboard(ctx context.Context) {
	if err := s.cache.InvalidateLeaderboard(ctx); err != nil {
		s.logger.Warn("⚠️ [UserService] Leaderboard cache invalidation failed", "error", err)
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

// User service errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidLimit = errors.New("limit must be between 1 and 100")
)
