package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	// IssueAccessToken mints an access token for an already authenticated user
	IssueAccessToken(user *models.User) (*TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	AuthorizeAdmin(ctx context.Context, accessToken string) (*models.User, error)
}

// TokenPair represents access and refresh tokens. RefreshToken is empty
// when only an access token was issued.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

type authService struct {
	userRepo  repository.UserRepository
	refresh   *RefreshTokenStore
	hasher    *auth.PasswordHasher
	issuer    *auth.TokenIssuer
	logger    *slog.Logger
	security  *slog.Logger
	dummyHash string
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	refresh *RefreshTokenStore,
	hasher *auth.PasswordHasher,
	issuer *auth.TokenIssuer,
	logger *slog.Logger,
	security *slog.Logger,
) (AuthService, error) {
	// Compared against when the username is unknown so both failure paths cost one bcrypt run
	dummyHash, err := hasher.Hash("vetdict-timing-equalizer")
	if err != nil {
		return nil, err
	}

	return &authService{
		userRepo:  userRepo,
		refresh:   refresh,
		hasher:    hasher,
		issuer:    issuer,
		logger:    logger,
		security:  security,
		dummyHash: dummyHash,
	}, nil
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	s.logger.Info("📝 [AuthService] Registration attempt", "email", email, "username", username)

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent registration; the unique index decided
			s.logger.Warn("⚠️ [AuthService] Registration rejected by unique index", "username", username)
			return nil, s.classifyConflict(ctx, username)
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [AuthService] User registered successfully", "user_id", user.ID)
	return user, nil
}

func (s *authService) ensureAvailable(ctx context.Context, username, email string) error {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		s.logger.Warn("⚠️ [AuthService] Username already taken", "username", username)
		return ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error checking username", "error", err)
		return err
	}

	_, err = s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
		return ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error checking email", "error", err)
		return err
	}
	return nil
}

func (s *authService) classifyConflict(ctx context.Context, username string) error {
	if exists, err := s.userRepo.UsernameExists(ctx, username); err == nil && exists {
		return ErrUsernameTaken
	}
	return ErrEmailAlreadyExists
}

func (s *authService) Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	s.logger.Info("🔐 [AuthService] Login attempt", "username", username)

	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.logger.Warn("⚠️ [AuthService] Unknown username", "username", username)
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, nil, err
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "username", username)
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("⚠️ [AuthService] Inactive user attempted login", "user_id", user.ID)
		return nil, nil, ErrInactiveUser
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to generate tokens", "error", err)
		return nil, nil, err
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return user, tokens, nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented
// token is revoked so each refresh token is single use.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	s.logger.Info("🔄 [AuthService] Token refresh attempt")

	user, err := s.refresh.Verify(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Failed to verify refresh token", "error", err)
		return nil, err
	}

	if !user.IsActive {
		s.logger.Warn("⚠️ [AuthService] Inactive user attempted refresh", "user_id", user.ID)
		return nil, ErrInactiveUser
	}

	// Revoke first so a concurrent replay of the same token cannot also succeed
	if err := s.refresh.Consume(ctx, refreshToken); err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("❌ [AuthService] Failed to revoke old token", "error", err)
		return nil, err
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to generate new tokens", "error", err)
		return nil, err
	}

	s.logger.Info("✅ [AuthService] Token refreshed successfully", "user_id", user.ID)
	return tokens, nil
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	s.logger.Info("👋 [AuthService] Logout attempt")

	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		s.logger.Error("❌ [AuthService] Failed to revoke token", "error", err)
		return err
	}

	s.logger.Info("✅ [AuthService] User logged out successfully")
	return nil
}

func (s *authService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.refresh.RevokeAllForUser(ctx, userID)
}

func (s *authService) IssueAccessToken(user *models.User) (*TokenPair, error) {
	accessToken, err := s.issuer.Issue(user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.issuer.TTL().Seconds()),
	}, nil
}

// CurrentUser is the authorization gate: it verifies the access token and
// loads the user it names. It never writes.
func (s *authService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	username, err := s.issuer.Verify(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Warn("⚠️ [AuthService] Token subject no longer exists", "username", username)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load current user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return user, nil
}

func (s *authService) AuthorizeAdmin(ctx context.Context, accessToken string) (*models.User, error) {
	user, err := s.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		s.security.Warn("🚨 [Security] Non-admin attempted admin access", "user_id", user.ID, "username", user.Username)
		return nil, ErrForbidden
	}
	return user, nil
}

// generateTokenPair creates both access and refresh tokens
func (s *authService) generateTokenPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	tokens, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	tokens.RefreshToken = refreshToken

	return tokens, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Service errors
var (
	ErrUsernameTaken       = errors.New("username already registered")
	ErrEmailAlreadyExists  = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("incorrect username or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInactiveUser        = errors.New("inactive user")
	ErrUnauthorized        = errors.New("could not validate credentials")
	ErrForbidden           = errors.New("not enough permissions")
)
