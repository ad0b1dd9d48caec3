package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/config"
	"github.com/vetdict/backend-go/internal/database/models"
)

// TestConfig returns a configuration with cheap hashing and fixed secrets
func TestConfig() *config.Config {
	return &config.Config{
		AppEnv:                   "test",
		JWTSecret:                "test-secret",
		JWTAlgorithm:             "HS256",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
		BcryptCost:               4,
		GoogleClientID:           "test-client-id.apps.googleusercontent.com",
		LeaderboardCacheTTL:      60,
		ShutdownTimeout:          1,
	}
}

// ==================== MOCK USER REPOSITORY ====================

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	args := m.Called(ctx, googleID)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, username, email string) error {
	return m.Called(ctx, id, username, email).Error(0)
}

func (m *MockUserRepository) UpdatePhotoURL(ctx context.Context, id, photoURL string) error {
	return m.Called(ctx, id, photoURL).Error(0)
}

func (m *MockUserRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	return m.Called(ctx, id, googleID).Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockUserRepository) AddPoints(ctx context.Context, id string, points int) (*models.User, error) {
	args := m.Called(ctx, id, points)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) ResetDailyPoints(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) TopByPoints(ctx context.Context, limit int) ([]models.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func userOrNil(v interface{}) *models.User {
	if v == nil {
		return nil
	}
	return v.(*models.User)
}

// ==================== MOCK REFRESH TOKEN REPOSITORY ====================

// MockRefreshTokenRepository implements repository.RefreshTokenRepository for testing
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockRefreshTokenRepository) FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	args := m.Called(ctx, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// ==================== MOCK IDENTITY VERIFIER ====================

// MockIdentityVerifier implements auth.IdentityVerifier for testing
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.ExternalIdentity), args.Error(1)
}

// StaticIdentityVerifier maps raw tokens to fixed identities. Unknown tokens are invalid.
type StaticIdentityVerifier map[string]*auth.ExternalIdentity

func (v StaticIdentityVerifier) Verify(_ context.Context, rawToken string) (*auth.ExternalIdentity, error) {
	identity, ok := v[rawToken]
	if !ok {
		return nil, auth.ErrInvalidExternalToken
	}
	copied := *identity
	return &copied, nil
}
