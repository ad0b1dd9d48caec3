package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/config"
	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/repository"
	"github.com/vetdict/backend-go/internal/logger"
	"github.com/vetdict/backend-go/internal/testutil"
)

type authFixture struct {
	cfg     *config.Config
	db      *gorm.DB
	users   repository.UserRepository
	tokens  repository.RefreshTokenRepository
	hasher  *auth.PasswordHasher
	issuer  *auth.TokenIssuer
	store   *RefreshTokenStore
	authSvc AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := testutil.TestConfig()
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)
	hasher := auth.NewPasswordHasher(int(cfg.BcryptCost), logger.Discard())

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL())
	require.NoError(t, err)

	store := NewRefreshTokenStore(tokens, cfg, logger.Discard(), logger.Discard())
	authSvc, err := NewAuthService(users, store, hasher, issuer, logger.Discard(), logger.Discard())
	require.NoError(t, err)

	return &authFixture{
		cfg:     cfg,
		db:      db,
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		issuer:  issuer,
		store:   store,
		authSvc: authSvc,
	}
}

// seedWithPassword inserts a user whose password is known
func (f *authFixture) seedWithPassword(t *testing.T, user *models.User, password string) *models.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	user.HashedPassword = hash
	return testutil.SeedUser(t, f.db, user)
}

func TestAuthService_RegisterLoginLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.authSvc.Register(ctx, "alice", "alice@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsAdmin)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "pw123456", user.HashedPassword)

	_, err = f.authSvc.Register(ctx, "alice", "alice2@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	loggedIn, tokens, err := f.authSvc.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, int64(30*60), tokens.ExpiresIn)

	current, err := f.authSvc.CurrentUser(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	require.NoError(t, f.authSvc.Logout(ctx, tokens.RefreshToken))

	_, err = f.authSvc.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.authSvc.Register(ctx, "bob", "Bob@X.com", "pw123456")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{name: "same username", username: "bob", email: "other@x.com", wantErr: ErrUsernameTaken},
		{name: "same email", username: "bobby", email: "bob@x.com", wantErr: ErrEmailAlreadyExists},
		{name: "same email different case", username: "bobby", email: "  BOB@x.com ", wantErr: ErrEmailAlreadyExists},
		{name: "both taken reports username", username: "bob", email: "bob@x.com", wantErr: ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.authSvc.Register(ctx, tt.username, tt.email, "pw123456")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_RegisterRejectsLongPassword(t *testing.T) {
	f := newAuthFixture(t)

	long := make([]byte, auth.MaxPasswordBytes+1)
	for i := range long {
		long[i] = 'p'
	}
	_, err := f.authSvc.Register(context.Background(), "carol", "carol@x.com", string(long))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.seedWithPassword(t, &models.User{Username: "active", Email: "active@x.com", IsActive: true}, "pw123456")
	f.seedWithPassword(t, &models.User{Username: "dormant", Email: "dormant@x.com", IsActive: false}, "pw123456")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "wrong password", username: "active", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "ghost", password: "pw123456", wantErr: ErrInvalidCredentials},
		{name: "inactive user", username: "dormant", password: "pw123456", wantErr: ErrInactiveUser},
		{name: "inactive user wrong password", username: "dormant", password: "nope", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := f.authSvc.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, user)
			assert.Nil(t, tokens)
		})
	}
}

func TestAuthService_RefreshRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	seeded := f.seedWithPassword(t, &models.User{Username: "dave", Email: "dave@x.com", IsActive: true}, "pw123456")

	_, first, err := f.authSvc.Login(ctx, "dave", "pw123456")
	require.NoError(t, err)

	second, err := f.authSvc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	current, err := f.authSvc.CurrentUser(ctx, second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, current.ID)

	// The presented token is consumed by rotation
	_, err = f.authSvc.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.authSvc.RefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_RefreshRejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := f.seedWithPassword(t, &models.User{Username: "erin", Email: "erin@x.com", IsActive: true}, "pw123456")

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.authSvc.RefreshToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("expired token", func(t *testing.T) {
		_, tokens, err := f.authSvc.Login(ctx, "erin", "pw123456")
		require.NoError(t, err)

		f.store.now = func() time.Time { return time.Now().Add(f.cfg.RefreshTokenTTL() + time.Minute) }
		defer func() { f.store.now = time.Now }()

		_, err = f.authSvc.RefreshToken(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("revoked for user", func(t *testing.T) {
		_, tokens, err := f.authSvc.Login(ctx, "erin", "pw123456")
		require.NoError(t, err)

		require.NoError(t, f.authSvc.RevokeAllForUser(ctx, user.ID))

		_, err = f.authSvc.RefreshToken(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("owner deactivated", func(t *testing.T) {
		_, tokens, err := f.authSvc.Login(ctx, "erin", "pw123456")
		require.NoError(t, err)

		require.NoError(t, f.users.SetActive(ctx, user.ID, false))
		defer func() { require.NoError(t, f.users.SetActive(ctx, user.ID, true)) }()

		_, err = f.authSvc.RefreshToken(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.seedWithPassword(t, &models.User{Username: "fay", Email: "fay@x.com", IsActive: true}, "pw123456")
	_, tokens, err := f.authSvc.Login(ctx, "fay", "pw123456")
	require.NoError(t, err)

	assert.NoError(t, f.authSvc.Logout(ctx, tokens.RefreshToken))
	assert.NoError(t, f.authSvc.Logout(ctx, tokens.RefreshToken))
	assert.NoError(t, f.authSvc.Logout(ctx, "never-issued"))
}

func TestAuthService_CurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	active := testutil.SeedUser(t, f.db, &models.User{Username: "gina", Email: "gina@x.com", IsActive: true})
	testutil.SeedUser(t, f.db, &models.User{Username: "hank", Email: "hank@x.com", IsActive: false})

	valid, err := f.issuer.Issue("gina")
	require.NoError(t, err)
	inactive, err := f.issuer.Issue("hank")
	require.NoError(t, err)
	orphan, err := f.issuer.Issue("deleted-user")
	require.NoError(t, err)
	expired, err := f.issuer.IssueWithTTL("gina", -time.Minute)
	require.NoError(t, err)

	otherIssuer, err := auth.NewTokenIssuer("another-secret", "HS256", time.Hour)
	require.NoError(t, err)
	forged, err := otherIssuer.Issue("gina")
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr error
	}{
		{name: "valid", token: valid, wantID: active.ID},
		{name: "inactive user", token: inactive, wantErr: ErrInactiveUser},
		{name: "subject no longer exists", token: orphan, wantErr: ErrUnauthorized},
		{name: "expired", token: expired, wantErr: ErrUnauthorized},
		{name: "wrong signature", token: forged, wantErr: ErrUnauthorized},
		{name: "garbage", token: "abc.def.ghi", wantErr: ErrUnauthorized},
		{name: "empty", token: "", wantErr: ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.authSvc.CurrentUser(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestAuthService_AuthorizeAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	testutil.SeedUser(t, f.db, &models.User{Username: "member", Email: "member@x.com", IsActive: true})
	admin := testutil.SeedUser(t, f.db, &models.User{Username: "root", Email: "root@x.com", IsActive: true, IsAdmin: true})

	memberToken, err := f.issuer.Issue("member")
	require.NoError(t, err)
	adminToken, err := f.issuer.Issue("root")
	require.NoError(t, err)

	_, err = f.authSvc.AuthorizeAdmin(ctx, memberToken)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	_, err = f.authSvc.AuthorizeAdmin(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrForbidden)

	user, err := f.authSvc.AuthorizeAdmin(ctx, adminToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
}

func newMockedAuthService(t *testing.T) (AuthService, *testutil.MockUserRepository, *testutil.MockRefreshTokenRepository) {
	t.Helper()

	cfg := testutil.TestConfig()
	users := new(testutil.MockUserRepository)
	tokens := new(testutil.MockRefreshTokenRepository)
	hasher := auth.NewPasswordHasher(int(cfg.BcryptCost), logger.Discard())
	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL())
	require.NoError(t, err)

	store := NewRefreshTokenStore(tokens, cfg, logger.Discard(), logger.Discard())
	svc, err := NewAuthService(users, store, hasher, issuer, logger.Discard(), logger.Discard())
	require.NoError(t, err)
	return svc, users, tokens
}

func TestAuthService_RegisterLosesInsertRace(t *testing.T) {
	svc, users, _ := newMockedAuthService(t)
	ctx := context.Background()

	users.On("FindByUsername", ctx, "racer").Return(nil, repository.ErrUserNotFound)
	users.On("FindByEmail", ctx, "racer@x.com").Return(nil, repository.ErrUserNotFound)
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicate)
	users.On("UsernameExists", ctx, "racer").Return(true, nil)

	_, err := svc.Register(ctx, "racer", "racer@x.com", "pw123456")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	users.AssertExpectations(t)
}

func TestAuthService_RefreshReplayDuringRotation(t *testing.T) {
	svc, _, tokens := newMockedAuthService(t)
	ctx := context.Background()

	raw := "raced-refresh-token"
	hash := auth.HashRefreshToken(raw)
	stored := &models.RefreshToken{
		UserID:    "u-1",
		TokenHash: hash,
		ExpiresAt: time.Now().Add(time.Hour),
		User:      models.User{ID: "u-1", Username: "racer", IsActive: true},
	}

	tokens.On("FindActive", ctx, hash, mock.AnythingOfType("time.Time")).Return(stored, nil)
	// Another request revoked it between lookup and rotation
	tokens.On("Revoke", ctx, hash).Return(false, nil)

	_, err := svc.RefreshToken(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RefreshStorageFailure(t *testing.T) {
	svc, _, tokens := newMockedAuthService(t)
	ctx := context.Background()

	boom := assert.AnError
	tokens.On("FindActive", ctx, mock.Anything, mock.Anything).Return(nil, boom)

	_, err := svc.RefreshToken(ctx, "whatever")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
