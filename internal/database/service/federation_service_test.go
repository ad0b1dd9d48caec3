package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/repository"
	"github.com/vetdict/backend-go/internal/logger"
	"github.com/vetdict/backend-go/internal/testutil"
)

func googleIdentities() testutil.StaticIdentityVerifier {
	return testutil.StaticIdentityVerifier{
		"new-student": {
			SubjectID: "google-sub-1",
			Email:     "vet.student@gmail.com",
			Name:      "Vet Student",
			Picture:   "https://lh3.googleusercontent.com/a/new.png",
		},
		"same-local-part": {
			SubjectID: "google-sub-2",
			Email:     "vet.student@outlook.com",
		},
		"existing": {
			SubjectID: "google-sub-3",
			Email:     "ivy@x.com",
			Picture:   "https://lh3.googleusercontent.com/a/ivy-new.png",
		},
		"dormant": {
			SubjectID: "google-sub-4",
			Email:     "dormant@x.com",
		},
		"new-student-renamed": {
			SubjectID: "google-sub-1",
			Email:     "vet.graduate@gmail.com",
		},
	}
}

func newFederationFixture(t *testing.T, verifier auth.IdentityVerifier) (*authFixture, FederationService) {
	t.Helper()

	f := newAuthFixture(t)
	svc := NewFederationService(f.users, verifier, f.hasher, f.authSvc, logger.Discard(), logger.Discard())
	return f, svc
}

func TestFederatedLogin_ProvisionsNewUser(t *testing.T) {
	f, svc := newFederationFixture(t, googleIdentities())
	ctx := context.Background()

	user, tokens, err := svc.FederatedLogin(ctx, "new-student")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(user.Username, "vet.student_"), user.Username)
	assert.Len(t, user.Username, len("vet.student_")+usernameSuffixLength)
	assert.Equal(t, "vet.student@gmail.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "google-sub-1", *user.GoogleID)
	assert.True(t, user.PhotoMatches("https://lh3.googleusercontent.com/a/new.png"))
	assert.NotEmpty(t, user.HashedPassword)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.Empty(t, tokens.RefreshToken, "federated login issues an access token only")

	current, err := f.authSvc.CurrentUser(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	// Second login resolves the same account
	again, _, err := svc.FederatedLogin(ctx, "new-student")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestFederatedLogin_SyncsExistingUser(t *testing.T) {
	f, svc := newFederationFixture(t, googleIdentities())
	ctx := context.Background()

	oldPhoto := "https://example.com/old.png"
	existing := testutil.SeedUser(t, f.db, &models.User{
		Username: "ivy",
		Email:    "ivy@x.com",
		IsActive: true,
		PhotoURL: &oldPhoto,
	})

	user, tokens, err := svc.FederatedLogin(ctx, "existing")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	stored, err := f.users.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "ivy", stored.Username)
	assert.True(t, stored.PhotoMatches("https://lh3.googleusercontent.com/a/ivy-new.png"))
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "google-sub-3", *stored.GoogleID)
}

func TestFederatedLogin_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid provider token", func(t *testing.T) {
		_, svc := newFederationFixture(t, googleIdentities())
		_, _, err := svc.FederatedLogin(ctx, "forged")
		assert.ErrorIs(t, err, auth.ErrInvalidExternalToken)
	})

	t.Run("provider not configured", func(t *testing.T) {
		_, svc := newFederationFixture(t, auth.NewGoogleVerifier(""))
		_, _, err := svc.FederatedLogin(ctx, "anything")
		assert.ErrorIs(t, err, auth.ErrProviderNotConfigured)
		assert.NotErrorIs(t, err, auth.ErrInvalidExternalToken)
	})

	t.Run("inactive account", func(t *testing.T) {
		f, svc := newFederationFixture(t, googleIdentities())
		testutil.SeedUser(t, f.db, &models.User{Username: "dormant", Email: "dormant@x.com", IsActive: false})

		_, tokens, err := svc.FederatedLogin(ctx, "dormant")
		assert.ErrorIs(t, err, ErrInactiveUser)
		assert.Nil(t, tokens)
	})
}

func TestFederatedLogin_LinkedSubjectWithNewEmail(t *testing.T) {
	f, svc := newFederationFixture(t, googleIdentities())
	ctx := context.Background()

	original, _, err := svc.FederatedLogin(ctx, "new-student")
	require.NoError(t, err)

	user, tokens, err := svc.FederatedLogin(ctx, "new-student-renamed")
	require.NoError(t, err)
	assert.Equal(t, original.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = svc.FederatedRegister(ctx, "new-student-renamed")
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)

	_, total, err := f.users.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestFederatedRegister(t *testing.T) {
	f, svc := newFederationFixture(t, googleIdentities())
	ctx := context.Background()

	first, err := svc.FederatedRegister(ctx, "new-student")
	require.NoError(t, err)
	assert.Equal(t, "vet.student", first.Username)
	assert.False(t, first.IsAdmin)

	second, err := svc.FederatedRegister(ctx, "same-local-part")
	require.NoError(t, err)
	assert.Equal(t, "vet.student1", second.Username)
	assert.Nil(t, second.PhotoURL)

	_, err = svc.FederatedRegister(ctx, "new-student")
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)

	testutil.SeedUser(t, f.db, &models.User{Username: "ivy-local", Email: "ivy@x.com", IsActive: true})
	_, err = svc.FederatedRegister(ctx, "existing")
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)

	_, err = svc.FederatedRegister(ctx, "forged")
	assert.ErrorIs(t, err, auth.ErrInvalidExternalToken)
}

func TestFederatedLogin_RetriesUsernameCollision(t *testing.T) {
	cfg := testutil.TestConfig()
	users := new(testutil.MockUserRepository)
	verifier := new(testutil.MockIdentityVerifier)
	hasher := auth.NewPasswordHasher(int(cfg.BcryptCost), logger.Discard())
	authSvc, _, _ := newMockedAuthService(t)
	svc := NewFederationService(users, verifier, hasher, authSvc, logger.Discard(), logger.Discard())
	ctx := context.Background()

	verifier.On("Verify", ctx, "token").Return(&auth.ExternalIdentity{SubjectID: "s", Email: "zed@x.com"}, nil)
	users.On("FindByGoogleID", ctx, "s").Return(nil, repository.ErrUserNotFound)
	users.On("FindByEmail", ctx, "zed@x.com").Return(nil, repository.ErrUserNotFound)
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicate).Once()
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, tokens, err := svc.FederatedLogin(ctx, "token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.Username, "zed_"))
	assert.NotEmpty(t, tokens.AccessToken)
	users.AssertNumberOfCalls(t, "Create", 2)
}

func TestUsernamePrefix(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "vet.student@gmail.com", want: "vet.student"},
		{email: "John+Tag@x.com", want: "johntag"},
		{email: "under_score-dash@x.com", want: "under_score-dash"},
		{email: "+++@x.com", want: "user"},
		{email: strings.Repeat("a", 60) + "@x.com", want: strings.Repeat("a", maxUsernamePrefix)},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, usernamePrefix(tt.email))
		})
	}
}
