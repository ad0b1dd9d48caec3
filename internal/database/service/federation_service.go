package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/repository"
)

const (
	maxUsernamePrefix    = 40
	usernameSuffixLength = 6
	maxProvisionAttempts = 5
)

// FederationService maps verified external identities onto local accounts
type FederationService interface {
	// FederatedLogin resolves or provisions the account and issues an access token only
	FederatedLogin(ctx context.Context, providerToken string) (*models.User, *TokenPair, error)
	// FederatedRegister provisions a new account and rejects emails already known
	FederatedRegister(ctx context.Context, providerToken string) (*models.User, error)
}

type federationService struct {
	userRepo repository.UserRepository
	verifier auth.IdentityVerifier
	hasher   *auth.PasswordHasher
	authSvc  AuthService
	logger   *slog.Logger
	security *slog.Logger
}

// NewFederationService creates a new federation service instance
func NewFederationService(
	userRepo repository.UserRepository,
	verifier auth.IdentityVerifier,
	hasher *auth.PasswordHasher,
	authSvc AuthService,
	logger *slog.Logger,
	security *slog.Logger,
) FederationService {
	return &federationService{
		userRepo: userRepo,
		verifier: verifier,
		hasher:   hasher,
		authSvc:  authSvc,
		logger:   logger,
		security: security,
	}
}

func (s *federationService) FederatedLogin(ctx context.Context, providerToken string) (*models.User, *TokenPair, error) {
	identity, err := s.verify(ctx, providerToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.findLinkedAccount(ctx, identity)
	switch {
	case err == nil:
		if err := s.syncIdentity(ctx, user, identity); err != nil {
			return nil, nil, err
		}
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.provisionWithSuffix(ctx, identity)
		if err != nil {
			return nil, nil, err
		}
	default:
		s.logger.Error("❌ [FederationService] Database error", "error", err)
		return nil, nil, err
	}

	if !user.IsActive {
		s.logger.Warn("⚠️ [FederationService] Inactive user attempted Google login", "user_id", user.ID)
		return nil, nil, ErrInactiveUser
	}

	tokens, err := s.authSvc.IssueAccessToken(user)
	if err != nil {
		s.logger.Error("❌ [FederationService] Failed to issue access token", "error", err)
		return nil, nil, err
	}

	s.logger.Info("✅ [FederationService] Google login successful", "user_id", user.ID)
	return user, tokens, nil
}

func (s *federationService) FederatedRegister(ctx context.Context, providerToken string) (*models.User, error) {
	identity, err := s.verify(ctx, providerToken)
	if err != nil {
		return nil, err
	}

	_, err = s.findLinkedAccount(ctx, identity)
	if err == nil {
		s.logger.Warn("⚠️ [FederationService] Google registration for existing account", "email", identity.Email)
		return nil, ErrAccountAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user, err := s.provisionWithCounter(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("✅ [FederationService] Google registration successful", "user_id", user.ID)
	return user, nil
}

func (s *federationService) verify(ctx context.Context, providerToken string) (*auth.ExternalIdentity, error) {
	identity, err := s.verifier.Verify(ctx, providerToken)
	if err != nil {
		if errors.Is(err, auth.ErrProviderNotConfigured) {
			s.logger.Error("❌ [FederationService] Google sign-in is not configured")
			return nil, auth.ErrProviderNotConfigured
		}
		s.security.Warn("🚨 [Security] Invalid Google ID token", "error", err)
		return nil, auth.ErrInvalidExternalToken
	}
	return identity, nil
}

// findLinkedAccount resolves the provider subject first, then the email. A linked
// subject wins even when the provider reports a different email than the one stored.
func (s *federationService) findLinkedAccount(ctx context.Context, identity *auth.ExternalIdentity) (*models.User, error) {
	user, err := s.userRepo.FindByGoogleID(ctx, identity.SubjectID)
	if err == nil {
		if user.Email != identity.Email {
			s.logger.Info("🔗 [FederationService] Google email differs from stored email", "user_id", user.ID)
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [FederationService] Database error", "error", err)
		return nil, err
	}
	return s.userRepo.FindByEmail(ctx, identity.Email)
}

// syncIdentity refreshes the stored avatar and links the provider id on first sight
func (s *federationService) syncIdentity(ctx context.Context, user *models.User, identity *auth.ExternalIdentity) error {
	if identity.Picture != "" && !user.PhotoMatches(identity.Picture) {
		if err := s.userRepo.UpdatePhotoURL(ctx, user.ID, identity.Picture); err != nil {
			return fmt.Errorf("update photo: %w", err)
		}
		picture := identity.Picture
		user.PhotoURL = &picture
	}

	if user.GoogleID == nil {
		if err := s.userRepo.LinkGoogleID(ctx, user.ID, identity.SubjectID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Subject already linked to a different account; keep logging in by email
				s.security.Warn("🚨 [Security] Google subject already linked elsewhere", "user_id", user.ID)
				return nil
			}
			return fmt.Errorf("link google id: %w", err)
		}
		subject := identity.SubjectID
		user.GoogleID = &subject
	}
	return nil
}

// provisionWithSuffix creates the account as <local-part>_<random hex>
func (s *federationService) provisionWithSuffix(ctx context.Context, identity *auth.ExternalIdentity) (*models.User, error) {
	prefix := usernamePrefix(identity.Email)

	for attempt := 0; attempt < maxProvisionAttempts; attempt++ {
		suffix, err := auth.RandomSuffix(usernameSuffixLength)
		if err != nil {
			return nil, err
		}

		user, err := s.createFederatedUser(ctx, prefix+"_"+suffix, identity)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		if existing, lookupErr := s.findLinkedAccount(ctx, identity); lookupErr == nil {
			// A concurrent login provisioned the same identity first
			return existing, nil
		}
	}
	return nil, fmt.Errorf("provision google user: %w", repository.ErrDuplicate)
}

// provisionWithCounter creates the account as <local-part>, <local-part>1, <local-part>2...
func (s *federationService) provisionWithCounter(ctx context.Context, identity *auth.ExternalIdentity) (*models.User, error) {
	prefix := usernamePrefix(identity.Email)
	counter := 0

	for attempt := 0; attempt < maxProvisionAttempts; attempt++ {
		username, next, err := s.nextFreeUsername(ctx, prefix, counter)
		if err != nil {
			return nil, err
		}

		user, err := s.createFederatedUser(ctx, username, identity)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		if _, lookupErr := s.findLinkedAccount(ctx, identity); lookupErr == nil {
			return nil, ErrAccountAlreadyExists
		}
		counter = next
	}
	return nil, fmt.Errorf("provision google user: %w", repository.ErrDuplicate)
}

func (s *federationService) nextFreeUsername(ctx context.Context, prefix string, counter int) (string, int, error) {
	for {
		candidate := prefix
		if counter > 0 {
			candidate = prefix + strconv.Itoa(counter)
		}
		exists, err := s.userRepo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", 0, err
		}
		counter++
		if !exists {
			return candidate, counter, nil
		}
	}
}

func (s *federationService) createFederatedUser(ctx context.Context, username string, identity *auth.ExternalIdentity) (*models.User, error) {
	// Federated accounts never log in with a password; store a hash of one nobody knows
	password, err := auth.NewRandomPassword()
	if err != nil {
		return nil, err
	}
	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	subject := identity.SubjectID
	user := &models.User{
		Username:       username,
		Email:          identity.Email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		GoogleID:       &subject,
	}
	if identity.Picture != "" {
		picture := identity.Picture
		user.PhotoURL = &picture
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("👤 [FederationService] Provisioned Google user", "user_id", user.ID, "username", username)
	return user, nil
}

// usernamePrefix derives a username stem from the email local-part
func usernamePrefix(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	prefix := b.String()
	if prefix == "" {
		prefix = "user"
	}
	if len(prefix) > maxUsernamePrefix {
		prefix = prefix[:maxUsernamePrefix]
	}
	return prefix
}

// Federation errors
var (
	ErrAccountAlreadyExists = errors.New("account already exists, please log in")
)
