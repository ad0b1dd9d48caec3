package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vetdict/backend-go/internal/auth"
	"github.com/vetdict/backend-go/internal/config"
	"github.com/vetdict/backend-go/internal/database/models"
	"github.com/vetdict/backend-go/internal/database/repository"
)

// RefreshTokenStore issues, verifies and revokes opaque refresh tokens
type RefreshTokenStore struct {
	repo     repository.RefreshTokenRepository
	ttl      time.Duration
	logger   *slog.Logger
	security *slog.Logger
	now      func() time.Time
}

// NewRefreshTokenStore creates a store whose tokens live for the configured number of days
func NewRefreshTokenStore(
	repo repository.RefreshTokenRepository,
	cfg *config.Config,
	logger *slog.Logger,
	security *slog.Logger,
) *RefreshTokenStore {
	return &RefreshTokenStore{
		repo:     repo,
		ttl:      cfg.RefreshTokenTTL(),
		logger:   logger,
		security: security,
		now:      time.Now,
	}
}

// Issue persists a new token for userID and returns the raw value
func (s *RefreshTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	raw, err := auth.NewRefreshToken()
	if err != nil {
		return "", err
	}

	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: auth.HashRefreshToken(raw),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return "", err
	}

	s.logger.Info("🎟️ [RefreshTokenStore] Created refresh token", "user_id", userID)
	return raw, nil
}

// Verify resolves a raw token to its owner. Unknown, revoked and expired
// tokens yield ErrInvalidRefreshToken and a security event.
func (s *RefreshTokenStore) Verify(ctx context.Context, raw string) (*models.User, error) {
	hash := auth.HashRefreshToken(raw)

	stored, err := s.repo.FindActive(ctx, hash, s.now())
	switch {
	case errors.Is(err, repository.ErrTokenNotFound):
		s.security.Warn("🚨 [Security] Invalid refresh token used", "token_hash_prefix", hash[:10])
		return nil, ErrInvalidRefreshToken
	case errors.Is(err, repository.ErrTokenExpired):
		var userID string
		if stored != nil {
			userID = stored.UserID
		}
		s.security.Warn("🚨 [Security] Expired refresh token used", "user_id", userID)
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, err
	}

	s.logger.Debug("✅ [RefreshTokenStore] Refresh token verified", "user_id", stored.UserID)
	return &stored.User, nil
}

// Revoke marks the token revoked. Unknown tokens are ignored.
func (s *RefreshTokenStore) Revoke(ctx context.Context, raw string) error {
	revoked, err := s.repo.Revoke(ctx, auth.HashRefreshToken(raw))
	if err != nil {
		return err
	}
	if revoked {
		s.logger.Info("🔒 [RefreshTokenStore] Revoked refresh token")
	}
	return nil
}

// Consume revokes the token and fails if another caller already did
func (s *RefreshTokenStore) Consume(ctx context.Context, raw string) error {
	revoked, err := s.repo.Revoke(ctx, auth.HashRefreshToken(raw))
	if err != nil {
		return err
	}
	if !revoked {
		s.security.Warn("🚨 [Security] Refresh token replayed during rotation")
		return ErrInvalidRefreshToken
	}
	return nil
}

// RevokeAllForUser revokes every live token owned by userID
func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	count, err := s.repo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("🔒 [RefreshTokenStore] Revoked all tokens for user", "user_id", userID, "count", count)
	return nil
}
