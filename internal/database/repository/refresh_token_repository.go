package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vetdict/backend-go/internal/database/models"
)

// RefreshTokenRepository defines the interface for refresh token operations.
// Tokens are addressed by the SHA-256 digest of their raw value.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// FindActive returns the non-revoked token with its owner preloaded.
	// ErrTokenNotFound when absent or revoked, ErrTokenExpired when past expiry.
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository instance
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *refreshTokenRepository) FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Preload("User").
		First(&refreshToken).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if refreshToken.IsExpired(now) {
		return &refreshToken, ErrTokenExpired
	}

	return &refreshToken, nil
}

// Revoke flags the token as revoked and reports whether a live row matched.
func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Update("revoked", true)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return result.RowsAffected, result.Error
}

// Repository errors
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")
)
