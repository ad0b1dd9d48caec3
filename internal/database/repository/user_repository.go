package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vetdict/backend-go/internal/database/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)
	UpdateProfile(ctx context.Context, id, username, email string) error
	UpdatePhotoURL(ctx context.Context, id, photoURL string) error
	LinkGoogleID(ctx context.Context, id, googleID string) error
	SetActive(ctx context.Context, id string, active bool) error
	AddPoints(ctx context.Context, id string, points int) (*models.User, error)
	ResetDailyPoints(ctx context.Context) (int64, error)
	TopByPoints(ctx context.Context, limit int) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, "google_id = ?", googleID)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id, username, email string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"username": username,
		"email":    email,
	})
}

func (r *userRepository) UpdatePhotoURL(ctx context.Context, id, photoURL string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"photo_url": photoURL})
}

func (r *userRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"google_id": googleID})
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *userRepository) updateColumns(ctx context.Context, id string, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddPoints increments both counters in a single statement and returns the
// refreshed row.
func (r *userRepository) AddPoints(ctx context.Context, id string, points int) (*models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", points),
			"today_points": gorm.Expr("today_points + ?", points),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) ResetDailyPoints(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("today_points <> ?", 0).
		Update("today_points", 0)
	return result.RowsAffected, result.Error
}

// TopByPoints returns non-admin users ordered by total points
func (r *userRepository) TopByPoints(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("is_admin = ?", false).
		Order("total_points DESC").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Delete removes the user and every refresh token it owns
func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Repository errors
var (
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("unique constraint violated")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
