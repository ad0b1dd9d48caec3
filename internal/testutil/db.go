package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vetdict/backend-go/internal/database"
	"github.com/vetdict/backend-go/internal/database/models"
)

// NewTestDB opens a private in-memory SQLite database with the schema migrated
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// SeedUser inserts a user directly, bypassing services. Zero-value booleans
// are written as given.
func SeedUser(t *testing.T, db *gorm.DB, user *models.User) *models.User {
	t.Helper()

	if user.HashedPassword == "" {
		user.HashedPassword = "not-a-real-hash"
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
