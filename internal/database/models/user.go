package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the user domain entity
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"column:hashed_password;type:varchar(255);not null" json:"-"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	IsAdmin        bool      `gorm:"not null" json:"is_admin"`
	TotalPoints    int       `gorm:"not null" json:"total_points"`
	TodayPoints    int       `gorm:"not null" json:"today_points"`
	PhotoURL       *string   `gorm:"type:varchar(1000)" json:"photo_url"`
	GoogleID       *string   `gorm:"type:varchar(255);uniqueIndex" json:"google_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an opaque identifier when none was set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PhotoMatches reports whether url equals the stored photo URL.
func (u *User) PhotoMatches(url string) bool {
	if u.PhotoURL == nil {
		return url == ""
	}
	return *u.PhotoURL == url
}
