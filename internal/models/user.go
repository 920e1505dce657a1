// Package models contains data structures for the application's domain models.
package models

import "time"

const (
	// DefaultImageURL is used when a user signs up without a profile image.
	DefaultImageURL = "/static/images/default-pic.png"
	// DefaultHeaderImageURL is shown on profiles without a header image.
	DefaultHeaderImageURL = "/static/images/warbler-hero.png"
)

// User represents a Warbler account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	ImageURL       string    `gorm:"type:varchar(255);not null;default:'/static/images/default-pic.png'" json:"image_url"`
	HeaderImageURL string    `gorm:"type:varchar(255);not null;default:'/static/images/warbler-hero.png'" json:"header_image_url"`
	Location       string    `gorm:"type:varchar(30)" json:"location"`
	Bio            string    `gorm:"type:text" json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// UserStats holds the relationship counters shown on profile pages.
type UserStats struct {
	Messages  int64 `json:"messages"`
	Following int64 `json:"following"`
	Followers int64 `json:"followers"`
	Likes     int64 `json:"likes"`
}
