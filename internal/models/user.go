package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Role string

const (
	RoleBlogger    Role = "BLOGGER"
	RoleAdvertiser Role = "ADVERTISER"
	RoleAdmin      Role = "ADMIN"
)

type User struct {
	ID        string         `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Image    string `json:"image"`
	Bio      string `json:"bio"`

	Role Role `gorm:"type:text;default:'BLOGGER'" json:"role"`

	// Blogger profile
	Platform    string         `json:"platform"` // telegram, instagram, youtube...
	ChannelURL  string         `gorm:"column:channel_url" json:"channelUrl"`
	Subscribers int            `gorm:"default:0" json:"subscribers"`
	Categories  pq.StringArray `gorm:"type:text[]" json:"categories"`

	// Advertiser profile
	CompanyName string `gorm:"column:company_name" json:"companyName"`

	IsBlocked bool `gorm:"default:false" json:"isBlocked"`

	Password string `json:"-"`
}
