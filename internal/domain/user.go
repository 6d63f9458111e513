package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a creator or investor profile.
type User struct {
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Fullname      string         `gorm:"column:fullname;not null" json:"fullname"`
	Email         string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash  string         `gorm:"column:password_hash;not null" json:"-"`
	Role          string         `gorm:"column:role;type:varchar(20);not null" json:"role"`
	WalletAddress *string        `gorm:"column:wallet_address" json:"wallet_address"`
	GithubLink    *string        `gorm:"column:github_link" json:"github_link"`
	LinkedinLink  *string        `gorm:"column:linkedin_link" json:"linkedin_link"`
	ContactNumber *string        `gorm:"column:contact_number" json:"contact_number"`
	CalendlyLink  *string        `gorm:"column:calendly_link" json:"calendly_link"`
	PhotoURL      *string        `gorm:"column:photo_url" json:"photo_url"`
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "Users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}
