package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a marketplace account. Authentication lives with the identity
// provider; this row only carries what messaging needs to render and
// notify a counterpart.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName    string    `gorm:"not null" json:"full_name"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	DeviceToken string    `json:"-"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
