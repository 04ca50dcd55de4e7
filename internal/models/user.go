package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Profile UserProfile `gorm:"constraint:OnDelete:CASCADE" json:"profile"`
}

// UserProfile carries the role and the per-channel alert subscription flags.
type UserProfile struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Role                  string    `gorm:"default:'viewer'" json:"role"` // admin, operator, viewer
	Phone                 string    `json:"phone"`
	TelegramID            string    `json:"telegram_id"`
	ReceiveEmailAlerts    bool      `gorm:"default:true" json:"receive_email_alerts"`
	ReceiveTelegramAlerts bool      `gorm:"default:false" json:"receive_telegram_alerts"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	User *User `json:"-"`
}
