package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
	ChannelWeb      = "web"

	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// AlertNotification records one delivery attempt for one recipient on one channel.
// Created with status pending before the send so a crash mid-send still leaves an
// auditable record; finalized to sent or failed, never deleted.
type AlertNotification struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReadingID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"reading_id"`
	Channel      string     `gorm:"not null" json:"channel"` // email, telegram, whatsapp, web
	Recipient    string     `gorm:"not null" json:"recipient"`
	Message      string     `gorm:"not null" json:"message"`
	Status       string     `gorm:"not null;default:'pending'" json:"status"` // pending, sent, failed
	SentAt       *time.Time `json:"sent_at"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
