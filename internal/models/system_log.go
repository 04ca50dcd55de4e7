package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LogLevelInfo     = "info"
	LogLevelWarning  = "warning"
	LogLevelError    = "error"
	LogLevelCritical = "critical"
)

// SystemLog is a persisted audit entry, mainly written by the alerting pipeline.
type SystemLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Level     string         `gorm:"not null" json:"level"` // info, warning, error, critical
	Module    string         `gorm:"not null;index" json:"module"`
	Message   string         `gorm:"not null" json:"message"`
	ExtraData datatypes.JSON `json:"extra_data,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
