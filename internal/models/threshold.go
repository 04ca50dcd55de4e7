package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MetricFlow     = "flow"
	MetricDistance = "distance"
)

// Threshold is a configured numeric band for one metric on one sensor, mapped to
// an alert level. Either bound may be nil for an open-ended range; a threshold
// with neither bound set never matches.
type Threshold struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SensorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sensor_id"`
	Metric     string    `gorm:"not null" json:"metric"`      // flow, distance
	AlertLevel string    `gorm:"not null" json:"alert_level"` // warning, danger, critical
	MinValue   *float64  `json:"min_value"`                   // inclusive
	MaxValue   *float64  `json:"max_value"`                   // inclusive
	Message    string    `gorm:"not null" json:"message"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
