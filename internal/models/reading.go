package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AlertLevelSafe     = "safe"
	AlertLevelWarning  = "warning"
	AlertLevelDanger   = "danger"
	AlertLevelCritical = "critical"
)

// Reading is one measurement event from a sensor. Immutable after creation except
// for alert_level and notes; alert_level is a cache of the classification against
// the sensor's active thresholds, not a source of truth.
type Reading struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SensorID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_readings_sensor_time" json:"sensor_id"`
	Timestamp  time.Time      `gorm:"not null;index:idx_readings_sensor_time" json:"timestamp"` // device-reported time
	FlowRate   *float64       `json:"flow_rate"` // liters/s
	Distance   *float64       `json:"distance"`  // water-level distance, cm
	Battery    *float64       `json:"battery"`
	Raw        datatypes.JSON `json:"raw,omitempty"` // vendor payload, stored as-is
	AlertLevel string         `gorm:"default:'safe';index" json:"alert_level"` // safe, warning, danger, critical
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"` // server receipt time

	Notifications []AlertNotification `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
