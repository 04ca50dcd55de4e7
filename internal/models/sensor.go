package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SensorTypeFlow       = "flow"
	SensorTypeUltrasonic = "ultrasonic"
	SensorTypeCombined   = "combined"

	SensorStatusOnline      = "online"
	SensorStatusOffline     = "offline"
	SensorStatusMaintenance = "maintenance"
)

// OfflineAfter is how long a sensor may stay silent before it is considered offline.
const OfflineAfter = 5 * time.Minute

type Sensor struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	Identifier string     `gorm:"not null;uniqueIndex" json:"identifier"` // device-reported id, e.g. MAC
	Location   string     `json:"location"`
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	SensorType string     `gorm:"default:'combined'" json:"sensor_type"` // flow, ultrasonic, combined
	Status     string     `gorm:"default:'offline'" json:"status"`       // online, offline, maintenance
	APIKey     *string    `gorm:"uniqueIndex" json:"-"`
	LastSeen   *time.Time `json:"last_seen"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Readings   []Reading   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Thresholds []Threshold `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// UpdateStatus recomputes the online/offline state from last_seen. A sensor that
// has never reported keeps its current status. Returns true if the status changed.
// Recomputation is on demand, there is no background sweep.
func (s *Sensor) UpdateStatus(now time.Time) bool {
	if s.LastSeen == nil {
		return false
	}
	status := SensorStatusOnline
	if now.Sub(*s.LastSeen) > OfflineAfter {
		status = SensorStatusOffline
	}
	if s.Status == status {
		return false
	}
	s.Status = status
	return true
}
