package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/metrics"
	"github.com/dimaspram/riverwatch/internal/models"
)

var (
	ErrMissingIdentifier = errors.New("sensor identifier is required")
	ErrInvalidAPIKey     = errors.New("invalid sensor API key")
)

// IngestPayload is one reading as reported by a device, shared by the HTTP and
// MQTT ingestion sources.
type IngestPayload struct {
	Identifier string          `json:"identifier"`
	Name       string          `json:"name"`
	APIKey     string          `json:"api_key"`
	FlowRate   *float64        `json:"flow_rate"`
	Distance   *float64        `json:"distance"`
	Battery    *float64        `json:"battery"`
	Timestamp  *time.Time      `json:"timestamp"`
	Raw        json.RawMessage `json:"raw"`
	Source     string          `json:"-"` // http, mqtt
}

// Ingestor runs the full pipeline for one incoming reading: sensor lookup (or
// lazy creation), liveness update, reading creation, classification and, for
// non-safe readings, notification dispatch. The whole sequence runs
// synchronously within the handling of the one reading.
type Ingestor struct {
	db         *gorm.DB
	dispatcher *Dispatcher
}

func NewIngestor(db *gorm.DB, dispatcher *Dispatcher) *Ingestor {
	return &Ingestor{db: db, dispatcher: dispatcher}
}

func (ing *Ingestor) Ingest(p IngestPayload) (*models.Reading, *models.Sensor, error) {
	if p.Identifier == "" {
		return nil, nil, ErrMissingIdentifier
	}

	var sensor models.Sensor
	err := ing.db.Where("identifier = ?", p.Identifier).First(&sensor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sensor = models.Sensor{
			Name:       p.Name,
			Identifier: p.Identifier,
		}
		if sensor.Name == "" {
			sensor.Name = "Sensor " + p.Identifier
		}
		if err := ing.db.Create(&sensor).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to create sensor: %w", err)
		}
		slog.Info("Sensor created on first ingest", "identifier", p.Identifier)
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to look up sensor: %w", err)
	}

	// Sensors provisioned with an API key only accept authenticated readings.
	if sensor.APIKey != nil && *sensor.APIKey != "" && p.APIKey != *sensor.APIKey {
		return nil, &sensor, ErrInvalidAPIKey
	}

	now := time.Now()
	sensor.LastSeen = &now
	sensor.UpdateStatus(now)
	if err := ing.db.Save(&sensor).Error; err != nil {
		return nil, &sensor, fmt.Errorf("failed to update sensor: %w", err)
	}

	ts := now
	if p.Timestamp != nil {
		ts = *p.Timestamp
	}
	reading := models.Reading{
		SensorID:  sensor.ID,
		Timestamp: ts,
		FlowRate:  p.FlowRate,
		Distance:  p.Distance,
		Battery:   p.Battery,
	}
	if len(p.Raw) > 0 {
		reading.Raw = datatypes.JSON(p.Raw)
	}
	if err := ing.db.Create(&reading).Error; err != nil {
		return nil, &sensor, fmt.Errorf("failed to create reading: %w", err)
	}

	source := p.Source
	if source == "" {
		source = "http"
	}
	metrics.ReadingsIngested.WithLabelValues(source).Inc()

	var thresholds []models.Threshold
	if err := ing.db.Where("sensor_id = ? AND is_active = ?", sensor.ID, true).Find(&thresholds).Error; err != nil {
		slog.Error("Failed to load thresholds, reading left safe", "sensor", sensor.Identifier, "error", err)
		return &reading, &sensor, nil
	}

	c := Classify(&reading, thresholds)
	reading.AlertLevel = c.Level
	if err := ing.db.Model(&reading).Update("alert_level", c.Level).Error; err != nil {
		slog.Error("Failed to store alert level", "reading", reading.ID, "error", err)
	}
	metrics.ReadingsClassified.WithLabelValues(c.Level).Inc()

	if c.Level != models.AlertLevelSafe && c.Threshold != nil && ing.dispatcher != nil {
		slog.Info("Reading classified non-safe, dispatching alerts",
			"sensor", sensor.Identifier, "level", c.Level)
		ing.dispatcher.Dispatch(&sensor, &reading, c.Threshold)
	}

	return &reading, &sensor, nil
}
