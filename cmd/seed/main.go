// Command seed populates the database with demo sensors, threshold bands and a
// day of readings so the dashboard has something to show.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gorm.io/datatypes"

	"github.com/dimaspram/riverwatch/internal/config"
	"github.com/dimaspram/riverwatch/internal/database"
	"github.com/dimaspram/riverwatch/internal/models"
	"github.com/dimaspram/riverwatch/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	db := database.DB

	demoSensors := []models.Sensor{
		{Name: "Sensor Sungai A", Identifier: "SRF001", Location: "Sungai A - Pintu Air Utama", Latitude: ptr(-6.2088), Longitude: ptr(106.8456)},
		{Name: "Sensor Sungai B", Identifier: "SRF002", Location: "Sungai B - Bendungan", Latitude: ptr(-6.2146), Longitude: ptr(106.8227)},
		{Name: "Sensor Sungai C", Identifier: "SRF003", Location: "Sungai C - Muara", Latitude: ptr(-6.1214), Longitude: ptr(106.7744)},
	}

	now := time.Now()
	for i := range demoSensors {
		s := &demoSensors[i]
		result := db.Where("identifier = ?", s.Identifier).FirstOrCreate(s)
		if result.Error != nil {
			slog.Error("Failed to create sensor", "identifier", s.Identifier, "error", result.Error)
			os.Exit(1)
		}
		if result.RowsAffected > 0 {
			slog.Info("Created sensor", "name", s.Name)
			seedThresholds(s)
		} else {
			slog.Info("Sensor already exists", "name", s.Name)
		}

		var thresholds []models.Threshold
		db.Where("sensor_id = ? AND is_active = ?", s.ID, true).Find(&thresholds)

		// One reading per hour for the last 24 hours, classified like a live
		// ingest would be (without dispatching notifications).
		for h := 0; h < 24; h++ {
			reading := models.Reading{
				SensorID:  s.ID,
				Timestamp: now.Add(-time.Duration(h) * time.Hour),
				FlowRate:  ptr(round2(0.5 + rand.Float64()*4.5)),
				Distance:  ptr(round2(50 + rand.Float64()*150)),
				Battery:   ptr(round2(85 + rand.Float64()*15)),
				Raw:       datatypes.JSON([]byte(fmt.Sprintf(`{"temperature":%.1f,"humidity":%.1f}`, 25+rand.Float64()*10, 60+rand.Float64()*30))),
			}
			reading.AlertLevel = services.Classify(&reading, thresholds).Level
			if err := db.Create(&reading).Error; err != nil {
				slog.Error("Failed to create reading", "sensor", s.Identifier, "error", err)
				os.Exit(1)
			}
		}
	}

	slog.Info("Demo data created")
}

func seedThresholds(s *models.Sensor) {
	db := database.DB
	bands := []models.Threshold{
		{SensorID: s.ID, Metric: models.MetricFlow, AlertLevel: models.AlertLevelWarning, MinValue: ptr(3.0), MaxValue: ptr(4.0), Message: "Flow rate elevated, monitor closely"},
		{SensorID: s.ID, Metric: models.MetricFlow, AlertLevel: models.AlertLevelDanger, MinValue: ptr(4.0), MaxValue: ptr(4.5), Message: "Flow rate high, prepare response"},
		{SensorID: s.ID, Metric: models.MetricFlow, AlertLevel: models.AlertLevelCritical, MinValue: ptr(4.5), Message: "Flow rate critical, flooding likely"},
		{SensorID: s.ID, Metric: models.MetricDistance, AlertLevel: models.AlertLevelWarning, MaxValue: ptr(80.0), Message: "Water level rising"},
	}
	for i := range bands {
		if err := db.Create(&bands[i]).Error; err != nil {
			slog.Error("Failed to create threshold", "sensor", s.Identifier, "error", err)
		}
	}
}

func ptr(v float64) *float64 { return &v }

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
