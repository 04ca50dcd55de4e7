package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/models"
)

var startTime = time.Now()
var Version = "1.0.0"

type SystemHandler struct {
	db *gorm.DB
}

func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

func (h *SystemHandler) Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	statusCode := fiber.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		statusCode = fiber.StatusServiceUnavailable
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "unreachable: " + err.Error()
		statusCode = fiber.StatusServiceUnavailable
	}

	overall := "ok"
	if statusCode != fiber.StatusOK {
		overall = "degraded"
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  overall,
		"service": "riverwatch",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  time.Since(startTime).String(),
		"db":      dbStatus,
	})
}

// DashboardOverview aggregates the numbers the operator dashboard renders:
// sensor liveness counts, 24h reading volume, alert distribution and
// notification delivery outcomes.
func (h *SystemHandler) DashboardOverview(c *fiber.Ctx) error {
	last24h := time.Now().Add(-24 * time.Hour)

	var sensorTotal, sensorOnline, sensorOffline int64
	h.db.Model(&models.Sensor{}).Count(&sensorTotal)
	h.db.Model(&models.Sensor{}).Where("status = ?", models.SensorStatusOnline).Count(&sensorOnline)
	h.db.Model(&models.Sensor{}).Where("status = ?", models.SensorStatusOffline).Count(&sensorOffline)

	var readings24h int64
	h.db.Model(&models.Reading{}).Where("timestamp >= ?", last24h).Count(&readings24h)

	alertCounts := fiber.Map{}
	for _, level := range []string{models.AlertLevelSafe, models.AlertLevelWarning, models.AlertLevelDanger, models.AlertLevelCritical} {
		var n int64
		h.db.Model(&models.Reading{}).
			Where("timestamp >= ? AND alert_level = ?", last24h, level).
			Count(&n)
		alertCounts[level] = n
	}

	var notifSent, notifFailed int64
	h.db.Model(&models.AlertNotification{}).
		Where("created_at >= ? AND status = ?", last24h, models.NotificationSent).
		Count(&notifSent)
	h.db.Model(&models.AlertNotification{}).
		Where("created_at >= ? AND status = ?", last24h, models.NotificationFailed).
		Count(&notifFailed)

	var stats struct {
		AvgFlow     *float64 `json:"avg_flow"`
		MaxFlow     *float64 `json:"max_flow"`
		MinFlow     *float64 `json:"min_flow"`
		AvgDistance *float64 `json:"avg_distance"`
		AvgBattery  *float64 `json:"avg_battery"`
	}
	h.db.Model(&models.Reading{}).
		Where("timestamp >= ?", last24h).
		Select("AVG(flow_rate) AS avg_flow, MAX(flow_rate) AS max_flow, MIN(flow_rate) AS min_flow, AVG(distance) AS avg_distance, AVG(battery) AS avg_battery").
		Scan(&stats)

	return c.JSON(fiber.Map{
		"sensors": fiber.Map{
			"total":   sensorTotal,
			"online":  sensorOnline,
			"offline": sensorOffline,
		},
		"readings_24h": readings24h,
		"alerts_24h":   alertCounts,
		"notifications_24h": fiber.Map{
			"sent":   notifSent,
			"failed": notifFailed,
		},
		"stats_24h":      stats,
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}
