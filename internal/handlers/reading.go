package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/models"
	"github.com/dimaspram/riverwatch/internal/services"
)

type ReadingHandler struct {
	db       *gorm.DB
	ingestor *services.Ingestor
}

func NewReadingHandler(db *gorm.DB, ingestor *services.Ingestor) *ReadingHandler {
	return &ReadingHandler{db: db, ingestor: ingestor}
}

// IngestReading accepts one reading from a device. The sensor is created lazily
// on first ingest; classification and alert dispatch run synchronously before
// the response is written.
func (h *ReadingHandler) IngestReading(c *fiber.Ctx) error {
	var payload services.IngestPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	payload.Source = "http"
	if key := c.Get("X-API-Key"); key != "" {
		payload.APIKey = key
	}

	reading, _, err := h.ingestor.Ingest(payload)
	switch {
	case errors.Is(err, services.ErrMissingIdentifier):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Sensor identifier is required",
		})
	case errors.Is(err, services.ErrInvalidAPIKey):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid API key",
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to ingest reading",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "created",
		"reading": reading,
	})
}

// ListReadings returns readings most-recent-first, filtered by sensor and/or a
// time window. Without an explicit window the last 24 hours are returned.
func (h *ReadingHandler) ListReadings(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	query := h.db.Order("timestamp DESC").Limit(limit)

	if sensorParam := c.Query("sensor_id"); sensorParam != "" {
		sensorID, err := uuid.Parse(sensorParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid sensor ID",
			})
		}
		query = query.Where("sensor_id = ?", sensorID)
	}

	since := time.Now().Add(-24 * time.Hour)
	if sinceParam := c.Query("since"); sinceParam != "" {
		parsed, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid since timestamp, expected RFC3339",
			})
		}
		since = parsed
	}
	query = query.Where("timestamp >= ?", since)

	if level := c.Query("alert_level"); level != "" {
		query = query.Where("alert_level = ?", level)
	}

	var readings []models.Reading
	if err := query.Find(&readings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list readings",
		})
	}

	return c.JSON(fiber.Map{"readings": readings})
}
