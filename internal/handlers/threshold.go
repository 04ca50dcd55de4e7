package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/models"
)

type ThresholdHandler struct {
	db *gorm.DB
}

func NewThresholdHandler(db *gorm.DB) *ThresholdHandler {
	return &ThresholdHandler{db: db}
}

var validAlertLevels = map[string]bool{
	models.AlertLevelSafe:     true,
	models.AlertLevelWarning:  true,
	models.AlertLevelDanger:   true,
	models.AlertLevelCritical: true,
}

// ListThresholds returns all thresholds for a sensor.
func (h *ThresholdHandler) ListThresholds(c *fiber.Ctx) error {
	sensorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid sensor ID",
		})
	}

	var thresholds []models.Threshold
	if err := h.db.Where("sensor_id = ?", sensorID).
		Order("metric, min_value DESC").
		Find(&thresholds).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list thresholds",
		})
	}

	return c.JSON(fiber.Map{"thresholds": thresholds})
}

// CreateThreshold adds a threshold band to a sensor.
func (h *ThresholdHandler) CreateThreshold(c *fiber.Ctx) error {
	sensorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid sensor ID",
		})
	}

	var sensor models.Sensor
	if err := h.db.First(&sensor, "id = ?", sensorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Sensor not found",
		})
	}

	var req struct {
		Metric     string   `json:"metric"`
		AlertLevel string   `json:"alert_level"`
		MinValue   *float64 `json:"min_value"`
		MaxValue   *float64 `json:"max_value"`
		Message    string   `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.Metric != models.MetricFlow && req.Metric != models.MetricDistance {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Metric must be flow or distance",
		})
	}
	if !validAlertLevels[req.AlertLevel] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid alert level",
		})
	}
	if req.MinValue == nil && req.MaxValue == nil {
		// A band with no bounds can never match; reject instead of storing it.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "At least one of min_value or max_value is required",
		})
	}
	if req.MinValue != nil && req.MaxValue != nil && *req.MinValue > *req.MaxValue {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "min_value must not exceed max_value",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Message is required",
		})
	}

	threshold := models.Threshold{
		SensorID:   sensorID,
		Metric:     req.Metric,
		AlertLevel: req.AlertLevel,
		MinValue:   req.MinValue,
		MaxValue:   req.MaxValue,
		Message:    req.Message,
		IsActive:   true,
	}
	if err := h.db.Create(&threshold).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create threshold",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(threshold)
}

func (h *ThresholdHandler) UpdateThreshold(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid threshold ID",
		})
	}

	var threshold models.Threshold
	if err := h.db.First(&threshold, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Threshold not found",
		})
	}

	var req struct {
		Metric     *string  `json:"metric"`
		AlertLevel *string  `json:"alert_level"`
		MinValue   *float64 `json:"min_value"`
		MaxValue   *float64 `json:"max_value"`
		Message    *string  `json:"message"`
		IsActive   *bool    `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.Metric != nil {
		if *req.Metric != models.MetricFlow && *req.Metric != models.MetricDistance {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Metric must be flow or distance",
			})
		}
		threshold.Metric = *req.Metric
	}
	if req.AlertLevel != nil {
		if !validAlertLevels[*req.AlertLevel] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid alert level",
			})
		}
		threshold.AlertLevel = *req.AlertLevel
	}
	if req.MinValue != nil {
		threshold.MinValue = req.MinValue
	}
	if req.MaxValue != nil {
		threshold.MaxValue = req.MaxValue
	}
	if req.Message != nil {
		threshold.Message = *req.Message
	}
	if req.IsActive != nil {
		threshold.IsActive = *req.IsActive
	}

	if err := h.db.Save(&threshold).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update threshold",
		})
	}

	return c.JSON(threshold)
}

func (h *ThresholdHandler) DeleteThreshold(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid threshold ID",
		})
	}

	if err := h.db.Delete(&models.Threshold{}, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete threshold",
		})
	}

	return c.JSON(fiber.Map{"message": "Threshold deleted"})
}

// ToggleThreshold flips the active flag.
func (h *ThresholdHandler) ToggleThreshold(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid threshold ID",
		})
	}

	var threshold models.Threshold
	if err := h.db.First(&threshold, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Threshold not found",
		})
	}

	threshold.IsActive = !threshold.IsActive
	h.db.Save(&threshold)

	return c.JSON(fiber.Map{
		"message":   fmt.Sprintf("Threshold %s", map[bool]string{true: "activated", false: "deactivated"}[threshold.IsActive]),
		"is_active": threshold.IsActive,
	})
}
