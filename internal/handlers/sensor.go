package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/models"
)

type SensorHandler struct {
	db *gorm.DB
}

func NewSensorHandler(db *gorm.DB) *SensorHandler {
	return &SensorHandler{db: db}
}

// ListSensors returns all sensors with their liveness recomputed. Status is
// pull-based: staleness is corrected here, not by a background sweep.
func (h *SensorHandler) ListSensors(c *fiber.Ctx) error {
	var sensors []models.Sensor
	if err := h.db.Order("created_at DESC").Find(&sensors).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list sensors",
		})
	}

	now := time.Now()
	for i := range sensors {
		if sensors[i].UpdateStatus(now) {
			h.db.Model(&sensors[i]).Update("status", sensors[i].Status)
		}
	}

	return c.JSON(fiber.Map{"sensors": sensors})
}

// CreateSensor provisions a sensor ahead of its first reading.
func (h *SensorHandler) CreateSensor(c *fiber.Ctx) error {
	var req struct {
		Name       string   `json:"name"`
		Identifier string   `json:"identifier"`
		Location   string   `json:"location"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		SensorType string   `json:"sensor_type"`
		APIKey     string   `json:"api_key"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.Name == "" || req.Identifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Name and identifier are required",
		})
	}

	sensor := models.Sensor{
		Name:       req.Name,
		Identifier: req.Identifier,
		Location:   req.Location,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	if req.SensorType != "" {
		sensor.SensorType = req.SensorType
	}
	if req.APIKey != "" {
		sensor.APIKey = &req.APIKey
	}

	if err := h.db.Create(&sensor).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create sensor",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(sensor)
}

// GetSensor returns a sensor with recomputed status and its latest reading.
func (h *SensorHandler) GetSensor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid sensor ID",
		})
	}

	var sensor models.Sensor
	if err := h.db.First(&sensor, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Sensor not found",
		})
	}

	if sensor.UpdateStatus(time.Now()) {
		h.db.Model(&sensor).Update("status", sensor.Status)
	}

	var latest models.Reading
	var latestPtr *models.Reading
	if err := h.db.Where("sensor_id = ?", id).Order("timestamp DESC").First(&latest).Error; err == nil {
		latestPtr = &latest
	}

	return c.JSON(fiber.Map{
		"sensor":         sensor,
		"latest_reading": latestPtr,
	})
}

func (h *SensorHandler) UpdateSensor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid sensor ID",
		})
	}

	var sensor models.Sensor
	if err := h.db.First(&sensor, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Sensor not found",
		})
	}

	var req struct {
		Name       *string  `json:"name"`
		Location   *string  `json:"location"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		SensorType *string  `json:"sensor_type"`
		Status     *string  `json:"status"`
		APIKey     *string  `json:"api_key"`
		IsActive   *bool    `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	if req.Name != nil {
		sensor.Name = *req.Name
	}
	if req.Location != nil {
		sensor.Location = *req.Location
	}
	if req.Latitude != nil {
		sensor.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		sensor.Longitude = req.Longitude
	}
	if req.SensorType != nil {
		sensor.SensorType = *req.SensorType
	}
	if req.Status != nil {
		// Operators may park a sensor in maintenance; liveness recompute
		// only ever toggles online/offline.
		sensor.Status = *req.Status
	}
	if req.APIKey != nil {
		if *req.APIKey == "" {
			sensor.APIKey = nil
		} else {
			sensor.APIKey = req.APIKey
		}
	}
	if req.IsActive != nil {
		sensor.IsActive = *req.IsActive
	}

	if err := h.db.Save(&sensor).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update sensor",
		})
	}

	return c.JSON(sensor)
}

// DeleteSensor removes a sensor; readings and thresholds cascade.
func (h *SensorHandler) DeleteSensor(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid sensor ID",
		})
	}

	if err := h.db.Delete(&models.Sensor{}, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete sensor",
		})
	}

	return c.JSON(fiber.Map{"message": "Sensor deleted"})
}

// GetSensorReadings returns a sensor's readings, most recent first.
func (h *SensorHandler) GetSensorReadings(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid sensor ID",
		})
	}

	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	var readings []models.Reading
	if err := h.db.Where("sensor_id = ?", id).
		Order("timestamp DESC").
		Limit(limit).
		Find(&readings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list readings",
		})
	}

	return c.JSON(fiber.Map{"readings": readings})
}
