package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/models"
)

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// ListNotifications returns the delivery audit trail, newest first, optionally
// filtered by status, channel or reading.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	query := h.db.Order("created_at DESC").Limit(200)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if channel := c.Query("channel"); channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if readingParam := c.Query("reading_id"); readingParam != "" {
		readingID, err := uuid.Parse(readingParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid reading ID",
			})
		}
		query = query.Where("reading_id = ?", readingID)
	}

	var notifications []models.AlertNotification
	if err := query.Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list notifications",
		})
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

// ListSystemLogs returns persisted log entries, newest first.
func (h *NotificationHandler) ListSystemLogs(c *fiber.Ctx) error {
	query := h.db.Order("created_at DESC").Limit(200)

	if level := c.Query("level"); level != "" {
		query = query.Where("level = ?", level)
	}
	if module := c.Query("module"); module != "" {
		query = query.Where("module = ?", module)
	}

	var logs []models.SystemLog
	if err := query.Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list system logs",
		})
	}

	return c.JSON(fiber.Map{"logs": logs})
}
