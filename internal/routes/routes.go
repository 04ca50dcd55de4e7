package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dimaspram/riverwatch/internal/config"
	"github.com/dimaspram/riverwatch/internal/handlers"
	"github.com/dimaspram/riverwatch/internal/middleware"
	"github.com/dimaspram/riverwatch/internal/models"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	sensorHandler *handlers.SensorHandler,
	readingHandler *handlers.ReadingHandler,
	thresholdHandler *handlers.ThresholdHandler,
	notificationHandler *handlers.NotificationHandler,
	systemHandler *handlers.SystemHandler,
	streamHandler *handlers.StreamHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Device ingestion: authenticated per sensor via X-API-Key, not JWT.
	app.Post("/api/ingest", readingHandler.IngestReading)

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/register", authHandler.Register)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Auth (protected)
	api.Get("/auth/me", authHandler.Me)
	api.Put("/auth/password", authHandler.ChangePassword)
	api.Put("/auth/profile", authHandler.UpdateProfile)

	// Dashboard
	api.Get("/dashboard/overview", systemHandler.DashboardOverview)

	// Live alert stream (WebSocket)
	api.Use("/alerts/stream", streamHandler.UpgradeCheck())
	api.Get("/alerts/stream", streamHandler.HandleAlertStream())

	// Sensors
	api.Get("/sensors", sensorHandler.ListSensors)
	api.Post("/sensors", middleware.RequireRole(models.RoleOperator), sensorHandler.CreateSensor)
	api.Get("/sensors/:id", sensorHandler.GetSensor)
	api.Put("/sensors/:id", middleware.RequireRole(models.RoleOperator), sensorHandler.UpdateSensor)
	api.Delete("/sensors/:id", middleware.RequireRole(models.RoleOperator), sensorHandler.DeleteSensor)
	api.Get("/sensors/:id/readings", sensorHandler.GetSensorReadings)

	// Thresholds
	api.Get("/sensors/:id/thresholds", thresholdHandler.ListThresholds)
	api.Post("/sensors/:id/thresholds", middleware.RequireRole(models.RoleOperator), thresholdHandler.CreateThreshold)
	api.Put("/thresholds/:id", middleware.RequireRole(models.RoleOperator), thresholdHandler.UpdateThreshold)
	api.Delete("/thresholds/:id", middleware.RequireRole(models.RoleOperator), thresholdHandler.DeleteThreshold)
	api.Post("/thresholds/:id/toggle", middleware.RequireRole(models.RoleOperator), thresholdHandler.ToggleThreshold)

	// Readings
	api.Get("/readings", readingHandler.ListReadings)

	// Notifications and logs
	api.Get("/notifications", notificationHandler.ListNotifications)
	api.Get("/logs", notificationHandler.ListSystemLogs)
}
