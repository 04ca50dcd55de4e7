package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dimaspram/riverwatch/internal/config"
	"github.com/dimaspram/riverwatch/internal/database"
	"github.com/dimaspram/riverwatch/internal/handlers"
	"github.com/dimaspram/riverwatch/internal/notify"
	"github.com/dimaspram/riverwatch/internal/routes"
	"github.com/dimaspram/riverwatch/internal/services"
	"github.com/dimaspram/riverwatch/internal/ws"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting riverwatch", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	db := database.DB

	// ─── Notification channels ──────────────────────────────────────────
	var emailSender notify.EmailSender
	if cfg.SMTPHost != "" {
		emailSender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
		slog.Info("Email channel enabled", "host", cfg.SMTPHost)
	} else {
		slog.Warn("SMTP_HOST not set, email alerts disabled")
	}

	var telegramSender notify.TelegramSender
	if cfg.TelegramBotToken != "" {
		telegramSender = notify.NewTelegramClient(cfg.TelegramBotToken)
		slog.Info("Telegram channel enabled")
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN not set, telegram alerts disabled")
	}

	var whatsappSender notify.WhatsAppSender
	if cfg.TwilioAccountSID != "" {
		whatsappSender = notify.NewTwilioWhatsAppSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
		slog.Info("WhatsApp channel enabled")
	}

	// ─── Alert pipeline ─────────────────────────────────────────────────
	hub := ws.NewHub()
	dispatcher := services.NewDispatcher(db, emailSender, telegramSender, whatsappSender, hub)
	ingestor := services.NewIngestor(db, dispatcher)

	// ─── MQTT ingestion (optional) ──────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MQTTBrokerURL != "" {
		source, err := services.NewMQTTIngestSource(cfg, ingestor)
		if err != nil {
			slog.Error("MQTT ingestion unavailable", "error", err)
		} else {
			go source.Start(ctx)
		}
	}

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.SeedAdmin(); err != nil {
		slog.Error("Failed to seed admin account", "error", err)
		os.Exit(1)
	}
	sensorHandler := handlers.NewSensorHandler(db)
	readingHandler := handlers.NewReadingHandler(db, ingestor)
	thresholdHandler := handlers.NewThresholdHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	systemHandler := handlers.NewSystemHandler(db)
	streamHandler := handlers.NewStreamHandler(hub)

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "riverwatch v" + handlers.Version,
		ServerHeader: "riverwatch",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" || c.Path() == "/metrics" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, sensorHandler, readingHandler,
		thresholdHandler, notificationHandler, systemHandler, streamHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down riverwatch...")

		cancel()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("riverwatch listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
