package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/config"
	"github.com/dimaspram/riverwatch/internal/models"
)

var DB *gorm.DB

// Connect opens the Postgres connection, retrying with exponential backoff so the
// server survives the database coming up after it in a compose stack.
func Connect(cfg *config.Config) error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var db *gorm.DB
	err := backoff.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			slog.Warn("Database not ready, retrying", "error", err)
		}
		return err
	}, bo)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	slog.Info("Database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

func Migrate() error {
	return DB.AutoMigrate(
		&models.Sensor{},
		&models.Reading{},
		&models.Threshold{},
		&models.AlertNotification{},
		&models.User{},
		&models.UserProfile{},
		&models.SystemLog{},
	)
}
