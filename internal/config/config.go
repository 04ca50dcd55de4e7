package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret     string
	AdminUsername string
	AdminPassword string // plaintext in env for initial seed, bcrypt hash stored
	AdminEmail    string

	// Email (SMTP), channel disabled when host is empty
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Telegram, channel disabled when token is empty
	TelegramBotToken string

	// WhatsApp via Twilio, channel disabled when SID is empty
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	// MQTT ingestion, disabled when broker URL is empty
	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string
	MQTTUsername  string
	MQTTPassword  string
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	return &Config{
		Port:               getEnv("PORT", "8090"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", "riverwatch"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           smtpPort,
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:           getEnv("SMTP_FROM", "alerts@riverwatch.local"),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),
		MQTTBrokerURL:      getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:       getEnv("MQTT_CLIENT_ID", "riverwatch-server"),
		MQTTTopic:          getEnv("MQTT_TOPIC", "riverwatch/+/readings"),
		MQTTUsername:       getEnv("MQTT_USERNAME", ""),
		MQTTPassword:       getEnv("MQTT_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
