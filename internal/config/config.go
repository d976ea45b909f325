package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Kerhoff/RemindoT/internal/notify"
)

// Scheduler invocation modes
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL   string
	Port          string
	LogLevel      string
	SchedulerMode string
	PollInterval  time.Duration

	TelegramToken           string
	FirebaseCredentialsFile string
	SMTP                    notify.SMTPConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		SchedulerMode: getEnvOrDefault("SCHEDULER_MODE", ModePoll),

		TelegramToken:           os.Getenv("TELEGRAM_TOKEN"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		SMTP: notify.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvOrDefault("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.SchedulerMode != ModePoll && cfg.SchedulerMode != ModeWebhook {
		return nil, fmt.Errorf("SCHEDULER_MODE must be %q or %q", ModePoll, ModeWebhook)
	}

	intervalMS, err := strconv.Atoi(getEnvOrDefault("POLL_INTERVAL_MS", "3000"))
	if err != nil || intervalMS <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be a positive integer")
	}
	cfg.PollInterval = time.Duration(intervalMS) * time.Millisecond

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
