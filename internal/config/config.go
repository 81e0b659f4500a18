package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the application.
type Config struct {
	// NutriPlan backend
	BackendURL string

	// Telegram Config
	TelegramBotToken   string
	TelegramWebhookURL string
	AdminTelegramID    int64

	// Local storage
	DatabasePath string
	Port         string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	backendURL := os.Getenv("NUTRIPLAN_API_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("NUTRIPLAN_API_URL environment variable not set")
	}

	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if telegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")
	if telegramWebhookURL == "" {
		return nil, fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	var adminID int64
	if adminIDStr != "" {
		fmt.Sscanf(adminIDStr, "%d", &adminID)
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/nutriplan.db"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		BackendURL:         backendURL,
		TelegramBotToken:   telegramBotToken,
		TelegramWebhookURL: telegramWebhookURL,
		AdminTelegramID:    adminID,
		DatabasePath:       databasePath,
		Port:               port,
	}, nil
}
