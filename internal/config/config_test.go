package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("NUTRIPLAN_API_URL", "http://backend.test")
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		setEnv("TELEGRAM_WEBHOOK_URL", "https://bot.test/webhook")
		setEnv("ADMIN_TELEGRAM_ID", "4242")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.BackendURL != "http://backend.test" {
			t.Errorf("Expected BackendURL to be 'http://backend.test', got '%s'", cfg.BackendURL)
		}
		if cfg.TelegramBotToken != "bot_token" {
			t.Errorf("Expected TelegramBotToken to be 'bot_token', got '%s'", cfg.TelegramBotToken)
		}
		if cfg.AdminTelegramID != 4242 {
			t.Errorf("Expected AdminTelegramID to be 4242, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		setEnv("NUTRIPLAN_API_URL", "http://backend.test")
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		setEnv("TELEGRAM_WEBHOOK_URL", "https://bot.test/webhook")
		os.Unsetenv("DATABASE_PATH")
		os.Unsetenv("PORT")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "data/nutriplan.db" {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
		}
	})

	t.Run("MissingBackendURL", func(t *testing.T) {
		setEnv("TELEGRAM_BOT_TOKEN", "bot_token")
		setEnv("TELEGRAM_WEBHOOK_URL", "https://bot.test/webhook")

		// Unset NUTRIPLAN_API_URL specifically for this test
		os.Unsetenv("NUTRIPLAN_API_URL")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing NUTRIPLAN_API_URL, got nil")
		}
		expectedError := "NUTRIPLAN_API_URL environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingBotToken", func(t *testing.T) {
		setEnv("NUTRIPLAN_API_URL", "http://backend.test")
		setEnv("TELEGRAM_WEBHOOK_URL", "https://bot.test/webhook")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing TELEGRAM_BOT_TOKEN, got nil")
		}
	})
}
