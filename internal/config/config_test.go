package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 1. Ensure Optional Envs are Unset (t.Setenv restores them afterwards)
	optionals := []string{
		"FINNHUB_API_KEY",
		"FINNHUB_BASE_URL",
		"QUOTE_PROVIDER",
		"LOG_LEVEL",
		"QUOTE_TTL_SEC",
		"MAX_LOG_BACKUPS",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHAT_ID",
	}
	for _, k := range optionals {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	// 2. Load Config
	cfg := Load()

	// 3. Verify Defaults
	if cfg.FinnhubAPIKey != "" {
		t.Errorf("Expected empty FinnhubAPIKey, got '%s'", cfg.FinnhubAPIKey)
	}
	if cfg.FinnhubBaseURL != "https://finnhub.io/api/v1" {
		t.Errorf("Unexpected FinnhubBaseURL '%s'", cfg.FinnhubBaseURL)
	}
	if cfg.QuoteProvider != "finnhub" {
		t.Errorf("Expected QuoteProvider 'finnhub', got '%s'", cfg.QuoteProvider)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("Expected LogLevel 'INFO', got '%s'", cfg.LogLevel)
	}
	if cfg.QuoteTTL != 15*time.Second {
		t.Errorf("Expected QuoteTTL 15s, got %s", cfg.QuoteTTL)
	}
	if cfg.MaxLogBackups != 3 {
		t.Errorf("Expected MaxLogBackups 3, got %d", cfg.MaxLogBackups)
	}
	if cfg.TelegramEnabled() {
		t.Error("Expected Telegram to be disabled without credentials")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "test_key")
	t.Setenv("QUOTE_PROVIDER", "alpaca")
	t.Setenv("QUOTE_TTL_SEC", "30")
	t.Setenv("MAX_LOG_BACKUPS", "not-a-number")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "123456")

	cfg := Load()

	if cfg.FinnhubAPIKey != "test_key" {
		t.Errorf("Expected FinnhubAPIKey 'test_key', got '%s'", cfg.FinnhubAPIKey)
	}
	if cfg.QuoteProvider != "alpaca" {
		t.Errorf("Expected QuoteProvider 'alpaca', got '%s'", cfg.QuoteProvider)
	}
	if cfg.QuoteTTL != 30*time.Second {
		t.Errorf("Expected QuoteTTL 30s, got %s", cfg.QuoteTTL)
	}
	if cfg.MaxLogBackups != 3 {
		t.Errorf("Expected fallback MaxLogBackups 3 on invalid input, got %d", cfg.MaxLogBackups)
	}
	if !cfg.TelegramEnabled() || cfg.TelegramChatID != 123456 {
		t.Errorf("Expected Telegram enabled for chat 123456, got %d", cfg.TelegramChatID)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret("abcdef123456"); got != "***3456" {
		t.Errorf("Expected ***3456, got %s", got)
	}
	if got := maskSecret("abc"); got != "***" {
		t.Errorf("Expected ***, got %s", got)
	}
}
