package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration, read once at startup.
type Config struct {
	Version string

	// Market data
	FinnhubAPIKey    string // Default credential; the settings record takes precedence.
	FinnhubBaseURL   string
	FinnhubStreamURL string
	QuoteProvider    string // "finnhub" or "alpaca"
	TickFeed         string // "finnhub" or "alpaca"
	RequestTimeout   time.Duration

	// Cache freshness
	QuoteTTL   time.Duration
	ProfileTTL time.Duration
	NewsTTL    time.Duration

	// Persistence & logging
	StateDir      string
	LogLevel      string
	LogFile       string
	MaxLogSizeMB  int64
	MaxLogBackups int

	// Telegram command channel (optional)
	TelegramBotToken string
	TelegramChatID   int64
}

// secretVars are masked when the .env file is echoed to the log.
var secretVars = map[string]bool{
	"FINNHUB_API_KEY":     true,
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
}

// Load initializes the configuration.
// It tries to read a .env file, then falls back to defaults for anything unset.
// No variable is required: a missing market-data key only makes upstream calls fail.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	logEnvFile()

	return &Config{
		FinnhubAPIKey:    os.Getenv("FINNHUB_API_KEY"),
		FinnhubBaseURL:   getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		FinnhubStreamURL: getEnv("FINNHUB_STREAM_URL", "wss://ws.finnhub.io"),
		QuoteProvider:    getEnv("QUOTE_PROVIDER", "finnhub"),
		TickFeed:         getEnv("TICK_FEED", "finnhub"),
		RequestTimeout:   time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SEC", 10)) * time.Second,

		QuoteTTL:   time.Duration(getEnvAsInt("QUOTE_TTL_SEC", 15)) * time.Second,
		ProfileTTL: time.Duration(getEnvAsInt("PROFILE_TTL_HOURS", 24)) * time.Hour,
		NewsTTL:    time.Duration(getEnvAsInt("NEWS_TTL_MINS", 60)) * time.Minute,

		StateDir:      getEnv("STATE_DIR", "."),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFile:       getEnv("LOG_FILE", "stock_pulse.log"),
		MaxLogSizeMB:  int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 3),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   int64(getEnvAsInt("TELEGRAM_CHAT_ID", 0)),
	}
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// logEnvFile prints the variables defined in .env, masking secrets.
func logEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	log.Println("--- .env File Variables ---")
	for key, val := range envMap {
		if secretVars[key] {
			log.Printf("%s=%s", key, maskSecret(val))
		} else {
			log.Printf("%s=%s", key, val)
		}
	}
	log.Println("---------------------------")
}

// maskSecret shows only the last 4 chars.
func maskSecret(val string) string {
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
