// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mailaggregator/mailaggregator/internal/cipher"
)

// Config is the application's process-wide configuration.
type Config struct {
	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/mailaggregator.db"`

	// Admin identity / HTTP control plane
	AdminUsername   string `env:"ADMIN_USERNAME"`
	AdminPassword   string `env:"ADMIN_PASSWORD"`
	JWTSecret       string `env:"JWT_SECRET,required"`
	APIToken        string `env:"API_TOKEN"`
	AdminResetToken string `env:"ADMIN_RESET_TOKEN"`
	HTTPAddr        string `env:"HTTP_ADDR" envDefault:":8080"`

	// Push channels (parsed from the environment but not applied; the
	// Telegram and webhook values in use are those of the settings row)
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `env:"TELEGRAM_CHAT_ID"`
	WebhookURL       string `env:"WEBHOOK_URL"`

	// Polling
	PollIntervalSeconds int `env:"POLL_INTERVAL_SECONDS" envDefault:"300"`

	// IMAP
	IMAPDialTimeout    time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"15s"`
	IMAPCommandTimeout time.Duration `env:"IMAP_COMMAND_TIMEOUT" envDefault:"30s"`

	// Push delivery
	PushHTTPTimeout time.Duration `env:"PUSH_HTTP_TIMEOUT" envDefault:"10s"`

	// Security
	EncryptionKey string `env:"ENCRYPTION_KEY,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load parses configuration from the environment (loading a local .env
// file first, if present) and validates the one value that is fatal to
// get wrong: the encryption key length.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if len(cfg.EncryptionKey) != cipher.KeySize {
		return nil, fmt.Errorf("config: ENCRYPTION_KEY must be exactly %d bytes, got %d", cipher.KeySize, len(cfg.EncryptionKey))
	}
	if cfg.PollIntervalSeconds < 5 {
		return nil, fmt.Errorf("config: POLL_INTERVAL_SECONDS must be >= 5, got %d", cfg.PollIntervalSeconds)
	}

	return cfg, nil
}
