package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`

	// Webhook
	WebhookSecretToken string `env:"WEBHOOK_SECRET_TOKEN,required"`

	// Admin API
	AdminAPIToken string  `env:"ADMIN_API_TOKEN"`
	AdminIDs      []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Payments
	MinStarsAmount int64         `env:"MIN_STARS_AMOUNT" envDefault:"1"`
	InvoiceTTL     time.Duration `env:"INVOICE_TTL" envDefault:"24h"`

	// Server
	Port int `env:"PORT" envDefault:"8080"`

	// Audit log chat
	AuditChatID int64 `env:"AUDIT_CHAT_ID"`

	// Database viewer subprocess
	ViewerPassword string `env:"VIEWER_PASSWORD"`
	ViewerCommand  string `env:"VIEWER_COMMAND" envDefault:"pgweb"`
	ViewerListen   string `env:"VIEWER_LISTEN" envDefault:"127.0.0.1:8081"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
