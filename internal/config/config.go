package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string        `envconfig:"TELEGRAM_TOKEN" required:"true"`
	DatabaseURL    string        `envconfig:"DATABASE_URL" default:"todo_bot.db"`
	NotifyInterval time.Duration `envconfig:"NOTIFY_INTERVAL" default:"300s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.NotifyInterval <= 0 {
		cfg.NotifyInterval = 300 * time.Second
	}
	return cfg, nil
}
