// Package config loads CLI settings from the environment. A .env file in the
// working directory is read first; variables already set win over it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ErrNoAPIURL is returned by RequireAPI when no backend is configured.
var ErrNoAPIURL = errors.New("no backend configured: set SDBX_API_URL or pass --api-url")

type Config struct {
	// Client settings
	APIURL    string        `env:"SDBX_API_URL"`
	ShareURL  string        `env:"SDBX_SHARE_URL" envDefault:"https://sdbx.cc"`
	BotToken  string        `env:"SDBX_BOT_TOKEN"`
	Timeout   time.Duration `env:"SDBX_TIMEOUT" envDefault:"30s"`
	OutputDir string        `env:"SDBX_OUTPUT_DIR" envDefault:"."`

	// Logging
	LogLevel string `env:"SDBX_LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"SDBX_DEBUG"`

	// Dev server settings
	DevAddr      string  `env:"SDBX_DEV_ADDR" envDefault:"127.0.0.1:8787"`
	DevPublicURL string  `env:"SDBX_DEV_PUBLIC_URL"`
	DevRPS       float64 `env:"SDBX_DEV_RPS" envDefault:"20"`
	DevBurst     int     `env:"SDBX_DEV_BURST" envDefault:"40"`
}

// Load reads the given .env files (default ".env") into the environment,
// then parses the environment into a Config. Missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("SDBX_TIMEOUT must be positive, got %s", cfg.Timeout)
	}
	return cfg, nil
}

// RequireAPI checks that a backend URL is set.
func (c *Config) RequireAPI() error {
	if c.APIURL == "" {
		return ErrNoAPIURL
	}
	return nil
}
