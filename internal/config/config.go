// Package config loads server settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port       int    `env:"PORT" envDefault:"3001"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
	RedisURL   string `env:"REDIS_URL"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT out of range: %d", cfg.Port)
	}
	return cfg, nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) Production() bool { return c.AppEnv == "production" }
