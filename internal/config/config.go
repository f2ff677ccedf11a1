// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig is loaded from the environment. godotenv fills the environment
// from .env first in development.
type AppConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DatabaseDSN string `env:"DATABASE_DSN,required,notEmpty"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"instaup"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1s"`
	SubmitTimeout     time.Duration `env:"SUBMIT_TIMEOUT" envDefault:"10s"`

	SignupBonus int64 `env:"SIGNUP_BONUS" envDefault:"0"`
}

func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
