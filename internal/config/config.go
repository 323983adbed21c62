// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	MongoURI  string `env:"SADM_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB   string `env:"SADM_MONGO_DB" envDefault:"storeadmin"`
	JWTSecret string `env:"SADM_JWT_SECRET,required"`

	ServerHost string `env:"SADM_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"SADM_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"SADM_ENV" envDefault:"development"`
	LogLevel   string `env:"SADM_LOG_LEVEL" envDefault:"info"`

	UploadsDir string `env:"SADM_UPLOADS_DIR" envDefault:"./uploads"`
	UploadsURL string `env:"SADM_UPLOADS_URL" envDefault:"/uploads"`

	// Cache configuration
	RedisURL     string `env:"SADM_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"SADM_CACHE_PREFIX" envDefault:"sadm:"`   // Redis key prefix
	CacheTTL     int    `env:"SADM_CACHE_TTL" envDefault:"300"`        // Permission cache TTL in seconds
	CacheMaxSize int    `env:"SADM_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Scheduler configuration
	SchedulerEnabled bool `env:"SADM_SCHEDULER_ENABLED" envDefault:"true"`
	CartExpiryHours  int  `env:"SADM_CART_EXPIRY_HOURS" envDefault:"72"` // Carts idle longer than this are emptied

	// Seeding configuration
	DoSeed        bool   `env:"SADM_DO_SEED" envDefault:"false"` // Enable default role/admin seeding
	AdminEmail    string `env:"SADM_ADMIN_EMAIL"`                // Initial admin account, created when no admin exists
	AdminPassword string `env:"SADM_ADMIN_PASSWORD"`
}

// MinJWTSecretLength is the minimum required length for the JWT secret.
const MinJWTSecretLength = 32

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("SADM_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	return cfg, nil
}
