// Package config loads the server configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with PLATEPICK_. A double underscore in an
// environment variable separates nesting levels, so
// PLATEPICK_SCORING__WEIGHTS__OVERALL sets scoring.weights.overall.
package config

import (
	"fmt"
	"time"

	"github.com/mmynk/platepick/internal/auth"
	"github.com/mmynk/platepick/internal/choice"
	"github.com/mmynk/platepick/internal/places"
	"github.com/mmynk/platepick/internal/recommend"
	"github.com/mmynk/platepick/internal/scoring"
	"github.com/mmynk/platepick/internal/validation"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Database  DatabaseConfig   `koanf:"database"`
	Log       LogConfig        `koanf:"log"`
	Auth      auth.Config      `koanf:"auth"`
	Scoring   scoring.Config   `koanf:"scoring"`
	Recommend recommend.Config `koanf:"recommend"`
	Commit    choice.Config    `koanf:"commit"`
	Places    places.Config    `koanf:"places"`
	RateLimit RateLimitConfig  `koanf:"ratelimit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path        string        `koanf:"path" validate:"required"`
	BusyTimeout time.Duration `koanf:"busy_timeout" validate:"gt=0"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// RateLimitConfig throttles RPCs per caller.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first and overridden by the file and the environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/platepick.db",
			BusyTimeout: 5 * time.Second,
		},
		Log:       LogConfig{Level: ""},
		Auth:      auth.DefaultConfig(),
		Scoring:   scoring.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Commit:    choice.DefaultConfig(),
		Places:    places.DefaultConfig(),
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
}

// Validate checks field constraints and the scoring model's cross-field
// rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid scoring configuration: %w", err)
	}
	return nil
}
