// Package config provides configuration loading and validation for the
// homefit match core.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config represents the application configuration. Values can come from a
// JSON file, with environment variables taking precedence. All fields are
// optional unless a command requires them.
type Config struct {
	// Serving
	Port      int    `json:"port,omitempty" validate:"omitempty,gte=1,lte=65535"`
	JWTSecret string `json:"jwt_secret,omitempty"`

	// Upstreams
	SourceURL   string `json:"source_url,omitempty" validate:"omitempty,url"`
	SourceToken string `json:"source_token,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"` // Gemini API key

	// Caching
	CachePath              string `json:"cache_path,omitempty"`                       // bbolt file; empty means in-memory only
	CacheTTLHours          int    `json:"cache_ttl_hours,omitempty" validate:"gte=0"` // 0 means the 24h default
	ExplainBudget          int    `json:"explain_budget,omitempty" validate:"gte=0"`  // initial explanation-call budget, 0 means unknown
	RefreshCooldownSeconds int    `json:"refresh_cooldown_seconds,omitempty" validate:"gte=0"`
}

// Load reads configuration from a JSON file (when path is non-empty) and
// then overlays environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("HOMEFIT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("SOURCE_URL"); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv("SOURCE_TOKEN"); v != "" {
		c.SourceToken = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("HOMEFIT_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
}

// Validate checks field constraints via struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
