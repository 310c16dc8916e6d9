// Package config loads server configuration from YAML with environment
// overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blogworks/blogserver/internal/app/services/content"
)

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Content  ContentConfig  `yaml:"content"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	RequestsPerSecond int      `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

// DatabaseConfig configures PostgreSQL. An empty URL selects the in-memory
// store, which is intended for development only.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// ContentConfig configures the listing cache and detail visibility.
type ContentConfig struct {
	PageSize      int                      `yaml:"page_size"`
	CacheSliding  time.Duration            `yaml:"cache_sliding"`
	CacheAbsolute time.Duration            `yaml:"cache_absolute"`
	DetailPolicy  content.VisibilityPolicy `yaml:"detail_policy"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			AllowedOrigins:    []string{"*"},
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Content: ContentConfig{
			PageSize:      5,
			CacheSliding:  10 * time.Minute,
			CacheAbsolute: time.Hour,
			DetailPolicy:  content.HideRejected,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (if it exists), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to defaults and env
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("BLOG_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("BLOG_DATABASE_URL")); v != "" {
		cfg.Database.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("BLOG_JWT_SECRET")); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("BLOG_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set BLOG_JWT_SECRET)")
	}
	if c.Content.PageSize <= 0 {
		return fmt.Errorf("content.page_size must be positive")
	}
	if c.Content.CacheSliding <= 0 || c.Content.CacheAbsolute <= 0 {
		return fmt.Errorf("content cache windows must be positive")
	}
	if c.Content.CacheSliding > c.Content.CacheAbsolute {
		return fmt.Errorf("content.cache_sliding cannot exceed content.cache_absolute")
	}
	switch c.Content.DetailPolicy {
	case content.HideRejected, content.HideUnapproved:
	default:
		return fmt.Errorf("content.detail_policy must be %q or %q", content.HideRejected, content.HideUnapproved)
	}
	return nil
}
