package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blogworks/blogserver/internal/app/services/content"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BLOG_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 5, cfg.Content.PageSize)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, content.HideRejected, cfg.Content.DetailPolicy)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9090"
auth:
  jwt_secret: file-secret
  token_ttl: 1h
content:
  page_size: 10
  cache_sliding: 5m
  cache_absolute: 30m
  detail_policy: unapproved
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	t.Setenv("BLOG_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr, "environment must win over the file")
	require.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, 10, cfg.Content.PageSize)
	require.Equal(t, 5*time.Minute, cfg.Content.CacheSliding)
	require.Equal(t, content.HideUnapproved, cfg.Content.DetailPolicy)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Auth.JWTSecret = "secret"
		return cfg
	}
	require.NoError(t, base().validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero page size", func(c *Config) { c.Content.PageSize = 0 }},
		{"zero sliding window", func(c *Config) { c.Content.CacheSliding = 0 }},
		{"sliding beyond absolute", func(c *Config) { c.Content.CacheSliding = 2 * c.Content.CacheAbsolute }},
		{"bad policy", func(c *Config) { c.Content.DetailPolicy = "sometimes" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			require.Error(t, cfg.validate())
		})
	}
}
