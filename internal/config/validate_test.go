package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	var cfg Config
	cfg.App.DataDir = "/tmp/scout"
	cfg.Store.Backend = "sqlite"
	cfg.Sources.Adzuna.Enabled = true
	return cfg
}

func TestNormalizeAndValidateDefaults(t *testing.T) {
	cfg, res := NormalizeAndValidate(baseConfig())
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, "@every 6h", cfg.Schedule.IngestSpec)
	assert.Equal(t, "@every 12h", cfg.Schedule.ValidateSpec)
	assert.Equal(t, 3, cfg.Ingest.BreakerThreshold)
	assert.Equal(t, 300, cfg.Ingest.BreakerCooldown)
}

func TestNormalizeAndValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = "postgres" }},
		{"no sources enabled", func(c *Config) { c.Sources.Adzuna.Enabled = false }},
		{"internboard without base url", func(c *Config) { c.Sources.Internboard.Enabled = true }},
		{"alerts without credentials", func(c *Config) { c.Sources.Alerts.Enabled = true }},
		{"negative max results", func(c *Config) { c.Ingest.MaxResults = -1 }},
		{"negative validate limit", func(c *Config) { c.Validate.Limit = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			_, res := NormalizeAndValidate(cfg)
			assert.False(t, res.OK(), "expected a validation error")
		})
	}
}

func TestNormalizeAndValidateWarnings(t *testing.T) {
	cfg := baseConfig()
	cfg.Validate.PerHostRate = 10
	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestNormalizeTrimsLists(t *testing.T) {
	cfg := baseConfig()
	cfg.Ingest.Companies = []string{" Acme ", "acme", "", "Initech"}
	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK())
	assert.Equal(t, []string{"Acme", "Initech"}, out.Ingest.Companies)
}

func TestLoadAndBootstrap(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, "default.yml")
	require.NoError(t, os.WriteFile(defaultPath, []byte(
		"store:\n  backend: sqlite\n  path: /tmp/x.db\nsources:\n  adzuna:\n    enabled: true\n"), 0o644))

	dataDir := filepath.Join(dir, "data")
	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	cfg, err := Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.True(t, cfg.Sources.Adzuna.Enabled)

	// Second call leaves the existing user config alone.
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)
}
