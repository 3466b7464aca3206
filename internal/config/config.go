// Package config loads and sanity-checks the YAML configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Store struct {
		// Backend is "sqlite" or "postgres".
		Backend     string `yaml:"backend"`
		Path        string `yaml:"path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"store"`

	Sources struct {
		Adzuna struct {
			Enabled bool   `yaml:"enabled"`
			Country string `yaml:"country"`
		} `yaml:"adzuna"`
		Internboard struct {
			Enabled bool   `yaml:"enabled"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"internboard"`
		Alerts struct {
			Enabled  bool   `yaml:"enabled"`
			IMAPAddr string `yaml:"imap_addr"`
			Username string `yaml:"username"`
		} `yaml:"alerts"`
	} `yaml:"sources"`

	Ingest struct {
		Companies        []string `yaml:"companies"`
		MaxResults       int      `yaml:"max_results"`
		IncludePrograms  bool     `yaml:"include_programs"`
		RedFlags         []string `yaml:"red_flags"`
		SourceTimeoutSec int      `yaml:"source_timeout_seconds"`
		Concurrency      int      `yaml:"concurrency"`
		BreakerThreshold int      `yaml:"breaker_threshold"`
		BreakerCooldown  int      `yaml:"breaker_cooldown_seconds"`
	} `yaml:"ingest"`

	Validate struct {
		Limit       int     `yaml:"limit"`
		Concurrency int     `yaml:"concurrency"`
		PerHostRate float64 `yaml:"per_host_rate"`
	} `yaml:"validate"`

	Schedule struct {
		IngestSpec   string `yaml:"ingest_spec"`
		ValidateSpec string `yaml:"validate_spec"`
	} `yaml:"schedule"`

	Cleanup struct {
		MaxAgeDays int `yaml:"max_age_days"`
	} `yaml:"cleanup"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
