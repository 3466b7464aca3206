package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg plus everything a
// careful operator should see before a run. Errors are fatal; warnings are
// advisory.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Ingest.Companies = trimList(out.Ingest.Companies)
	out.Ingest.RedFlags = trimList(out.Ingest.RedFlags)

	// defaults
	if out.Store.Backend == "" {
		out.Store.Backend = "sqlite"
	}
	if out.Schedule.IngestSpec == "" {
		out.Schedule.IngestSpec = "@every 6h"
	}
	if out.Schedule.ValidateSpec == "" {
		out.Schedule.ValidateSpec = "@every 12h"
	}
	if out.Ingest.BreakerThreshold == 0 {
		out.Ingest.BreakerThreshold = 3
	}
	if out.Ingest.BreakerCooldown == 0 {
		out.Ingest.BreakerCooldown = 300
	}

	switch out.Store.Backend {
	case "sqlite":
		if out.Store.Path == "" && out.App.DataDir == "" {
			res.addErr("store.path or app.data_dir must be set for the sqlite backend")
		}
	case "postgres":
		if out.Store.PostgresDSN == "" {
			res.addErr("store.postgres_dsn must be set for the postgres backend")
		}
	default:
		res.addErr("store.backend must be sqlite or postgres, got %q", out.Store.Backend)
	}

	if !out.Sources.Adzuna.Enabled && !out.Sources.Internboard.Enabled && !out.Sources.Alerts.Enabled {
		res.addErr("no sources enabled: enable adzuna, internboard, or alerts")
	}
	if out.Sources.Internboard.Enabled && out.Sources.Internboard.BaseURL == "" {
		res.addErr("sources.internboard.base_url must be set when internboard is enabled")
	}
	if out.Sources.Alerts.Enabled {
		if out.Sources.Alerts.IMAPAddr == "" {
			res.addErr("sources.alerts.imap_addr must be set when alerts is enabled")
		}
		if out.Sources.Alerts.Username == "" {
			res.addErr("sources.alerts.username must be set when alerts is enabled")
		}
	}

	if out.Ingest.MaxResults < 0 {
		res.addErr("ingest.max_results must be >= 0")
	}
	if out.Ingest.Concurrency < 0 {
		res.addErr("ingest.concurrency must be >= 0")
	}
	if out.Ingest.SourceTimeoutSec < 0 {
		res.addErr("ingest.source_timeout_seconds must be >= 0")
	}
	if out.Ingest.BreakerThreshold < 1 {
		res.addErr("ingest.breaker_threshold must be >= 1")
	}

	if out.Validate.Limit < 0 {
		res.addErr("validate.limit must be >= 0")
	}
	if out.Validate.PerHostRate < 0 {
		res.addErr("validate.per_host_rate must be >= 0")
	}
	if out.Validate.PerHostRate > 5 {
		res.addWarn("validate.per_host_rate is %v req/s; employer sites may rate limit you.", out.Validate.PerHostRate)
	}
	if out.Validate.Concurrency > 64 {
		res.addWarn("validate.concurrency is %d; that is a lot of simultaneous probes.", out.Validate.Concurrency)
	}

	if out.Cleanup.MaxAgeDays < 0 {
		res.addErr("cleanup.max_age_days must be >= 0")
	}

	return out, res
}
