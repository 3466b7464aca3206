package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"internscout-engine/internal/config"
	"internscout-engine/internal/domain"
	"internscout-engine/internal/ingest"
	"internscout-engine/internal/logging"
	"internscout-engine/internal/netutil"
	"internscout-engine/internal/scheduler"
	"internscout-engine/internal/secrets"
	"internscout-engine/internal/source"
	"internscout-engine/internal/source/adzuna"
	"internscout-engine/internal/source/alerts"
	"internscout-engine/internal/source/internboard"
	"internscout-engine/internal/store"
	"internscout-engine/internal/validate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "internscout",
		Usage: "internship posting ingestion and link validation engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "default config shipped with the binary",
				Value: "config/config.yml",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "working directory for the database and user config",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "run one ingestion pass across all enabled sources",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "report outcomes without writing"},
					&cli.BoolFlag{Name: "skip-duplicates", Usage: "never update existing postings"},
					&cli.BoolFlag{Name: "include-programs", Usage: "keep diversity/fellowship program postings"},
					&cli.StringSliceFlag{Name: "company", Usage: "restrict to these companies"},
					&cli.IntFlag{Name: "max-results", Usage: "cap per-source results"},
				},
				Action: ingestAction,
			},
			{
				Name:  "validate",
				Usage: "check stored application links and flip is_active",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "how many postings to check"},
					&cli.IntFlag{Name: "concurrency", Usage: "simultaneous probes"},
					&cli.BoolFlag{Name: "no-update", Usage: "report without persisting records"},
				},
				Action: validateAction,
			},
			{
				Name:   "serve",
				Usage:  "run ingestion and validation on a schedule until interrupted",
				Action: serveAction,
			},
			{
				Name:   "check-config",
				Usage:  "validate the effective configuration and exit",
				Action: checkConfigAction,
			},
			{
				Name:  "set-imap-password",
				Usage: "store the alerts mailbox password in the OS keychain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: setPasswordAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// engine bundles everything a command needs after bootstrap.
type engine struct {
	cfg  config.Config
	log  *zap.Logger
	repo store.Repository
}

func (e *engine) close() {
	if e.repo != nil {
		_ = e.repo.Close()
	}
	_ = e.log.Sync()
}

func setup(ctx context.Context, cmd *cli.Command) (*engine, error) {
	_ = godotenv.Load()

	log, err := logging.New(cmd.Bool("verbose"))
	if err != nil {
		return nil, err
	}

	dataDir := cmd.String("data-dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &domain.ConfigurationError{Msg: "cannot resolve home directory; pass --data-dir"}
		}
		dataDir = filepath.Join(home, ".internscout")
	}

	cfgPath, err := config.EnsureUserConfig(dataDir, cmd.String("config"))
	if err != nil {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("bootstrap config: %v", err)}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("load config %s: %v", cfgPath, err)}
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = dataDir
	}

	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		log.Warn("config warning", zap.String("detail", w))
	}
	if !res.OK() {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("invalid config: %v", res.Errors)}
	}

	repo, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &engine{cfg: cfg, log: log, repo: repo}, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Repository, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return store.OpenPostgres(ctx, cfg.Store.PostgresDSN)
	default:
		path := cfg.Store.Path
		if path == "" {
			path = filepath.Join(cfg.App.DataDir, "internscout.db")
		}
		return store.OpenSQLite(ctx, path)
	}
}

// buildSources assembles the enabled adapters. A source with unusable
// credentials is still constructed; it degrades to an empty fetch on its own.
func buildSources(cfg config.Config, log *zap.Logger, dryRun bool) []source.Source {
	var out []source.Source

	if cfg.Sources.Adzuna.Enabled {
		out = append(out, adzuna.New(
			os.Getenv("ADZUNA_APP_ID"),
			os.Getenv("ADZUNA_APP_KEY"),
			cfg.Sources.Adzuna.Country,
			log))
	}
	if cfg.Sources.Internboard.Enabled {
		limiter := netutil.NewHostLimiter(2, 2)
		out = append(out, internboard.New(cfg.Sources.Internboard.BaseURL, limiter, log))
	}
	if cfg.Sources.Alerts.Enabled {
		account := secrets.IMAPAccount(cfg.Sources.Alerts.Username, cfg.Sources.Alerts.IMAPAddr)
		password, err := secrets.IMAPPassword(account)
		if err != nil {
			log.Warn("alerts password unavailable", zap.Error(err))
		}
		a := alerts.New(cfg.Sources.Alerts.IMAPAddr, cfg.Sources.Alerts.Username, password, log)
		a.MarkSeen = !dryRun
		out = append(out, a)
	}
	return out
}

func ingestOptions(cfg config.Config) ingest.Options {
	return ingest.Options{
		Companies:       cfg.Ingest.Companies,
		MaxResults:      cfg.Ingest.MaxResults,
		IncludePrograms: cfg.Ingest.IncludePrograms,
		RedFlags:        cfg.Ingest.RedFlags,
		SourceTimeout:   time.Duration(cfg.Ingest.SourceTimeoutSec) * time.Second,
		Concurrency:     cfg.Ingest.Concurrency,
	}
}

func validateOptions(cfg config.Config) validate.Options {
	return validate.Options{
		Limit:       cfg.Validate.Limit,
		Concurrency: cfg.Validate.Concurrency,
		PerHostRate: cfg.Validate.PerHostRate,
		UpdateStore: true,
	}
}

func ingestAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	opts := ingestOptions(e.cfg)
	opts.DryRun = cmd.Bool("dry-run")
	opts.SkipDuplicates = cmd.Bool("skip-duplicates")
	if cmd.Bool("include-programs") {
		opts.IncludePrograms = true
	}
	if cs := cmd.StringSlice("company"); len(cs) > 0 {
		opts.Companies = cs
	}
	if n := int(cmd.Int("max-results")); n > 0 {
		opts.MaxResults = n
	}

	sources := buildSources(e.cfg, e.log, opts.DryRun)
	orch := ingest.NewOrchestrator(sources, e.repo, e.log)
	orch.SetBreakerPolicy(e.cfg.Ingest.BreakerThreshold,
		time.Duration(e.cfg.Ingest.BreakerCooldown)*time.Second)
	summary, err := orch.Run(ctx, opts)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	opts := validateOptions(e.cfg)
	if n := int(cmd.Int("limit")); n > 0 {
		opts.Limit = n
	}
	if n := int(cmd.Int("concurrency")); n > 0 {
		opts.Concurrency = n
	}
	if cmd.Bool("no-update") {
		opts.UpdateStore = false
	}

	runner := validate.NewRunner(e.repo, validate.NewChecker(e.log), e.log)
	summary, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	sources := buildSources(e.cfg, e.log, false)
	orch := ingest.NewOrchestrator(sources, e.repo, e.log)
	orch.SetBreakerPolicy(e.cfg.Ingest.BreakerThreshold,
		time.Duration(e.cfg.Ingest.BreakerCooldown)*time.Second)
	runner := validate.NewRunner(e.repo, validate.NewChecker(e.log), e.log)

	sched := scheduler.New(orch, runner, e.repo, e.log)
	sched.Configure(
		e.cfg.Schedule.IngestSpec,
		e.cfg.Schedule.ValidateSpec,
		ingestOptions(e.cfg),
		validateOptions(e.cfg),
		time.Duration(e.cfg.Cleanup.MaxAgeDays)*24*time.Hour)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}

func checkConfigAction(ctx context.Context, cmd *cli.Command) error {
	_ = godotenv.Load()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	_, res := config.NormalizeAndValidate(cfg)
	if err := printJSON(res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("config has %d error(s)", len(res.Errors))
	}
	return nil
}

func setPasswordAction(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if !e.cfg.Sources.Alerts.Enabled {
		return &domain.ConfigurationError{Msg: "sources.alerts is not enabled"}
	}
	account := secrets.IMAPAccount(e.cfg.Sources.Alerts.Username, e.cfg.Sources.Alerts.IMAPAddr)
	if err := secrets.SetIMAPPassword(account, cmd.String("password")); err != nil {
		return err
	}
	fmt.Println("password stored for", account)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
