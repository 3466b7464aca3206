// Package scheduler wires the cron jobs that keep the posting database fresh
// while the engine runs as a daemon.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"internscout-engine/internal/ingest"
	"internscout-engine/internal/store"
	"internscout-engine/internal/validate"
)

// Scheduler runs recurring ingestion and validation passes plus a stale-row
// sweep after each validation.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger

	orch     *ingest.Orchestrator
	runner   *validate.Runner
	repo     store.Repository
	ingOpts  ingest.Options
	valOpts  validate.Options
	maxAge   time.Duration
	ingSpec  string
	valSpec  string
}

func New(orch *ingest.Orchestrator, runner *validate.Runner, repo store.Repository, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		log:    log,
		orch:   orch,
		runner: runner,
		repo:   repo,
	}
}

// Configure sets the cron specs, per-pass options and stale cutoff.
func (s *Scheduler) Configure(ingSpec, valSpec string, ingOpts ingest.Options, valOpts validate.Options, maxAge time.Duration) {
	s.ingSpec = ingSpec
	s.valSpec = valSpec
	s.ingOpts = ingOpts
	s.valOpts = valOpts
	s.maxAge = maxAge
}

// Start registers both jobs, kicks off one ingestion immediately so a fresh
// install has data before the first tick, and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.ingSpec, func() { s.runIngest(ctx) }); err != nil {
		return fmt.Errorf("cron add ingest: %w", err)
	}
	if _, err := s.cron.AddFunc(s.valSpec, func() { s.runValidate(ctx) }); err != nil {
		return fmt.Errorf("cron add validate: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		zap.String("ingestSpec", s.ingSpec),
		zap.String("validateSpec", s.valSpec))

	go s.runIngest(ctx)
	return nil
}

// Stop shuts the cron loop down and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runIngest(ctx context.Context) {
	if _, err := s.orch.Run(ctx, s.ingOpts); err != nil {
		s.log.Error("scheduled ingestion failed", zap.Error(err))
	}
}

func (s *Scheduler) runValidate(ctx context.Context) {
	if _, err := s.runner.Run(ctx, s.valOpts); err != nil {
		s.log.Error("scheduled validation failed", zap.Error(err))
		return
	}
	if s.maxAge > 0 {
		n, err := s.repo.DeletePostingsOlderThan(ctx, time.Now().Add(-s.maxAge))
		if err != nil {
			s.log.Error("stale cleanup failed", zap.Error(err))
			return
		}
		if n > 0 {
			s.log.Info("stale postings removed", zap.Int64("count", n))
		}
	}
}
