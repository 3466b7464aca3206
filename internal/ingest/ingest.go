// Package ingest runs one ingestion pass: fan out across source adapters,
// normalize what they return, and reconcile the results into the store. One
// broken source never takes down the pass; its failure is counted and the
// rest proceed.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/normalize"
	"internscout-engine/internal/reconcile"
	"internscout-engine/internal/source"
	"internscout-engine/internal/store"
)

// Options configures one ingestion pass.
type Options struct {
	Companies       []string
	MaxResults      int
	IncludePrograms bool
	DryRun          bool
	SkipDuplicates  bool

	// RedFlags drops postings whose title/company/description mentions any
	// of these terms.
	RedFlags []string

	// SourceTimeout bounds each adapter's fetch; zero means 60s.
	SourceTimeout time.Duration
	// Concurrency caps how many sources fetch at once; zero means 4.
	Concurrency int
}

func (o *Options) validate() error {
	if o.MaxResults < 0 {
		return &domain.ConfigurationError{Msg: fmt.Sprintf("maxResults must be >= 0, got %d", o.MaxResults)}
	}
	if o.Concurrency < 0 {
		return &domain.ConfigurationError{Msg: fmt.Sprintf("concurrency must be >= 0, got %d", o.Concurrency)}
	}
	if o.SourceTimeout == 0 {
		o.SourceTimeout = 60 * time.Second
	}
	if o.Concurrency == 0 {
		o.Concurrency = 4
	}
	return nil
}

// Orchestrator coordinates sources, breakers and the reconcile engine.
// Breakers persist across runs so a flapping source stays quarantined
// between scheduled passes.
type Orchestrator struct {
	sources []source.Source
	repo    store.Repository
	log     *zap.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker

	breakerThreshold int
	breakerCooldown  time.Duration
}

func NewOrchestrator(sources []source.Source, repo store.Repository, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		sources:          sources,
		repo:             repo,
		log:              log,
		breakers:         make(map[string]*Breaker),
		breakerThreshold: 3,
		breakerCooldown:  5 * time.Minute,
	}
}

// SetBreakerPolicy overrides the default threshold and cooldown for breakers
// created after the call.
func (o *Orchestrator) SetBreakerPolicy(threshold int, cooldown time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if threshold > 0 {
		o.breakerThreshold = threshold
	}
	if cooldown > 0 {
		o.breakerCooldown = cooldown
	}
}

func (o *Orchestrator) breaker(name string) *Breaker {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.breakers[name]
	if !ok {
		b = NewBreaker(o.breakerThreshold, o.breakerCooldown)
		o.breakers[name] = b
	}
	return b
}

// Run executes one ingestion pass and always returns a summary, even when
// every source failed; only invalid options are a hard error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*domain.IngestionSummary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &domain.IngestionSummary{
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		PerSource: make(map[string]domain.SourceStats),
	}

	engine := reconcile.New(o.repo, o.log)
	engine.DryRun = opts.DryRun
	engine.SkipDuplicates = opts.SkipDuplicates

	q := source.Query{
		Companies:       opts.Companies,
		MaxResults:      opts.MaxResults,
		IncludePrograms: opts.IncludePrograms,
	}

	var smu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, src := range o.sources {
		src := src
		g.Go(func() error {
			name := src.Name()
			b := o.breaker(name)
			if !b.Allow() {
				o.log.Warn("source circuit open, skipping", zap.String("source", name))
				smu.Lock()
				summary.Errors++
				summary.ErrorDetails = append(summary.ErrorDetails,
					fmt.Sprintf("%s: circuit open", name))
				smu.Unlock()
				return nil
			}

			fctx, cancel := context.WithTimeout(gctx, opts.SourceTimeout)
			raws, err := src.Fetch(fctx, q)
			cancel()

			if err != nil {
				b.Failure()
				o.log.Warn("source fetch failed",
					zap.String("source", name),
					zap.Int("partial", len(raws)),
					zap.Error(err))
			} else {
				b.Success()
			}

			stats := domain.SourceStats{Fetched: len(raws)}
			if err != nil {
				stats.Errors++
			}

			smu.Lock()
			summary.Fetched += len(raws)
			summary.PerSource[name] = stats
			if err != nil {
				summary.Errors++
				summary.ErrorDetails = append(summary.ErrorDetails,
					fmt.Sprintf("%s: %v", name, err))
			}
			smu.Unlock()

			// Partial results from a failed source still flow through.
			o.processBatch(gctx, engine, opts, raws, summary, &smu)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		smu.Lock()
		summary.Errors++
		summary.ErrorDetails = append(summary.ErrorDetails,
			fmt.Sprintf("run aborted: %v", ctx.Err()))
		smu.Unlock()
	}

	summary.ExecutionTimeMs = time.Since(start).Milliseconds()
	o.log.Info("ingestion run complete",
		zap.String("runId", summary.RunID),
		zap.Bool("dryRun", summary.DryRun),
		zap.Int("fetched", summary.Fetched),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
		zap.Int64("ms", summary.ExecutionTimeMs))
	return summary, nil
}

func (o *Orchestrator) processBatch(ctx context.Context, engine *reconcile.Engine, opts Options, raws []domain.RawPosting, summary *domain.IngestionSummary, smu *sync.Mutex) {
	for i, raw := range raws {
		if ctx.Err() != nil {
			// Every fetched posting the run abandoned counts as an error.
			remaining := len(raws) - i
			smu.Lock()
			summary.Errors += remaining
			summary.ErrorDetails = append(summary.ErrorDetails,
				fmt.Sprintf("%s: %d postings not processed: %v", raw.Source, remaining, ctx.Err()))
			smu.Unlock()
			return
		}
		if containsRedFlag(raw, opts.RedFlags) {
			smu.Lock()
			summary.Skipped++
			smu.Unlock()
			continue
		}

		p, err := normalize.Normalize(raw)
		if err != nil {
			o.log.Debug("posting rejected", zap.String("source", raw.Source), zap.Error(err))
			smu.Lock()
			summary.Errors++
			summary.ErrorDetails = append(summary.ErrorDetails, err.Error())
			smu.Unlock()
			continue
		}
		if p.IsProgramSpecific && !opts.IncludePrograms {
			smu.Lock()
			summary.Normalized++
			summary.Skipped++
			smu.Unlock()
			continue
		}

		outcome, err := engine.Reconcile(ctx, p)
		smu.Lock()
		summary.Normalized++
		if err != nil {
			summary.Errors++
			summary.ErrorDetails = append(summary.ErrorDetails, err.Error())
		} else {
			switch outcome {
			case reconcile.OutcomeInserted:
				summary.Inserted++
			case reconcile.OutcomeUpdated:
				summary.Updated++
			default:
				summary.Skipped++
			}
		}
		smu.Unlock()
	}
}

// containsRedFlag reports whether any flagged term appears in the combined
// title + company + description, case-insensitive.
func containsRedFlag(raw domain.RawPosting, flags []string) bool {
	if len(flags) == 0 {
		return false
	}
	combined := strings.ToLower(raw.Title + " " + raw.Company + " " + raw.Description)
	for _, f := range flags {
		if f == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
