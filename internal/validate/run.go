package validate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/netutil"
	"internscout-engine/internal/store"
)

// Options configures one validation run.
type Options struct {
	// Limit caps how many postings get checked; zero means 200.
	Limit int
	// Concurrency caps simultaneous probes; zero means 8.
	Concurrency int
	// UpdateStore persists each record; false reports without writing.
	UpdateStore bool
	// PerHostRate is requests per second against a single host; zero
	// means 1.
	PerHostRate float64
}

func (o *Options) validate() error {
	if o.Limit < 0 {
		return &domain.ConfigurationError{Msg: "limit must be >= 0"}
	}
	if o.Concurrency < 0 {
		return &domain.ConfigurationError{Msg: "concurrency must be >= 0"}
	}
	if o.Limit == 0 {
		o.Limit = 200
	}
	if o.Concurrency == 0 {
		o.Concurrency = 8
	}
	if o.PerHostRate <= 0 {
		o.PerHostRate = 1
	}
	return nil
}

// Runner drives one validation pass over stored postings.
type Runner struct {
	repo    store.Repository
	checker *Checker
	log     *zap.Logger
}

func NewRunner(repo store.Repository, checker *Checker, log *zap.Logger) *Runner {
	return &Runner{repo: repo, checker: checker, log: log}
}

// Run validates the stalest candidates with bounded concurrency and per-host
// rate limiting. Re-running overwrites previous records; each posting carries
// exactly one.
func (r *Runner) Run(ctx context.Context, opts Options) (*domain.ValidationSummary, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	candidates, err := r.repo.ListValidationCandidates(ctx, opts.Limit)
	if err != nil {
		return nil, err
	}

	summary := &domain.ValidationSummary{
		RunID: uuid.NewString(),
		Total: len(candidates),
	}
	if len(candidates) == 0 {
		return summary, nil
	}

	limiter := netutil.NewHostLimiter(opts.PerHostRate, 1)

	var (
		smu     sync.Mutex
		totalMs int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			if err := limiter.WaitURL(gctx, cand.URL); err != nil {
				smu.Lock()
				summary.Errors++
				summary.Results = append(summary.Results, domain.ValidationResult{
					PostingID: cand.ID,
					URL:       cand.URL,
					Error:     err.Error(),
				})
				smu.Unlock()
				return nil
			}

			start := time.Now()
			rec := r.checker.Check(gctx, cand.URL)
			elapsed := time.Since(start).Milliseconds()

			if gctx.Err() != nil {
				// An aborted check is a run error, not a liveness verdict.
				smu.Lock()
				summary.Errors++
				totalMs += elapsed
				summary.Results = append(summary.Results, domain.ValidationResult{
					PostingID:  cand.ID,
					URL:        cand.URL,
					DurationMs: elapsed,
					Error:      fmt.Sprintf("check aborted: %v", gctx.Err()),
				})
				smu.Unlock()
				return nil
			}

			res := domain.ValidationResult{
				PostingID:  cand.ID,
				URL:        cand.URL,
				Record:     rec,
				DurationMs: elapsed,
			}
			if opts.UpdateStore {
				if err := r.repo.UpdateValidation(gctx, cand.ID, rec); err != nil {
					res.Error = err.Error()
					r.log.Warn("validation persist failed",
						zap.Int64("posting", cand.ID), zap.Error(err))
				} else {
					res.Persisted = true
				}
			}

			smu.Lock()
			totalMs += elapsed
			switch rec.Status {
			case domain.StatusOK:
				summary.Valid++
			case domain.StatusExpired:
				summary.Expired++
			case domain.StatusDead:
				summary.Dead++
			default:
				summary.MaybeValid++
			}
			if res.Persisted {
				summary.Updated++
			}
			if res.Error != "" {
				summary.Errors++
			}
			summary.Results = append(summary.Results, res)
			smu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if checked := len(summary.Results); checked > 0 {
		summary.AverageValidationTimeMs = totalMs / int64(checked)
	}
	r.log.Info("validation run complete",
		zap.String("runId", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("valid", summary.Valid),
		zap.Int("expired", summary.Expired),
		zap.Int("dead", summary.Dead),
		zap.Int("maybeValid", summary.MaybeValid),
		zap.Int("updated", summary.Updated),
		zap.Int("errors", summary.Errors))
	return summary, nil
}
