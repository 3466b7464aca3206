// Package reconcile folds normalized postings into the store: insert when the
// content hash is new, update when change-relevant fields moved, skip
// otherwise. Reconciling the same batch twice is a no-op.
package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/normalize"
	"internscout-engine/internal/store"
)

// Outcome is the fate of one posting after reconciliation.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
	OutcomeSkipped  Outcome = "skipped"
)

// Engine reconciles postings against a repository. Safe for concurrent use;
// the company cache only saves round-trips, correctness comes from the
// store's unique constraints.
type Engine struct {
	repo store.Repository
	log  *zap.Logger

	// DryRun reports outcomes without writing anything.
	DryRun bool
	// SkipDuplicates turns would-be updates into skips.
	SkipDuplicates bool

	mu        sync.Mutex
	companies map[string]int64
}

func New(repo store.Repository, log *zap.Logger) *Engine {
	return &Engine{
		repo:      repo,
		log:       log,
		companies: make(map[string]int64),
	}
}

// Reconcile stores one posting and reports what happened to it. Failures wrap
// the content hash so callers can count and continue without losing track of
// which record broke.
func (e *Engine) Reconcile(ctx context.Context, p domain.NormalizedPosting) (Outcome, error) {
	if e.DryRun {
		return e.previewOutcome(ctx, p)
	}

	companyID, err := e.resolveCompany(ctx, p.Company)
	if err != nil {
		return OutcomeSkipped, &domain.ReconciliationError{ContentHash: p.ContentHash, Err: err}
	}

	id, inserted, err := e.repo.InsertPostingIfAbsent(ctx, companyID, p)
	if err != nil {
		return OutcomeSkipped, &domain.ReconciliationError{ContentHash: p.ContentHash, Err: err}
	}
	if inserted {
		e.log.Debug("posting inserted",
			zap.Int64("id", id),
			zap.String("company", p.Company.Name),
			zap.String("title", p.Title))
		return OutcomeInserted, nil
	}
	if e.SkipDuplicates {
		return OutcomeSkipped, nil
	}

	existing, err := e.repo.GetPostingByHash(ctx, p.ContentHash)
	if err != nil {
		return OutcomeSkipped, &domain.ReconciliationError{ContentHash: p.ContentHash, Err: err}
	}
	if existing == nil || !store.ChangedFields(existing.Posting, p) {
		return OutcomeSkipped, nil
	}

	if err := e.repo.UpdatePosting(ctx, existing.ID, p); err != nil {
		return OutcomeSkipped, &domain.ReconciliationError{ContentHash: p.ContentHash, Err: err}
	}
	e.log.Debug("posting updated",
		zap.Int64("id", existing.ID),
		zap.String("company", p.Company.Name),
		zap.String("title", p.Title))
	return OutcomeUpdated, nil
}

// previewOutcome computes the outcome a real run would report, read-only.
func (e *Engine) previewOutcome(ctx context.Context, p domain.NormalizedPosting) (Outcome, error) {
	existing, err := e.repo.GetPostingByHash(ctx, p.ContentHash)
	if err != nil {
		return OutcomeSkipped, &domain.ReconciliationError{ContentHash: p.ContentHash, Err: err}
	}
	switch {
	case existing == nil:
		return OutcomeInserted, nil
	case !e.SkipDuplicates && store.ChangedFields(existing.Posting, p):
		return OutcomeUpdated, nil
	default:
		return OutcomeSkipped, nil
	}
}

func (e *Engine) resolveCompany(ctx context.Context, c domain.Company) (int64, error) {
	key := normalize.CompanyKey(c.Name)

	e.mu.Lock()
	id, ok := e.companies[key]
	e.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := e.repo.EnsureCompany(ctx, c)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	e.companies[key] = id
	e.mu.Unlock()
	return id, nil
}
