// Package store is the narrow repository boundary in front of the relational
// store. The pipeline relies on exactly one cross-worker coordination point:
// the unique constraint on content_hash behind InsertPostingIfAbsent.
package store

import (
	"context"
	"time"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/normalize"
)

// StoredPosting is a persisted posting plus its row identity.
type StoredPosting struct {
	ID            int64
	CompanyID     int64
	Posting       domain.NormalizedPosting
	IsActive      bool
	LastCheckedAt *time.Time
}

// Candidate is a posting due for link validation.
type Candidate struct {
	ID  int64
	URL string
}

// Repository is the storage contract required by the pipeline.
// InsertPostingIfAbsent must be atomic: two concurrent calls with the same
// content hash resolve to one insert and one inserted=false, never two rows.
type Repository interface {
	EnsureCompany(ctx context.Context, c domain.Company) (int64, error)

	InsertPostingIfAbsent(ctx context.Context, companyID int64, p domain.NormalizedPosting) (id int64, inserted bool, err error)
	UpdatePosting(ctx context.Context, id int64, p domain.NormalizedPosting) error
	GetPostingByHash(ctx context.Context, hash string) (*StoredPosting, error)

	ListValidationCandidates(ctx context.Context, limit int) ([]Candidate, error)
	UpdateValidation(ctx context.Context, id int64, rec domain.ValidationRecord) error

	DeletePostingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}

// companyKey is the uniqueness key for company rows: the same normalized
// form the dedup hash uses, so "Google Inc." and "google" share one row.
func companyKey(name string) string {
	return normalize.CompanyKey(name)
}

// ChangedFields reports whether the change-relevant subset differs between a
// stored posting and a freshly normalized one. Only these fields trigger an
// update; everything else is derived and rides along.
func ChangedFields(old, new domain.NormalizedPosting) bool {
	if old.Title != new.Title ||
		old.Description != new.Description ||
		old.ApplicationURL != new.ApplicationURL ||
		old.PayRateMin != new.PayRateMin ||
		old.PayRateMax != new.PayRateMax ||
		old.PayCurrency != new.PayCurrency ||
		old.PayType != new.PayType {
		return true
	}
	switch {
	case old.ApplicationDeadline == nil && new.ApplicationDeadline == nil:
		return false
	case old.ApplicationDeadline == nil || new.ApplicationDeadline == nil:
		return true
	default:
		return !old.ApplicationDeadline.Equal(*new.ApplicationDeadline)
	}
}
