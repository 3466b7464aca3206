// Package source defines the uniform adapter contract every posting provider
// implements. Adapters return partial results plus an error instead of
// panicking or aborting the whole pass; the orchestrator decides what a
// failure costs.
package source

import (
	"context"

	"internscout-engine/internal/domain"
)

// Query narrows what an adapter should fetch. Adapters ignore fields they
// cannot express against their provider.
type Query struct {
	// Companies restricts results to these company names when non-empty.
	Companies []string
	// MaxResults caps how many postings the adapter returns; 0 means the
	// adapter's own default.
	MaxResults int
	// IncludePrograms keeps diversity/fellowship-style program postings.
	IncludePrograms bool
}

// Source is one posting provider. Fetch must honor ctx cancellation, never
// panic, and may return already-fetched postings alongside an error when the
// provider failed partway through.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]domain.RawPosting, error)
}
