package domain

import "fmt"

// SourceError records one provider failure. It is non-fatal to an ingestion
// run; the orchestrator counts it and keeps going.
type SourceError struct {
	Provider string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Provider, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NormalizationError means one raw record was missing a mandatory field
// (title, company or url) and had to be skipped. Everything else degrades
// gracefully instead of erroring.
type NormalizationError struct {
	Source string
	Field  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s posting: missing mandatory field %q", e.Source, e.Field)
}

// ReconciliationError means the store write for one posting failed. The run
// continues; the error is counted in the summary.
type ReconciliationError struct {
	ContentHash string
	Err         error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile %s: %v", e.ContentHash, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// ValidationNetworkError wraps a transport failure that survived all retries.
// It downgrades a link check to maybe_valid; it never propagates to the
// caller.
type ValidationNetworkError struct {
	URL string
	Err error
}

func (e *ValidationNetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *ValidationNetworkError) Unwrap() error { return e.Err }

// ConfigurationError is the only fatal error class: it aborts a run before
// any work starts.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }
