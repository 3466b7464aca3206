package domain

// SourceStats is the per-provider slice of an ingestion run.
type SourceStats struct {
	Fetched int `json:"fetched"`
	Errors  int `json:"errors"`
}

// IngestionSummary is the complete result of one ingestion run. It is always
// returned to the caller, even when every item failed; it is logged but not
// persisted.
type IngestionSummary struct {
	RunID           string                 `json:"runId"`
	Fetched         int                    `json:"fetched"`
	Normalized      int                    `json:"normalized"`
	Inserted        int                    `json:"inserted"`
	Updated         int                    `json:"updated"`
	Skipped         int                    `json:"skipped"`
	Errors          int                    `json:"errors"`
	ErrorDetails    []string               `json:"errorDetails,omitempty"`
	PerSource       map[string]SourceStats `json:"perSource"`
	ExecutionTimeMs int64                  `json:"executionTimeMs"`
	DryRun          bool                   `json:"dryRun"`
}

// ValidationResult pairs one checked posting with its fresh record.
type ValidationResult struct {
	PostingID  int64            `json:"postingId"`
	URL        string           `json:"url"`
	Record     ValidationRecord `json:"record"`
	DurationMs int64            `json:"durationMs"`
	Persisted  bool             `json:"persisted"`
	Error      string           `json:"error,omitempty"`
}

// ValidationSummary aggregates one validation run.
type ValidationSummary struct {
	RunID                   string             `json:"runId"`
	Total                   int                `json:"total"`
	Valid                   int                `json:"valid"`
	Expired                 int                `json:"expired"`
	Dead                    int                `json:"dead"`
	MaybeValid              int                `json:"maybe_valid"`
	Updated                 int                `json:"updated"`
	Errors                  int                `json:"errors"`
	AverageValidationTimeMs int64              `json:"averageValidationTimeMs"`
	Results                 []ValidationResult `json:"results"`
}
