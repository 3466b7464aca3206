package domain

import "time"

// ValidationStatus classifies the liveness of a posting's application link.
type ValidationStatus string

const (
	StatusOK         ValidationStatus = "ok"
	StatusExpired    ValidationStatus = "expired"
	StatusDead       ValidationStatus = "dead"
	StatusMaybeValid ValidationStatus = "maybe_valid"
)

// ValidationRecord is the outcome of one liveness check. It is written only
// by the validation orchestrator; re-running validation overwrites the
// previous record rather than accumulating history.
type ValidationRecord struct {
	Status        ValidationStatus `json:"status"`
	HTTPCode      int              `json:"httpCode"`
	FinalURL      string           `json:"finalUrl"`
	RedirectChain []string         `json:"redirectChain"`
	Confidence    float64          `json:"confidenceScore"`
	Reason        string           `json:"reason"`
	CheckedAt     time.Time        `json:"lastCheckedAt"`
}

// ActiveKnown reports whether this record is conclusive enough to flip the
// posting's is_active flag, and to which value. dead/expired deactivate, ok
// activates; maybe_valid leaves the stored flag untouched.
func (r ValidationRecord) ActiveKnown() (active, known bool) {
	switch r.Status {
	case StatusDead, StatusExpired:
		return false, true
	case StatusOK:
		return true, true
	default:
		return false, false
	}
}
