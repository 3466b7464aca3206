package domain

// Company is the identity entity a posting belongs to. Companies are created
// on first sight and never deleted by the pipeline.
type Company struct {
	ID          int64
	Name        string
	Domain      string // normalized, e.g. "stripe.com"; empty when unresolved
	Description string
}
