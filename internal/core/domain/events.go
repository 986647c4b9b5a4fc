package domain

import "time"

// ParseEvent is published after every parse attempt.
type ParseEvent struct {
	Query      string    `json:"query"`
	Outcome    string    `json:"outcome"` // ok | low_confidence | error
	Relation   string    `json:"relation,omitempty"`
	Location   string    `json:"location,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Batch statuses.
const (
	BatchPending   = "pending"
	BatchCompleted = "completed"
	BatchFailed    = "failed"
)

// BatchJob asks a worker to parse queries sequentially.
type BatchJob struct {
	ID          string    `json:"id"`
	Queries     []string  `json:"queries"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// BatchResult is the stored outcome of a BatchJob. Results follow the order
// of the submitted queries; a failed batch keeps the results parsed before
// the failing query.
type BatchResult struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	Total       int         `json:"total"`
	Results     []*GeoQuery `json:"results,omitempty"`
	FailedIndex *int        `json:"failed_index,omitempty"`
	Error       string      `json:"error,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
