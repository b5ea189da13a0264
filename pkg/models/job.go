package models

import "time"

// JobStatus is the lifecycle state of a matching job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the job has finished
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// MatchJobRequest is the request to start a matching run
type MatchJobRequest struct {
	CrawlLimit    int `json:"crawl_limit" validate:"gte=0"`
	RegistryLimit int `json:"registry_limit" validate:"gte=0"`
	BatchSize     int `json:"batch_size" validate:"gte=0,lte=10000"`
}

// RunSummary counts the outcomes of a matching run
type RunSummary struct {
	RecordsTotal      int `json:"records_total" db:"records_total"`
	RecordsProcessed  int `json:"records_processed" db:"records_processed"`
	Batches           int `json:"batches" db:"batches"`
	Matched           int `json:"matched" db:"matched"`
	HighConfidence    int `json:"high_confidence" db:"high_confidence"`
	ManualReview      int `json:"manual_review" db:"manual_review"`
	Failed            int `json:"failed" db:"failed"`
	Persisted         int `json:"persisted" db:"persisted"`
	VerificationCalls int `json:"verification_calls" db:"verification_calls"`
}

// MatchJob is a submitted matching run with observable status
type MatchJob struct {
	ID          string          `json:"id" db:"id"`
	Status      JobStatus       `json:"status" db:"status"`
	Request     MatchJobRequest `json:"request" db:"-"`
	Summary     RunSummary      `json:"summary" db:"-"`
	Error       *string         `json:"error,omitempty" db:"error"`
	SubmittedAt time.Time       `json:"submitted_at" db:"submitted_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}
