package models

import "time"

// ReviewPriority orders manual review work
type ReviewPriority string

const (
	ReviewPriorityHigh   ReviewPriority = "high"
	ReviewPriorityMedium ReviewPriority = "medium"
	ReviewPriorityLow    ReviewPriority = "low"
)

// ReviewStatus is the state of a manual review item
type ReviewStatus string

const (
	ReviewStatusPending             ReviewStatus = "pending"
	ReviewStatusApproved            ReviewStatus = "approved"
	ReviewStatusRejected            ReviewStatus = "rejected"
	ReviewStatusNeedsAdditionalInfo ReviewStatus = "needs_additional_info"
)

// IsOpen reports whether the item still awaits a final decision
func (s ReviewStatus) IsOpen() bool {
	return s == ReviewStatusPending || s == ReviewStatusNeedsAdditionalInfo
}

// ReviewItem is a confirmed match queued for human confirmation
type ReviewItem struct {
	ID                     string         `json:"id" db:"id"`
	SourceID               string         `json:"source_id" db:"source_id"`
	RegistryID             string         `json:"registry_id" db:"registry_id"`
	SimilarityScore        float64        `json:"similarity_score" db:"similarity_score"`
	VerificationConfidence float64        `json:"verification_confidence" db:"verification_confidence"`
	Reasoning              string         `json:"reasoning" db:"reasoning"`
	Priority               ReviewPriority `json:"priority" db:"priority"`
	Status                 ReviewStatus   `json:"status" db:"status"`
	Reviewer               *string        `json:"reviewer,omitempty" db:"reviewer"`
	Notes                  *string        `json:"notes,omitempty" db:"notes"`
	CreatedAt              time.Time      `json:"created_at" db:"created_at"`
	ReviewedAt             *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// ReviewDecisionRequest is a reviewer's verdict on a review item
type ReviewDecisionRequest struct {
	Status   ReviewStatus `json:"status" validate:"required,oneof=approved rejected needs_additional_info"`
	Reviewer string       `json:"reviewer" validate:"required"`
	Notes    string       `json:"notes"`
}

// ReviewSummary aggregates the review queue
type ReviewSummary struct {
	Total      int                    `json:"total"`
	ByStatus   map[ReviewStatus]int   `json:"by_status"`
	ByPriority map[ReviewPriority]int `json:"by_priority"`
}
