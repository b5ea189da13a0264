// Package review holds the rules of the manual review queue
package review

import (
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/google/uuid"
)

const (
	highPriorityCeiling   = 0.60
	mediumPriorityCeiling = 0.75
)

// PriorityFor ranks a review item by verification confidence; less confident matches are reviewed first
func PriorityFor(confidence float64) models.ReviewPriority {
	switch {
	case confidence <= highPriorityCeiling:
		return models.ReviewPriorityHigh
	case confidence <= mediumPriorityCeiling:
		return models.ReviewPriorityMedium
	default:
		return models.ReviewPriorityLow
	}
}

// NewReviewItem builds a pending review item for a decision
func NewReviewItem(decision models.MatchDecision, now time.Time) models.ReviewItem {
	return models.ReviewItem{
		ID:                     uuid.NewString(),
		SourceID:               decision.SourceID,
		RegistryID:             decision.RegistryID,
		SimilarityScore:        decision.SimilarityScore,
		VerificationConfidence: decision.VerificationConfidence,
		Reasoning:              decision.Reasoning,
		Priority:               PriorityFor(decision.VerificationConfidence),
		Status:                 models.ReviewStatusPending,
		CreatedAt:              now.UTC(),
	}
}

// ApplyDecision returns item updated with the reviewer's verdict.
// Items that already carry a final verdict cannot be decided again.
func ApplyDecision(item models.ReviewItem, req models.ReviewDecisionRequest, now time.Time) (models.ReviewItem, error) {
	if !item.Status.IsOpen() {
		return item, httperror.NewHTTPErrorf(http.StatusConflict, "review item %s is already %s", item.ID, item.Status)
	}
	switch req.Status {
	case models.ReviewStatusApproved, models.ReviewStatusRejected, models.ReviewStatusNeedsAdditionalInfo:
	default:
		return item, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid review status: %s", req.Status)
	}
	reviewer := strings.TrimSpace(req.Reviewer)
	if reviewer == "" {
		return item, httperror.NewHTTPError(http.StatusBadRequest, "reviewer is required")
	}

	reviewedAt := now.UTC()
	item.Status = req.Status
	item.Reviewer = &reviewer
	item.ReviewedAt = &reviewedAt
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		item.Notes = &notes
	}
	return item, nil
}
