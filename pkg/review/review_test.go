package review

import (
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       models.ReviewPriority
	}{
		{0.0, models.ReviewPriorityHigh},
		{0.60, models.ReviewPriorityHigh},
		{0.61, models.ReviewPriorityMedium},
		{0.75, models.ReviewPriorityMedium},
		{0.84, models.ReviewPriorityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityFor(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestNewReviewItem(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	item := NewReviewItem(models.MatchDecision{
		SourceID:               "crawl-1",
		RegistryID:             "51824753556",
		SimilarityScore:        0.72,
		VerificationConfidence: 0.7,
		Reasoning:              "names align",
	}, now)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, models.ReviewStatusPending, item.Status)
	assert.Equal(t, models.ReviewPriorityMedium, item.Priority)
	assert.Equal(t, now, item.CreatedAt)
	assert.Nil(t, item.ReviewedAt)
}

func TestApplyDecision(t *testing.T) {
	now := time.Date(2026, 5, 4, 11, 0, 0, 0, time.UTC)
	item := models.ReviewItem{ID: "item-1", Status: models.ReviewStatusPending}

	updated, err := ApplyDecision(item, models.ReviewDecisionRequest{
		Status:   models.ReviewStatusNeedsAdditionalInfo,
		Reviewer: " alex ",
		Notes:    "check the trading name",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusNeedsAdditionalInfo, updated.Status)
	assert.Equal(t, "alex", *updated.Reviewer)
	assert.Equal(t, "check the trading name", *updated.Notes)
	assert.Equal(t, now, *updated.ReviewedAt)

	approved, err := ApplyDecision(updated, models.ReviewDecisionRequest{Status: models.ReviewStatusApproved, Reviewer: "sam"}, now)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, approved.Status)

	_, err = ApplyDecision(approved, models.ReviewDecisionRequest{Status: models.ReviewStatusRejected, Reviewer: "sam"}, now)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestApplyDecisionRejectsInvalidInput(t *testing.T) {
	item := models.ReviewItem{ID: "item-1", Status: models.ReviewStatusPending}

	_, err := ApplyDecision(item, models.ReviewDecisionRequest{Status: models.ReviewStatusPending, Reviewer: "sam"}, time.Now())
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	_, err = ApplyDecision(item, models.ReviewDecisionRequest{Status: models.ReviewStatusApproved}, time.Now())
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
