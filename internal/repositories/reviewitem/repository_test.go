package reviewitem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/banksia/pkg/models"
)

func TestSummarize(t *testing.T) {
	summary := summarize([]summaryRow{
		{Status: models.ReviewStatusPending, Priority: models.ReviewPriorityHigh, Count: 4},
		{Status: models.ReviewStatusPending, Priority: models.ReviewPriorityLow, Count: 2},
		{Status: models.ReviewStatusApproved, Priority: models.ReviewPriorityHigh, Count: 1},
	})

	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 6, summary.ByStatus[models.ReviewStatusPending])
	assert.Equal(t, 1, summary.ByStatus[models.ReviewStatusApproved])
	assert.Equal(t, 5, summary.ByPriority[models.ReviewPriorityHigh])
	assert.Zero(t, summary.ByPriority[models.ReviewPriorityMedium])
}
