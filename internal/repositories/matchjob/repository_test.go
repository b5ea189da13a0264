package matchjob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/banksia/pkg/models"
)

func TestRowRoundTrip(t *testing.T) {
	started := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	job := models.MatchJob{
		ID:          "0b6f1c0e-3f55-4a8e-9d7b-1f2f9d0c2a11",
		Status:      models.JobStatusRunning,
		Request:     models.MatchJobRequest{CrawlLimit: 500, BatchSize: 100},
		Summary:     models.RunSummary{RecordsTotal: 500, RecordsProcessed: 100, Batches: 1, Matched: 37},
		SubmittedAt: started.Add(-time.Minute),
		StartedAt:   &started,
	}

	row, err := toRow(job)
	require.NoError(t, err)
	assert.JSONEq(t, `{"crawl_limit":500,"registry_limit":0,"batch_size":100}`, string(row.Request))

	back, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, job, back)
}

func TestToModelRejectsCorruptSummary(t *testing.T) {
	row := jobRow{ID: "job", Status: models.JobStatusCompleted, Summary: []byte(`{"matched":`)}
	_, err := row.toModel()
	assert.Error(t, err)
}
