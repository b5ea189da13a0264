package jobs

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type runnerFunc func(ctx context.Context, job models.MatchJob, progress func(context.Context, models.RunSummary)) (models.RunSummary, error)

func (f runnerFunc) RunJob(ctx context.Context, job models.MatchJob, progress func(context.Context, models.RunSummary)) (models.RunSummary, error) {
	return f(ctx, job, progress)
}

type refusingLocker struct{}

func (refusingLocker) WithLock(_ context.Context, _ string, _ time.Duration, _ func(ctx context.Context) error) error {
	return errors.New("lock not acquired")
}

func waitForStatus(t *testing.T, m *Manager, id string, status models.JobStatus) models.MatchJob {
	t.Helper()
	var job models.MatchJob
	require.Eventually(t, func() bool {
		var err error
		job, err = m.Get(context.Background(), id)
		return err == nil && job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestManagerRunsJobToCompletion(t *testing.T) {
	var seenJobID string
	runner := runnerFunc(func(ctx context.Context, job models.MatchJob, progress func(context.Context, models.RunSummary)) (models.RunSummary, error) {
		seenJobID = reqcontext.GetJobID(ctx)
		progress(ctx, models.RunSummary{RecordsTotal: 4, RecordsProcessed: 2, Batches: 1})
		return models.RunSummary{RecordsTotal: 4, RecordsProcessed: 4, Batches: 2, Matched: 3}, nil
	})
	m := NewManager(discardLogger(), NewMemoryStore(), runner, nil, Config{Workers: 1})
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	job, err := m.Submit(context.Background(), models.MatchJobRequest{BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)

	done := waitForStatus(t, m, job.ID, models.JobStatusCompleted)
	assert.Equal(t, job.ID, seenJobID)
	assert.Equal(t, 3, done.Summary.Matched)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.Error)
}

func TestManagerRecordsFailure(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, _ models.MatchJob, _ func(context.Context, models.RunSummary)) (models.RunSummary, error) {
		return models.RunSummary{Batches: 1}, errors.New("sink unavailable")
	})
	m := NewManager(discardLogger(), NewMemoryStore(), runner, nil, Config{})
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	job, err := m.Submit(context.Background(), models.MatchJobRequest{})
	require.NoError(t, err)

	failed := waitForStatus(t, m, job.ID, models.JobStatusFailed)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "sink unavailable", *failed.Error)
	assert.Equal(t, 1, failed.Summary.Batches)
}

func TestManagerCancelRunningJob(t *testing.T) {
	started := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context, _ models.MatchJob, _ func(context.Context, models.RunSummary)) (models.RunSummary, error) {
		close(started)
		<-ctx.Done()
		return models.RunSummary{}, ctx.Err()
	})
	m := NewManager(discardLogger(), NewMemoryStore(), runner, nil, Config{})
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	job, err := m.Submit(context.Background(), models.MatchJobRequest{})
	require.NoError(t, err)
	<-started
	waitForStatus(t, m, job.ID, models.JobStatusRunning)

	_, err = m.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	waitForStatus(t, m, job.ID, models.JobStatusCancelled)

	_, err = m.Cancel(context.Background(), job.ID)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestManagerCancelPendingJob(t *testing.T) {
	called := false
	runner := runnerFunc(func(_ context.Context, _ models.MatchJob, _ func(context.Context, models.RunSummary)) (models.RunSummary, error) {
		called = true
		return models.RunSummary{}, nil
	})
	m := NewManager(discardLogger(), NewMemoryStore(), runner, nil, Config{})

	job, err := m.Submit(context.Background(), models.MatchJobRequest{})
	require.NoError(t, err)
	cancelled, err := m.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, cancelled.Status)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, called)
}

func TestManagerSubmitValidation(t *testing.T) {
	m := NewManager(discardLogger(), NewMemoryStore(), runnerFunc(nil), nil, Config{})
	_, err := m.Submit(context.Background(), models.MatchJobRequest{BatchSize: -1})
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestManagerQueueFull(t *testing.T) {
	m := NewManager(discardLogger(), NewMemoryStore(), runnerFunc(nil), nil, Config{QueueSize: 1})
	_, err := m.Submit(context.Background(), models.MatchJobRequest{})
	require.NoError(t, err)

	job, err := m.Submit(context.Background(), models.MatchJobRequest{})
	assert.Equal(t, http.StatusServiceUnavailable, httperror.GetStatusCode(err))
	assert.Equal(t, models.JobStatusFailed, job.Status)
}

func TestManagerLockNotAcquired(t *testing.T) {
	m := NewManager(discardLogger(), NewMemoryStore(), runnerFunc(nil), refusingLocker{}, Config{})
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop(context.Background())

	job, err := m.Submit(context.Background(), models.MatchJobRequest{})
	require.NoError(t, err)
	failed := waitForStatus(t, m, job.ID, models.JobStatusFailed)
	assert.Contains(t, *failed.Error, "lock")
}

func TestManagerStartTwice(t *testing.T) {
	m := NewManager(discardLogger(), NewMemoryStore(), runnerFunc(nil), nil, Config{})
	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(context.Background(), models.MatchJob{ID: id, SubmittedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	assert.Error(t, store.Create(context.Background(), models.MatchJob{ID: "a"}))

	jobs, err := store.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "c", jobs[0].ID)
	assert.Equal(t, "b", jobs[1].ID)

	_, err = store.Get(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.Error(t, store.Update(context.Background(), models.MatchJob{ID: "missing"}))
}
