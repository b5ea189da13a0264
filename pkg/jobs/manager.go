// Package jobs runs matching runs as submitted jobs with an observable status
package jobs

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"github.com/Ramsey-B/banksia/pkg/utils"
	"github.com/google/uuid"
)

const runLockKey = "matching-run"

// Runner executes one matching job. progress is called with the cumulative summary after every batch.
type Runner interface {
	RunJob(ctx context.Context, job models.MatchJob, progress func(ctx context.Context, summary models.RunSummary)) (models.RunSummary, error)
}

// Locker serialises matching runs across replicas
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type Config struct {
	Workers   int
	QueueSize int
	LockTTL   time.Duration
}

// Manager accepts job submissions and executes them on a fixed set of workers
type Manager struct {
	logger ectologger.Logger
	store  Store
	runner Runner
	locker Locker
	cfg    Config

	queue   chan string
	running *ectolinq.ConcurrentDictionary[context.CancelFunc]
	// guards the pending -> running and pending -> cancelled transitions
	transition sync.Mutex

	wg     sync.WaitGroup
	stop   context.CancelFunc
	stopMu sync.Mutex
	now    func() time.Time
}

// NewManager creates a job manager. locker may be nil when only one replica runs jobs.
func NewManager(logger ectologger.Logger, store Store, runner Runner, locker Locker, cfg Config) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Hour
	}
	return &Manager{
		logger:  logger,
		store:   store,
		runner:  runner,
		locker:  locker,
		cfg:     cfg,
		queue:   make(chan string, cfg.QueueSize),
		running: ectolinq.NewConcurrentDictionary[context.CancelFunc](),
		now:     time.Now,
	}
}

// Submit stores a pending job and queues it for execution
func (m *Manager) Submit(ctx context.Context, req models.MatchJobRequest) (models.MatchJob, error) {
	ctx, span := tracing.StartSpan(ctx, "jobs.Manager.Submit")
	defer span.End()

	req, err := utils.Validate(req)
	if err != nil {
		return models.MatchJob{}, httperror.WrapError(http.StatusBadRequest, err)
	}

	job := models.MatchJob{
		ID:          uuid.NewString(),
		Status:      models.JobStatusPending,
		Request:     req,
		SubmittedAt: m.now().UTC(),
	}
	if err := m.store.Create(ctx, job); err != nil {
		tracing.RecordError(span, err)
		return models.MatchJob{}, err
	}

	select {
	case m.queue <- job.ID:
	default:
		job = m.finish(ctx, job, models.JobStatusFailed, errors.New("job queue is full"))
		return job, httperror.NewHTTPError(http.StatusServiceUnavailable, "job queue is full, try again later")
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":         job.ID,
		"crawl_limit":    req.CrawlLimit,
		"registry_limit": req.RegistryLimit,
		"batch_size":     req.BatchSize,
	}).Info("Matching job submitted")

	return job, nil
}

func (m *Manager) Get(ctx context.Context, id string) (models.MatchJob, error) {
	return m.store.Get(ctx, id)
}

func (m *Manager) List(ctx context.Context, limit int) ([]models.MatchJob, error) {
	return m.store.List(ctx, limit)
}

// Cancel cancels a pending or running job. A running job stops at its next batch boundary.
func (m *Manager) Cancel(ctx context.Context, id string) (models.MatchJob, error) {
	m.transition.Lock()
	defer m.transition.Unlock()

	job, err := m.store.Get(ctx, id)
	if err != nil {
		return models.MatchJob{}, err
	}
	if job.Status.IsTerminal() {
		return job, httperror.NewHTTPErrorf(http.StatusConflict, "job %s is already %s", id, job.Status)
	}

	if job.Status == models.JobStatusPending {
		return m.finish(ctx, job, models.JobStatusCancelled, nil), nil
	}

	if cancel, ok := m.running.Get(id); ok {
		cancel()
	}
	m.logger.WithContext(ctx).WithFields(map[string]any{"job_id": id}).Info("Cancellation requested for running job")
	return job, nil
}

// Start launches the workers. They run until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	m.stopMu.Lock()
	defer m.stopMu.Unlock()
	if m.stop != nil {
		return errors.New("job manager already started")
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.stop = cancel
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.work(workerCtx)
	}
	m.logger.WithContext(ctx).WithFields(map[string]any{"workers": m.cfg.Workers}).Info("Job workers started")
	return nil
}

// Stop cancels running jobs and waits for the workers to exit or ctx to expire
func (m *Manager) Stop(ctx context.Context) error {
	m.stopMu.Lock()
	stop := m.stop
	m.stop = nil
	m.stopMu.Unlock()
	if stop == nil {
		return nil
	}
	stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-m.queue:
			m.execute(ctx, id)
		}
	}
}

func (m *Manager) execute(ctx context.Context, id string) {
	ctx = reqcontext.SetJobID(ctx, id)
	ctx, span := tracing.StartSpan(ctx, "jobs.Manager.execute")
	defer span.End()
	log := m.logger.WithContext(ctx).WithFields(map[string]any{"job_id": id})

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	job, ok := m.claim(jobCtx, id, cancel)
	if !ok {
		return
	}
	defer m.running.Remove(id)

	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()
	log.Info("Matching job started")

	run := func(ctx context.Context) error {
		summary, err := m.runner.RunJob(ctx, job, func(ctx context.Context, summary models.RunSummary) {
			job.Summary = summary
			if err := m.store.Update(context.WithoutCancel(ctx), job); err != nil {
				log.WithError(err).Warn("Failed to record job progress")
			}
		})
		job.Summary = summary
		return err
	}

	var err error
	if m.locker != nil {
		err = m.locker.WithLock(jobCtx, runLockKey, m.cfg.LockTTL, run)
	} else {
		err = run(jobCtx)
	}

	switch {
	case err == nil:
		job = m.finish(ctx, job, models.JobStatusCompleted, nil)
	case errors.Is(err, context.Canceled) && jobCtx.Err() != nil:
		job = m.finish(ctx, job, models.JobStatusCancelled, nil)
	default:
		tracing.RecordError(span, err)
		job = m.finish(ctx, job, models.JobStatusFailed, err)
	}

	log.WithFields(map[string]any{
		"status":          job.Status,
		"processed":       job.Summary.RecordsProcessed,
		"matched":         job.Summary.Matched,
		"high_confidence": job.Summary.HighConfidence,
		"manual_review":   job.Summary.ManualReview,
		"failed":          job.Summary.Failed,
	}).Info("Matching job finished")
}

// claim moves a pending job to running. Jobs cancelled while queued are skipped.
func (m *Manager) claim(ctx context.Context, id string, cancel context.CancelFunc) (models.MatchJob, bool) {
	m.transition.Lock()
	defer m.transition.Unlock()

	job, err := m.store.Get(ctx, id)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Error("Failed to load queued job")
		return job, false
	}
	if job.Status != models.JobStatusPending {
		return job, false
	}

	startedAt := m.now().UTC()
	job.Status = models.JobStatusRunning
	job.StartedAt = &startedAt
	if err := m.store.Update(ctx, job); err != nil {
		m.logger.WithContext(ctx).WithError(err).Error("Failed to mark job running")
		return job, false
	}
	m.running.Set(id, cancel)
	return job, true
}

func (m *Manager) finish(ctx context.Context, job models.MatchJob, status models.JobStatus, cause error) models.MatchJob {
	completedAt := m.now().UTC()
	job.Status = status
	job.CompletedAt = &completedAt
	if cause != nil {
		msg := cause.Error()
		job.Error = &msg
	}
	if err := m.store.Update(context.WithoutCancel(ctx), job); err != nil {
		m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": job.ID}).Error("Failed to record job status")
	}
	metrics.RecordJob(string(status))
	return job
}
