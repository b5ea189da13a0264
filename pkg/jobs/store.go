package jobs

import (
	"context"
	"net/http"
	"sort"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/banksia/pkg/models"
)

// Store persists matching jobs and their progress
type Store interface {
	Create(ctx context.Context, job models.MatchJob) error
	Get(ctx context.Context, id string) (models.MatchJob, error)
	List(ctx context.Context, limit int) ([]models.MatchJob, error)
	Update(ctx context.Context, job models.MatchJob) error
}

// MemoryStore keeps jobs in process memory. Jobs do not survive a restart.
type MemoryStore struct {
	jobs *ectolinq.ConcurrentDictionary[models.MatchJob]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: ectolinq.NewConcurrentDictionary[models.MatchJob]()}
}

func (s *MemoryStore) Create(_ context.Context, job models.MatchJob) error {
	if s.jobs.ContainsKey(job.ID) {
		return httperror.NewHTTPErrorf(http.StatusConflict, "job %s already exists", job.ID)
	}
	s.jobs.Set(job.ID, job)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.MatchJob, error) {
	job, ok := s.jobs.Get(id)
	if !ok {
		return models.MatchJob{}, httperror.NewHTTPErrorf(http.StatusNotFound, "job %s not found", id)
	}
	return job, nil
}

// List returns the most recently submitted jobs first
func (s *MemoryStore) List(_ context.Context, limit int) ([]models.MatchJob, error) {
	jobs := s.jobs.ToArray()
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})
	if limit > 0 {
		jobs = ectolinq.Take(jobs, limit)
	}
	return jobs, nil
}

func (s *MemoryStore) Update(_ context.Context, job models.MatchJob) error {
	if !s.jobs.ContainsKey(job.ID) {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "job %s not found", job.ID)
	}
	s.jobs.Set(job.ID, job)
	return nil
}
