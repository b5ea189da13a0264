package matchjob

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx/types"

	"github.com/Ramsey-B/banksia/pkg/database"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

const maxLimit = 200

var columns = []string{"id", "status", "request", "summary", "error", "submitted_at", "started_at", "completed_at"}

type jobRow struct {
	ID          string           `db:"id"`
	Status      models.JobStatus `db:"status"`
	Request     types.JSONText   `db:"request"`
	Summary     types.JSONText   `db:"summary"`
	Error       *string          `db:"error"`
	SubmittedAt time.Time        `db:"submitted_at"`
	StartedAt   *time.Time       `db:"started_at"`
	CompletedAt *time.Time       `db:"completed_at"`
}

func toRow(job models.MatchJob) (jobRow, error) {
	request, err := json.Marshal(job.Request)
	if err != nil {
		return jobRow{}, fmt.Errorf("failed to encode job request: %w", err)
	}
	summary, err := json.Marshal(job.Summary)
	if err != nil {
		return jobRow{}, fmt.Errorf("failed to encode job summary: %w", err)
	}
	return jobRow{
		ID:          job.ID,
		Status:      job.Status,
		Request:     types.JSONText(request),
		Summary:     types.JSONText(summary),
		Error:       job.Error,
		SubmittedAt: job.SubmittedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}, nil
}

func (r jobRow) toModel() (models.MatchJob, error) {
	job := models.MatchJob{
		ID:          r.ID,
		Status:      r.Status,
		Error:       r.Error,
		SubmittedAt: r.SubmittedAt,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
	if len(r.Request) > 0 {
		if err := r.Request.Unmarshal(&job.Request); err != nil {
			return job, fmt.Errorf("failed to decode job request: %w", err)
		}
	}
	if len(r.Summary) > 0 {
		if err := r.Summary.Unmarshal(&job.Summary); err != nil {
			return job, fmt.Errorf("failed to decode job summary: %w", err)
		}
	}
	return job, nil
}

// Repository is the postgres backed job store
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Create(ctx context.Context, job models.MatchJob) error {
	ctx, span := tracing.StartSpan(ctx, "matchjob.Repository.Create")
	defer span.End()

	row, err := toRow(job)
	if err != nil {
		return err
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("match_jobs")
	ib.Cols(columns...)
	ib.Values(row.ID, row.Status, row.Request, row.Summary, row.Error, row.SubmittedAt, row.StartedAt, row.CompletedAt)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": job.ID}).Error("Failed to create match job")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match job")
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (models.MatchJob, error) {
	ctx, span := tracing.StartSpan(ctx, "matchjob.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("match_jobs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row jobRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MatchJob{}, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("job %s not found", id))
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": id}).Error("Failed to get match job")
		return models.MatchJob{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match job")
	}
	return row.toModel()
}

// List returns the most recently submitted jobs first
func (r *Repository) List(ctx context.Context, limit int) ([]models.MatchJob, error) {
	ctx, span := tracing.StartSpan(ctx, "matchjob.Repository.List")
	defer span.End()

	if limit < 1 || limit > maxLimit {
		limit = maxLimit
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("match_jobs")
	sb.OrderBy("submitted_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match jobs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match jobs")
	}

	jobs := make([]models.MatchJob, 0, len(rows))
	for _, row := range rows {
		job, err := row.toModel()
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": row.ID}).Warn("Skipping unreadable match job")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *Repository) Update(ctx context.Context, job models.MatchJob) error {
	ctx, span := tracing.StartSpan(ctx, "matchjob.Repository.Update")
	defer span.End()

	row, err := toRow(job)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update("match_jobs")
	ub.Set(
		ub.Assign("status", row.Status),
		ub.Assign("summary", row.Summary),
		ub.Assign("error", row.Error),
		ub.Assign("started_at", row.StartedAt),
		ub.Assign("completed_at", row.CompletedAt),
	)
	ub.Where(ub.Equal("id", job.ID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"job_id": job.ID}).Error("Failed to update match job")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match job")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("job %s not found", job.ID))
	}
	return nil
}
