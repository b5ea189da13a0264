package reviewitem

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/banksia/pkg/database"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/review"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

var columns = []string{
	"id", "source_id", "registry_id", "similarity_score", "verification_confidence", "reasoning",
	"priority", "status", "reviewer", "notes", "created_at", "reviewed_at",
}

// priorityOrder sorts high priority items first
const priorityOrder = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END"

// Filter narrows a review queue listing
type Filter struct {
	Status   models.ReviewStatus
	Priority models.ReviewPriority
	Limit    int
	Offset   int
}

// Repository stores the manual review queue
type Repository struct {
	db     database.DB
	logger ectologger.Logger
	now    func() time.Time
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Persist queues every decision that requires manual review. Decisions already queued are left untouched.
func (r *Repository) Persist(ctx context.Context, decisions []models.MatchDecision) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.Persist")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("review_items")
	ib.Cols(columns...)
	count := 0
	now := r.now()
	for _, d := range decisions {
		if !d.RequiresManualReview {
			continue
		}
		item := review.NewReviewItem(d, now)
		ib.Values(item.ID, item.SourceID, item.RegistryID, item.SimilarityScore, item.VerificationConfidence, item.Reasoning,
			item.Priority, item.Status, item.Reviewer, item.Notes, item.CreatedAt, item.ReviewedAt)
		count++
	}
	if count == 0 {
		return 0, nil
	}
	ib.OnConflictDoNothing()

	query, args := ib.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": count}).Error("Failed to enqueue review items")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to enqueue review items")
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return count, nil
	}
	r.logger.WithContext(ctx).WithFields(map[string]any{"queued": inserted, "offered": count}).Debug("Enqueued review items")
	return int(inserted), nil
}

// List returns review items, highest priority and oldest first
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.List")
	defer span.End()

	limit := filter.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("review_items")
	if filter.Status != "" {
		sb.Where(sb.Equal("status", filter.Status))
	}
	if filter.Priority != "" {
		sb.Where(sb.Equal("priority", filter.Priority))
	}
	sb.OrderBy(priorityOrder, "created_at ASC")
	sb.Limit(limit)
	if filter.Offset > 0 {
		sb.Offset(filter.Offset)
	}

	query, args := sb.Build()
	items := []models.ReviewItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list review items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list review items")
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("review_items")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var item models.ReviewItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		return nil, r.notFoundOr(ctx, err, id, "failed to get review item")
	}
	return &item, nil
}

// SubmitDecision records a reviewer's verdict. The item row is locked for the duration of the update.
func (r *Repository) SubmitDecision(ctx context.Context, id string, req models.ReviewDecisionRequest) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.SubmitDecision")
	defer span.End()

	var updated models.ReviewItem
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM review_items WHERE id = $1 FOR UPDATE", strings.Join(columns, ", "))
		var item models.ReviewItem
		if err := tx.GetContext(ctx, &item, query, id); err != nil {
			return r.notFoundOr(ctx, err, id, "failed to get review item")
		}

		next, err := review.ApplyDecision(item, req, r.now())
		if err != nil {
			return err
		}

		ub := database.NewUpdateBuilder()
		ub.Update("review_items")
		ub.Set(
			ub.Assign("status", next.Status),
			ub.Assign("reviewer", next.Reviewer),
			ub.Assign("notes", next.Notes),
			ub.Assign("reviewed_at", next.ReviewedAt),
		)
		ub.Where(ub.Equal("id", id))

		query, args := ub.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"review_item_id": id}).Error("Failed to update review item")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update review item")
		}
		updated = next
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"review_item_id": id,
		"status":         updated.Status,
		"reviewer":       models.StringValue(updated.Reviewer),
	}).Info("Review decision recorded")
	return &updated, nil
}

type summaryRow struct {
	Status   models.ReviewStatus   `db:"status"`
	Priority models.ReviewPriority `db:"priority"`
	Count    int                   `db:"count"`
}

// Summary counts review items by status and by priority
func (r *Repository) Summary(ctx context.Context) (models.ReviewSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewitem.Repository.Summary")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("status", "priority", "COUNT(*) AS count")
	sb.From("review_items")
	sb.GroupBy("status", "priority")

	query, args := sb.Build()
	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to summarise review items")
		return models.ReviewSummary{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to summarise review items")
	}
	return summarize(rows), nil
}

func summarize(rows []summaryRow) models.ReviewSummary {
	summary := models.ReviewSummary{
		ByStatus:   map[models.ReviewStatus]int{},
		ByPriority: map[models.ReviewPriority]int{},
	}
	for _, row := range rows {
		summary.Total += row.Count
		summary.ByStatus[row.Status] += row.Count
		summary.ByPriority[row.Priority] += row.Count
	}
	return summary
}

func (r *Repository) notFoundOr(ctx context.Context, err error, id, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("review item %s not found", id))
	}
	r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"review_item_id": id}).Error(message)
	return httperror.NewHTTPError(http.StatusInternalServerError, message)
}
