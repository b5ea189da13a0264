package matchdecision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/banksia/pkg/database"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

var columns = []string{
	"source_id", "registry_id", "registry_record_id", "similarity_score", "verification_confidence",
	"requires_manual_review", "reasoning", "match_method", "decided_at",
}

// Filter narrows a decision listing
type Filter struct {
	SourceID       string
	RequiresReview *bool
	Limit          int
	Offset         int
}

// Repository stores confirmed match decisions
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

// Persist upserts decisions keyed on (source_id, registry_id). Re-delivering a decision overwrites it.
func (r *Repository) Persist(ctx context.Context, decisions []models.MatchDecision) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "matchdecision.Repository.Persist")
	defer span.End()

	decisions = ectolinq.DistinctBy(decisions, pairKey)
	if len(decisions) == 0 {
		return 0, nil
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("match_decisions")
	ib.Cols(columns...)
	for _, d := range decisions {
		ib.Values(d.SourceID, d.RegistryID, d.RegistryRecordID, d.SimilarityScore, d.VerificationConfidence,
			d.RequiresManualReview, d.Reasoning, d.MatchMethod, d.DecidedAt)
	}
	ib.OnConflictUpdate([]string{"source_id", "registry_id"},
		"registry_record_id", "similarity_score", "verification_confidence", "requires_manual_review",
		"reasoning", "match_method", "decided_at")

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(decisions)}).Error("Failed to persist match decisions")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to persist match decisions")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(decisions)}).Debug("Persisted match decisions")
	return len(decisions), nil
}

// List returns decisions, most recent first
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.MatchDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "matchdecision.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("match_decisions")
	if filter.SourceID != "" {
		sb.Where(sb.Equal("source_id", filter.SourceID))
	}
	if filter.RequiresReview != nil {
		sb.Where(sb.Equal("requires_manual_review", *filter.RequiresReview))
	}
	sb.OrderBy("decided_at DESC", "source_id")
	sb.Limit(clampLimit(filter.Limit))
	if filter.Offset > 0 {
		sb.Offset(filter.Offset)
	}

	query, args := sb.Build()
	decisions := []models.MatchDecision{}
	if err := r.db.SelectContext(ctx, &decisions, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match decisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match decisions")
	}
	return decisions, nil
}

// GetBySource returns the decision recorded for a crawl record
func (r *Repository) GetBySource(ctx context.Context, sourceID string) (*models.MatchDecision, error) {
	ctx, span := tracing.StartSpan(ctx, "matchdecision.Repository.GetBySource")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("match_decisions")
	sb.Where(sb.Equal("source_id", sourceID))
	sb.OrderBy("decided_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var decision models.MatchDecision
	if err := r.db.GetContext(ctx, &decision, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no match decision for source %s", sourceID))
		}
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match decision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match decision")
	}
	return &decision, nil
}

func pairKey(d models.MatchDecision) string {
	return d.SourceID + "|" + d.RegistryID
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
