package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/embedding"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

// Engine runs the full funnel for one crawl record: candidate generation,
// signal scoring, then verification and selection
type Engine struct {
	logger     ectologger.Logger
	thresholds models.Thresholds
	generator  *Generator
	signals    *SignalScorer
	selector   *Selector
	verifier   Verifier
}

// NewEngine creates a match engine. Thresholds are validated here and never change afterwards.
func NewEngine(logger ectologger.Logger, thresholds models.Thresholds, embedder embedding.Embedder, verifier Verifier) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	if verifier == nil {
		return nil, errors.New("a verifier is required")
	}

	scorer := NewScorer()
	return &Engine{
		logger:     logger,
		thresholds: thresholds,
		generator:  NewGenerator(scorer),
		signals:    NewSignalScorer(scorer, embedder, logger),
		selector:   NewSelector(thresholds),
		verifier:   verifier,
	}, nil
}

func (e *Engine) Thresholds() models.Thresholds {
	return e.thresholds
}

// Match finds at most one confirmed registry match for source. Only cancellation of ctx is
// reported as an error; every other failure degrades to a lower score or a declined candidate.
func (e *Engine) Match(ctx context.Context, source models.CrawlRecord, registry []models.RegistryRecord) (models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Match")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"source_id": source.ID,
		"url":       source.URL,
	})

	candidates := e.generator.Generate(source, registry)
	if len(candidates) == 0 {
		log.Debug("no candidates survived filtering")
		metrics.RecordOutcome("no_candidates", 0)
		return models.MatchResult{SourceID: source.ID, Evaluations: []models.CandidateEvaluation{}}, ctx.Err()
	}

	scored := e.signals.ScoreAll(ctx, source, candidates)
	result := e.selector.Select(ctx, source, scored, e.verifier)
	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err)
		return result, err
	}

	outcome := "unmatched"
	if result.Decision != nil {
		outcome = "matched"
		log.WithFields(map[string]any{
			"registry_id":             result.Decision.RegistryID,
			"similarity_score":        result.Decision.SimilarityScore,
			"verification_confidence": result.Decision.VerificationConfidence,
			"requires_manual_review":  result.Decision.RequiresManualReview,
		}).Info("match confirmed")
	} else {
		log.WithFields(map[string]any{
			"candidates":         len(candidates),
			"verification_calls": result.VerificationCalls,
		}).Debug("no candidate confirmed")
	}
	metrics.RecordOutcome(outcome, len(candidates))

	return result, nil
}
