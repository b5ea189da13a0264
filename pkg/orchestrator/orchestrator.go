// Package orchestrator drives the match engine over many crawl records in batches
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/metrics"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 1000
	DefaultWorkers   = 8
)

// Matcher finds at most one confirmed registry match for a crawl record
type Matcher interface {
	Match(ctx context.Context, source models.CrawlRecord, registry []models.RegistryRecord) (models.MatchResult, error)
}

// ProgressFunc is called with the cumulative summary after every persisted batch
type ProgressFunc func(ctx context.Context, summary models.RunSummary)

type Config struct {
	BatchSize int
	Workers   int
}

type Orchestrator struct {
	logger  ectologger.Logger
	matcher Matcher
	sink    Sink
	cfg     Config
}

func NewOrchestrator(logger ectologger.Logger, matcher Matcher, sink Sink, cfg Config) (*Orchestrator, error) {
	if matcher == nil {
		return nil, errors.New("a matcher is required")
	}
	if sink == nil {
		return nil, errors.New("a sink is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Orchestrator{
		logger:  logger,
		matcher: matcher,
		sink:    sink,
		cfg:     cfg,
	}, nil
}

type recordOutcome struct {
	result models.MatchResult
	failed bool
}

// Run matches sources against registry in batches of the configured size. Decisions are persisted
// after each batch. A failing record is counted and skipped; a failing sink or a cancelled
// context stops the run and returns the summary of the batches already persisted.
func (o *Orchestrator) Run(ctx context.Context, sources []models.CrawlRecord, registry []models.RegistryRecord, progress ProgressFunc) (models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Orchestrator.Run")
	defer span.End()

	log := o.logger.WithContext(ctx)
	summary := models.RunSummary{RecordsTotal: len(sources)}
	batches := ectolinq.Chunk(sources, o.cfg.BatchSize)

	log.WithFields(map[string]any{
		"records":    len(sources),
		"registry":   len(registry),
		"batches":    len(batches),
		"batch_size": o.cfg.BatchSize,
		"workers":    o.cfg.Workers,
	}).Info("Starting matching run")

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			tracing.RecordError(span, err)
			return summary, err
		}

		start := time.Now()
		batchSummary, decisions, err := o.processBatch(ctx, batch, registry)
		if err != nil {
			tracing.RecordError(span, err)
			return summary, err
		}

		persisted, err := o.sink.Persist(ctx, decisions)
		if err != nil {
			tracing.RecordError(span, err)
			log.WithError(err).WithFields(map[string]any{"batch": i + 1}).Error("Failed to persist batch decisions")
			return summary, fmt.Errorf("failed to persist batch %d: %w", i+1, err)
		}
		batchSummary.Persisted = persisted
		summary = add(summary, batchSummary)
		metrics.BatchDuration.Observe(time.Since(start).Seconds())

		log.WithFields(map[string]any{
			"batch":     i + 1,
			"batches":   len(batches),
			"processed": summary.RecordsProcessed,
			"matched":   batchSummary.Matched,
			"failed":    batchSummary.Failed,
			"persisted": persisted,
			"duration":  time.Since(start).String(),
		}).Info("Batch complete")

		if progress != nil {
			progress(ctx, summary)
		}
	}

	log.WithFields(map[string]any{
		"processed":          summary.RecordsProcessed,
		"matched":            summary.Matched,
		"high_confidence":    summary.HighConfidence,
		"manual_review":      summary.ManualReview,
		"failed":             summary.Failed,
		"verification_calls": summary.VerificationCalls,
	}).Info("Matching run complete")

	return summary, nil
}

func (o *Orchestrator) processBatch(ctx context.Context, batch []models.CrawlRecord, registry []models.RegistryRecord) (models.RunSummary, []models.MatchDecision, error) {
	outcomes := make([]recordOutcome, len(batch))

	g := errgroup.Group{}
	g.SetLimit(o.cfg.Workers)
	var cancelled sync.Once
	var cancelErr error
	for i, source := range batch {
		g.Go(func() error {
			outcome, err := o.processRecord(ctx, source, registry)
			if err != nil {
				cancelled.Do(func() { cancelErr = err })
				return nil
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()
	if cancelErr != nil {
		return models.RunSummary{}, nil, cancelErr
	}

	summary := models.RunSummary{Batches: 1}
	var decisions []models.MatchDecision
	for _, outcome := range outcomes {
		summary.RecordsProcessed++
		if outcome.failed {
			summary.Failed++
			continue
		}
		summary.VerificationCalls += outcome.result.VerificationCalls
		if d := outcome.result.Decision; d != nil {
			decisions = append(decisions, *d)
			summary.Matched++
			if d.RequiresManualReview {
				summary.ManualReview++
			} else {
				summary.HighConfidence++
			}
		}
	}
	return summary, decisions, nil
}

// processRecord only returns an error when ctx is done. Panics and other errors mark the record failed.
func (o *Orchestrator) processRecord(ctx context.Context, source models.CrawlRecord, registry []models.RegistryRecord) (outcome recordOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"source_id": source.ID,
				"panic":     fmt.Sprint(r),
				"stack":     string(debug.Stack()),
			}).Error("Recovered from panic while matching record")
			outcome = recordOutcome{failed: true}
			err = nil
		}
	}()

	result, err := o.matcher.Match(ctx, source, registry)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return recordOutcome{}, ctxErr
		}
		o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"source_id": source.ID,
		}).Error("Failed to match record")
		return recordOutcome{failed: true}, nil
	}
	return recordOutcome{result: result}, nil
}

func add(total, batch models.RunSummary) models.RunSummary {
	total.RecordsProcessed += batch.RecordsProcessed
	total.Batches += batch.Batches
	total.Matched += batch.Matched
	total.HighConfidence += batch.HighConfidence
	total.ManualReview += batch.ManualReview
	total.Failed += batch.Failed
	total.Persisted += batch.Persisted
	total.VerificationCalls += batch.VerificationCalls
	return total
}
