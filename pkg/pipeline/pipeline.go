// Package pipeline loads source records and runs the batch orchestrator for a matching job
package pipeline

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/orchestrator"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

// SourceStore provides read access to cleaned crawl and registry records
type SourceStore interface {
	ListCrawlRecords(ctx context.Context, limit int) ([]models.CrawlRecord, error)
	ListActiveRegistryRecords(ctx context.Context, limit int) ([]models.RegistryRecord, error)
}

type Pipeline struct {
	logger  ectologger.Logger
	store   SourceStore
	matcher orchestrator.Matcher
	sink    orchestrator.Sink
	cfg     orchestrator.Config
}

func NewPipeline(logger ectologger.Logger, store SourceStore, matcher orchestrator.Matcher, sink orchestrator.Sink, cfg orchestrator.Config) *Pipeline {
	return &Pipeline{
		logger:  logger,
		store:   store,
		matcher: matcher,
		sink:    sink,
		cfg:     cfg,
	}
}

// RunJob matches the job's crawl records against the active registry. A batch size on the
// request overrides the configured one.
func (p *Pipeline) RunJob(ctx context.Context, job models.MatchJob, progress func(ctx context.Context, summary models.RunSummary)) (models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.RunJob")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{"job_id": job.ID})

	sources, err := p.store.ListCrawlRecords(ctx, job.Request.CrawlLimit)
	if err != nil {
		tracing.RecordError(span, err)
		return models.RunSummary{}, fmt.Errorf("failed to load crawl records: %w", err)
	}
	registry, err := p.store.ListActiveRegistryRecords(ctx, job.Request.RegistryLimit)
	if err != nil {
		tracing.RecordError(span, err)
		return models.RunSummary{}, fmt.Errorf("failed to load registry records: %w", err)
	}
	log.WithFields(map[string]any{
		"crawl_records":    len(sources),
		"registry_records": len(registry),
	}).Info("Loaded source records")

	cfg := p.cfg
	if job.Request.BatchSize > 0 {
		cfg.BatchSize = job.Request.BatchSize
	}
	orch, err := orchestrator.NewOrchestrator(p.logger, p.matcher, p.sink, cfg)
	if err != nil {
		return models.RunSummary{}, err
	}

	return orch.Run(ctx, sources, registry, progress)
}
