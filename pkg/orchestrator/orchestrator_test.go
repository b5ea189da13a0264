package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type matcherFunc func(ctx context.Context, source models.CrawlRecord) (models.MatchResult, error)

func (f matcherFunc) Match(ctx context.Context, source models.CrawlRecord, _ []models.RegistryRecord) (models.MatchResult, error) {
	return f(ctx, source)
}

type memorySink struct {
	mu        sync.Mutex
	batches   [][]models.MatchDecision
	err       error
	failAfter int
}

func (s *memorySink) Persist(_ context.Context, decisions []models.MatchDecision) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil && len(s.batches) >= s.failAfter {
		return 0, s.err
	}
	s.batches = append(s.batches, decisions)
	return len(decisions), nil
}

func sources(n int) []models.CrawlRecord {
	out := make([]models.CrawlRecord, n)
	for i := range out {
		out[i] = models.CrawlRecord{ID: fmt.Sprintf("crawl-%d", i), Name: "Business"}
	}
	return out
}

func decisionFor(source models.CrawlRecord, review bool) models.MatchResult {
	return models.MatchResult{
		SourceID:          source.ID,
		VerificationCalls: 1,
		Decision: &models.MatchDecision{
			SourceID:             source.ID,
			RegistryID:           "reg-" + source.ID,
			RequiresManualReview: review,
		},
	}
}

func TestRunPersistsAfterEachBatch(t *testing.T) {
	matcher := matcherFunc(func(_ context.Context, source models.CrawlRecord) (models.MatchResult, error) {
		switch source.ID {
		case "crawl-0", "crawl-3":
			return decisionFor(source, false), nil
		case "crawl-4":
			return decisionFor(source, true), nil
		}
		return models.MatchResult{SourceID: source.ID}, nil
	})
	sink := &memorySink{}
	orch, err := NewOrchestrator(discardLogger(), matcher, sink, Config{BatchSize: 2, Workers: 3})
	require.NoError(t, err)

	var progress []models.RunSummary
	summary, err := orch.Run(context.Background(), sources(5), nil, func(_ context.Context, s models.RunSummary) {
		progress = append(progress, s)
	})
	require.NoError(t, err)

	assert.Len(t, sink.batches, 3)
	assert.Equal(t, models.RunSummary{
		RecordsTotal:      5,
		RecordsProcessed:  5,
		Batches:           3,
		Matched:           3,
		HighConfidence:    2,
		ManualReview:      1,
		Persisted:         3,
		VerificationCalls: 3,
	}, summary)
	require.Len(t, progress, 3)
	assert.Equal(t, 2, progress[0].RecordsProcessed)
	assert.Equal(t, 4, progress[1].RecordsProcessed)
}

func TestRunCountsPanicsAndErrorsAsFailures(t *testing.T) {
	matcher := matcherFunc(func(_ context.Context, source models.CrawlRecord) (models.MatchResult, error) {
		switch source.ID {
		case "crawl-1":
			panic("scoring exploded")
		case "crawl-2":
			return models.MatchResult{}, errors.New("bad record")
		}
		return decisionFor(source, false), nil
	})
	sink := &memorySink{}
	orch, err := NewOrchestrator(discardLogger(), matcher, sink, Config{BatchSize: 10, Workers: 2})
	require.NoError(t, err)

	summary, err := orch.Run(context.Background(), sources(4), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.RecordsProcessed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 2, summary.Persisted)
}

func TestRunStopsOnSinkFailure(t *testing.T) {
	matcher := matcherFunc(func(_ context.Context, source models.CrawlRecord) (models.MatchResult, error) {
		return decisionFor(source, false), nil
	})
	sink := &memorySink{err: errors.New("database unavailable"), failAfter: 1}
	orch, err := NewOrchestrator(discardLogger(), matcher, sink, Config{BatchSize: 2, Workers: 1})
	require.NoError(t, err)

	summary, err := orch.Run(context.Background(), sources(6), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2")
	assert.Equal(t, 1, summary.Batches)
	assert.Equal(t, 2, summary.Persisted)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	matcher := matcherFunc(func(ctx context.Context, source models.CrawlRecord) (models.MatchResult, error) {
		return models.MatchResult{SourceID: source.ID}, ctx.Err()
	})
	sink := &memorySink{}
	orch, err := NewOrchestrator(discardLogger(), matcher, sink, Config{BatchSize: 1, Workers: 1})
	require.NoError(t, err)

	summary, err := orch.Run(ctx, sources(3), nil, func(_ context.Context, _ models.RunSummary) {
		cancel()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Batches)
	assert.Len(t, sink.batches, 1)
}

func TestNewOrchestratorDefaults(t *testing.T) {
	orch, err := NewOrchestrator(discardLogger(), matcherFunc(nil), &memorySink{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, orch.cfg.BatchSize)
	assert.Equal(t, DefaultWorkers, orch.cfg.Workers)

	_, err = NewOrchestrator(discardLogger(), nil, &memorySink{}, Config{})
	assert.Error(t, err)
	_, err = NewOrchestrator(discardLogger(), matcherFunc(nil), nil, Config{})
	assert.Error(t, err)
}

func TestMultiSink(t *testing.T) {
	primary := &memorySink{}
	review := &memorySink{}
	multi, err := NewMultiSink(primary, ReviewFilter(review))
	require.NoError(t, err)

	n, err := multi.Persist(context.Background(), []models.MatchDecision{
		{SourceID: "a", RequiresManualReview: true},
		{SourceID: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, review.batches, 1)
	assert.Equal(t, "a", review.batches[0][0].SourceID)

	failing, err := NewMultiSink(primary, &memorySink{err: errors.New("kafka down")})
	require.NoError(t, err)
	_, err = failing.Persist(context.Background(), []models.MatchDecision{{SourceID: "c"}})
	assert.Error(t, err)

	_, err = NewMultiSink(nil)
	assert.Error(t, err)
}
