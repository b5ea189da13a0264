package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/Ramsey-B/banksia/pkg/kafka"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...kafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func discardLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestEmitterPersist(t *testing.T) {
	publisher := &recordingPublisher{}
	emitter := NewEmitter(publisher, discardLogger())
	decidedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	decisions := []models.MatchDecision{
		{SourceID: "crawl-1", RegistryID: "51824753556", SimilarityScore: 0.9, VerificationConfidence: 0.95, MatchMethod: models.MatchMethodHybridLLM, DecidedAt: decidedAt},
		{SourceID: "crawl-2", RegistryID: "33102417032", SimilarityScore: 0.7, VerificationConfidence: 0.7, RequiresManualReview: true, MatchMethod: models.MatchMethodHybridLLM, DecidedAt: decidedAt},
	}

	ctx := reqcontext.SetJobID(context.Background(), "job-7")
	n, err := emitter.Persist(ctx, decisions)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, publisher.events, 2)

	first := publisher.events[0]
	assert.Equal(t, "crawl-1", first.Key)
	assert.Equal(t, EventMatchConfirmed, first.Type)
	assert.Equal(t, "51824753556", first.Headers["registry_id"])
	payload, ok := first.Payload.(DecisionEvent)
	require.True(t, ok)
	assert.Equal(t, SchemaVersion, payload.SchemaVersion)
	assert.Equal(t, "job-7", payload.JobID)
	assert.Equal(t, decidedAt, payload.DecidedAt)

	assert.Equal(t, EventMatchReviewRequired, publisher.events[1].Type)
}

func TestEmitterPersistEmpty(t *testing.T) {
	publisher := &recordingPublisher{}
	n, err := NewEmitter(publisher, discardLogger()).Persist(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, publisher.events)
}

func TestEmitterPersistError(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	n, err := NewEmitter(publisher, discardLogger()).Persist(context.Background(), []models.MatchDecision{{SourceID: "crawl-1"}})
	require.Error(t, err)
	assert.Zero(t, n)
}
