// Package events publishes match decision events
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	reqcontext "github.com/Ramsey-B/banksia/pkg/context"
	"github.com/Ramsey-B/banksia/pkg/kafka"
	"github.com/Ramsey-B/banksia/pkg/models"
	"github.com/Ramsey-B/banksia/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventMatchConfirmed      = "match.confirmed"
	EventMatchReviewRequired = "match.review_required"
)

// DecisionEvent is the payload published for every confirmed match
type DecisionEvent struct {
	SchemaVersion          string    `json:"schema_version"`
	EventType              string    `json:"event_type"`
	JobID                  string    `json:"job_id,omitempty"`
	SourceID               string    `json:"source_id"`
	RegistryID             string    `json:"registry_id"`
	SimilarityScore        float64   `json:"similarity_score"`
	VerificationConfidence float64   `json:"verification_confidence"`
	RequiresManualReview   bool      `json:"requires_manual_review"`
	Reasoning              string    `json:"reasoning"`
	MatchMethod            string    `json:"match_method"`
	DecidedAt              time.Time `json:"decided_at"`
}

type publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// Emitter turns match decisions into Kafka events
type Emitter struct {
	producer publisher
	logger   ectologger.Logger
}

func NewEmitter(producer publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// Persist publishes one event per decision. It lets the emitter act as a decision sink.
func (e *Emitter) Persist(ctx context.Context, decisions []models.MatchDecision) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.Persist")
	defer span.End()

	if len(decisions) == 0 {
		return 0, nil
	}

	jobID := reqcontext.GetJobID(ctx)
	batch := make([]kafka.Event, 0, len(decisions))
	for _, decision := range decisions {
		event := NewDecisionEvent(decision, jobID)
		batch = append(batch, kafka.Event{
			Key:  decision.SourceID,
			Type: event.EventType,
			Headers: map[string]string{
				"schema_version": SchemaVersion,
				"registry_id":    decision.RegistryID,
			},
			Payload: event,
		})
	}

	if err := e.producer.Publish(ctx, batch...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match decision events")
		return 0, err
	}
	return len(batch), nil
}

func NewDecisionEvent(decision models.MatchDecision, jobID string) DecisionEvent {
	eventType := EventMatchConfirmed
	if decision.RequiresManualReview {
		eventType = EventMatchReviewRequired
	}
	return DecisionEvent{
		SchemaVersion:          SchemaVersion,
		EventType:              eventType,
		JobID:                  jobID,
		SourceID:               decision.SourceID,
		RegistryID:             decision.RegistryID,
		SimilarityScore:        decision.SimilarityScore,
		VerificationConfidence: decision.VerificationConfidence,
		RequiresManualReview:   decision.RequiresManualReview,
		Reasoning:              decision.Reasoning,
		MatchMethod:            decision.MatchMethod,
		DecidedAt:              decision.DecidedAt,
	}
}
