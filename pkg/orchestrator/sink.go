package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramsey-B/banksia/pkg/models"
)

// Sink receives confirmed decisions at batch boundaries. Implementations must tolerate
// re-delivery of the same (source_id, registry_id) pair.
type Sink interface {
	Persist(ctx context.Context, decisions []models.MatchDecision) (int, error)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(ctx context.Context, decisions []models.MatchDecision) (int, error)

func (f SinkFunc) Persist(ctx context.Context, decisions []models.MatchDecision) (int, error) {
	return f(ctx, decisions)
}

// MultiSink fans each batch out to a primary sink followed by secondary sinks.
// The reported count is the primary's; a failing secondary still fails the batch.
type MultiSink struct {
	primary   Sink
	secondary []Sink
}

func NewMultiSink(primary Sink, secondary ...Sink) (*MultiSink, error) {
	if primary == nil {
		return nil, errors.New("a primary sink is required")
	}
	return &MultiSink{primary: primary, secondary: secondary}, nil
}

func (m *MultiSink) Persist(ctx context.Context, decisions []models.MatchDecision) (int, error) {
	count, err := m.primary.Persist(ctx, decisions)
	if err != nil {
		return 0, err
	}
	for i, sink := range m.secondary {
		if _, err := sink.Persist(ctx, decisions); err != nil {
			return count, fmt.Errorf("secondary sink %d: %w", i, err)
		}
	}
	return count, nil
}

// ReviewFilter forwards only decisions that require manual review
func ReviewFilter(next Sink) Sink {
	return SinkFunc(func(ctx context.Context, decisions []models.MatchDecision) (int, error) {
		review := make([]models.MatchDecision, 0, len(decisions))
		for _, d := range decisions {
			if d.RequiresManualReview {
				review = append(review, d)
			}
		}
		if len(review) == 0 {
			return 0, nil
		}
		return next.Persist(ctx, review)
	})
}
