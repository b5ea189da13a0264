package matching

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/banksia/pkg/models"
)

// DefaultMaxVerifications caps adjudicator calls per source record
const DefaultMaxVerifications = 5

// Verifier adjudicates one scored candidate. It never returns an error: failures
// come back as a non-matching result with zero confidence.
type Verifier interface {
	Verify(ctx context.Context, source models.CrawlRecord, candidate models.ScoredCandidate) models.VerificationResult
}

// Selector applies the thresholds to scored candidates and confirms at most one
type Selector struct {
	thresholds       models.Thresholds
	maxVerifications int
	now              func() time.Time
}

func NewSelector(thresholds models.Thresholds) *Selector {
	return &Selector{
		thresholds:       thresholds,
		maxVerifications: DefaultMaxVerifications,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Select ranks candidates by descending composite score (ties keep input order), verifies
// the top eligible ones in that order and stops at the first confirmed match.
func (s *Selector) Select(ctx context.Context, source models.CrawlRecord, scored []models.ScoredCandidate, verifier Verifier) models.MatchResult {
	ranked := make([]models.ScoredCandidate, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})

	evaluations := make([]models.CandidateEvaluation, len(ranked))
	for i, candidate := range ranked {
		state := models.CandidateStateScored
		if candidate.CompositeScore < s.thresholds.ManualReviewFloor {
			state = models.CandidateStateFiltered
		}
		evaluations[i] = models.CandidateEvaluation{Candidate: candidate, State: state}
	}

	eligible := ectolinq.Filter(indexes(len(ranked)), func(i int) bool {
		return ranked[i].CompositeScore >= s.thresholds.VerificationFloor
	})

	result := models.MatchResult{SourceID: source.ID, CandidateCount: len(ranked)}
	for _, i := range ectolinq.Take(eligible, s.maxVerifications) {
		if ctx.Err() != nil {
			break
		}

		verification := verifier.Verify(ctx, source, ranked[i])
		result.VerificationCalls++
		evaluations[i].Verification = &verification

		if !verification.IsMatch {
			evaluations[i].State = models.CandidateStateDeclined
			continue
		}

		evaluations[i].State = models.CandidateStateConfirmed
		result.Decision = s.decide(source, ranked[i], verification)
		break
	}

	for i := range evaluations {
		if evaluations[i].State == models.CandidateStateScored {
			evaluations[i].State = models.CandidateStateRejected
		}
	}
	result.Evaluations = evaluations
	return result
}

func (s *Selector) decide(source models.CrawlRecord, candidate models.ScoredCandidate, verification models.VerificationResult) *models.MatchDecision {
	return &models.MatchDecision{
		SourceID:               source.ID,
		RegistryID:             candidate.Record.RegistryID,
		RegistryRecordID:       candidate.Record.ID,
		SimilarityScore:        candidate.CompositeScore,
		VerificationConfidence: verification.Confidence,
		RequiresManualReview:   verification.Confidence < s.thresholds.HighConfidenceFloor,
		Reasoning:              verification.Reasoning,
		MatchMethod:            models.MatchMethodHybridLLM,
		DecidedAt:              s.now(),
	}
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
