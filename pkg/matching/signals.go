package matching

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/banksia/pkg/embedding"
	"github.com/Ramsey-B/banksia/pkg/models"
)

const (
	NameWeight     = 0.5
	SemanticWeight = 0.2
	LocationWeight = 0.15
	IndustryWeight = 0.15

	neutralSignal = 0.5
)

// SignalScorer computes the weighted composite similarity of a candidate
type SignalScorer struct {
	scorer   *Scorer
	embedder embedding.Embedder
	logger   ectologger.Logger
}

// NewSignalScorer creates a SignalScorer. A nil embedder disables the semantic signal.
func NewSignalScorer(scorer *Scorer, embedder embedding.Embedder, logger ectologger.Logger) *SignalScorer {
	return &SignalScorer{
		scorer:   scorer,
		embedder: embedder,
		logger:   logger,
	}
}

// Score computes the composite for a single candidate
func (s *SignalScorer) Score(ctx context.Context, source models.CrawlRecord, candidate models.RegistryRecord) models.ScoredCandidate {
	return s.score(ctx, source, s.embed(ctx, sourceText(source)), candidate)
}

// ScoreAll scores candidates in input order, embedding the source text once
func (s *SignalScorer) ScoreAll(ctx context.Context, source models.CrawlRecord, candidates []models.RegistryRecord) []models.ScoredCandidate {
	var sourceVector []float32
	if len(candidates) > 0 {
		sourceVector = s.embed(ctx, sourceText(source))
	}

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, s.score(ctx, source, sourceVector, candidate))
	}
	return scored
}

func (s *SignalScorer) score(ctx context.Context, source models.CrawlRecord, sourceVector []float32, candidate models.RegistryRecord) models.ScoredCandidate {
	signals := models.SignalBreakdown{
		Name:     s.scorer.NameScore(source.Name, candidate.Names()),
		Semantic: s.semanticScore(ctx, sourceVector, candidate),
		Location: locationScore(candidate),
		Industry: industryScore(source),
	}

	return models.ScoredCandidate{
		Record:         candidate,
		CompositeScore: Composite(signals),
		Signals:        signals,
	}
}

// Composite is the weighted sum of the individually clamped signals, clamped to [0,1]
func Composite(signals models.SignalBreakdown) float64 {
	return clamp(NameWeight*clamp(signals.Name) +
		SemanticWeight*clamp(signals.Semantic) +
		LocationWeight*clamp(signals.Location) +
		IndustryWeight*clamp(signals.Industry))
}

func (s *SignalScorer) semanticScore(ctx context.Context, sourceVector []float32, candidate models.RegistryRecord) float64 {
	if len(sourceVector) == 0 {
		return 0
	}
	candidateVector := s.embed(ctx, candidateText(candidate))
	if len(candidateVector) == 0 {
		return 0
	}
	return clamp(embedding.CosineSimilarity(sourceVector, candidateVector))
}

// embed returns nil when there is nothing to embed or the embedder fails
func (s *SignalScorer) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil || text == "" {
		return nil
	}
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("embedding failed, semantic signal set to zero")
		return nil
	}
	return vector
}

// location fields exist only on the registry side, so this stays a neutral placeholder
func locationScore(candidate models.RegistryRecord) float64 {
	if candidate.HasLocation() {
		return neutralSignal
	}
	return 0
}

func industryScore(source models.CrawlRecord) float64 {
	if source.IndustryText() != "" {
		return neutralSignal
	}
	return 0
}

func sourceText(source models.CrawlRecord) string {
	return joinNonEmpty(" ", strings.TrimSpace(source.Name), source.DescriptionText(), source.IndustryText())
}

func candidateText(candidate models.RegistryRecord) string {
	parts := append([]string{strings.TrimSpace(candidate.LegalName)}, candidate.TradingNames...)
	return joinNonEmpty(" ", parts...)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
