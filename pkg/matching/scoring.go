// Package matching implements the candidate funnel that pairs crawl records with registry records
package matching

import (
	"github.com/Ramsey-B/banksia/pkg/normalizers"
	"github.com/pmezard/go-difflib/difflib"
)

// Scorer provides the string comparison algorithms behind the name signal
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// SequenceRatio is the character-level matching-blocks ratio 2*M/T between a and b.
// Two empty strings are identical; one empty string shares nothing.
func (s *Scorer) SequenceRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// Jaccard is |A∩B| / |A∪B| over whitespace-split token sets
func (s *Scorer) Jaccard(a, b string) float64 {
	tokensA := normalizers.Tokens(a)
	tokensB := normalizers.Tokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	set := make(map[string]struct{}, len(tokensA))
	for _, t := range tokensA {
		set[t] = struct{}{}
	}

	intersection := 0
	for _, t := range tokensB {
		if _, ok := set[t]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

// NameScore compares a source name against every candidate name and keeps the best
// of sequence and token similarity. Names are normalized before comparison.
func (s *Scorer) NameScore(source string, candidates []string) float64 {
	normalizedSource := normalizers.NormalizeCompanyName(source)
	if normalizedSource == "" {
		return 0.0
	}

	best := 0.0
	for _, name := range candidates {
		normalized := normalizers.NormalizeCompanyName(name)
		if normalized == "" {
			continue
		}
		if normalized == normalizedSource {
			return 1.0
		}
		score := max(s.SequenceRatio(normalizedSource, normalized), s.Jaccard(normalizedSource, normalized))
		if score > best {
			best = score
		}
	}
	return clamp(best)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
