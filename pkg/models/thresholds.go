package models

import "fmt"

// Thresholds are the confidence floors used by the matching funnel.
// A Thresholds value is built once per process and passed by value; it is never mutated during a run.
type Thresholds struct {
	ManualReviewFloor   float64 `json:"manual_review_floor"`
	VerificationFloor   float64 `json:"verification_floor"`
	HighConfidenceFloor float64 `json:"high_confidence_floor"`
	ExactMatchFloor     float64 `json:"exact_match_floor"`
}

// DefaultThresholds returns the standard floors
func DefaultThresholds() Thresholds {
	return Thresholds{
		ManualReviewFloor:   0.40,
		VerificationFloor:   0.60,
		HighConfidenceFloor: 0.85,
		ExactMatchFloor:     0.95,
	}
}

// NewThresholds builds a validated Thresholds value
func NewThresholds(manualReview, verification, highConfidence, exactMatch float64) (Thresholds, error) {
	t := Thresholds{
		ManualReviewFloor:   manualReview,
		VerificationFloor:   verification,
		HighConfidenceFloor: highConfidence,
		ExactMatchFloor:     exactMatch,
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate checks every floor is within [0,1] and that
// exactMatch >= highConfidence >= verification >= manualReview
func (t Thresholds) Validate() error {
	floors := []struct {
		name  string
		value float64
	}{
		{"manual_review_floor", t.ManualReviewFloor},
		{"verification_floor", t.VerificationFloor},
		{"high_confidence_floor", t.HighConfidenceFloor},
		{"exact_match_floor", t.ExactMatchFloor},
	}
	for _, f := range floors {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", f.name, f.value)
		}
	}

	if t.ExactMatchFloor < t.HighConfidenceFloor ||
		t.HighConfidenceFloor < t.VerificationFloor ||
		t.VerificationFloor < t.ManualReviewFloor {
		return fmt.Errorf("thresholds out of order: exact %.2f >= high %.2f >= verification %.2f >= manual %.2f is required",
			t.ExactMatchFloor, t.HighConfidenceFloor, t.VerificationFloor, t.ManualReviewFloor)
	}

	return nil
}
