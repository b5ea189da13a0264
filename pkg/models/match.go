package models

import "time"

// MatchMethodHybridLLM marks decisions produced by scoring plus LLM verification
const MatchMethodHybridLLM = "hybrid_llm"

// CandidateState is the position of a candidate in the selection state machine
type CandidateState string

const (
	CandidateStatePending   CandidateState = "pending"
	CandidateStateScored    CandidateState = "scored"
	CandidateStateFiltered  CandidateState = "filtered"
	CandidateStateRejected  CandidateState = "rejected"
	CandidateStateVerified  CandidateState = "verified"
	CandidateStateConfirmed CandidateState = "confirmed"
	CandidateStateDeclined  CandidateState = "declined"
)

// IsTerminal reports whether no further transition can happen from the state
func (s CandidateState) IsTerminal() bool {
	switch s {
	case CandidateStateFiltered, CandidateStateRejected, CandidateStateConfirmed, CandidateStateDeclined:
		return true
	}
	return false
}

// SignalBreakdown holds the individual similarity signals of a candidate, each in [0,1]
type SignalBreakdown struct {
	Name     float64 `json:"name"`
	Semantic float64 `json:"semantic"`
	Location float64 `json:"location"`
	Industry float64 `json:"industry"`
}

// ScoredCandidate is a registry candidate with its composite similarity to the source record
type ScoredCandidate struct {
	Record         RegistryRecord  `json:"record"`
	CompositeScore float64         `json:"composite_score"`
	Signals        SignalBreakdown `json:"signals"`
}

// VerificationResult is the validated outcome of adjudicating a candidate
type VerificationResult struct {
	IsMatch    bool     `json:"is_match"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	KeyFactors []string `json:"key_factors"`
}

// FailedVerification is the safe result used whenever adjudication cannot be trusted
func FailedVerification(cause string) VerificationResult {
	return VerificationResult{
		IsMatch:    false,
		Confidence: 0,
		Reasoning:  "verification failed: " + cause,
		KeyFactors: []string{},
	}
}

// MatchDecision is the confirmed match for a source record
type MatchDecision struct {
	SourceID               string    `json:"source_id" db:"source_id"`
	RegistryID             string    `json:"registry_id" db:"registry_id"`
	RegistryRecordID       string    `json:"registry_record_id" db:"registry_record_id"`
	SimilarityScore        float64   `json:"similarity_score" db:"similarity_score"`
	VerificationConfidence float64   `json:"verification_confidence" db:"verification_confidence"`
	RequiresManualReview   bool      `json:"requires_manual_review" db:"requires_manual_review"`
	Reasoning              string    `json:"reasoning" db:"reasoning"`
	MatchMethod            string    `json:"match_method" db:"match_method"`
	DecidedAt              time.Time `json:"decided_at" db:"decided_at"`
}

// CandidateEvaluation records how far a single candidate travelled through the funnel
type CandidateEvaluation struct {
	Candidate    ScoredCandidate     `json:"candidate"`
	State        CandidateState      `json:"state"`
	Verification *VerificationResult `json:"verification,omitempty"`
}

// MatchResult is the outcome of running the funnel for one source record
type MatchResult struct {
	SourceID          string                `json:"source_id"`
	CandidateCount    int                   `json:"candidate_count"`
	Evaluations       []CandidateEvaluation `json:"evaluations"`
	VerificationCalls int                   `json:"verification_calls"`
	Decision          *MatchDecision        `json:"decision,omitempty"`
}
