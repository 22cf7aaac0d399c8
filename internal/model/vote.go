package model

import "time"

// Verdict is a single persona's judgment on a listing. After parsing a
// verdict is always one of the three values below; unrecognized or missing
// tokens are normalized to VerdictUncertain.
type Verdict string

const (
	VerdictAffirm    Verdict = "AFFIRM"
	VerdictReject    Verdict = "REJECT"
	VerdictUncertain Verdict = "UNCERTAIN"
)

// VerdictScore maps a verdict to its contribution to the aggregate score.
func VerdictScore(v Verdict) int {
	switch v {
	case VerdictAffirm:
		return 2
	case VerdictUncertain:
		return 1
	default:
		return 0
	}
}

// Vote is one persona's judgment on one listing within one batch call.
type Vote struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Summary    string   `json:"summary,omitempty"`
	Positives  []string `json:"positives,omitempty"`
	Negatives  []string `json:"negatives,omitempty"`
	Unknowns   []string `json:"unknowns,omitempty"`

	// ParseFailure marks synthetic votes produced when a persona's reply
	// could not be decoded at all.
	ParseFailure bool `json:"parse_failure,omitempty"`
}

// Decision is the aggregate outcome for one listing after all personas vote.
type Decision string

const (
	DecisionSend Decision = "SEND"
	DecisionSkip Decision = "SKIP"
)

// BatchResult aggregates every persona's vote for one listing. The vote map
// carries exactly one entry per registered persona; failed or short persona
// replies are padded with synthetic UNCERTAIN votes before aggregation.
type BatchResult struct {
	ListingID      string          `json:"listing_id"`
	Votes          map[string]Vote `json:"votes"`
	Decision       Decision        `json:"decision"`
	Score          int             `json:"score"`
	AffirmCount    int             `json:"affirm_count"`
	RejectCount    int             `json:"reject_count"`
	MeanConfidence float64         `json:"mean_confidence"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
}
