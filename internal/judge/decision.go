package judge

import (
	"math"
	"time"

	"github.com/casawatch/triage-cli/internal/model"
)

// skipRejectThreshold is the number of REJECT votes that sinks a listing
// when no persona affirms it.
const skipRejectThreshold = 3

// Resolve aggregates one listing's persona votes into a BatchResult.
// A listing is skipped when every persona rejects it, or when at least
// skipRejectThreshold personas reject it and none affirm. An empty panel
// sends with score zero.
func Resolve(listingID string, votes map[string]model.Vote, at time.Time) model.BatchResult {
	var score, affirms, rejects int
	var confSum float64

	for _, v := range votes {
		score += model.VerdictScore(v.Verdict)
		switch v.Verdict {
		case model.VerdictAffirm:
			affirms++
		case model.VerdictReject:
			rejects++
		}
		confSum += v.Confidence
	}

	decision := model.DecisionSend
	if len(votes) > 0 && rejects == len(votes) {
		decision = model.DecisionSkip
	} else if rejects >= skipRejectThreshold && affirms == 0 {
		decision = model.DecisionSkip
	}

	meanConf := 0.0
	if len(votes) > 0 {
		meanConf = math.Round(confSum/float64(len(votes))*100) / 100
	}

	return model.BatchResult{
		ListingID:      listingID,
		Votes:          votes,
		Decision:       decision,
		Score:          score,
		AffirmCount:    affirms,
		RejectCount:    rejects,
		MeanConfidence: meanConf,
		EvaluatedAt:    at,
	}
}
