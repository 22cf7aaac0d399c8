package judge

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/internal/model"
)

// rawVote mirrors the JSON element the schema directive asks for.
type rawVote struct {
	ListingNum int      `json:"listing_num"`
	Vote       string   `json:"vote"`
	Confidence *float64 `json:"confidence"`
	Summary    string   `json:"summary"`
	Positives  []string `json:"positives"`
	Negatives  []string `json:"negatives"`
	Unknowns   []string `json:"unknowns"`
}

// ParseVotes decodes a persona's raw reply into exactly expected votes.
// It never returns an error: unrecognized verdict tokens become UNCERTAIN,
// short replies are padded with neutral votes, overruns are truncated, and
// an undecodable reply yields a full-length list flagged as parse failures.
func ParseVotes(raw string, expected int) []model.Vote {
	cleaned := cleanJSON(raw)

	var parsed []rawVote
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		// A single bare object counts as a one-element list.
		var single rawVote
		if err2 := json.Unmarshal([]byte(cleaned), &single); err2 != nil {
			zap.L().Warn("vote parse failure, substituting neutral votes",
				zap.Int("expected", expected),
				zap.Error(err))
			return parseFailureVotes(expected)
		}
		parsed = []rawVote{single}
	}

	votes := make([]model.Vote, 0, expected)
	for _, rv := range parsed {
		votes = append(votes, normalizeVote(rv))
	}

	// Pad short replies so every listing keeps a full vote set.
	for len(votes) < expected {
		votes = append(votes, model.Vote{
			Verdict:    model.VerdictUncertain,
			Confidence: 0,
			Summary:    "No response from persona for this listing",
		})
	}

	return votes[:expected]
}

func normalizeVote(rv rawVote) model.Vote {
	v := model.Vote{
		Summary:   rv.Summary,
		Positives: rv.Positives,
		Negatives: rv.Negatives,
		Unknowns:  rv.Unknowns,
	}

	switch strings.ToUpper(strings.TrimSpace(rv.Vote)) {
	case "YES":
		v.Verdict = model.VerdictAffirm
	case "NO":
		v.Verdict = model.VerdictReject
	default:
		v.Verdict = model.VerdictUncertain
	}

	if rv.Confidence != nil {
		v.Confidence = clamp01(*rv.Confidence)
	} else {
		v.Confidence = 0.5
	}

	return v
}

func parseFailureVotes(n int) []model.Vote {
	votes := make([]model.Vote, n)
	for i := range votes {
		votes[i] = model.Vote{
			Verdict:      model.VerdictUncertain,
			Confidence:   0,
			Summary:      "Failed to parse persona response",
			ParseFailure: true,
		}
	}
	return votes
}

// cleanJSON strips markdown fences and extracts the outermost JSON array or
// object from surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Extract whichever top-level container opens first, so an object with
	// array-valued fields is not mistaken for an array.
	arrStart := strings.Index(text, "[")
	objStart := strings.Index(text, "{")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return strings.TrimSpace(text[arrStart : end+1])
		}
	}
	if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return strings.TrimSpace(text[objStart : end+1])
		}
	}

	return strings.TrimSpace(text)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
