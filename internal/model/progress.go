package model

import "time"

// ProgressRecord is the durable cross-run state: which listing IDs have been
// evaluated, every batch result ever produced, and when the last run
// finished. It is loaded once per run and persisted after every batch so a
// crash mid-run loses at most the in-flight batch.
type ProgressRecord struct {
	RunID        string        `json:"run_id,omitempty"`
	EvaluatedIDs []string      `json:"evaluated_ids"`
	Results      []BatchResult `json:"results"`
	LastRun      time.Time     `json:"last_run"`
}

// EvaluatedSet returns the evaluated IDs as a set for membership checks.
func (p *ProgressRecord) EvaluatedSet() map[string]bool {
	set := make(map[string]bool, len(p.EvaluatedIDs))
	for _, id := range p.EvaluatedIDs {
		set[id] = true
	}
	return set
}

// MarkEvaluated appends any IDs not already present, preserving order.
func (p *ProgressRecord) MarkEvaluated(ids ...string) {
	seen := p.EvaluatedSet()
	for _, id := range ids {
		if !seen[id] {
			p.EvaluatedIDs = append(p.EvaluatedIDs, id)
			seen[id] = true
		}
	}
}
