package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casawatch/triage-cli/internal/model"
)

// scriptedEvaluator returns canned replies keyed by persona name (matched
// against the system prompt prefix), or a global error.
type scriptedEvaluator struct {
	replies map[string]string
	failFor map[string]error
	calls   int
}

func (s *scriptedEvaluator) Name() string { return "scripted" }

func (s *scriptedEvaluator) Evaluate(_ context.Context, system, _ string) (string, error) {
	s.calls++
	for name, err := range s.failFor {
		if strings.Contains(system, name) {
			return "", err
		}
	}
	for name, reply := range s.replies {
		if strings.Contains(system, name) {
			return reply, nil
		}
	}
	return "", errors.New("no script for persona")
}

type recordingSink struct {
	saves           int
	evaluatedAtSave [][]string
}

func (r *recordingSink) SaveProgress(_ context.Context, rec *model.ProgressRecord) error {
	r.saves++
	ids := make([]string, len(rec.EvaluatedIDs))
	copy(ids, rec.EvaluatedIDs)
	r.evaluatedAtSave = append(r.evaluatedAtSave, ids)
	return nil
}

func testPanel() []Persona {
	return []Persona{
		{Name: "PersonaOne", Order: 1, Instructions: "PersonaOne instructions"},
		{Name: "PersonaTwo", Order: 2, Instructions: "PersonaTwo instructions"},
	}
}

func testListings(n int) []model.Listing {
	out := make([]model.Listing, n)
	for i := range out {
		out[i] = model.Listing{
			Source: "idealista",
			URL:    fmt.Sprintf("https://example.com/%d", i),
			Title:  fmt.Sprintf("Listing %d", i),
			Price:  200000 + i,
			SizeM2: 80,
			Rooms:  3,
		}
	}
	return out
}

func allVotes(verdict string, n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"listing_num": %d, "vote": %q, "confidence": 0.8}`, i+1, verdict)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestOrchestrator_Run(t *testing.T) {
	listings := testListings(3)
	ev := &scriptedEvaluator{replies: map[string]string{
		"PersonaOne": allVotes("YES", 3),
		"PersonaTwo": allVotes("NO", 3),
	}}
	sink := &recordingSink{}
	rec := &model.ProgressRecord{}

	o := NewOrchestrator(ev, testPanel(), sink, 5, 0)
	results, err := o.Run(context.Background(), listings, rec)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, listings[i].ID(), r.ListingID)
		require.Len(t, r.Votes, 2)
		assert.Equal(t, model.VerdictAffirm, r.Votes["PersonaOne"].Verdict)
		assert.Equal(t, model.VerdictReject, r.Votes["PersonaTwo"].Verdict)
		// One affirm blocks the skip policy.
		assert.Equal(t, model.DecisionSend, r.Decision)
		assert.Equal(t, 2, r.Score)
	}

	assert.Equal(t, 1, sink.saves)
	assert.Len(t, rec.EvaluatedIDs, 3)
	assert.Len(t, rec.Results, 3)
}

func TestOrchestrator_SavesAfterEveryBatch(t *testing.T) {
	listings := testListings(7)
	ev := &scriptedEvaluator{replies: map[string]string{
		"PersonaOne": allVotes("YES", 7), // parser truncates to batch size
		"PersonaTwo": allVotes("YES", 7),
	}}
	sink := &recordingSink{}
	rec := &model.ProgressRecord{}

	o := NewOrchestrator(ev, testPanel(), sink, 3, 0)
	results, err := o.Run(context.Background(), listings, rec)
	require.NoError(t, err)
	assert.Len(t, results, 7)

	// Batches of 3, 3, 1.
	require.Equal(t, 3, sink.saves)
	assert.Len(t, sink.evaluatedAtSave[0], 3)
	assert.Len(t, sink.evaluatedAtSave[1], 6)
	assert.Len(t, sink.evaluatedAtSave[2], 7)
	// Two personas per batch.
	assert.Equal(t, 6, ev.calls)
}

func TestOrchestrator_PersonaFailureDegradesToNeutral(t *testing.T) {
	listings := testListings(2)
	ev := &scriptedEvaluator{
		replies: map[string]string{"PersonaOne": allVotes("YES", 2)},
		failFor: map[string]error{"PersonaTwo": errors.New("provider exploded")},
	}
	sink := &recordingSink{}
	rec := &model.ProgressRecord{}

	o := NewOrchestrator(ev, testPanel(), sink, 5, 0)
	results, err := o.Run(context.Background(), listings, rec)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		require.Len(t, r.Votes, 2, "failed persona must still contribute a vote")
		failed := r.Votes["PersonaTwo"]
		assert.Equal(t, model.VerdictUncertain, failed.Verdict)
		assert.Zero(t, failed.Confidence)
		assert.True(t, failed.ParseFailure)
		assert.Contains(t, failed.Summary, "provider exploded")
		assert.Equal(t, model.DecisionSend, r.Decision)
	}
	assert.Equal(t, 1, sink.saves)
}

func TestOrchestrator_MalformedReplyStillFullVotes(t *testing.T) {
	listings := testListings(2)
	ev := &scriptedEvaluator{replies: map[string]string{
		"PersonaOne": "I refuse to answer in JSON.",
		"PersonaTwo": allVotes("NO", 2),
	}}
	sink := &recordingSink{}
	rec := &model.ProgressRecord{}

	o := NewOrchestrator(ev, testPanel(), sink, 5, 0)
	results, err := o.Run(context.Background(), listings, rec)
	require.NoError(t, err)

	for _, r := range results {
		require.Len(t, r.Votes, 2)
		assert.True(t, r.Votes["PersonaOne"].ParseFailure)
		assert.Equal(t, model.VerdictUncertain, r.Votes["PersonaOne"].Verdict)
	}
}

func TestOrchestrator_ContextCancelled(t *testing.T) {
	listings := testListings(4)
	ev := &scriptedEvaluator{replies: map[string]string{
		"PersonaOne": allVotes("YES", 4),
		"PersonaTwo": allVotes("YES", 4),
	}}
	sink := &recordingSink{}
	rec := &model.ProgressRecord{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(ev, testPanel(), sink, 2, 0)
	_, err := o.Run(ctx, listings, rec)
	require.Error(t, err)
	assert.Zero(t, sink.saves)
}

func TestOrchestrator_EmptyPanel(t *testing.T) {
	listings := testListings(1)
	ev := &scriptedEvaluator{}
	sink := &recordingSink{}
	rec := &model.ProgressRecord{}

	o := NewOrchestrator(ev, nil, sink, 5, 0)
	results, err := o.Run(context.Background(), listings, rec)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.DecisionSend, results[0].Decision)
	assert.Equal(t, 0, results[0].Score)
	assert.Zero(t, ev.calls)
}
