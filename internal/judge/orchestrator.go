package judge

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/casawatch/triage-cli/internal/evaluator"
	"github.com/casawatch/triage-cli/internal/model"
)

// ProgressSink receives the progress record after every completed batch.
type ProgressSink interface {
	SaveProgress(ctx context.Context, rec *model.ProgressRecord) error
}

// Orchestrator drives batches of listings through the persona panel.
type Orchestrator struct {
	client    evaluator.Client
	panel     []Persona
	sink      ProgressSink
	batchSize int
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewOrchestrator builds an orchestrator. batchSize values below 1 fall back
// to 5; personaDelay spaces consecutive persona calls.
func NewOrchestrator(client evaluator.Client, panel []Persona, sink ProgressSink, batchSize int, personaDelay time.Duration) *Orchestrator {
	if batchSize < 1 {
		batchSize = 5
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if personaDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(personaDelay), 1)
	}
	return &Orchestrator{
		client:    client,
		panel:     panel,
		sink:      sink,
		batchSize: batchSize,
		limiter:   limiter,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run evaluates the listings batch by batch, appending results to rec and
// persisting it after every batch so a crash loses at most the in-flight
// batch. Persona failures degrade to neutral votes; only context
// cancellation stops the run early.
func (o *Orchestrator) Run(ctx context.Context, listings []model.Listing, rec *model.ProgressRecord) ([]model.BatchResult, error) {
	var produced []model.BatchResult

	numBatches := (len(listings) + o.batchSize - 1) / o.batchSize
	zap.L().Info("starting evaluation run",
		zap.String("provider", o.client.Name()),
		zap.Int("listings", len(listings)),
		zap.Int("batches", numBatches),
		zap.Int("personas", len(o.panel)))

	for start := 0; start < len(listings); start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return produced, eris.Wrap(err, "judge: run cancelled")
		}

		end := start + o.batchSize
		if end > len(listings) {
			end = len(listings)
		}
		batch := listings[start:end]
		batchNum := start/o.batchSize + 1

		zap.L().Info("evaluating batch",
			zap.Int("batch", batchNum),
			zap.Int("of", numBatches),
			zap.Int("size", len(batch)))

		results, err := o.evaluateBatch(ctx, batch)
		if err != nil {
			return produced, err
		}

		ids := make([]string, len(batch))
		for i, l := range batch {
			ids[i] = l.ID()
		}
		rec.Results = append(rec.Results, results...)
		rec.MarkEvaluated(ids...)

		if err := o.sink.SaveProgress(ctx, rec); err != nil {
			// Losing a checkpoint is recoverable; losing the run is not.
			zap.L().Error("failed to save progress after batch",
				zap.Int("batch", batchNum),
				zap.Error(err))
		}

		produced = append(produced, results...)
	}

	return produced, nil
}

// evaluateBatch runs every persona over one batch and zips the index-aligned
// votes into one result per listing.
func (o *Orchestrator) evaluateBatch(ctx context.Context, batch []model.Listing) ([]model.BatchResult, error) {
	payload := BatchPayload(batch)

	// votesByListing[i] maps persona name to its vote for batch[i].
	votesByListing := make([]map[string]model.Vote, len(batch))
	for i := range votesByListing {
		votesByListing[i] = make(map[string]model.Vote, len(o.panel))
	}

	for _, persona := range o.panel {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "judge: wait for rate limit")
		}

		raw, err := o.client.Evaluate(ctx, SystemPrompt(persona, len(batch)), payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(err, "judge: evaluate cancelled")
			}
			zap.L().Warn("persona evaluation failed, recording neutral votes",
				zap.String("persona", persona.Name),
				zap.Error(err))
			for i := range batch {
				votesByListing[i][persona.Name] = model.Vote{
					Verdict:      model.VerdictUncertain,
					Confidence:   0,
					Summary:      "Persona error: " + err.Error(),
					ParseFailure: true,
				}
			}
			continue
		}

		votes := ParseVotes(raw, len(batch))
		for i, v := range votes {
			votesByListing[i][persona.Name] = v
		}
	}

	results := make([]model.BatchResult, len(batch))
	at := o.now()
	for i, l := range batch {
		results[i] = Resolve(l.ID(), votesByListing[i], at)
		zap.L().Debug("listing resolved",
			zap.String("listing_id", l.ID()),
			zap.String("decision", string(results[i].Decision)),
			zap.Int("score", results[i].Score))
	}
	return results, nil
}
