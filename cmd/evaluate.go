package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/internal/evaluator"
	"github.com/casawatch/triage-cli/internal/intake"
	"github.com/casawatch/triage-cli/internal/judge"
	"github.com/casawatch/triage-cli/internal/model"
	"github.com/casawatch/triage-cli/internal/progress"
	"github.com/casawatch/triage-cli/internal/report"
	"github.com/casawatch/triage-cli/pkg/anthropic"
	"github.com/casawatch/triage-cli/pkg/gemini"
	"github.com/casawatch/triage-cli/pkg/telegram"
)

var evaluateDryRun bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate new listings and send the digest",
	Long:  "Loads candidate listings from the configured feeds, filters out everything already evaluated, runs the persona panel over the rest in batches, and delivers the Telegram digest.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		return runEvaluate(ctx, st)
	},
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateDryRun, "dry-run", false, "evaluate but do not send the Telegram digest")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(ctx context.Context, st progress.Store) error {
	sources := make([]intake.Source, 0, len(cfg.Intake.Feeds))
	for _, feed := range cfg.Intake.Feeds {
		sources = append(sources, intake.NewFileSource(feed))
	}

	listings, err := intake.LoadAll(ctx, sources)
	if err != nil {
		return eris.Wrap(err, "load feeds")
	}
	listings = intake.MergeDuplicates(listings)

	rec, err := st.LoadProgress(ctx)
	if err != nil {
		return err
	}
	seen, err := st.LoadSeen(ctx)
	if err != nil {
		return err
	}

	evaluated := rec.EvaluatedSet()
	for id := range seen {
		evaluated[id] = true
	}

	filter := intake.Filter{
		Recency:    time.Duration(cfg.Intake.RecencyDays) * 24 * time.Hour,
		Exclusions: cfg.Intake.Exclusions,
	}
	candidates, excludedIDs := filter.Select(listings, evaluated)

	if len(excludedIDs) > 0 {
		if err := st.AddSeen(ctx, excludedIDs); err != nil {
			zap.L().Error("failed to persist excluded listings", zap.Error(err))
		}
		rec.MarkEvaluated(excludedIDs...)
		if err := st.SaveProgress(ctx, rec); err != nil {
			zap.L().Error("failed to save progress", zap.Error(err))
		}
	}

	zap.L().Info("intake complete",
		zap.Int("fetched", len(listings)),
		zap.Int("candidates", len(candidates)),
		zap.Int("excluded", len(excludedIDs)),
	)

	if len(candidates) == 0 {
		zap.L().Info("no new listings to evaluate")
		return nil
	}

	panel, err := loadPanel()
	if err != nil {
		return err
	}

	client, err := initEvaluator()
	if err != nil {
		return err
	}

	rec.RunID = uuid.NewString()
	orch := judge.NewOrchestrator(client, panel, st, cfg.Evaluator.BatchSize,
		time.Duration(cfg.Evaluator.PersonaDelaySecs)*time.Second)

	results, err := orch.Run(ctx, candidates, rec)
	if err != nil {
		return eris.Wrap(err, "evaluation run")
	}

	skipped := 0
	for _, r := range results {
		if r.Decision == model.DecisionSkip {
			skipped++
		}
	}
	zap.L().Info("evaluation complete",
		zap.String("run_id", rec.RunID),
		zap.Int("evaluated", len(results)),
		zap.Int("sent", len(results)-skipped),
		zap.Int("skipped", skipped),
	)

	byID := make(map[string]model.Listing, len(candidates))
	for _, l := range candidates {
		byID[l.ID()] = l
	}
	digest := report.FormatDigest(results, byID, panel, skipped, time.Now())

	if evaluateDryRun {
		zap.L().Info("dry run, digest not sent")
		return nil
	}

	var tg telegram.Client
	if cfg.Telegram.BotToken != "" {
		tg = telegram.NewClient(cfg.Telegram.BotToken)
	}
	notifier := report.NewNotifier(tg, cfg.Telegram.ChatID, cfg.Telegram.MaxMessageLen)
	notifier.Send(ctx, digest)

	return nil
}

func loadPanel() ([]judge.Persona, error) {
	if cfg.Judge.PersonasFile == "" {
		return judge.BuiltinPanel(), nil
	}
	return judge.LoadPanel(cfg.Judge.PersonasFile)
}

func initEvaluator() (evaluator.Client, error) {
	timeout := time.Duration(cfg.Evaluator.TimeoutSecs) * time.Second

	switch cfg.Evaluator.Provider {
	case "anthropic":
		inner := evaluator.NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
		return evaluator.WithRetry(inner, timeout), nil
	case "gemini":
		client := gemini.NewClient(cfg.Gemini.Key,
			gemini.WithBaseURL(cfg.Gemini.BaseURL),
			gemini.WithModel(cfg.Gemini.Model),
		)
		inner := evaluator.NewGemini(client, cfg.Gemini.Model)
		return evaluator.WithRetry(inner, timeout), nil
	default:
		return nil, eris.Errorf("unsupported evaluator provider: %s", cfg.Evaluator.Provider)
	}
}
