package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/casawatch/triage-cli/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect evaluation history",
	Long:  "Commands for listing and summarizing past evaluation results.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List evaluated listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rec, err := st.LoadProgress(ctx)
		if err != nil {
			return err
		}

		decision, _ := cmd.Flags().GetString("decision")
		limit, _ := cmd.Flags().GetInt("limit")

		results := filterResults(rec.Results, model.Decision(decision), limit)
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		formatResultsList(os.Stdout, results)
		return nil
	},
}

// -- runs summary --

var runsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show aggregate evaluation statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rec, err := st.LoadProgress(ctx)
		if err != nil {
			return err
		}

		formatRunSummary(os.Stdout, rec)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("decision", "", "filter by decision (SEND, SKIP)")
	runsListCmd.Flags().Int("limit", 50, "max number of results to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsSummaryCmd)
	rootCmd.AddCommand(runsCmd)
}

// filterResults returns the newest results first, optionally restricted to
// one decision.
func filterResults(results []model.BatchResult, decision model.Decision, limit int) []model.BatchResult {
	filtered := make([]model.BatchResult, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if decision != "" && r.Decision != decision {
			continue
		}
		filtered = append(filtered, r)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered
}

func formatResultsList(out io.Writer, results []model.BatchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LISTING\tDECISION\tSCORE\tAFFIRM\tREJECT\tCONFIDENCE\tEVALUATED")
	_, _ = fmt.Fprintln(w, "-------\t--------\t-----\t------\t------\t----------\t---------")

	for _, r := range results {
		evaluated := ""
		if !r.EvaluatedAt.IsZero() {
			evaluated = r.EvaluatedAt.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.2f\t%s\n",
			r.ListingID,
			r.Decision,
			r.Score,
			r.AffirmCount,
			r.RejectCount,
			r.MeanConfidence,
			evaluated,
		)
	}
	_ = w.Flush()
}

func formatRunSummary(out io.Writer, rec *model.ProgressRecord) {
	var sends, skips, parseFailures int
	var confSum float64
	for _, r := range rec.Results {
		switch r.Decision {
		case model.DecisionSend:
			sends++
		case model.DecisionSkip:
			skips++
		}
		confSum += r.MeanConfidence
		for _, v := range r.Votes {
			if v.ParseFailure {
				parseFailures++
				break
			}
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Evaluated listings:\t%d\n", len(rec.EvaluatedIDs))
	_, _ = fmt.Fprintf(w, "Stored results:\t%d\n", len(rec.Results))
	_, _ = fmt.Fprintf(w, "  Sent:\t%d\n", sends)
	_, _ = fmt.Fprintf(w, "  Skipped:\t%d\n", skips)
	_, _ = fmt.Fprintf(w, "  With parse failures:\t%d\n", parseFailures)
	if len(rec.Results) > 0 {
		_, _ = fmt.Fprintf(w, "Avg confidence:\t%.2f\n", confSum/float64(len(rec.Results)))
	}
	if !rec.LastRun.IsZero() {
		_, _ = fmt.Fprintf(w, "Last run:\t%s (%s)\n",
			rec.LastRun.Format(time.RFC3339), rec.RunID)
	}
	_ = w.Flush()
}
