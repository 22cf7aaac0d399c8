package main

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/internal/model"
)

var exportCmd = &cobra.Command{
	Use:   "export <path.xlsx>",
	Short: "Export evaluation results to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if len(rec.Results) == 0 {
			return eris.New("no results to export")
		}

		if err := writeResultsWorkbook(args[0], rec.Results); err != nil {
			return err
		}

		zap.L().Info("exported results",
			zap.String("path", args[0]),
			zap.Int("results", len(rec.Results)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

// writeResultsWorkbook writes one row per listing on the Results sheet and
// one row per persona vote on the Votes sheet.
func writeResultsWorkbook(path string, results []model.BatchResult) error {
	f := xlsx.NewFile()

	resultsSheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "export: add results sheet")
	}
	header := resultsSheet.AddRow()
	for _, h := range []string{"Listing", "Decision", "Score", "Affirm", "Reject", "Uncertain", "Confidence", "Evaluated At"} {
		header.AddCell().SetString(h)
	}

	votesSheet, err := f.AddSheet("Votes")
	if err != nil {
		return eris.Wrap(err, "export: add votes sheet")
	}
	votesHeader := votesSheet.AddRow()
	for _, h := range []string{"Listing", "Persona", "Verdict", "Confidence", "Summary", "Parse Failure"} {
		votesHeader.AddCell().SetString(h)
	}

	for _, r := range results {
		uncertain := len(r.Votes) - r.AffirmCount - r.RejectCount

		row := resultsSheet.AddRow()
		row.AddCell().SetString(r.ListingID)
		row.AddCell().SetString(string(r.Decision))
		row.AddCell().SetInt(r.Score)
		row.AddCell().SetInt(r.AffirmCount)
		row.AddCell().SetInt(r.RejectCount)
		row.AddCell().SetInt(uncertain)
		row.AddCell().SetFloat(r.MeanConfidence)
		if !r.EvaluatedAt.IsZero() {
			row.AddCell().SetString(r.EvaluatedAt.Format("2006-01-02 15:04:05"))
		} else {
			row.AddCell().SetString("")
		}

		personas := make([]string, 0, len(r.Votes))
		for name := range r.Votes {
			personas = append(personas, name)
		}
		sort.Strings(personas)

		for _, name := range personas {
			v := r.Votes[name]
			voteRow := votesSheet.AddRow()
			voteRow.AddCell().SetString(r.ListingID)
			voteRow.AddCell().SetString(name)
			voteRow.AddCell().SetString(string(v.Verdict))
			voteRow.AddCell().SetFloat(v.Confidence)
			voteRow.AddCell().SetString(v.Summary)
			voteRow.AddCell().SetBool(v.ParseFailure)
		}
	}

	return eris.Wrap(f.Save(path), "export: save workbook")
}
