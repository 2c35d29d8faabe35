package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/report"
)

var (
	reportOnly []int
	reportJSON bool
)

// reportOutput is the JSON shape of one report result.
type reportOutput struct {
	report.Result
	Error string `json:"error,omitempty"`
	NoRows bool  `json:"empty"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the analytical report queries against the base tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := report.NewRunner(st).Run(ctx, reportOnly...)
		if err != nil {
			return err
		}

		if reportJSON {
			return writeJSON(os.Stdout, toReportOutput(results))
		}
		report.Print(os.Stdout, results)

		failed := 0
		for _, r := range results {
			if r.Failed() {
				failed++
			}
		}
		if failed > 0 {
			color.New(color.FgRed).Fprintf(os.Stderr, "%d of %d queries failed\n", failed, len(results))
		}
		return nil
	},
}

func toReportOutput(results []report.Result) []reportOutput {
	out := make([]reportOutput, len(results))
	for i, r := range results {
		out[i] = reportOutput{Result: r, NoRows: r.Empty()}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

func init() {
	reportCmd.Flags().IntSliceVar(&reportOnly, "only", nil, "run only these query numbers (e.g. --only 1,3)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(reportCmd)
}
