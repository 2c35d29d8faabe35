package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent ingest runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListIngests(ctx, historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			if entries == nil {
				entries = []store.IngestEntry{}
			}
			return writeJSON(os.Stdout, entries)
		}
		formatHistory(os.Stdout, entries, time.Now())
		return nil
	},
}

func formatHistory(w io.Writer, entries []store.IngestEntry, now time.Time) {
	if len(entries) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No ingest runs recorded.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Status", "Started", "Duration", "Census", "Schools", "Crimes", "Error"})
	table.SetAutoFormatHeaders(false)
	for _, e := range entries {
		took := "-"
		if e.CompletedAt != nil {
			took = e.CompletedAt.Sub(e.StartedAt).Round(time.Millisecond).String()
		}
		table.Append([]string{
			fmt.Sprint(e.ID),
			e.Status,
			humanize.RelTime(e.StartedAt, now, "ago", "from now"),
			took,
			humanize.Comma(e.CensusRows),
			humanize.Comma(e.SchoolRows),
			humanize.Comma(e.CrimeRows),
			e.Error,
		})
	}
	table.Render()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print runs as JSON")
	rootCmd.AddCommand(historyCmd)
}
