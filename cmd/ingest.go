package main

import (
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/fetcher"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/ingest"
)

var (
	ingestCensus  string
	ingestSchools string
	ingestCrime   string
	ingestJSON    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download the census, school and crime datasets and replace the base tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ingestCensus != "" {
			cfg.Sources.Census = ingestCensus
		}
		if ingestSchools != "" {
			cfg.Sources.Schools = ingestSchools
		}
		if ingestCrime != "" {
			cfg.Sources.Crime = ingestCrime
		}
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		eng := ingest.NewEngine(st, newFetcher(), ingest.Options{
			Sources: ingest.Sources{
				Census:  cfg.Sources.Census,
				Schools: cfg.Sources.Schools,
				Crime:   cfg.Sources.Crime,
			},
			Encoding: cfg.Sources.Encoding,
			TempDir:  cfg.Fetch.TempDir,
		})

		res, err := eng.Run(ctx)
		if err != nil {
			return err
		}
		if ingestJSON {
			return writeJSON(os.Stdout, res)
		}
		formatIngestResult(os.Stdout, res)
		return nil
	},
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:        cfg.Fetch.UserAgent,
		Timeout:          time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:       cfg.Fetch.MaxRetries,
		RatePerSec:       cfg.Fetch.RatePerSec,
		InsecureFallback: cfg.Fetch.InsecureTLS,
	})
}

func formatIngestResult(w io.Writer, res *ingest.Result) {
	color.New(color.FgGreen).Fprintf(w, "Snapshot %d loaded in %s (run %s)\n",
		res.Version, res.Elapsed.Round(time.Millisecond), res.RunID)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Rows", "Skipped", "Missing Columns", "Source"})
	for _, s := range res.Sources {
		table.Append([]string{
			s.Table,
			humanize.Comma(int64(s.Rows)),
			humanize.Comma(int64(s.Skipped)),
			strings.Join(s.Missing, ", "),
			s.Location,
		})
	}
	table.Render()
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCensus, "census", "", "census source URL or path (default from config)")
	ingestCmd.Flags().StringVar(&ingestSchools, "schools", "", "public schools source URL or path (default from config)")
	ingestCmd.Flags().StringVar(&ingestCrime, "crime", "", "crime source URL or path (default from config)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}
