package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/cache"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/dashboard"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

var (
	dashCommunities []string
	dashCrimeTypes  []string
	dashThreshold   float64
	dashTopN        int
	dashJSON        bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarize community hardship, school safety and income-segmented crime",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("dashboard"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc, err := newDashboardService(st)
		if err != nil {
			return err
		}

		f := dashboard.Filter{
			Communities: dashCommunities,
			CrimeTypes:  dashCrimeTypes,
			TopN:        dashTopN,
		}
		if cmd.Flags().Changed("threshold") {
			f.Threshold = &dashThreshold
		}

		ov, err := svc.Overview(ctx, f)
		if err != nil {
			return err
		}
		if dashJSON {
			return writeJSON(os.Stdout, ov)
		}
		formatOverview(os.Stdout, ov)
		return nil
	},
}

func newDashboardService(st store.Store) (*dashboard.Service, error) {
	c, err := cache.New(cfg.Dashboard.CacheSize)
	if err != nil {
		return nil, err
	}
	return dashboard.NewService(st, c, dashboard.Options{
		TopN:         cfg.Dashboard.TopN,
		HotspotLimit: cfg.Dashboard.HotspotLimit,
	}), nil
}

func formatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatOverview(w io.Writer, ov *dashboard.Overview) {
	heading := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)

	if !ov.Available {
		color.New(color.FgRed).Fprintln(w, "One or more required datasets are empty. Run `chicago ingest` and try again.")
		return
	}

	heading.Fprintf(w, "Snapshot %d, income threshold %.0f\n", ov.Version, *ov.Filter.Threshold)
	kpi := tablewriter.NewWriter(w)
	kpi.SetHeader([]string{"Communities in View", "Avg Hardship Index", "Avg Poverty Rate", "Avg School Safety", "Low-Income Crime Share"})
	kpi.Append([]string{
		fmt.Sprint(ov.KPIs.Communities),
		formatOptional(ov.KPIs.AvgHardship),
		formatPercent(ov.KPIs.AvgPoverty),
		formatOptional(ov.KPIs.AvgSafety),
		formatPercent(ov.KPIs.LowIncomeShare),
	})
	kpi.Render()

	fmt.Fprintln(w)
	heading.Fprintln(w, "Socioeconomic & Education (by hardship index)")
	if len(ov.Socio) == 0 {
		warn.Fprintln(w, "No data available for this view after filters.")
	} else {
		socio := tablewriter.NewWriter(w)
		socio.SetHeader([]string{"Community", "Hardship Index", "Poverty Rate (%)", "Avg Safety Score", "School Count"})
		for _, a := range ov.Socio {
			socio.Append([]string{
				a.Name,
				formatOptional(a.HardshipIndex),
				formatOptional(a.PovertyRate),
				formatOptional(a.AvgSafetyScore),
				fmt.Sprint(a.SchoolCount),
			})
		}
		socio.Render()

		corr := tablewriter.NewWriter(w)
		corr.SetHeader(append([]string{""}, ov.Correlation.Labels...))
		for i, label := range ov.Correlation.Labels {
			row := []string{label}
			for _, v := range ov.Correlation.Values[i] {
				if v == nil {
					row = append(row, "N/A")
					continue
				}
				row = append(row, fmt.Sprintf("%.2f", *v))
			}
			corr.Append(row)
		}
		corr.Render()
	}

	fmt.Fprintln(w)
	heading.Fprintf(w, "Top %d Crime Types: Low- vs High-Income Communities\n", ov.Filter.TopN)
	if len(ov.Comparison.Counts) == 0 {
		warn.Fprintln(w, "No low/high income comparison data is available with the current filters or income threshold.")
		return
	}
	cmpTable := tablewriter.NewWriter(w)
	cmpTable.SetHeader([]string{"Crime Type", "Income Segment", "Incident Count"})
	for _, c := range ov.Comparison.Counts {
		cmpTable.Append([]string{c.PrimaryType, c.Segment.Label(), fmt.Sprint(c.Count)})
	}
	cmpTable.Render()

	share := tablewriter.NewWriter(w)
	share.SetHeader([]string{"Income Segment", "Incidents", "Share"})
	for _, s := range ov.Share {
		share.Append([]string{s.Segment.Label(), fmt.Sprint(s.Count), fmt.Sprintf("%.1f%%", s.Percent)})
	}
	share.Render()

	fmt.Fprintln(w)
	heading.Fprintln(w, "Hotspots")
	hot := tablewriter.NewWriter(w)
	hot.SetHeader([]string{"Community", "Income Segment", "Incidents"})
	for _, h := range ov.Hotspots.Rows {
		hot.Append([]string{h.CommunityName, h.Segment.Label(), humanize.Comma(int64(h.Count))})
	}
	hot.Render()
	if ov.Hotspots.ExcludedUnknown > 0 {
		warn.Fprintf(w, "%d incidents with unknown income excluded from hotspot ranking\n", ov.Hotspots.ExcludedUnknown)
	}
}

func init() {
	dashboardCmd.Flags().StringSliceVar(&dashCommunities, "community", nil, "limit to these community areas (repeatable)")
	dashboardCmd.Flags().StringSliceVar(&dashCrimeTypes, "crime-type", nil, "limit crimes to these primary types (repeatable)")
	dashboardCmd.Flags().Float64Var(&dashThreshold, "threshold", 0, "per capita income split (default: median of known incomes)")
	dashboardCmd.Flags().IntVar(&dashTopN, "top-n", 0, "number of crime types to compare (default from config)")
	dashboardCmd.Flags().BoolVar(&dashJSON, "json", false, "print the overview as JSON")
	rootCmd.AddCommand(dashboardCmd)
}
