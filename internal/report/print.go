package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Print renders results as text tables. Failed and empty queries are shown
// distinctly.
func Print(w io.Writer, results []Result) {
	title := color.New(color.FgCyan, color.Bold)
	failed := color.New(color.FgRed)
	empty := color.New(color.FgYellow)

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title.Fprintf(w, "%d. %s\n", res.Query.ID, res.Query.Title)

		switch {
		case res.Failed():
			failed.Fprintf(w, "query failed: %v\n", res.Err)
			continue
		case res.Empty():
			empty.Fprintln(w, "no rows")
			continue
		}

		table := tablewriter.NewWriter(w)
		table.SetHeader(res.Table.Columns)
		table.SetAutoFormatHeaders(false)
		for _, row := range res.Table.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = FormatValue(v)
			}
			table.Append(cells)
		}
		table.Render()
		fmt.Fprintf(w, "%s row(s) in %s\n", humanize.Comma(int64(len(res.Table.Rows))), res.Duration.Round(time.Microsecond))
	}
}

// FormatValue renders a query cell for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if x == float64(int64(x)) && x < 1e15 && x > -1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	default:
		return fmt.Sprint(x)
	}
}
