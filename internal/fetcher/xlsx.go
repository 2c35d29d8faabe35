package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // rows before the header
	TrimSpace  bool
}

// ReadXLSX reads an XLSX file and returns all rows after SkipRows as string slices.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		rows = append(rows, rowToStrings(row, opts.TrimSpace))
	}

	return rows, nil
}

// ReadXLSXTable reads a sheet whose first kept row is the header. Rows with
// more cells than the header are skipped and counted.
func ReadXLSXTable(path string, opts XLSXOptions) (*RawTable, error) {
	rows, err := ReadXLSX(path, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("xlsx: missing header row")
	}

	t := &RawTable{Header: trimTrailingEmpty(rows[0], 0)}
	for _, r := range rows[1:] {
		r = trimTrailingEmpty(r, len(t.Header))
		if len(r) > len(t.Header) {
			t.Skipped++
			continue
		}
		t.Records = append(t.Records, r)
	}
	return t, nil
}

// trimTrailingEmpty drops blank cells past width. Sheets pad rows to the
// widest row in the sheet.
func trimTrailingEmpty(r []string, width int) []string {
	for len(r) > width && r[len(r)-1] == "" {
		r = r[:len(r)-1]
	}
	return r
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row, trim bool) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
		if trim {
			cells[j] = strings.TrimSpace(cells[j])
		}
	}
	return cells
}
