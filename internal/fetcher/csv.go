package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune   // default ','
	Encoding   string // source charset label, e.g. "windows-1252"; empty means UTF-8
	LazyQuotes bool
	TrimSpace  bool
}

// decodeReader wraps r with a decoder for the named charset.
func decodeReader(r io.Reader, label string) (io.Reader, error) {
	label = strings.TrimSpace(label)
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unknown encoding %q", label)
	}
	return enc.NewDecoder().Reader(r), nil
}

// StreamCSV reads a CSV file and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		src, err := decodeReader(r, opts.Encoding)
		if err != nil {
			errCh <- err
			return
		}

		reader := csv.NewReader(src)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV parses a CSV with a header row. Records with more fields than the
// header are skipped and counted; shorter records are kept as is.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*RawTable, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)

	t := &RawTable{}
	first := true
	for row := range rowCh {
		if first {
			first = false
			t.Header = row
			continue
		}
		if len(row) > len(t.Header) {
			t.Skipped++
			continue
		}
		t.Records = append(t.Records, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	if first {
		return nil, eris.New("csv: missing header row")
	}
	return t, nil
}
