package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SourceOptions configures ReadSource.
type SourceOptions struct {
	TempDir string // where remote spreadsheets are staged; default os.TempDir()
	CSV     CSVOptions
	XLSX    XLSXOptions
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// isSpreadsheet reports whether location names an .xlsx file, ignoring any query string.
func isSpreadsheet(location string) bool {
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".xlsx")
}

// ReadSource loads a delimited or spreadsheet source from a URL or local path.
func ReadSource(ctx context.Context, f Fetcher, location string, opts SourceOptions) (*RawTable, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, eris.New("source: empty location")
	}
	log := zap.L().With(zap.String("source", location))

	if isSpreadsheet(location) {
		local := location
		if IsRemote(location) {
			tmp, err := os.CreateTemp(opts.TempDir, "chicago-*.xlsx")
			if err != nil {
				return nil, eris.Wrap(err, "source: create temp file")
			}
			local = tmp.Name()
			_ = tmp.Close()
			defer os.Remove(local) //nolint:errcheck

			n, err := f.DownloadToFile(ctx, location, local)
			if err != nil {
				return nil, eris.Wrapf(err, "source: fetch %s", location)
			}
			log.Debug("source: staged spreadsheet", zap.Int64("bytes", n))
		}
		t, err := ReadXLSXTable(local, opts.XLSX)
		if err != nil {
			return nil, eris.Wrapf(err, "source: parse %s", location)
		}
		return t, nil
	}

	var (
		body io.ReadCloser
		err  error
	)
	if IsRemote(location) {
		body, err = f.Download(ctx, location)
	} else {
		body, err = os.Open(location)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: fetch %s", location)
	}
	defer body.Close() //nolint:errcheck

	t, err := ReadCSV(ctx, body, opts.CSV)
	if err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", location)
	}
	log.Debug("source: parsed", zap.Int("records", len(t.Records)), zap.Int("skipped", t.Skipped))
	return t, nil
}
