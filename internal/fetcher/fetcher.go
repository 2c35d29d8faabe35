// Package fetcher retrieves civic source files over HTTP or from disk and
// parses them into raw header and record tables.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// RawTable is a parsed source: its header and the records that fit it.
type RawTable struct {
	Header  []string
	Records [][]string
	// Skipped counts records dropped for having more fields than the header.
	Skipped int
}
