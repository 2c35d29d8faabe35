// Package store persists the civic base tables and the ingest log, and reads
// them back as versioned snapshots.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = eris.New("store: unknown driver")

// Ingest statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// IngestEntry is a row of ingest_log. The ID of the latest complete entry is
// the current snapshot version.
type IngestEntry struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CensusRows  int64      `json:"census_rows"`
	SchoolRows  int64      `json:"school_rows"`
	CrimeRows   int64      `json:"crime_rows"`
	Error       string     `json:"error,omitempty"`
}

// Load is a full set of coerced rows for the three base tables, each row
// aligned with its schema.Table columns.
type Load struct {
	Census  [][]any
	Schools [][]any
	Crimes  [][]any
}

type tableRows struct {
	table schema.Table
	rows  [][]any
}

func (l Load) tables() []tableRows {
	return []tableRows{
		{schema.Census, l.Census},
		{schema.Schools, l.Schools},
		{schema.Crime, l.Crimes},
	}
}

// Table is a generic query result.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Store defines persistence for the base tables and their ingest history.
type Store interface {
	// Ingest lifecycle. CompleteIngest replaces all base tables with load and
	// marks the entry complete in a single transaction.
	StartIngest(ctx context.Context) (*IngestEntry, error)
	CompleteIngest(ctx context.Context, id int64, load Load) error
	FailIngest(ctx context.Context, id int64, errMsg string) error
	ListIngests(ctx context.Context, limit int) ([]IngestEntry, error)

	// Reads
	Version(ctx context.Context) (int64, error)
	Snapshot(ctx context.Context) (*model.Snapshot, error)
	Query(ctx context.Context, query string) (*Table, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a migrated store for the named driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite", "":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn)
	default:
		return nil, eris.Wrapf(ErrUnknownDriver, "store: driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
