// Package ingest loads the census, school, and crime sources and replaces
// the base tables with them as one versioned snapshot.
package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/fetcher"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

// Sources names the location (URL or local path) of each dataset.
type Sources struct {
	Census  string
	Schools string
	Crime   string
}

// Options configures an Engine.
type Options struct {
	Sources  Sources
	Encoding string // charset of CSV sources; empty means UTF-8
	TempDir  string // staging directory for remote spreadsheets
}

// SourceStats describes how one source was loaded.
type SourceStats struct {
	Table    string   `json:"table"`
	Location string   `json:"location"`
	Rows     int      `json:"rows"`
	Skipped  int      `json:"skipped"`
	Missing  []string `json:"missing_columns,omitempty"`
}

// Result is the outcome of a successful run.
type Result struct {
	Version int64         `json:"version"`
	RunID   string        `json:"run_id"`
	Sources []SourceStats `json:"sources"`
	Elapsed time.Duration `json:"elapsed"`
}

// Engine orchestrates ingest runs.
type Engine struct {
	store   store.Store
	fetcher fetcher.Fetcher
	opts    Options
}

// NewEngine creates a new ingest engine.
func NewEngine(st store.Store, f fetcher.Fetcher, opts Options) *Engine {
	return &Engine{store: st, fetcher: f, opts: opts}
}

type job struct {
	table    schema.Table
	location string
	rows     *[][]any
	stats    *SourceStats
}

// Run fetches all three sources concurrently and replaces the base tables.
// If any source fails the run is recorded as failed and the previous
// snapshot stays current.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("component", "ingest.engine"))
	start := time.Now()

	entry, err := e.store.StartIngest(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: start")
	}
	log = log.With(zap.Int64("ingest_id", entry.ID), zap.String("run_id", entry.RunID))
	log.Info("starting ingest")

	var load store.Load
	stats := make([]SourceStats, 3)
	jobs := []job{
		{schema.Census, e.opts.Sources.Census, &load.Census, &stats[0]},
		{schema.Schools, e.opts.Sources.Schools, &load.Schools, &stats[1]},
		{schema.Crime, e.opts.Sources.Crime, &load.Crimes, &stats[2]},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			rows, st, err := e.loadSource(gctx, j.table, j.location)
			if err != nil {
				return err
			}
			*j.rows = rows
			*j.stats = st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("ingest failed", zap.Error(err))
		// Record the failure even when ctx is already cancelled.
		if logErr := e.store.FailIngest(context.WithoutCancel(ctx), entry.ID, err.Error()); logErr != nil {
			log.Error("failed to record ingest failure", zap.Error(logErr))
		}
		return nil, eris.Wrap(err, "ingest: load sources")
	}

	if err := e.store.CompleteIngest(ctx, entry.ID, load); err != nil {
		if logErr := e.store.FailIngest(context.WithoutCancel(ctx), entry.ID, err.Error()); logErr != nil {
			log.Error("failed to record ingest failure", zap.Error(logErr))
		}
		return nil, eris.Wrap(err, "ingest: replace tables")
	}

	res := &Result{
		Version: entry.ID,
		RunID:   entry.RunID,
		Sources: stats,
		Elapsed: time.Since(start),
	}
	log.Info("ingest complete",
		zap.Int("census_rows", stats[0].Rows),
		zap.Int("school_rows", stats[1].Rows),
		zap.Int("crime_rows", stats[2].Rows),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (e *Engine) loadSource(ctx context.Context, t schema.Table, location string) ([][]any, SourceStats, error) {
	st := SourceStats{Table: t.Name, Location: location}
	log := zap.L().With(zap.String("component", "ingest.source"), zap.String("table", t.Name))

	raw, err := fetcher.ReadSource(ctx, e.fetcher, location, fetcher.SourceOptions{
		TempDir: e.opts.TempDir,
		CSV:     fetcher.CSVOptions{Encoding: e.opts.Encoding, LazyQuotes: true},
	})
	if err != nil {
		return nil, st, eris.Wrapf(err, "ingest: %s", t.Name)
	}

	b, err := schema.Bind(t, raw.Header)
	if err != nil {
		return nil, st, eris.Wrapf(err, "ingest: %s", t.Name)
	}
	if len(b.Missing) > 0 {
		log.Warn("source lacks optional columns, loading as null", zap.Strings("columns", b.Missing))
	}

	rows := make([][]any, 0, len(raw.Records))
	for _, rec := range raw.Records {
		rows = append(rows, b.Row(rec))
	}
	st.Rows = len(rows)
	st.Skipped = raw.Skipped
	st.Missing = b.Missing

	if raw.Skipped > 0 {
		log.Warn("skipped malformed records", zap.Int("skipped", raw.Skipped))
	}
	log.Debug("source loaded", zap.Int("rows", st.Rows))
	return rows, st, nil
}
