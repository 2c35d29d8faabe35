package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

// Querier runs a read query against the base tables.
type Querier interface {
	Query(ctx context.Context, query string) (*store.Table, error)
}

// Result is the outcome of one query. A failed query carries Err and no
// table; a successful query with no rows has an empty, non-nil table.
type Result struct {
	Query    Query         `json:"query"`
	Table    *store.Table  `json:"table,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the query could not be executed.
func (r Result) Failed() bool { return r.Err != nil }

// Empty reports whether the query ran and returned no rows.
func (r Result) Empty() bool { return r.Err == nil && (r.Table == nil || len(r.Table.Rows) == 0) }

// Runner executes report queries.
type Runner struct {
	q       Querier
	queries []Query
}

// NewRunner creates a Runner over the standard report battery.
func NewRunner(q Querier) *Runner {
	return &Runner{q: q, queries: Queries()}
}

// Select returns the queries with the given ids in battery order, or all
// queries when ids is empty.
func (r *Runner) Select(ids ...int) ([]Query, error) {
	if len(ids) == 0 {
		return r.queries, nil
	}
	known := make(map[int]bool, len(r.queries))
	for _, q := range r.queries {
		known[q.ID] = true
	}
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return nil, eris.Errorf("report: unknown query %d", id)
		}
		want[id] = true
	}
	var out []Query
	for _, q := range r.queries {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

// Run executes the selected queries in order. A failing query is logged and
// recorded in its Result; the remaining queries still run.
func (r *Runner) Run(ctx context.Context, ids ...int) ([]Result, error) {
	selected, err := r.Select(ids...)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("component", "report.runner"))

	results := make([]Result, 0, len(selected))
	for _, q := range selected {
		if err := ctx.Err(); err != nil {
			return results, eris.Wrap(err, "report: cancelled")
		}

		start := time.Now()
		tbl, err := r.q.Query(ctx, q.SQL)
		res := Result{Query: q, Duration: time.Since(start)}
		if err != nil {
			res.Err = eris.Wrapf(err, "report: query %d", q.ID)
			log.Error("query failed", zap.Int("query", q.ID), zap.String("title", q.Title), zap.Error(err))
		} else {
			if tbl.Rows == nil {
				tbl.Rows = [][]any{}
			}
			res.Table = tbl
			log.Debug("query complete",
				zap.Int("query", q.ID),
				zap.Int("rows", len(tbl.Rows)),
				zap.Duration("elapsed", res.Duration),
			)
		}
		results = append(results, res)
	}
	return results, nil
}
