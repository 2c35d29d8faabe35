package store

import (
	"strings"

	"go.uber.org/zap"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
)

// projection selects the declared columns present in a stored table.
type projection struct {
	table   schema.Table
	present []int // indexes into table.Columns, in select order
	usable  bool
}

// project matches the stored column names of a table against its declaration.
// A table that is absent or lacks a required column is not usable and loads
// as empty; missing optional columns load as NULL.
func project(t schema.Table, d schema.Dialect, stored []string) projection {
	p := projection{table: t}
	if len(stored) == 0 {
		zap.L().Warn("store: table missing, loading as empty", zap.String("table", t.Name))
		return p
	}

	have := make(map[string]bool, len(stored))
	for _, name := range stored {
		have[strings.ToLower(name)] = true
	}

	var missing []string
	for i, c := range t.Columns {
		if have[strings.ToLower(d.StoredName(c.Name))] {
			p.present = append(p.present, i)
			continue
		}
		if c.Required {
			zap.L().Warn("store: table lacks required column, loading as empty",
				zap.String("table", t.Name),
				zap.String("column", c.Name),
			)
			return projection{table: t}
		}
		missing = append(missing, c.Name)
	}
	if len(missing) > 0 {
		zap.L().Warn("store: optional columns missing, loading as null",
			zap.String("table", t.Name),
			zap.Strings("columns", missing),
		)
	}
	p.usable = true
	return p
}

// selectSQL renders the SELECT for the present columns.
func (p projection) selectSQL(d schema.Dialect) string {
	cols := make([]string, len(p.present))
	for i, idx := range p.present {
		cols[i] = d.Ident(p.table.Columns[idx].Name)
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + d.Ident(p.table.Name)
}

// row spreads scanned values into a coerced row aligned with the declaration.
func (p projection) row(values []any) []any {
	out := make([]any, len(p.table.Columns))
	for i, idx := range p.present {
		if i < len(values) {
			out[idx] = p.table.Columns[idx].Coerce(values[i])
		}
	}
	return out
}

// displayValue normalizes driver values for generic query results.
func displayValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
