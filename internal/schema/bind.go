package schema

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Binding maps a source header onto a table's declared columns.
type Binding struct {
	Table Table
	// positions[i] is the source index of Table.Columns[i], or -1 when absent.
	positions []int
	Missing   []string
}

// normalizeCol lowercases and trims a header name, dropping a UTF-8 BOM.
func normalizeCol(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}

// Bind matches header names case-insensitively against t. A required column
// absent from the header is an error; optional columns bind to NULL.
func Bind(t Table, header []string) (*Binding, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeCol(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	b := &Binding{Table: t, positions: make([]int, len(t.Columns))}
	for i, c := range t.Columns {
		pos, ok := idx[normalizeCol(c.Name)]
		if !ok {
			if c.Required {
				return nil, eris.Errorf("schema: %s: required column %q missing from source", t.Name, c.Name)
			}
			pos = -1
			b.Missing = append(b.Missing, c.Name)
		}
		b.positions[i] = pos
	}
	return b, nil
}

// Row projects a source record onto the declared columns and coerces it.
func (b *Binding) Row(record []string) []any {
	out := make([]any, len(b.positions))
	for i, pos := range b.positions {
		if pos < 0 || pos >= len(record) {
			continue
		}
		out[i] = b.Table.Columns[i].Coerce(record[pos])
	}
	return out
}
