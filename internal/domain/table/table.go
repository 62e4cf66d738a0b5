// Package table holds the tabular projection of a search result set.
//
// A Table is an ordered list of rows plus an ordered list of columns. The
// column list is the union of every field path seen across rows, in
// first-seen order; it is never sorted alphabetically. Row order is the
// engine's relevance ranking until a sort is applied. A table belongs to one
// search session and is replaced, not merged, by the next search.
package table

import (
	"fmt"
	"strconv"
)

// Cell is one flattened field of a hit: a column name and its scalar value.
type Cell struct {
	Column string
	Value  any
}

// Row maps column name to cell value. A row missing a column simply has no
// entry for it.
type Row map[string]any

// Table is an ordered, sortable result set.
type Table struct {
	columns []string
	colIdx  map[string]int
	rows    []Row
}

// New creates an empty table.
func New() *Table {
	return &Table{colIdx: make(map[string]int)}
}

// Append adds a row from flattened cells, extending the column list with any
// column not seen before. Within a row a repeated column is last-write-wins.
func (t *Table) Append(cells []Cell) {
	row := make(Row, len(cells))
	for _, c := range cells {
		if _, ok := t.colIdx[c.Column]; !ok {
			t.colIdx[c.Column] = len(t.columns)
			t.columns = append(t.columns, c.Column)
		}
		row[c.Column] = c.Value
	}
	t.rows = append(t.rows, row)
}

// Columns returns the column names in first-seen order.
func (t *Table) Columns() []string { return t.columns }

// Rows returns the rows in their current order.
func (t *Table) Rows() []Row { return t.rows }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the table has seen the given column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// Render formats a cell value for display and export. Strings pass through,
// numbers keep their shortest representation, anything else falls back to
// fmt.Sprint. A nil value renders empty.
func Render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
