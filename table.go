package tablastic

import (
	tbl "github.com/tablastic/tablastic/internal/domain/table"
)

// Row maps a field path to its cell value. A row missing a column has no
// entry for it.
type Row = map[string]any

// Table is the tabular projection of one search: ordered rows (engine
// relevance order until sorted) and ordered columns (first-seen union of
// field paths across rows). It belongs to one search session and is
// replaced wholesale by the next search.
type Table struct {
	inner *tbl.Table
}

// Columns returns the column names in first-seen order.
func (t *Table) Columns() []string { return t.inner.Columns() }

// Len returns the number of rows.
func (t *Table) Len() int { return t.inner.Len() }

// Rows returns the rows in their current order.
func (t *Table) Rows() []Row {
	rows := make([]Row, t.inner.Len())
	for i, r := range t.inner.Rows() {
		rows[i] = r
	}
	return rows
}

// SortBy reorders rows by the given column, stably and in place. Ascending
// and descending alternate at the caller's discretion; rows missing the
// column sort last either way. Sorting by a column the table has never seen
// returns an error.
func (t *Table) SortBy(column string, ascending bool) error {
	return t.inner.SortBy(column, ascending)
}

// Render formats a cell value the way exports and the TUI display it.
func Render(v any) string { return tbl.Render(v) }
