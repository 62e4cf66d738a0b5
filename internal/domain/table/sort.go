package table

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tablastic/tablastic/internal/domain"
)

// SortBy reorders rows by the given column, in place. The sort is stable:
// rows with equal keys keep their relative order from before the call.
// Numeric-looking cells compare numerically, everything else compares
// lexicographically on the rendered value. Rows missing the column sort
// last regardless of direction. Toggle state (which column, which way)
// belongs to the caller; SortBy itself is stateless.
func (t *Table) SortBy(column string, ascending bool) error {
	if !t.HasColumn(column) {
		return fmt.Errorf("sort by %q: %w", column, domain.ErrUnknownColumn)
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		a, aok := t.rows[i][column]
		b, bok := t.rows[j][column]
		if !aok || !bok {
			// Missing cells go last either way.
			return aok && !bok
		}
		if ascending {
			return less(a, b)
		}
		return less(b, a)
	})
	return nil
}

// less compares two cell values: numerically when both parse as numbers,
// lexicographically otherwise.
func less(a, b any) bool {
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		return an < bn
	}
	return Render(a) < Render(b)
}

func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		n, err := strconv.ParseFloat(x, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
