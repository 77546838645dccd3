package dataset

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrColumnNotFound is returned when a named column is absent from a table.
var ErrColumnNotFound = errors.New("column not found")

// Table is a read-only columnar view over a loaded dataset.
type Table struct {
	Name    string
	headers []string
	index   map[string]int
	columns [][]string
	rows    int
}

// NewTable builds a table from a header row and row-major records.
// Short records are padded with empty cells.
func NewTable(name string, headers []string, records [][]string) (*Table, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		index[h] = i
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, len(records))
	}
	for r, record := range records {
		if len(record) > len(headers) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(record), len(headers))
		}
		for c, value := range record {
			columns[c][r] = value
		}
	}

	return &Table{
		Name:    name,
		headers: append([]string(nil), headers...),
		index:   index,
		columns: columns,
		rows:    len(records),
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.headers...)
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return append([]string(nil), t.columns[i]...), nil
}

// Filter keeps the rows whose value in column is one of values. Values are
// compared numerically when both sides parse as numbers, so a filter on
// "1" matches a cell holding "1.0".
func (t *Table) Filter(column string, values []string) (*Table, error) {
	ci, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	keep := make([]int, 0, t.rows)
	for r, cell := range t.columns[ci] {
		if matchesAny(cell, values) {
			keep = append(keep, r)
		}
	}

	columns := make([][]string, len(t.columns))
	for c, col := range t.columns {
		filtered := make([]string, len(keep))
		for i, r := range keep {
			filtered[i] = col[r]
		}
		columns[c] = filtered
	}

	return &Table{
		Name:    t.Name,
		headers: t.headers,
		index:   t.index,
		columns: columns,
		rows:    len(keep),
	}, nil
}

func matchesAny(cell string, values []string) bool {
	for _, v := range values {
		if SameValue(cell, v) {
			return true
		}
	}
	return false
}

// SameValue reports whether two cells hold the same value. Cells that both
// parse as numbers compare numerically, so "3" matches "3.0".
func SameValue(a, b string) bool {
	if a == b {
		return true
	}
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return false
	}
	y, err := strconv.ParseFloat(b, 64)
	return err == nil && x == y
}
