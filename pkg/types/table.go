package types

import (
	"fmt"
	"strings"
)

// IndexColumn is the reserved name of the row index persisted alongside
// every stored table.
const IndexColumn = "index"

// UnnamedPrefix marks the synthetic name a reader assigns to a header cell
// that had no text.
const UnnamedPrefix = "Unnamed"

// Table is an ordered set of named columns stored row-major.
// Every row holds exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// NewTable creates an empty table with the given column names
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// AppendRow appends a row, padding it with missing cells or rejecting it
// when it is wider than the table.
func (t *Table) AppendRow(cells ...Cell) error {
	if len(cells) > len(t.Columns) {
		return fmt.Errorf("%w: row has %d cells, table has %d columns", ErrInvalidTable, len(cells), len(t.Columns))
	}
	row := make([]Cell, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return nil
}

// ColumnIndex returns the position of the named column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the cells of column i
func (t *Table) Column(i int) []Cell {
	out := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Cell, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// Map returns a copy of the table with fn applied to every cell
func (t *Table) Map(fn func(col int, c Cell) Cell) *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Cell, len(row))
		for j, c := range row {
			r[j] = fn(j, c)
		}
		out.Rows[i] = r
	}
	return out
}

// DropDuplicateRows returns a copy of the table without rows that are
// identical to an earlier row. First occurrences keep their order.
func (t *Table) DropDuplicateRows() *Table {
	out := NewTable(t.Columns...)
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		k := rowKey(row)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		r := make([]Cell, len(row))
		copy(r, row)
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Validate checks the structural invariants: unique non-empty column
// names and rows as wide as the header.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c == "" {
			return fmt.Errorf("%w: empty column name", ErrInvalidTable)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidTable, i, len(row), len(t.Columns))
		}
	}
	return nil
}

func rowKey(row []Cell) string {
	var b strings.Builder
	for _, c := range row {
		k := c.key()
		// length prefix keeps "a"+"bc" distinct from "ab"+"c"
		fmt.Fprintf(&b, "%d:%s", len(k), k)
	}
	return b.String()
}
