// Package table holds the raw, untyped tabular form produced by the loader.
package table

import "fmt"

// Table is a header plus rows of text cells.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// New creates a table, checking that every row matches the header width.
func New(columns []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d: expected %d cells, got %d", i+1, len(columns), len(row))
		}
	}
	t := &Table{Columns: columns, Rows: rows}
	t.buildIndex()
	return t, nil
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	if t.index == nil {
		t.buildIndex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the cell at (row, column name). Empty if the column is absent.
func (t *Table) Cell(row int, column string) string {
	i := t.ColumnIndex(column)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}
