package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrColumnLength is returned when the columns of a Table disagree on row count.
var ErrColumnLength = errors.New("column length mismatch")

// RawTable is a headerless grid of cells as read from a sheet. Rows may be ragged.
type RawTable [][]Value

// Width returns the length of the longest row.
func (r RawTable) Width() int {
	w := 0
	for _, row := range r {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// IsEmpty reports whether the grid has no rows or no columns.
func (r RawTable) IsEmpty() bool {
	return len(r) == 0 || r.Width() == 0
}

// Column is one named column of a Table.
type Column struct {
	Name   string
	Values []Value
}

// Table is a column-oriented table. Column order is significant and names are not
// required to be unique until the table has been through DedupeColumns.
type Table struct {
	Columns []Column
}

// NewTable creates an empty table with the given column names and no rows.
func NewTable(names ...string) *Table {
	t := &Table{Columns: make([]Column, len(names))}
	for i, n := range names {
		t.Columns[i] = Column{Name: n}
	}
	return t
}

// RowCount returns the number of rows (the length of the first column).
func (t *Table) RowCount() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Columns) == 0 || t.RowCount() == 0
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the first column called name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the first column called name.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return &t.Columns[i], true
}

// AppendRow adds one row; values are matched to columns by position and missing
// trailing values are filled with null.
func (t *Table) AppendRow(values ...Value) {
	for i := range t.Columns {
		v := Null()
		if i < len(values) {
			v = values[i]
		}
		t.Columns[i].Values = append(t.Columns[i].Values, v)
	}
}

// Row returns row i as a slice aligned with Columns.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// Validate checks that every column has the same number of rows.
func (t *Table) Validate() error {
	n := t.RowCount()
	for _, c := range t.Columns {
		if len(c.Values) != n {
			return fmt.Errorf("%w: column %q has %d rows, want %d", ErrColumnLength, c.Name, len(c.Values), n)
		}
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := &Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		out.Columns[i] = Column{Name: c.Name, Values: vals}
	}
	return out
}

// DropColumns removes every column for which drop returns true.
func (t *Table) DropColumns(drop func(name string) bool) {
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if !drop(c.Name) {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
}

// String is a short description used in log lines and test failures.
func (t *Table) String() string {
	return fmt.Sprintf("Table{rows: %d, columns: [%s]}", t.RowCount(), strings.Join(t.Names(), ", "))
}

// ErrorRecord describes a source file that could not be processed.
type ErrorRecord struct {
	File    string `json:"filename"`
	Message string `json:"error"`
}

func (e ErrorRecord) Error() string {
	return e.File + ": " + e.Message
}
