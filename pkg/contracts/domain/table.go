package domain

import (
	"fmt"
	"math"
	"time"
)

// ColumnKind identifies the scalar type carried by a Column.
type ColumnKind int

const (
	KindNumeric ColumnKind = iota
	KindTimestamp
	KindText
)

// String returns a human-readable name for the column kind
func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTimestamp:
		return "timestamp"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Column is one named sequence of scalar values. Exactly one of the
// value slices is populated, selected by Kind. Missing numeric cells
// are NaN; missing timestamps are the zero time.
type Column struct {
	Name   string      `json:"name"`
	Kind   ColumnKind  `json:"kind"`
	Floats []float64   `json:"floats,omitempty"`
	Times  []time.Time `json:"times,omitempty"`
	Texts  []string    `json:"texts,omitempty"`
}

// NewNumericColumn creates a numeric column
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindNumeric, Floats: values}
}

// NewTimestampColumn creates a timestamp column
func NewTimestampColumn(name string, values []time.Time) *Column {
	return &Column{Name: name, Kind: KindTimestamp, Times: values}
}

// NewTextColumn creates a text column
func NewTextColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindText, Texts: values}
}

// Len returns the number of cells in the column
func (c *Column) Len() int {
	switch c.Kind {
	case KindTimestamp:
		return len(c.Times)
	case KindText:
		return len(c.Texts)
	default:
		return len(c.Floats)
	}
}

// IsMissing reports whether the cell at index i holds the missing-value
// marker for the column's kind.
func (c *Column) IsMissing(i int) bool {
	switch c.Kind {
	case KindNumeric:
		return math.IsNaN(c.Floats[i])
	case KindTimestamp:
		return c.Times[i].IsZero()
	default:
		return c.Texts[i] == ""
	}
}

// slice returns a copy of the column limited to the first n cells.
func (c *Column) slice(n int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case KindTimestamp:
		out.Times = append([]time.Time(nil), c.Times[:n]...)
	case KindText:
		out.Texts = append([]string(nil), c.Texts[:n]...)
	default:
		out.Floats = append([]float64(nil), c.Floats[:n]...)
	}
	return out
}

// Table is an ordered sequence of equally sized columns with unique
// names. At most one column is designated as the time axis. A Table is
// assembled once by a format handler and read-only afterwards.
type Table struct {
	columns  []*Column
	index    map[string]int
	timeName string
}

// NewTable builds a table from ordered columns. timeColumn names the
// time axis and may be empty when the file carries none.
func NewTable(columns []*Column, timeColumn string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table requires at least one column")
	}

	index := make(map[string]int, len(columns))
	rows := columns[0].Len()
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if col.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name, col.Len(), rows)
		}
		index[col.Name] = i
	}

	if timeColumn != "" {
		if _, ok := index[timeColumn]; !ok {
			return nil, fmt.Errorf("time column %q is not among the table columns", timeColumn)
		}
	}

	return &Table{columns: columns, index: index, timeName: timeColumn}, nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.columns[0].Len()
}

// NumColumns returns the number of columns including the time column
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// ColumnNames returns all column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the column with the given name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt returns the column at position i in table order
func (t *Table) ColumnAt(i int) *Column {
	return t.columns[i]
}

// TimeName returns the name of the designated time column, if any.
func (t *Table) TimeName() (string, bool) {
	return t.timeName, t.timeName != ""
}

// TimeColumn returns the designated time column, if any.
func (t *Table) TimeColumn() (*Column, bool) {
	if t.timeName == "" {
		return nil, false
	}
	return t.columns[t.index[t.timeName]], true
}

// DataColumns returns all non-time columns in table order.
func (t *Table) DataColumns() []*Column {
	out := make([]*Column, 0, len(t.columns))
	for _, col := range t.columns {
		if col.Name == t.timeName {
			continue
		}
		out = append(out, col)
	}
	return out
}

// DataColumnNames returns the names of all non-time columns in table order.
func (t *Table) DataColumnNames() []string {
	cols := t.DataColumns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return names
}

// Head returns a copy of the table limited to the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.Len() {
		n = t.Len()
	}
	columns := make([]*Column, len(t.columns))
	for i, col := range t.columns {
		columns[i] = col.slice(n)
	}
	head, _ := NewTable(columns, t.timeName)
	return head
}
