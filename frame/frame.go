package frame

import (
	"fmt"
	"time"
)

// Column is a named, typed vector. Missing values are nil; present values
// are float64 for Numeric, string for String, Nominal and Ordinal, and
// time.Time for Datetime.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// Float returns row i as a float64. ok is false for missing values.
func (c *Column) Float(i int) (v float64, ok bool) {
	v, ok = c.Values[i].(float64)
	return v, ok
}

// Text returns row i as a string. ok is false for missing values.
func (c *Column) Text(i int) (v string, ok bool) {
	v, ok = c.Values[i].(string)
	return v, ok
}

// Clone deep copies the column.
func (c *Column) Clone() Column {
	return Column{Name: c.Name, Type: c.Type, Values: append([]any(nil), c.Values...)}
}

// Frame is an immutable table of equally long columns plus optional index
// columns. Operations never modify their inputs; they build new frames.
type Frame struct {
	columns []Column
	index   []Column
	rows    int
}

// New creates a frame without index columns.
func New(columns ...Column) (*Frame, error) {
	return NewWithIndex(nil, columns)
}

// NewWithIndex creates a frame, checking names, lengths and value types.
func NewWithIndex(index, columns []Column) (*Frame, error) {
	f := &Frame{columns: columns, index: index, rows: -1}
	fields := make([]Field, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, Field{Name: c.Name, Type: c.Type})
	}
	levels := make([]Field, 0, len(index))
	for _, c := range index {
		levels = append(levels, Field{Name: c.Name, Type: c.Type})
	}
	if _, err := NewShape(fields, levels...); err != nil {
		return nil, err
	}

	for _, group := range [][]Column{index, columns} {
		for _, c := range group {
			if f.rows == -1 {
				f.rows = len(c.Values)
			} else if len(c.Values) != f.rows {
				return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), f.rows)
			}
			for i, v := range c.Values {
				if !valueMatches(c.Type, v) {
					return nil, fmt.Errorf("column %q row %d: %T is not a %s value", c.Name, i, v, c.Type)
				}
			}
		}
	}
	if f.rows == -1 {
		f.rows = 0
	}
	return f, nil
}

func valueMatches(t Type, v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case Numeric:
		_, ok := v.(float64)
		return ok
	case Datetime:
		_, ok := v.(time.Time)
		return ok
	default:
		_, ok := v.(string)
		return ok
	}
}

// FromShape builds a zero-row frame with the given schema. Shape inference
// executes operations against such frames.
func FromShape(s *Shape) *Frame {
	f := &Frame{
		columns: make([]Column, len(s.Columns)),
		index:   make([]Column, len(s.Index)),
	}
	for i, fld := range s.Columns {
		f.columns[i] = Column{Name: fld.Name, Type: fld.Type, Values: []any{}}
	}
	for i, fld := range s.Index {
		f.index[i] = Column{Name: fld.Name, Type: fld.Type, Values: []any{}}
	}
	return f
}

// Shape derives the frame's schema.
func (f *Frame) Shape() *Shape {
	s := &Shape{
		Columns: make([]Field, len(f.columns)),
		Index:   make([]Field, len(f.index)),
	}
	for i, c := range f.columns {
		s.Columns[i] = Field{Name: c.Name, Type: c.Type}
	}
	for i, c := range f.index {
		s.Index[i] = Field{Name: c.Name, Type: c.Type}
	}
	return s
}

func (f *Frame) Rows() int       { return f.rows }
func (f *Frame) NumColumns() int { return len(f.columns) }

// Columns returns the columns. Callers must not modify the values.
func (f *Frame) Columns() []Column { return f.columns }

// Index returns the index columns. Callers must not modify the values.
func (f *Frame) Index() []Column { return f.index }

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.columns {
		if f.columns[i].Name == name {
			return &f.columns[i], true
		}
	}
	return nil, false
}

// IndexCopy deep copies the index columns, for building derived frames.
func (f *Frame) IndexCopy() []Column {
	out := make([]Column, len(f.index))
	for i := range f.index {
		out[i] = f.index[i].Clone()
	}
	return out
}

// Clone deep copies the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{rows: f.rows, index: f.IndexCopy(), columns: make([]Column, len(f.columns))}
	for i := range f.columns {
		out.columns[i] = f.columns[i].Clone()
	}
	return out
}

// Equal compares names, types, order and values of columns and index.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.rows == o.rows && columnsEqual(f.columns, o.columns) && columnsEqual(f.index, o.index)
}

func columnsEqual(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type || len(a[i].Values) != len(b[i].Values) {
			return false
		}
		for j := range a[i].Values {
			if !valueEqual(a[i].Values[j], b[i].Values[j]) {
				return false
			}
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
