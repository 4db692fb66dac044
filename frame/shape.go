package frame

import (
	"fmt"
	"maps"
	"strings"
)

// Field is a named, typed column or index level.
type Field struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

// Shape is the schema of a frame: ordered columns and ordered index levels.
// Shapes are treated as immutable once handed to the graph; use Clone to
// derive a modified copy.
type Shape struct {
	Columns []Field `json:"columns" yaml:"columns"`
	Index   []Field `json:"index,omitempty" yaml:"index,omitempty"`
}

// NewShape builds a validated shape.
func NewShape(columns []Field, index ...Field) (*Shape, error) {
	s := &Shape{Columns: columns, Index: index}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustShape is NewShape that panics, for literals in tests and defaults.
func MustShape(columns []Field, index ...Field) *Shape {
	s, err := NewShape(columns, index...)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks that column names and index names are unique and every
// type is known.
func (s *Shape) Validate() error {
	if err := uniqueFields("column", s.Columns); err != nil {
		return err
	}
	return uniqueFields("index", s.Index)
}

func uniqueFields(kind string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !f.Type.Valid() {
			return fmt.Errorf("%s %q has invalid type %d", kind, f.Name, int(f.Type))
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("duplicate %s name %q", kind, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Equal compares the column name/type mapping and the index name/type
// mapping. Order is not significant.
func (s *Shape) Equal(o *Shape) bool {
	if s == nil || o == nil {
		return s == o
	}
	return maps.Equal(fieldMap(s.Columns), fieldMap(o.Columns)) &&
		maps.Equal(fieldMap(s.Index), fieldMap(o.Index))
}

func fieldMap(fields []Field) map[string]Type {
	m := make(map[string]Type, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Type
	}
	return m
}

// Clone returns a deep copy.
func (s *Shape) Clone() *Shape {
	if s == nil {
		return nil
	}
	return &Shape{
		Columns: append([]Field(nil), s.Columns...),
		Index:   append([]Field(nil), s.Index...),
	}
}

// ColumnTypes returns the set of column types.
func (s *Shape) ColumnTypes() map[Type]struct{} {
	types := make(map[Type]struct{}, len(s.Columns))
	for _, f := range s.Columns {
		types[f.Type] = struct{}{}
	}
	return types
}

// ColumnNames returns the column names in order.
func (s *Shape) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, f := range s.Columns {
		names[i] = f.Name
	}
	return names
}

// ColumnType returns the type of the named column.
func (s *Shape) ColumnType(name string) (Type, bool) {
	for _, f := range s.Columns {
		if f.Name == name {
			return f.Type, true
		}
	}
	return 0, false
}

// HasColumn reports whether the named column exists.
func (s *Shape) HasColumn(name string) bool {
	_, ok := s.ColumnType(name)
	return ok
}

// NumColumns returns the number of columns.
func (s *Shape) NumColumns() int {
	return len(s.Columns)
}

// String renders "a:Numeric, b:String | idx:Datetime".
func (s *Shape) String() string {
	if s == nil {
		return "<unknown>"
	}
	var b strings.Builder
	writeFields(&b, s.Columns)
	if len(s.Index) > 0 {
		b.WriteString(" | ")
		writeFields(&b, s.Index)
	}
	return b.String()
}

func writeFields(b *strings.Builder, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Type.String())
	}
}
