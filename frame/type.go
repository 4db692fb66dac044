package frame

import "fmt"

// Type is the semantic type of a column. Codes are stable and appear in
// persisted pipelines.
type Type int

const (
	String Type = iota
	Numeric
	Nominal
	Ordinal
	Datetime
)

// AllTypes lists every Type in code order.
var AllTypes = []Type{String, Numeric, Nominal, Ordinal, Datetime}

var typeNames = [...]string{
	String:   "String",
	Numeric:  "Numeric",
	Nominal:  "Nominal",
	Ordinal:  "Ordinal",
	Datetime: "Datetime",
}

func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is one of AllTypes.
func (t Type) Valid() bool {
	return t >= String && t <= Datetime
}

// IsCategorical reports whether values of t are category labels.
func (t Type) IsCategorical() bool {
	return t == Nominal || t == Ordinal
}

// ParseType parses a type name as produced by String.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid column type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
