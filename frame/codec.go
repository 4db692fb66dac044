package frame

import (
	"encoding/json"
	"fmt"
	"time"
)

type columnJSON struct {
	Name   string `json:"name"`
	Type   Type   `json:"type"`
	Values []any  `json:"values"`
}

type frameJSON struct {
	Columns []columnJSON `json:"columns"`
	Index   []columnJSON `json:"index,omitempty"`
}

// MarshalJSON encodes the frame as
// {"columns":[{"name","type","values"}],"index":[...]}. Datetime values are
// RFC 3339 strings.
func (f *Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(frameJSON{
		Columns: encodeColumns(f.columns),
		Index:   encodeColumns(f.index),
	})
}

func encodeColumns(cols []Column) []columnJSON {
	out := make([]columnJSON, len(cols))
	for i, c := range cols {
		values := make([]any, len(c.Values))
		for j, v := range c.Values {
			if t, ok := v.(time.Time); ok {
				values[j] = t.Format(time.RFC3339Nano)
				continue
			}
			values[j] = v
		}
		out[i] = columnJSON{Name: c.Name, Type: c.Type, Values: values}
	}
	return out
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (f *Frame) UnmarshalJSON(b []byte) error {
	var raw frameJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	columns, err := decodeColumns(raw.Columns)
	if err != nil {
		return err
	}
	index, err := decodeColumns(raw.Index)
	if err != nil {
		return err
	}
	decoded, err := NewWithIndex(index, columns)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

func decodeColumns(raw []columnJSON) ([]Column, error) {
	out := make([]Column, len(raw))
	for i, rc := range raw {
		values := make([]any, len(rc.Values))
		for j, v := range rc.Values {
			if rc.Type != Datetime || v == nil {
				values[j] = v
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %q row %d: datetime must be an RFC 3339 string", rc.Name, j)
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", rc.Name, j, err)
			}
			values[j] = t
		}
		out[i] = Column{Name: rc.Name, Type: rc.Type, Values: values}
	}
	return out, nil
}

// DecodeSet decodes a {"name": frame, ...} object.
func DecodeSet(b []byte) (map[string]*Frame, error) {
	var set map[string]*Frame
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, fmt.Errorf("decoding frames: %w", err)
	}
	for name, f := range set {
		if f == nil {
			return nil, fmt.Errorf("decoding frames: frame %q is null", name)
		}
	}
	return set, nil
}
