package ops

import (
	"context"
	"slices"

	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
)

// MissingSuffix names the indicator column of missing values.
const MissingSuffix = "nan"

// OneHotOptions select categorical columns to expand. IncludeMissing adds
// a "<column>_nan" indicator when the column has missing values.
type OneHotOptions struct {
	Columns        []string `mapstructure:"columns" validate:"min=1,unique"`
	IncludeMissing bool     `mapstructure:"include_missing"`
}

// OneHot replaces each selected column with one Numeric 0/1 column per
// distinct value, named "<column>_<value>". The output schema depends on
// the data.
type OneHot struct {
	operation.Base
	operation.Settings[OneHotOptions]
}

func NewOneHot() *OneHot {
	return &OneHot{Base: operation.NewBase(operation.Spec{
		Name:               OneHotName,
		Kind:               operation.Transform,
		Accepts:            []frame.Type{frame.Nominal, frame.String},
		OutputShapeUnknown: true,
	})}
}

func (o *OneHot) SetOptions(opts operation.Options) error {
	return o.Decode(opts, func(v *OneHotOptions) error {
		return checkColumns(o.InputShape(0), "columns", v.Columns, frame.Nominal, frame.String)
	})
}

func (o *OneHot) UnsetOptions() {
	opts, ok := o.Get()
	if !ok {
		return
	}
	kept := keepColumns(o.InputShape(0), opts.Columns, frame.Nominal, frame.String)
	if len(kept) == 0 {
		o.Replace(nil)
		return
	}
	next := *opts
	next.Columns = kept
	o.Replace(&next)
}

func (o *OneHot) Execute(_ context.Context, inputs ...*frame.Frame) (*frame.Frame, error) {
	opts, ok := o.Get()
	if !ok {
		return nil, errNoOptions(OneHotName)
	}
	in := inputs[0]
	if err := requireColumns(in, opts.Columns, frame.Nominal, frame.String); err != nil {
		return nil, err
	}

	var cols []frame.Column
	for _, c := range in.Columns() {
		if !slices.Contains(opts.Columns, c.Name) {
			cols = append(cols, c.Clone())
			continue
		}
		cols = append(cols, dummies(c, opts.IncludeMissing)...)
	}
	return frame.NewWithIndex(in.IndexCopy(), cols)
}

// dummies expands c into indicator columns ordered by value.
func dummies(c frame.Column, includeMissing bool) []frame.Column {
	seen := make(map[string]struct{})
	missing := false
	for i := range c.Values {
		v, ok := c.Text(i)
		if !ok {
			missing = true
			continue
		}
		seen[v] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	slices.Sort(values)

	out := make([]frame.Column, 0, len(values)+1)
	for _, value := range values {
		ind := frame.Column{Name: c.Name + "_" + value, Type: frame.Numeric, Values: make([]any, len(c.Values))}
		for i := range c.Values {
			if v, ok := c.Text(i); ok && v == value {
				ind.Values[i] = 1.0
			} else {
				ind.Values[i] = 0.0
			}
		}
		out = append(out, ind)
	}
	if includeMissing && missing {
		ind := frame.Column{Name: c.Name + "_" + MissingSuffix, Type: frame.Numeric, Values: make([]any, len(c.Values))}
		for i, v := range c.Values {
			if v == nil {
				ind.Values[i] = 1.0
			} else {
				ind.Values[i] = 0.0
			}
		}
		out = append(out, ind)
	}
	return out
}
