package ops

import (
	"context"
	"math"
	"slices"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
)

const (
	MethodMinMax   = "minmax"
	MethodStandard = "standard"
)

// ScaleOptions select the columns to rescale and the method. Range is the
// target interval of minmax scaling, [0, 1] when omitted.
type ScaleOptions struct {
	Columns []string  `mapstructure:"columns" validate:"min=1,unique"`
	Method  string    `mapstructure:"method,omitempty" validate:"omitempty,oneof=minmax standard"`
	Range   []float64 `mapstructure:"range,omitempty" validate:"omitempty,len=2"`
}

// Scale rescales numeric columns in place, keeping column order.
type Scale struct {
	operation.Base
	operation.Settings[ScaleOptions]
}

func NewScale() *Scale {
	return &Scale{Base: operation.NewBase(operation.Spec{
		Name:    ScaleName,
		Kind:    operation.Transform,
		Accepts: []frame.Type{frame.Numeric},
	})}
}

func (o *Scale) SetOptions(opts operation.Options) error {
	return o.Decode(opts, func(v *ScaleOptions) error {
		if v.Method == "" {
			v.Method = MethodMinMax
		}
		if v.Method == MethodStandard && len(v.Range) > 0 {
			return errors.InvalidOptions("range: only applies to minmax scaling")
		}
		if len(v.Range) == 2 && v.Range[0] >= v.Range[1] {
			return errors.InvalidOptions("range: lower bound must be below upper bound")
		}
		return checkColumns(o.InputShape(0), "columns", v.Columns, frame.Numeric)
	})
}

// UnsetOptions keeps the columns that are still numeric in the new input
// shape.
func (o *Scale) UnsetOptions() {
	opts, ok := o.Get()
	if !ok {
		return
	}
	kept := keepColumns(o.InputShape(0), opts.Columns, frame.Numeric)
	if len(kept) == 0 {
		o.Replace(nil)
		return
	}
	next := *opts
	next.Columns = kept
	o.Replace(&next)
}

func (o *Scale) Execute(_ context.Context, inputs ...*frame.Frame) (*frame.Frame, error) {
	opts, ok := o.Get()
	if !ok {
		return nil, errNoOptions(ScaleName)
	}
	in := inputs[0]
	if err := requireColumns(in, opts.Columns, frame.Numeric); err != nil {
		return nil, err
	}

	lo, hi := 0.0, 1.0
	if len(opts.Range) == 2 {
		lo, hi = opts.Range[0], opts.Range[1]
	}

	cols := make([]frame.Column, 0, in.NumColumns())
	for _, c := range in.Columns() {
		c := c.Clone()
		if slices.Contains(opts.Columns, c.Name) {
			if opts.Method == MethodStandard {
				standardize(c.Values)
			} else {
				minMax(c.Values, lo, hi)
			}
		}
		cols = append(cols, c)
	}
	return frame.NewWithIndex(in.IndexCopy(), cols)
}

// minMax maps values linearly onto [lo, hi]. A constant column maps to lo.
func minMax(values []any, lo, hi float64) {
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if x, ok := v.(float64); ok {
			vmin = math.Min(vmin, x)
			vmax = math.Max(vmax, x)
		}
	}
	span := vmax - vmin
	for i, v := range values {
		x, ok := v.(float64)
		if !ok {
			continue
		}
		if span == 0 {
			values[i] = lo
			continue
		}
		values[i] = (x-vmin)/span*(hi-lo) + lo
	}
}

// standardize centres values on the mean and divides by the population
// standard deviation. A constant column maps to 0.
func standardize(values []any) {
	var sum, n float64
	for _, v := range values {
		if x, ok := v.(float64); ok {
			sum += x
			n++
		}
	}
	if n == 0 {
		return
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		if x, ok := v.(float64); ok {
			sq += (x - mean) * (x - mean)
		}
	}
	std := math.Sqrt(sq / n)
	for i, v := range values {
		x, ok := v.(float64)
		if !ok {
			continue
		}
		if std == 0 {
			values[i] = 0.0
			continue
		}
		values[i] = (x - mean) / std
	}
}
