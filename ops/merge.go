package ops

import (
	"context"
	"fmt"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
)

// MergeColumnsOptions hold the suffixes appended to column names present
// in both inputs.
type MergeColumnsOptions struct {
	LSuffix string `mapstructure:"lsuffix" validate:"required"`
	RSuffix string `mapstructure:"rsuffix" validate:"required"`
}

// MergeColumns places the columns of two frames with the same number of
// rows side by side. The index of the left input is kept.
type MergeColumns struct {
	operation.Base
	operation.Settings[MergeColumnsOptions]
}

func NewMergeColumns() *MergeColumns {
	o := &MergeColumns{Base: operation.NewBase(operation.Spec{
		Name:            MergeColumnsName,
		Kind:            operation.Transform,
		MinInputs:       2,
		MaxInputs:       2,
		OptionsOptional: true,
	})}
	o.SetDefault(MergeColumnsOptions{LSuffix: "_l", RSuffix: "_r"})
	return o
}

func (o *MergeColumns) SetOptions(opts operation.Options) error {
	return o.Decode(opts, func(v *MergeColumnsOptions) error {
		if v.LSuffix == v.RSuffix {
			return errors.InvalidOptions("rsuffix: must differ from lsuffix")
		}
		return nil
	})
}

// UnsetOptions keeps the suffixes; they do not depend on the input shapes.
func (o *MergeColumns) UnsetOptions() {}

func (o *MergeColumns) Execute(_ context.Context, inputs ...*frame.Frame) (*frame.Frame, error) {
	opts, _ := o.Get()
	left, right := inputs[0], inputs[1]
	if left.Rows() != right.Rows() {
		return nil, fmt.Errorf("inputs have %d and %d rows", left.Rows(), right.Rows())
	}

	shared := make(map[string]bool)
	for _, c := range left.Columns() {
		if _, ok := right.Column(c.Name); ok {
			shared[c.Name] = true
		}
	}
	cols := make([]frame.Column, 0, left.NumColumns()+right.NumColumns())
	for _, c := range left.Columns() {
		c := c.Clone()
		if shared[c.Name] {
			c.Name += opts.LSuffix
		}
		cols = append(cols, c)
	}
	for _, c := range right.Columns() {
		c := c.Clone()
		if shared[c.Name] {
			c.Name += opts.RSuffix
		}
		cols = append(cols, c)
	}
	return frame.NewWithIndex(left.IndexCopy(), cols)
}
