package ops

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
)

// DropColumnsOptions list the columns to remove.
type DropColumnsOptions struct {
	Columns []string `mapstructure:"columns" validate:"min=1,unique"`
}

// DropColumns removes columns.
type DropColumns struct {
	operation.Base
	operation.Settings[DropColumnsOptions]
}

func NewDropColumns() *DropColumns {
	return &DropColumns{Base: operation.NewBase(operation.Spec{Name: DropColumnsName, Kind: operation.Transform})}
}

func (o *DropColumns) SetOptions(opts operation.Options) error {
	return o.Decode(opts, func(v *DropColumnsOptions) error {
		return checkColumns(o.InputShape(0), "columns", v.Columns)
	})
}

// UnsetOptions keeps the columns that still exist.
func (o *DropColumns) UnsetOptions() {
	opts, ok := o.Get()
	if !ok {
		return
	}
	kept := keepColumns(o.InputShape(0), opts.Columns)
	if len(kept) == 0 {
		o.Replace(nil)
		return
	}
	o.Replace(&DropColumnsOptions{Columns: kept})
}

func (o *DropColumns) Execute(_ context.Context, inputs ...*frame.Frame) (*frame.Frame, error) {
	opts, ok := o.Get()
	if !ok {
		return nil, errNoOptions(DropColumnsName)
	}
	in := inputs[0]
	if err := requireColumns(in, opts.Columns); err != nil {
		return nil, err
	}
	cols := make([]frame.Column, 0, in.NumColumns())
	for _, c := range in.Columns() {
		if !slices.Contains(opts.Columns, c.Name) {
			cols = append(cols, c.Clone())
		}
	}
	return frame.NewWithIndex(in.IndexCopy(), cols)
}

// RenameColumnsOptions map old column names to new ones.
type RenameColumnsOptions struct {
	Names map[string]string `mapstructure:"names" validate:"min=1,dive,required"`
}

// RenameColumns renames columns, keeping order and values.
type RenameColumns struct {
	operation.Base
	operation.Settings[RenameColumnsOptions]
}

func NewRenameColumns() *RenameColumns {
	return &RenameColumns{Base: operation.NewBase(operation.Spec{Name: RenameColumnsName, Kind: operation.Transform})}
}

func (o *RenameColumns) SetOptions(opts operation.Options) error {
	return o.Decode(opts, func(v *RenameColumnsOptions) error {
		shape := o.InputShape(0)
		if err := checkColumns(shape, "names", slices.Sorted(maps.Keys(v.Names))); err != nil {
			return err
		}
		var names []string
		if shape != nil {
			names = shape.ColumnNames()
		}
		if _, err := renamed(names, v.Names); err != nil {
			return errors.InvalidOptions(err.Error())
		}
		return nil
	})
}

// UnsetOptions keeps the renames whose source column still exists.
func (o *RenameColumns) UnsetOptions() {
	opts, ok := o.Get()
	if !ok {
		return
	}
	shape := o.InputShape(0)
	kept := make(map[string]string)
	for from, to := range opts.Names {
		if shape != nil && shape.HasColumn(from) {
			kept[from] = to
		}
	}
	if len(kept) == 0 {
		o.Replace(nil)
		return
	}
	o.Replace(&RenameColumnsOptions{Names: kept})
}

func (o *RenameColumns) Execute(_ context.Context, inputs ...*frame.Frame) (*frame.Frame, error) {
	opts, ok := o.Get()
	if !ok {
		return nil, errNoOptions(RenameColumnsName)
	}
	in := inputs[0]
	if err := requireColumns(in, slices.Sorted(maps.Keys(opts.Names))); err != nil {
		return nil, err
	}
	names, err := renamed(in.Shape().ColumnNames(), opts.Names)
	if err != nil {
		return nil, err
	}
	cols := make([]frame.Column, in.NumColumns())
	for i, c := range in.Columns() {
		cols[i] = c.Clone()
		cols[i].Name = names[i]
	}
	return frame.NewWithIndex(in.IndexCopy(), cols)
}

// renamed applies mapping to names and rejects duplicate results.
func renamed(names []string, mapping map[string]string) ([]string, error) {
	out := make([]string, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if to, ok := mapping[name]; ok {
			name = to
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("names: column %q would appear twice", name)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	// Targets of renames whose source is absent may still collide with
	// each other.
	targets := make(map[string]string, len(mapping))
	for from, to := range mapping {
		if other, dup := targets[to]; dup {
			return nil, fmt.Errorf("names: %q and %q are both renamed to %q", min(from, other), max(from, other), to)
		}
		targets[to] = from
	}
	return out, nil
}
