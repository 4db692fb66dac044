package ops

import (
	"context"

	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
	"github.com/kbukum/tabflow/workbench"
)

// InputOptions select the workbench frame an Input reads.
type InputOptions struct {
	Frame string `mapstructure:"frame" validate:"required"`
}

// Input starts a pipeline with a frame from the workbench.
type Input struct {
	operation.Base
	operation.Settings[InputOptions]
	wb *workbench.Workbench
}

func NewInput(wb *workbench.Workbench) *Input {
	return &Input{
		Base: operation.NewBase(operation.Spec{Name: InputName, Kind: operation.Input}),
		wb:   wb,
	}
}

// SetOptions accepts frames that are not loaded yet; the output shape stays
// unknown until they are.
func (o *Input) SetOptions(opts operation.Options) error {
	return o.Decode(opts, nil)
}

// InferShape reads the shape of the selected frame.
func (o *Input) InferShape() (*frame.Shape, bool) {
	opts, ok := o.Get()
	if !ok {
		return nil, false
	}
	return o.wb.Shape(opts.Frame)
}

func (o *Input) Execute(context.Context, ...*frame.Frame) (*frame.Frame, error) {
	opts, ok := o.Get()
	if !ok {
		return nil, errNoOptions(InputName)
	}
	return o.wb.Frame(opts.Frame)
}

// ToVariableOptions name the workbench entry an output writes.
type ToVariableOptions struct {
	Name string `mapstructure:"name" validate:"required"`
}

// ToVariable stores its input in the workbench.
type ToVariable struct {
	operation.Base
	operation.Settings[ToVariableOptions]
	wb *workbench.Workbench
}

func NewToVariable(wb *workbench.Workbench) *ToVariable {
	return &ToVariable{
		Base: operation.NewBase(operation.Spec{Name: ToVariableName, Kind: operation.Output}),
		wb:   wb,
	}
}

func (o *ToVariable) SetOptions(opts operation.Options) error {
	return o.Decode(opts, nil)
}

// UnsetOptions keeps the target name; it does not depend on the input
// shape.
func (o *ToVariable) UnsetOptions() {}

// Execute writes the input under the configured name and passes it on.
func (o *ToVariable) Execute(_ context.Context, inputs ...*frame.Frame) (*frame.Frame, error) {
	opts, ok := o.Get()
	if !ok {
		return nil, errNoOptions(ToVariableName)
	}
	o.wb.Set(opts.Name, inputs[0])
	return inputs[0], nil
}
