package operation

import (
	"context"
	"fmt"

	"github.com/kbukum/tabflow/frame"
)

// Options are the user settings of an operation, as they travel through the
// API and pipeline documents.
type Options = map[string]any

// Operation is one pipeline step.
//
// Operations are not safe for concurrent mutation. The graph serializes
// option and shape changes; the scheduler only calls Execute.
type Operation interface {
	Name() string
	Kind() Kind

	// Execute computes the output from the input frames, ordered by slot.
	// It must not modify the inputs.
	Execute(ctx context.Context, inputs ...*frame.Frame) (*frame.Frame, error)

	// SetOptions validates and stores options. On error the previous
	// options are kept.
	SetOptions(opts Options) error
	// Options returns the current options, or nil when unset.
	Options() Options
	HasOptions() bool
	NeedsOptions() bool
	// UnsetOptions invalidates the options after an input shape change.
	// Operations may keep the parts that are still valid.
	UnsetOptions()

	AcceptedTypes() []frame.Type
	MinInputs() int
	MaxInputs() int
	MinOutputs() int
	MaxOutputs() int
	IsOutputShapeKnown() bool
	NeedsInputShapeKnown() bool

	// InputShapes returns the declared shape per input slot; nil entries
	// are unset slots.
	InputShapes() []*frame.Shape
	SetInputShape(slot int, s *frame.Shape) error
	ClearInputShape(slot int)
}

// ShapeInferrer is implemented by operations whose output shape does not
// follow from executing them on empty frames.
type ShapeInferrer interface {
	InferShape() (*frame.Shape, bool)
}

// Base implements the structural half of Operation from a Spec. Concrete
// operations embed it together with a Settings value.
type Base struct {
	spec   Spec
	shapes []*frame.Shape
}

// NewBase creates a Base with the Kind defaults applied.
func NewBase(spec Spec) Base {
	spec = spec.normalized()
	n := spec.MaxInputs
	if n < 0 {
		n = spec.MinInputs
	}
	return Base{spec: spec, shapes: make([]*frame.Shape, n)}
}

func (b *Base) Name() string                { return b.spec.Name }
func (b *Base) Kind() Kind                  { return b.spec.Kind }
func (b *Base) AcceptedTypes() []frame.Type { return b.spec.Accepts }
func (b *Base) MinInputs() int              { return b.spec.MinInputs }
func (b *Base) MaxInputs() int              { return b.spec.MaxInputs }
func (b *Base) MinOutputs() int             { return b.spec.MinOutputs }
func (b *Base) MaxOutputs() int             { return b.spec.MaxOutputs }
func (b *Base) IsOutputShapeKnown() bool    { return !b.spec.OutputShapeUnknown }
func (b *Base) NeedsInputShapeKnown() bool  { return !b.spec.InputShapeOptional }
func (b *Base) NeedsOptions() bool          { return !b.spec.OptionsOptional }

// InputShapes returns a copy of the slot table.
func (b *Base) InputShapes() []*frame.Shape {
	return append([]*frame.Shape(nil), b.shapes...)
}

// InputShape returns the shape bound to slot, or nil.
func (b *Base) InputShape(slot int) *frame.Shape {
	if slot < 0 || slot >= len(b.shapes) {
		return nil
	}
	return b.shapes[slot]
}

// SetInputShape binds a clone of s to slot. Unbounded operations grow the
// slot table as needed.
func (b *Base) SetInputShape(slot int, s *frame.Shape) error {
	if slot < 0 || (b.spec.MaxInputs >= 0 && slot >= b.spec.MaxInputs) {
		return fmt.Errorf("slot %d out of range for %s", slot, b.spec.Name)
	}
	for slot >= len(b.shapes) {
		b.shapes = append(b.shapes, nil)
	}
	b.shapes[slot] = s.Clone()
	return nil
}

// ClearInputShape unsets slot. Out of range slots are ignored.
func (b *Base) ClearInputShape(slot int) {
	if slot >= 0 && slot < len(b.shapes) {
		b.shapes[slot] = nil
	}
}

// Accepts reports whether t is one of the accepted column types.
func Accepts(op Operation, t frame.Type) bool {
	for _, a := range op.AcceptedTypes() {
		if a == t {
			return true
		}
	}
	return false
}
