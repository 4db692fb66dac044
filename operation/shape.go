package operation

import (
	"context"
	"fmt"

	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/logger"
)

// OutputShape infers the shape op produces from its declared input shapes
// and options. ok is false when the shape is unknown:
//
//   - the operation declares its output shape unknown;
//   - a required input slot is unset;
//   - the operation needs options and has none;
//   - dummy execution fails.
//
// ShapeInferrer implementations bypass the slot and option checks. Output
// operations pass slot 0 through. Other operations are executed against
// empty frames built from the input shapes.
func OutputShape(op Operation) (s *frame.Shape, ok bool) {
	if !op.IsOutputShapeKnown() {
		return nil, false
	}
	if inf, isInf := op.(ShapeInferrer); isInf {
		return inf.InferShape()
	}

	inputs, ok := boundShapes(op)
	if !ok {
		return nil, false
	}
	if op.NeedsOptions() && !op.HasOptions() {
		return nil, false
	}

	switch op.Kind() {
	case Output:
		return inputs[0].Clone(), true
	case Input:
		return nil, false
	}

	dummies := make([]*frame.Frame, len(inputs))
	for i, in := range inputs {
		dummies[i] = frame.FromShape(in)
	}
	out, err := dryRun(op, dummies)
	if err != nil || out == nil {
		logger.WithComponent("operation").Debug("shape inference failed", logger.Fields(
			logger.FieldOperation, op.Name(),
			logger.FieldError, err,
		))
		return nil, false
	}
	return out.Shape(), true
}

// boundShapes returns the shapes of the required slots, in slot order,
// followed by any extra bound slots of unbounded operations.
func boundShapes(op Operation) ([]*frame.Shape, bool) {
	shapes := op.InputShapes()
	required := op.MinInputs()
	if op.MaxInputs() >= 0 {
		required = op.MaxInputs()
	}
	if len(shapes) < required {
		return nil, false
	}
	out := make([]*frame.Shape, 0, len(shapes))
	for i, s := range shapes {
		if s == nil {
			if i < required {
				return nil, false
			}
			continue
		}
		out = append(out, s)
	}
	return out, true
}

func dryRun(op Operation, inputs []*frame.Frame) (out *frame.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic during dry run: %v", r)
		}
	}()
	return op.Execute(context.Background(), inputs...)
}
