package operation

import (
	"fmt"

	"github.com/kbukum/tabflow/frame"
)

// Kind selects the variant of an operation. It fixes arity and shape
// defaults at construction time.
type Kind int

const (
	// Transform maps input frames to a new frame.
	Transform Kind = iota
	// Input produces a frame from outside the graph and has no inputs.
	Input
	// Output consumes one frame and has no successors.
	Output
)

var kindNames = [...]string{Transform: "transform", Input: "input", Output: "output"}

func (k Kind) String() string {
	if k >= Transform && k <= Output {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown operation kind %q", b)
}

// Spec declares the static properties of an operation. Zero values fall
// back to the defaults of the Kind:
//
//	kind       inputs  outputs  accepted  output shape  needs input shape
//	Transform  1/1     1/-1     all       known         yes
//	Input      0/0     1/-1     all       known         no
//	Output     1/1     0/0      all       known         no
//
// -1 means unbounded. Input and Output ignore the declared arity.
type Spec struct {
	Name       string
	Kind       Kind
	MinInputs  int
	MaxInputs  int
	MinOutputs int
	MaxOutputs int
	// Accepts lists the column types the operation reads. Empty means all.
	Accepts []frame.Type
	// OutputShapeUnknown marks operations whose output schema depends on
	// the data.
	OutputShapeUnknown bool
	// InputShapeOptional lets a Transform connect to sources whose output
	// shape cannot be inferred.
	InputShapeOptional bool
	// OptionsOptional marks operations that run without options.
	OptionsOptional bool
}

func (s Spec) normalized() Spec {
	switch s.Kind {
	case Input:
		s.MinInputs, s.MaxInputs = 0, 0
		s.MinOutputs, s.MaxOutputs = 1, -1
		s.Accepts = nil
		s.OutputShapeUnknown = false
		s.InputShapeOptional = true
	case Output:
		s.MinInputs, s.MaxInputs = 1, 1
		s.MinOutputs, s.MaxOutputs = 0, 0
		s.Accepts = nil
		s.OutputShapeUnknown = false
		s.InputShapeOptional = true
	default:
		if s.MinInputs == 0 && s.MaxInputs == 0 {
			s.MinInputs, s.MaxInputs = 1, 1
		}
		if s.MinOutputs == 0 && s.MaxOutputs == 0 {
			s.MinOutputs, s.MaxOutputs = 1, -1
		}
	}
	if len(s.Accepts) == 0 {
		s.Accepts = frame.AllTypes
	}
	return s
}
