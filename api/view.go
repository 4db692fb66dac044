package api

import (
	"maps"
	"slices"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
	"github.com/kbukum/tabflow/scheduler"
)

// NodeView is the API representation of a node.
type NodeView struct {
	ID           int               `json:"id"`
	Operation    string            `json:"operation"`
	Kind         operation.Kind    `json:"kind"`
	Status       dag.Status        `json:"status"`
	Options      operation.Options `json:"options,omitempty"`
	HasOptions   bool              `json:"has_options"`
	NeedsOptions bool              `json:"needs_options"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
	InputShapes  []*frame.Shape    `json:"input_shapes"`
	OutputShape  *frame.Shape      `json:"output_shape,omitempty"`
	Predecessors []int             `json:"predecessors"`
	Successors   []int             `json:"successors"`
}

func nodeView(g *dag.OperationDag, id int) (*NodeView, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, errors.NodeNotFound(id)
	}
	op := n.Operation()
	v := &NodeView{
		ID:           id,
		Operation:    op.Name(),
		Kind:         op.Kind(),
		Status:       n.Status(),
		Options:      op.Options(),
		HasOptions:   op.HasOptions(),
		NeedsOptions: op.NeedsOptions(),
		Metadata:     n.Metadata(),
		Predecessors: g.Predecessors(id),
		Successors:   g.Successors(id),
	}
	v.InputShapes = make([]*frame.Shape, len(op.InputShapes()))
	for slot := range v.InputShapes {
		s, err := g.InputShape(id, slot)
		if err != nil {
			return nil, err
		}
		v.InputShapes[slot] = s
	}
	out, known, err := g.OutputShape(id)
	if err != nil {
		return nil, err
	}
	if known {
		v.OutputShape = out
	}
	return v, nil
}

// RunView is the state of the handler.
type RunView struct {
	State    scheduler.State       `json:"state"`
	RunID    string                `json:"run_id,omitempty"`
	Statuses map[int]dag.Status    `json:"statuses"`
	Last     *scheduler.RunSummary `json:"last,omitempty"`
}

func sortedKeys(set map[int]struct{}) []int {
	return slices.Sorted(maps.Keys(set))
}
