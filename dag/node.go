package dag

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
)

// Status is the run state of a node. The numeric values are stable.
type Status int32

const (
	StatusNone     Status = 0
	StatusSuccess  Status = 1
	StatusError    Status = 2
	StatusProgress Status = 3
)

var statusNames = map[Status]string{
	StatusNone:     "NONE",
	StatusSuccess:  "SUCCESS",
	StatusError:    "ERROR",
	StatusProgress: "PROGRESS",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for status, name := range statusNames {
		if name == string(b) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown node status %q", b)
}

// OperationNode is a vertex of the graph. It owns one operation, the slot
// of each predecessor and the inputs buffered for it during a run.
type OperationNode struct {
	id     int
	op     operation.Operation
	status atomic.Int32

	mu         sync.Mutex
	inputOrder map[int]int
	buffer     map[int]*frame.Frame
	metadata   map[string]any
}

func newNode(id int, op operation.Operation) *OperationNode {
	return &OperationNode{
		id:         id,
		op:         op,
		inputOrder: make(map[int]int),
		buffer:     make(map[int]*frame.Frame),
	}
}

func (n *OperationNode) ID() int                        { return n.id }
func (n *OperationNode) Operation() operation.Operation { return n.op }
func (n *OperationNode) Status() Status                 { return Status(n.status.Load()) }
func (n *OperationNode) SetStatus(s Status)             { n.status.Store(int32(s)) }

// InputOrder returns a copy of the predecessor to slot mapping.
func (n *OperationNode) InputOrder() map[int]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return maps.Clone(n.inputOrder)
}

// Slot returns the input slot fed by pred.
func (n *OperationNode) Slot(pred int) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	slot, ok := n.inputOrder[pred]
	return slot, ok
}

func (n *OperationNode) occupied(slot int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.inputOrder {
		if s == slot {
			return true
		}
	}
	return false
}

func (n *OperationNode) setSlot(pred, slot int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputOrder[pred] = slot
}

func (n *OperationNode) removeSlot(pred int) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	slot, ok := n.inputOrder[pred]
	delete(n.inputOrder, pred)
	return slot, ok
}

// Receive buffers the result of pred and returns the number of buffered
// inputs.
func (n *OperationNode) Receive(pred int, f *frame.Frame) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.buffer[pred] = f
	return len(n.buffer)
}

// TakeInputs returns the buffered inputs ordered by the slots in order and
// empties the buffer.
func (n *OperationNode) TakeInputs(order map[int]int) []*frame.Frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	preds := slices.SortedFunc(maps.Keys(n.buffer), func(a, b int) int {
		return order[a] - order[b]
	})
	inputs := make([]*frame.Frame, 0, len(preds))
	for _, p := range preds {
		inputs = append(inputs, n.buffer[p])
	}
	clear(n.buffer)
	return inputs
}

// ClearInputs drops the buffered inputs.
func (n *OperationNode) ClearInputs() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.buffer)
}

// Metadata returns a copy of the caller owned metadata.
func (n *OperationNode) Metadata() map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return maps.Clone(n.metadata)
}

func (n *OperationNode) setMetadata(md map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.metadata = maps.Clone(md)
}
