package dag

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/operation"
)

// Edge connects the output of Source to input Slot of Target.
type Edge struct {
	Source int `json:"source" yaml:"source"`
	Target int `json:"target" yaml:"target"`
	Slot   int `json:"slot" yaml:"slot"`
}

// OperationDag is a mutable acyclic graph of operations. Every connection
// is validated against the inferred output shape of its source, and every
// node's input shapes follow its current predecessors.
//
// All methods are safe for concurrent use.
type OperationDag struct {
	mu     sync.RWMutex
	nodes  map[int]*OperationNode
	succ   map[int]map[int]struct{}
	pred   map[int]map[int]struct{}
	nextID int
	log    *logger.Logger
}

// New creates an empty graph.
func New() *OperationDag {
	return &OperationDag{
		nodes: make(map[int]*OperationNode),
		succ:  make(map[int]map[int]struct{}),
		pred:  make(map[int]map[int]struct{}),
		log:   logger.WithComponent("dag"),
	}
}

// NewNode wraps op in a node with the next free id. The node is not part
// of the graph until AddNode.
func (g *OperationDag) NewNode(op operation.Operation) *OperationNode {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	return newNode(id, op)
}

// AddNode inserts an isolated node. It returns false, without changes,
// when the id is already taken.
func (g *OperationDag) AddNode(n *OperationNode) bool {
	if n == nil || n.op == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[n.id]; ok {
		return false
	}
	g.nodes[n.id] = n
	g.succ[n.id] = make(map[int]struct{})
	g.pred[n.id] = make(map[int]struct{})
	if n.id >= g.nextID {
		g.nextID = n.id + 1
	}
	g.log.Debug("node added", logger.NodeFields(n.id, n.op.Name()))
	return true
}

// AddConnection connects source to slot of target. On failure the graph is
// unchanged and the error is a structural AppError. On success the
// inferred output shape of source is bound to the slot and shapes are
// propagated to the descendants of target.
func (g *OperationDag) AddConnection(source, target, slot int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkConnection(source, target, slot); err != nil {
		return false, err
	}
	src, dst := g.nodes[source], g.nodes[target]

	g.succ[source][target] = struct{}{}
	g.pred[target][source] = struct{}{}
	dst.setSlot(source, slot)

	before := map[int]inferred{target: infer(dst.op)}
	rebind(dst.op, slot, infer(src.op))
	changed := g.propagate(before)

	g.log.Debug("connection added", logger.Fields(
		logger.FieldSource, source,
		logger.FieldTarget, target,
		logger.FieldSlot, slot,
		"changed", sortedIDs(changed),
	))
	return true, nil
}

func (g *OperationDag) checkConnection(source, target, slot int) error {
	src, ok := g.nodes[source]
	if !ok {
		return errors.NodeNotFound(source)
	}
	dst, ok := g.nodes[target]
	if !ok {
		return errors.NodeNotFound(target)
	}
	if source == target || g.reaches(target, source) {
		return errors.Cycle(source, target)
	}
	if _, ok := g.succ[source][target]; ok {
		return errors.DuplicateEdge(source, target)
	}

	in, out := dst.op.MaxInputs(), src.op.MaxOutputs()
	if in >= 0 && len(g.pred[target])+1 > in {
		return errors.Arity(source, target, fmt.Sprintf("node %d accepts at most %d inputs", target, in))
	}
	if out >= 0 && len(g.succ[source])+1 > out {
		return errors.Arity(source, target, fmt.Sprintf("node %d feeds at most %d outputs", source, out))
	}
	if slot < 0 || (in >= 0 && slot >= in) {
		return errors.InvalidSlot(target, slot, "out of range")
	}
	if dst.occupied(slot) {
		return errors.InvalidSlot(target, slot, "already connected")
	}

	if dst.op.NeedsInputShapeKnown() && !src.op.IsOutputShapeKnown() {
		return errors.ShapeUnknown(source, target)
	}
	if s := infer(src.op); s.known && s.shape.NumColumns() > 0 && !acceptsAny(dst.op, s.shape) {
		return errors.IncompatibleTypes(source, target)
	}
	return nil
}

// reaches reports whether to is reachable from from.
func (g *OperationDag) reaches(from, to int) bool {
	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		for next := range g.succ[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

func acceptsAny(op operation.Operation, s *frame.Shape) bool {
	for t := range s.ColumnTypes() {
		if operation.Accepts(op, t) {
			return true
		}
	}
	return false
}

// RemoveConnection deletes the edge and retracts the shape it fed. It
// returns the ids whose options were invalidated.
func (g *OperationDag) RemoveConnection(source, target int) (map[int]struct{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.succ[source][target]; !ok {
		return nil, errors.EdgeNotFound(source, target)
	}
	invalidated := make(map[int]struct{})
	g.retract(source, target, invalidated)
	return invalidated, nil
}

// RemoveNode deletes the node and every incident edge. Successors lose the
// input shape the node fed; their ids are returned.
func (g *OperationDag) RemoveNode(id int) (map[int]struct{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NodeNotFound(id)
	}
	invalidated := make(map[int]struct{})
	for _, p := range sortedIDs(g.pred[id]) {
		delete(g.succ[p], id)
		delete(g.pred[id], p)
		n.removeSlot(p)
	}
	for _, s := range sortedIDs(g.succ[id]) {
		g.retract(id, s, invalidated)
	}
	delete(g.nodes, id)
	delete(g.succ, id)
	delete(g.pred, id)
	g.log.Debug("node removed", logger.NodeFields(id, n.op.Name()))
	return invalidated, nil
}

// retract removes source->target, clears the slot and lets the target
// drop the options that depended on it. Descendants of target are left
// as they are.
func (g *OperationDag) retract(source, target int, invalidated map[int]struct{}) {
	delete(g.succ[source], target)
	delete(g.pred[target], source)
	dst := g.nodes[target]
	if slot, ok := dst.removeSlot(source); ok {
		dst.op.ClearInputShape(slot)
	}
	dst.op.UnsetOptions()
	invalidated[target] = struct{}{}
	g.log.Debug("connection removed", logger.Fields(
		logger.FieldSource, source,
		logger.FieldTarget, target,
	))
}

// UpdateNodeOptions sets the options of a node and propagates the new
// output shape. Validation errors are returned unchanged. The result holds
// the ids whose output shape changed; an empty set means no observable
// change.
func (g *OperationDag) UpdateNodeOptions(id int, opts operation.Options) (map[int]struct{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NodeNotFound(id)
	}
	before := map[int]inferred{id: infer(n.op)}
	if err := n.op.SetOptions(opts); err != nil {
		return nil, err
	}
	return g.propagate(before), nil
}

// Refresh recomputes every shape from the input nodes down, for example
// after the frames read by input nodes changed. It returns the ids whose
// output shape changed.
func (g *OperationDag) Refresh() map[int]struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	dirty := make(map[int]inferred)
	for id, preds := range g.pred {
		if len(preds) == 0 {
			dirty[id] = infer(g.nodes[id].op)
		}
	}
	return g.propagate(dirty)
}

// propagate walks the graph in topological order starting at the nodes in
// dirty, which maps them to their output shape before the change. Slots
// fed by a node whose shape differs from the bound one are rebound and the
// successor's options are revalidated through UnsetOptions.
func (g *OperationDag) propagate(dirty map[int]inferred) map[int]struct{} {
	changed := make(map[int]struct{})
	for _, id := range g.topoOrder() {
		before, ok := dirty[id]
		if !ok {
			continue
		}
		n := g.nodes[id]
		now := infer(n.op)
		if !before.identical(now) {
			changed[id] = struct{}{}
		}
		for _, s := range sortedIDs(g.succ[id]) {
			t := g.nodes[s]
			slot, _ := t.Slot(id)
			if _, seen := dirty[s]; !seen {
				dirty[s] = infer(t.op)
			}
			if rebind(t.op, slot, now) {
				changed[id] = struct{}{}
			}
		}
	}
	return changed
}

// Levels groups node ids by dependency depth using Kahn's algorithm. Nodes
// in one level do not depend on each other.
func (g *OperationDag) Levels() [][]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.levels()
}

func (g *OperationDag) levels() [][]int {
	inDegree := make(map[int]int, len(g.nodes))
	var queue []int
	for id := range g.nodes {
		inDegree[id] = len(g.pred[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	slices.Sort(queue)

	var levels [][]int
	for len(queue) > 0 {
		levels = append(levels, queue)
		var next []int
		for _, id := range queue {
			for s := range g.succ[id] {
				inDegree[s]--
				if inDegree[s] == 0 {
					next = append(next, s)
				}
			}
		}
		slices.Sort(next)
		queue = next
	}
	return levels
}

// TopologicalOrder returns every node id with predecessors before
// successors.
func (g *OperationDag) TopologicalOrder() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.topoOrder()
}

func (g *OperationDag) topoOrder() []int {
	return slices.Concat(g.levels()...)
}

// --- accessors ---

// Node returns the node with the given id.
func (g *OperationDag) Node(id int) (*OperationNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the node ids in ascending order.
func (g *OperationDag) Nodes() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns every edge ordered by source, then target.
func (g *OperationDag) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var edges []Edge
	for source, targets := range g.succ {
		for target := range targets {
			slot, _ := g.nodes[target].Slot(source)
			edges = append(edges, Edge{Source: source, Target: target, Slot: slot})
		}
	}
	slices.SortFunc(edges, compareEdges)
	return edges
}

func (g *OperationDag) Successors(id int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedIDs(g.succ[id])
}

func (g *OperationDag) Predecessors(id int) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedIDs(g.pred[id])
}

func (g *OperationDag) InDegree(id int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pred[id])
}

func (g *OperationDag) OutDegree(id int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.succ[id])
}

// Len returns the number of nodes.
func (g *OperationDag) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// SetMetadata replaces the caller owned metadata of a node.
func (g *OperationDag) SetMetadata(id int, md map[string]any) error {
	n, ok := g.Node(id)
	if !ok {
		return errors.NodeNotFound(id)
	}
	n.setMetadata(md)
	return nil
}

func (g *OperationDag) Metadata(id int) (map[string]any, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, errors.NodeNotFound(id)
	}
	return n.Metadata(), nil
}

// InputShape returns the shape bound to slot of a node, or nil when the
// slot is unset.
func (g *OperationDag) InputShape(id, slot int) (*frame.Shape, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NodeNotFound(id)
	}
	shapes := n.op.InputShapes()
	if slot < 0 || slot >= len(shapes) {
		return nil, nil
	}
	return shapes[slot].Clone(), nil
}

// OutputShape infers the output shape of a node. known is false when it
// cannot be inferred yet.
func (g *OperationDag) OutputShape(id int) (s *frame.Shape, known bool, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, false, errors.NodeNotFound(id)
	}
	s, known = operation.OutputShape(n.op)
	return s, known, nil
}

// InputNodes returns the nodes without predecessors whose operation takes
// no inputs.
func (g *OperationDag) InputNodes() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.inputNodes()
}

func (g *OperationDag) inputNodes() []int {
	var ids []int
	for id, n := range g.nodes {
		if len(g.pred[id]) == 0 && n.op.MaxInputs() == 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Snapshot is a consistent copy of the graph structure. Nodes are shared
// with the graph.
type Snapshot struct {
	Nodes      map[int]*OperationNode
	Successors map[int][]int
	InputOrder map[int]map[int]int
	Inputs     []int
}

// Snapshot copies the structure under one read lock.
func (g *OperationDag) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := &Snapshot{
		Nodes:      maps.Clone(g.nodes),
		Successors: make(map[int][]int, len(g.nodes)),
		InputOrder: make(map[int]map[int]int, len(g.nodes)),
		Inputs:     g.inputNodes(),
	}
	for id, n := range g.nodes {
		s.Successors[id] = sortedIDs(g.succ[id])
		s.InputOrder[id] = n.InputOrder()
	}
	return s
}

// Reachable returns from and every node reachable from it.
func (s *Snapshot) Reachable(from []int) []int {
	seen := make(map[int]struct{})
	stack := slices.Clone(from)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, s.Successors[id]...)
	}
	return sortedIDs(seen)
}

// Replace moves the contents of src into g. src must not be used
// afterwards.
func (g *OperationDag) Replace(src *OperationDag) {
	if src == g {
		return
	}
	src.mu.Lock()
	nodes, succ, pred, next := src.nodes, src.succ, src.pred, src.nextID
	src.nodes, src.succ, src.pred = nil, nil, nil
	src.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes, g.succ, g.pred, g.nextID = nodes, succ, pred, next
}

// inferred is an output shape inference result.
type inferred struct {
	shape *frame.Shape
	known bool
}

func infer(op operation.Operation) inferred {
	s, ok := operation.OutputShape(op)
	return inferred{shape: s, known: ok}
}

// identical compares column and index order as well as names and types.
func (a inferred) identical(b inferred) bool {
	if a.known != b.known {
		return false
	}
	if !a.known {
		return true
	}
	return slices.Equal(a.shape.Columns, b.shape.Columns) && slices.Equal(a.shape.Index, b.shape.Index)
}

// rebind binds s to slot of op unless it is already bound, then lets op
// revalidate its options. It reports whether the slot changed.
func rebind(op operation.Operation, slot int, s inferred) bool {
	var cur inferred
	if shapes := op.InputShapes(); slot < len(shapes) && shapes[slot] != nil {
		cur = inferred{shape: shapes[slot], known: true}
	}
	if cur.identical(s) {
		return false
	}
	if s.known {
		// The slot is in range; checkConnection validated it.
		_ = op.SetInputShape(slot, s.shape)
	} else {
		op.ClearInputShape(slot)
	}
	op.UnsetOptions()
	return true
}

func sortedIDs(set map[int]struct{}) []int {
	return slices.Sorted(maps.Keys(set))
}
