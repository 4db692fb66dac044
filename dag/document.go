package dag

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/operation"
)

// Document is the persisted form of a graph.
type Document struct {
	Nodes map[int]NodeDocument `json:"nodes" yaml:"nodes"`
	Edges []Edge               `json:"edges" yaml:"edges"`
}

// NodeDocument describes one node. Input shapes are not stored; they are
// inferred again when the graph is rebuilt.
type NodeDocument struct {
	Operation string            `json:"operation" yaml:"operation"`
	Options   operation.Options `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Serialize captures nodes, options, metadata and edges.
func (g *OperationDag) Serialize() *Document {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := &Document{Nodes: make(map[int]NodeDocument, len(g.nodes)), Edges: []Edge{}}
	for id, n := range g.nodes {
		doc.Nodes[id] = NodeDocument{
			Operation: n.op.Name(),
			Options:   n.op.Options(),
			Metadata:  n.Metadata(),
		}
		for _, p := range sortedIDs(g.pred[id]) {
			slot, _ := n.Slot(p)
			doc.Edges = append(doc.Edges, Edge{Source: p, Target: id, Slot: slot})
		}
	}
	slices.SortFunc(doc.Edges, compareEdges)
	return doc
}

// Deserialize rebuilds a graph with the same node ids. Nodes are visited
// in topological order; each one gets its incoming edges in slot order and
// then its options, so every option check sees the final input shapes.
// Options that no longer validate leave the node unconfigured and are
// logged.
func Deserialize(doc *Document, reg *operation.Registry) (*OperationDag, error) {
	if doc == nil {
		return nil, errors.InvalidDocument("empty document")
	}
	g := New()
	for _, id := range slices.Sorted(maps.Keys(doc.Nodes)) {
		nd := doc.Nodes[id]
		if id < 0 {
			return nil, errors.InvalidDocument(fmt.Sprintf("node id %d is negative", id))
		}
		op, err := reg.New(nd.Operation)
		if err != nil {
			return nil, err
		}
		g.AddNode(newNode(id, op))
	}

	incoming := make(map[int][]Edge)
	for _, e := range doc.Edges {
		for _, id := range []int{e.Source, e.Target} {
			if _, ok := doc.Nodes[id]; !ok {
				return nil, errors.InvalidDocument(fmt.Sprintf("edge %d->%d references unknown node %d", e.Source, e.Target, id))
			}
		}
		incoming[e.Target] = append(incoming[e.Target], e)
	}
	order, err := documentOrder(doc)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("dag")
	for _, id := range order {
		edges := incoming[id]
		slices.SortFunc(edges, func(a, b Edge) int { return a.Slot - b.Slot })
		for _, e := range edges {
			if _, err := g.AddConnection(e.Source, e.Target, e.Slot); err != nil {
				return nil, errors.InvalidDocument(fmt.Sprintf("edge %d->%d: %v", e.Source, e.Target, err)).WithCause(err)
			}
		}

		nd := doc.Nodes[id]
		if nd.Options != nil {
			if _, err := g.UpdateNodeOptions(id, nd.Options); err != nil {
				log.Warn("options not restored", logger.MergeWithError(logger.NodeFields(id, nd.Operation), err))
			}
		}
		if nd.Metadata != nil {
			_ = g.SetMetadata(id, nd.Metadata)
		}
	}
	return g, nil
}

// documentOrder sorts the document nodes topologically, smallest id first
// among ready nodes.
func documentOrder(doc *Document) ([]int, error) {
	inDegree := make(map[int]int, len(doc.Nodes))
	succ := make(map[int][]int)
	for id := range doc.Nodes {
		inDegree[id] = 0
	}
	for _, e := range doc.Edges {
		inDegree[e.Target]++
		succ[e.Source] = append(succ[e.Source], e.Target)
	}
	var ready []int
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]int, 0, len(doc.Nodes))
	for len(ready) > 0 {
		slices.Sort(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, s := range succ[id] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	if len(order) != len(doc.Nodes) {
		return nil, errors.InvalidDocument(fmt.Sprintf("edges form a cycle, ordered %d of %d nodes", len(order), len(doc.Nodes)))
	}
	return order, nil
}

func compareEdges(a, b Edge) int {
	if a.Source != b.Source {
		return a.Source - b.Source
	}
	return a.Target - b.Target
}
