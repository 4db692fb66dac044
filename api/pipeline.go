package api

import (
	"context"
	"sync"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
	"github.com/kbukum/tabflow/ops"
	"github.com/kbukum/tabflow/scheduler"
	"github.com/kbukum/tabflow/workbench"
)

// Pipeline is the graph, its workbench and the handler that runs it.
// Edits and run starts are serialized, so an edit never races a Start.
type Pipeline struct {
	mu        sync.Mutex
	Workbench *workbench.Workbench
	Registry  *operation.Registry
	Graph     *dag.OperationDag
	Handler   *scheduler.Handler
	// Events streams the handler's run events to subscribers.
	Events *EventHub
}

// NewPipeline creates an empty pipeline over wb with the built-in
// operations.
func NewPipeline(wb *workbench.Workbench, opts ...scheduler.Option) *Pipeline {
	g := dag.New()
	hub := NewEventHub()
	return &Pipeline{
		Workbench: wb,
		Registry:  ops.NewRegistry(wb),
		Graph:     g,
		Handler:   scheduler.New(g, append(opts, scheduler.AddListener(hub))...),
		Events:    hub,
	}
}

// Edit runs fn unless a run is active.
func (p *Pipeline) Edit(fn func(g *dag.OperationDag) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Handler.Running() {
		return errors.FlowRunning()
	}
	return fn(p.Graph)
}

// Read runs fn with edits held off.
func (p *Pipeline) Read(fn func(g *dag.OperationDag) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.Graph)
}

// Start starts a run.
func (p *Pipeline) Start(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Handler.Start(ctx)
}

// Load replaces the graph with the one described by doc. On error the
// current graph is kept.
func (p *Pipeline) Load(doc *dag.Document) error {
	return p.Edit(func(g *dag.OperationDag) error {
		next, err := dag.Deserialize(doc, p.Registry)
		if err != nil {
			return err
		}
		g.Replace(next)
		return nil
	})
}

// SetFrame stores a workbench frame and reinfers the shapes that depend on
// it. It returns the ids whose output shape changed.
func (p *Pipeline) SetFrame(name string, f *frame.Frame) ([]int, error) {
	var changed []int
	err := p.Edit(func(g *dag.OperationDag) error {
		p.Workbench.Set(name, f)
		changed = sortedKeys(g.Refresh())
		return nil
	})
	return changed, err
}

// DeleteFrame removes a workbench frame.
func (p *Pipeline) DeleteFrame(name string) ([]int, error) {
	var changed []int
	err := p.Edit(func(g *dag.OperationDag) error {
		if !p.Workbench.Delete(name) {
			return errors.NotFound("frame", name)
		}
		changed = sortedKeys(g.Refresh())
		return nil
	})
	return changed, err
}
