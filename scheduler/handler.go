package scheduler

import (
	"context"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/observability"
)

// Handler runs an OperationDag, one run at a time.
//
// Runs move through IDLE, VALIDATING, RUNNING, then COMPLETED or ABORTED
// and back to IDLE. Node statuses, buffers and the dispatch bookkeeping
// are only touched with mu held; operations execute outside it.
type Handler struct {
	mu       sync.Mutex
	graph    *dag.OperationDag
	pool     *Pool
	runner   Runner
	listener Listener
	log      *logger.Logger

	state State
	run   *run
	done  chan struct{}
	last  *RunSummary
}

// run is the bookkeeping of the active run. plan is a snapshot of the
// graph taken at Start, so edits during the run do not affect it.
type run struct {
	id        string
	ctx       context.Context
	span      trace.Span
	plan      *dag.Snapshot
	reachable map[int]struct{}
	startedAt time.Time
	succeeded []int
	failed    map[int]Fault
}

// Option configures a Handler.
type Option func(*Handler)

// WithRunner sets the runner chain nodes execute through. Default:
// Execute.
func WithRunner(r Runner) Option {
	return func(h *Handler) { h.runner = r }
}

// WithListener sets the event listener. Use Listeners for several.
func WithListener(l Listener) Option {
	return func(h *Handler) { h.listener = l }
}

// AddListener appends l to the listener set by earlier options.
func AddListener(l Listener) Option {
	return func(h *Handler) {
		if h.listener == nil {
			h.listener = l
			return
		}
		h.listener = Listeners{h.listener, l}
	}
}

// WithMaxWorkers bounds concurrent node executions. Default:
// runtime.NumCPU().
func WithMaxWorkers(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.pool = NewPool(n, h.finish)
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// New creates an idle Handler for g.
func New(g *dag.OperationDag, opts ...Option) *Handler {
	h := &Handler{
		graph:    g,
		runner:   Execute,
		listener: Listeners(nil),
		log:      logger.WithComponent("scheduler"),
	}
	h.pool = NewPool(runtime.NumCPU(), h.finish)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start validates the graph and dispatches its input nodes. It returns
// the run id, or a pre-run error with nothing dispatched:
// FLOW_RUNNING, NO_INPUT_NODES or OPTIONS_NOT_SET.
func (h *Handler) Start(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateIdle {
		return "", errors.FlowRunning()
	}
	h.setStateLocked(StateValidating)

	plan := h.graph.Snapshot()
	reachable, err := validate(plan)
	if err != nil {
		h.setStateLocked(StateIdle)
		h.log.Warn("run rejected", logger.MergeWithError(nil, err))
		return "", err
	}

	id := uuid.NewString()
	ctx = logger.ContextWithRunID(context.WithoutCancel(ctx), id)
	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, id)

	h.run = &run{
		id:        id,
		ctx:       ctx,
		span:      span,
		plan:      plan,
		reachable: make(map[int]struct{}, len(reachable)),
		startedAt: time.Now(),
		failed:    make(map[int]Fault),
	}
	for _, n := range reachable {
		h.run.reachable[n] = struct{}{}
		node := plan.Nodes[n]
		node.ClearInputs()
		h.setStatusLocked(node, dag.StatusNone)
	}
	h.done = make(chan struct{})
	h.setStateLocked(StateRunning)

	h.log.WithContext(ctx).Info("run started", logger.Fields("nodes", len(reachable), "inputs", len(plan.Inputs)))
	for _, n := range plan.Inputs {
		h.dispatchLocked(n)
	}
	return id, nil
}

// Validate runs the pre-run checks of Start without starting a run. It
// returns the nodes a run would execute.
func Validate(g *dag.OperationDag) ([]int, error) {
	return validate(g.Snapshot())
}

// validate returns the nodes reachable from the input nodes, failing when
// there are no input nodes or a reachable node has no options.
func validate(plan *dag.Snapshot) ([]int, error) {
	if len(plan.Inputs) == 0 {
		return nil, errors.NoInputNodes()
	}
	reachable := plan.Reachable(plan.Inputs)
	for _, id := range reachable {
		op := plan.Nodes[id].Operation()
		if !op.HasOptions() {
			return nil, errors.OptionsNotSet(id, op.Name())
		}
	}
	return reachable, nil
}

// dispatchLocked hands the buffered inputs of a node to a worker.
func (h *Handler) dispatchLocked(id int) {
	r := h.run
	node := r.plan.Nodes[id]
	task := &Task{
		RunID:  r.id,
		NodeID: id,
		Op:     node.Operation(),
		Inputs: node.TakeInputs(r.plan.InputOrder[id]),
	}
	h.setStatusLocked(node, dag.StatusProgress)

	ctx := r.ctx
	w := &Worker{
		task:     task,
		runner:   h.runner,
		onResult: h.complete,
		onFault:  h.fail,
		onDone: func(id int) {
			h.log.WithContext(ctx).Debug("worker finished", logger.NodeFields(id, task.Op.Name()))
		},
	}
	h.pool.Submit(id, func() { w.Run(ctx) })
}

// complete records a result and dispatches the successors that have now
// received all of their inputs.
func (h *Handler) complete(id int, out *frame.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.run
	h.setStatusLocked(r.plan.Nodes[id], dag.StatusSuccess)
	r.succeeded = append(r.succeeded, id)

	for _, s := range r.plan.Successors[id] {
		if _, ok := r.reachable[s]; !ok {
			continue
		}
		received := r.plan.Nodes[s].Receive(id, out)
		if received == len(r.plan.InputOrder[s]) {
			h.dispatchLocked(s)
		}
	}
}

// fail marks a node failed and drops queued work. Running nodes finish
// and their results are still fed forward.
func (h *Handler) fail(id int, fault Fault) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.run
	h.setStatusLocked(r.plan.Nodes[id], dag.StatusError)
	r.failed[id] = fault
	h.listener.NodeFailed(id, fault)

	fields := logger.NodeFields(id, fault.Operation)
	fields["kind"] = fault.Kind
	fields[logger.FieldError] = fault.Message
	h.log.WithContext(r.ctx).Error("node failed", fields)
	observability.SetSpanAttribute(r.ctx, observability.AttrErrorMessage, fault.Message)

	for _, dropped := range h.pool.Clear() {
		node := r.plan.Nodes[dropped]
		node.ClearInputs()
		h.setStatusLocked(node, dag.StatusNone)
	}
}

// finish closes the run once the pool has drained.
func (h *Handler) finish() {
	h.mu.Lock()
	r := h.run
	if h.state != StateRunning || r == nil {
		h.mu.Unlock()
		return
	}

	outcome := StateCompleted
	if len(r.failed) > 0 {
		outcome = StateAborted
	}
	h.setStateLocked(outcome)

	summary := RunSummary{
		RunID:     r.id,
		State:     outcome,
		StartedAt: r.startedAt,
		Duration:  time.Since(r.startedAt),
		Succeeded: slices.Sorted(slices.Values(r.succeeded)),
		Failed:    r.failed,
		Statuses:  make(map[int]dag.Status, len(r.plan.Nodes)),
	}
	for id, n := range r.plan.Nodes {
		summary.Statuses[id] = n.Status()
	}
	h.last = &summary

	observability.SetSpanAttribute(r.ctx, observability.AttrStatus, outcome.String())
	if outcome == StateAborted {
		observability.SetSpanError(r.ctx, summary.Err())
	}
	r.span.End()
	h.log.WithContext(r.ctx).Info("run finished", logger.MergeWithDuration(logger.Fields(
		logger.FieldState, outcome.String(),
		"succeeded", len(r.succeeded),
		"failed", len(r.failed),
	), summary.Duration))

	h.run = nil
	h.setStateLocked(StateIdle)
	done := h.done
	h.mu.Unlock()

	h.listener.RunCompleted(summary)
	close(done)
}

// Wait blocks until the current run finishes and returns its summary. With
// no run in progress it returns the last summary, which is nil before the
// first run.
func (h *Handler) Wait(ctx context.Context) (*RunSummary, error) {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return h.LastSummary(), nil
}

// Run starts a run and waits for it.
func (h *Handler) Run(ctx context.Context) (*RunSummary, error) {
	if _, err := h.Start(ctx); err != nil {
		return nil, err
	}
	return h.Wait(ctx)
}

// ResetFlowStatus sets every node back to NONE. It does nothing while a
// run is active.
func (h *Handler) ResetFlowStatus() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateIdle {
		return
	}
	for _, id := range h.graph.Nodes() {
		if n, ok := h.graph.Node(id); ok {
			n.ClearInputs()
			h.setStatusLocked(n, dag.StatusNone)
		}
	}
}

// State returns the current run state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Running reports whether a run is being validated or executed.
func (h *Handler) Running() bool {
	return h.State() != StateIdle
}

// RunID returns the id of the active run, or "".
func (h *Handler) RunID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.run == nil {
		return ""
	}
	return h.run.id
}

// LastSummary returns the summary of the last finished run.
func (h *Handler) LastSummary() *RunSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Statuses returns the status of every node in the graph.
func (h *Handler) Statuses() map[int]dag.Status {
	out := make(map[int]dag.Status)
	for _, id := range h.graph.Nodes() {
		if n, ok := h.graph.Node(id); ok {
			out[id] = n.Status()
		}
	}
	return out
}

// CheckHealth reports the handler as a health component. A busy pool is
// healthy.
func (h *Handler) CheckHealth(context.Context) observability.Health {
	return observability.Health{
		Name:   "scheduler",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"state":   h.State().String(),
			"workers": strconv.Itoa(h.pool.Size()),
			"running": strconv.Itoa(h.pool.Running()),
		},
	}
}

func (h *Handler) setStatusLocked(n *dag.OperationNode, s dag.Status) {
	if n.Status() == s {
		return
	}
	n.SetStatus(s)
	h.listener.StatusChanged(n.ID(), s)
}

func (h *Handler) setStateLocked(s State) {
	h.log.Debug("state changed", logger.Fields(logger.FieldState, s.String()))
	h.state = s
}
