package scheduler

import (
	"context"
	"time"

	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/observability"
	"github.com/kbukum/tabflow/operation"
)

// Task is one node execution.
type Task struct {
	RunID  string
	NodeID int
	Op     operation.Operation
	// Inputs are ordered by slot.
	Inputs []*frame.Frame
}

// Runner executes a task.
type Runner interface {
	Run(ctx context.Context, task *Task) (*frame.Frame, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, task *Task) (*frame.Frame, error)

func (f RunnerFunc) Run(ctx context.Context, task *Task) (*frame.Frame, error) {
	return f(ctx, task)
}

// Execute calls the operation. It is the innermost runner of every chain.
var Execute Runner = RunnerFunc(func(ctx context.Context, task *Task) (*frame.Frame, error) {
	return task.Op.Execute(ctx, task.Inputs...)
})

// WithTracing wraps a Runner with one span per node execution.
func WithTracing(next Runner) Runner {
	return &tracingRunner{next: next}
}

type tracingRunner struct {
	next Runner
}

func (r *tracingRunner) Run(ctx context.Context, task *Task) (*frame.Frame, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNodeExecute)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrRunID, task.RunID)
	observability.SetSpanAttribute(ctx, observability.AttrNodeID, task.NodeID)
	observability.SetSpanAttribute(ctx, observability.AttrOperation, task.Op.Name())
	observability.SetSpanAttribute(ctx, observability.AttrInputs, len(task.Inputs))

	out, err := r.next.Run(ctx, task)
	if err != nil {
		observability.SetSpanError(ctx, err)
	} else if out != nil {
		observability.SetSpanAttribute(ctx, observability.AttrRows, out.Rows())
	}
	return out, err
}

// WithMetrics wraps a Runner with metric recording: active nodes,
// executions by outcome, duration and errors.
func WithMetrics(next Runner, metrics *observability.Metrics) Runner {
	return &metricsRunner{next: next, metrics: metrics}
}

type metricsRunner struct {
	next    Runner
	metrics *observability.Metrics
}

func (r *metricsRunner) Run(ctx context.Context, task *Task) (*frame.Frame, error) {
	name := task.Op.Name()
	r.metrics.NodeStarted(ctx, name)
	start := time.Now()
	out, err := r.next.Run(ctx, task)

	status := "ok"
	if err != nil {
		status = "error"
		r.metrics.RecordError(ctx, errorFault(err).Kind, "scheduler")
	}
	r.metrics.NodeFinished(ctx, name, status, time.Since(start))
	return out, err
}

// WithLogging wraps a Runner with execution logging: node, operation,
// duration and outcome.
func WithLogging(next Runner, log *logger.Logger) Runner {
	return &loggingRunner{next: next, log: log}
}

type loggingRunner struct {
	next Runner
	log  *logger.Logger
}

func (r *loggingRunner) Run(ctx context.Context, task *Task) (*frame.Frame, error) {
	start := time.Now()
	out, err := r.next.Run(ctx, task)

	fields := logger.MergeWithDuration(logger.NodeFields(task.NodeID, task.Op.Name()), time.Since(start))
	fields[logger.FieldRunID] = task.RunID
	if err != nil {
		r.log.Error("node failed", logger.MergeWithError(fields, err))
	} else {
		r.log.Debug("node completed", fields)
	}
	return out, err
}
