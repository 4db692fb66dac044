package scheduler

import (
	"context"
	"fmt"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
)

// Worker executes one node outside the handler lock. Exactly one of
// onResult and onFault is called, then onDone.
type Worker struct {
	task     *Task
	runner   Runner
	onResult func(id int, out *frame.Frame)
	onFault  func(id int, fault Fault)
	onDone   func(id int)
}

// Run executes the task and reports the outcome.
func (w *Worker) Run(ctx context.Context) {
	id := w.task.NodeID
	defer func() {
		if w.onDone != nil {
			w.onDone(id)
		}
	}()

	out, fault, ok := w.execute(ctx)
	if !ok {
		fault.Operation = w.task.Op.Name()
		w.onFault(id, fault)
		return
	}
	w.onResult(id, out)
}

func (w *Worker) execute(ctx context.Context) (out *frame.Frame, fault Fault, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, fault, ok = nil, panicFault(r), false
		}
	}()

	op := w.task.Op
	if n := len(w.task.Inputs); n < op.MinInputs() {
		msg := fmt.Sprintf("expects at least %d inputs, got %d", op.MinInputs(), n)
		return nil, errorFault(errors.ExecutionFault(w.task.NodeID, op.Name(), msg)), false
	}
	out, err := w.runner.Run(ctx, w.task)
	if err != nil {
		return nil, errorFault(err), false
	}
	if out == nil {
		return nil, Fault{Kind: "EMPTY_RESULT", Message: "operation returned no frame"}, false
	}
	return out, Fault{}, true
}
