package scheduler

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/kbukum/tabflow/errors"
)

// Fault describes why a node failed.
type Fault struct {
	// Kind is the error code of an AppError, the Go type of any other
	// error, or "panic".
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Trace     string `json:"trace,omitempty"`
	Operation string `json:"operation"`
}

// KindPanic marks faults raised by a panicking operation.
const KindPanic = "panic"

func errorFault(err error) Fault {
	f := Fault{Kind: fmt.Sprintf("%T", err), Message: err.Error()}
	if appErr, ok := errors.AsAppError(err); ok {
		f.Kind = string(appErr.Code)
	}
	var chain []string
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		chain = append(chain, e.Error())
	}
	if len(chain) > 1 {
		f.Trace = strings.Join(chain, "\n")
	}
	return f
}

func panicFault(r any) Fault {
	return Fault{Kind: KindPanic, Message: fmt.Sprint(r), Trace: string(debug.Stack())}
}

// Err converts the fault of node id into an EXECUTION_FAULT error.
func (f Fault) Err(id int) *errors.AppError {
	return errors.ExecutionFault(id, f.Operation, f.Message).WithDetail("kind", f.Kind)
}
