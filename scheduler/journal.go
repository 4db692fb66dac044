package scheduler

import (
	"context"
	"slices"

	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/logger"
)

// Journal wraps a Runner with a log entry per successful execution: the
// operation, its options and a summary of the result. For single input
// operations it also lists the columns added and removed.
func Journal(next Runner, log *logger.Logger) Runner {
	return &journalRunner{next: next, log: log}
}

type journalRunner struct {
	next Runner
	log  *logger.Logger
}

func (r *journalRunner) Run(ctx context.Context, task *Task) (*frame.Frame, error) {
	out, err := r.next.Run(ctx, task)
	if err != nil || out == nil {
		return out, err
	}
	r.log.Info("operation executed", r.entry(task, out))
	return out, err
}

func (r *journalRunner) entry(task *Task, out *frame.Frame) map[string]any {
	fields := logger.NodeFields(task.NodeID, task.Op.Name())
	fields[logger.FieldRunID] = task.RunID
	fields[logger.FieldRows] = out.Rows()
	fields[logger.FieldColumns] = out.NumColumns()
	if opts := task.Op.Options(); len(opts) > 0 {
		fields["options"] = opts
	}
	if len(task.Inputs) == 1 {
		added, removed := columnDiff(task.Inputs[0].Shape(), out.Shape())
		if len(added) > 0 {
			fields["added"] = added
		}
		if len(removed) > 0 {
			fields["removed"] = removed
		}
	}
	return fields
}

// columnDiff returns the column names only in after and only in before.
func columnDiff(before, after *frame.Shape) (added, removed []string) {
	for _, name := range after.ColumnNames() {
		if !before.HasColumn(name) {
			added = append(added, name)
		}
	}
	for _, name := range before.ColumnNames() {
		if !after.HasColumn(name) {
			removed = append(removed, name)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}
