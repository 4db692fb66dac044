package ops

import (
	"fmt"
	"slices"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/validation"
)

func errNoOptions(name string) error {
	return errors.InvalidOptions(fmt.Sprintf("%s: options are not set", name))
}

// checkColumns verifies that every name is a column of shape with one of
// the allowed types. A nil shape skips the check; execution repeats it.
func checkColumns(shape *frame.Shape, field string, names []string, allowed ...frame.Type) error {
	if shape == nil {
		return nil
	}
	v := validation.New().Subset(field, names, func(name string) bool {
		t, ok := shape.ColumnType(name)
		return ok && (len(allowed) == 0 || slices.Contains(allowed, t))
	})
	if appErr := v.Options(); appErr != nil {
		return appErr
	}
	return nil
}

// keepColumns returns the names that are still columns of shape with an
// allowed type.
func keepColumns(shape *frame.Shape, names []string, allowed ...frame.Type) []string {
	if shape == nil {
		return nil
	}
	var kept []string
	for _, name := range names {
		if t, ok := shape.ColumnType(name); ok && (len(allowed) == 0 || slices.Contains(allowed, t)) {
			kept = append(kept, name)
		}
	}
	return kept
}

// requireColumns is the execution time counterpart of checkColumns.
func requireColumns(f *frame.Frame, names []string, allowed ...frame.Type) error {
	return checkColumns(f.Shape(), "columns", names, allowed...)
}
