package ops

import (
	"github.com/kbukum/tabflow/operation"
	"github.com/kbukum/tabflow/workbench"
)

// Operation names as they appear in pipeline documents.
const (
	InputName         = "input"
	ToVariableName    = "to_variable"
	ScaleName         = "scale"
	DropColumnsName   = "drop_columns"
	RenameColumnsName = "rename_columns"
	OneHotName        = "one_hot"
	MergeColumnsName  = "merge_columns"
)

// Register installs every built-in operation. Input and output operations
// share wb.
func Register(reg *operation.Registry, wb *workbench.Workbench) {
	reg.Register(InputName, func() operation.Operation { return NewInput(wb) })
	reg.Register(ToVariableName, func() operation.Operation { return NewToVariable(wb) })
	reg.Register(ScaleName, func() operation.Operation { return NewScale() })
	reg.Register(DropColumnsName, func() operation.Operation { return NewDropColumns() })
	reg.Register(RenameColumnsName, func() operation.Operation { return NewRenameColumns() })
	reg.Register(OneHotName, func() operation.Operation { return NewOneHot() })
	reg.Register(MergeColumnsName, func() operation.Operation { return NewMergeColumns() })
}

// NewRegistry returns a registry with the built-in operations.
func NewRegistry(wb *workbench.Workbench) *operation.Registry {
	reg := operation.NewRegistry()
	Register(reg, wb)
	return reg
}
