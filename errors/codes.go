package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Structural graph errors
const (
	// ErrCodeNodeNotFound indicates a node id is not part of the graph.
	ErrCodeNodeNotFound ErrorCode = "NODE_NOT_FOUND"
	// ErrCodeEdgeNotFound indicates an edge is not part of the graph.
	ErrCodeEdgeNotFound ErrorCode = "EDGE_NOT_FOUND"
	// ErrCodeCycle indicates a connection would make the graph cyclic.
	ErrCodeCycle ErrorCode = "GRAPH_CYCLE"
	// ErrCodeDuplicateEdge indicates the two nodes are already connected.
	ErrCodeDuplicateEdge ErrorCode = "DUPLICATE_EDGE"
	// ErrCodeInvalidSlot indicates an input slot is out of range or occupied.
	ErrCodeInvalidSlot ErrorCode = "INVALID_SLOT"
	// ErrCodeArity indicates a connection would exceed an in/out degree bound.
	ErrCodeArity ErrorCode = "ARITY_VIOLATION"
	// ErrCodeIncompatibleTypes indicates the target cannot read any source column.
	ErrCodeIncompatibleTypes ErrorCode = "INCOMPATIBLE_TYPES"
	// ErrCodeShapeUnknown indicates the target needs a shape the source cannot infer.
	ErrCodeShapeUnknown ErrorCode = "SHAPE_UNKNOWN"
	// ErrCodeInvalidDocument indicates a serialized pipeline cannot be rebuilt.
	ErrCodeInvalidDocument ErrorCode = "INVALID_DOCUMENT"
	// ErrCodeUnknownOperation indicates an operation name has no registered factory.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"
)

// Option validation errors
const (
	// ErrCodeInvalidOptions indicates operation options failed validation.
	ErrCodeInvalidOptions ErrorCode = "INVALID_OPTIONS"
	// ErrCodeInvalidInput indicates a malformed request or configuration value.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Pre-run validation errors
const (
	// ErrCodeNoInputNodes indicates the flow has no input operation to start from.
	ErrCodeNoInputNodes ErrorCode = "NO_INPUT_NODES"
	// ErrCodeOptionsNotSet indicates a reachable node is not configured.
	ErrCodeOptionsNotSet ErrorCode = "OPTIONS_NOT_SET"
	// ErrCodeFlowRunning indicates a run is already in progress.
	ErrCodeFlowRunning ErrorCode = "FLOW_RUNNING"
)

// Runtime and internal errors
const (
	// ErrCodeExecutionFault indicates an operation failed while executing.
	ErrCodeExecutionFault ErrorCode = "EXECUTION_FAULT"
	// ErrCodeNotFound indicates a named resource (e.g. a workbench frame) is missing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var structuralCodes = map[ErrorCode]bool{
	ErrCodeNodeNotFound:      true,
	ErrCodeEdgeNotFound:      true,
	ErrCodeCycle:             true,
	ErrCodeDuplicateEdge:     true,
	ErrCodeInvalidSlot:       true,
	ErrCodeArity:             true,
	ErrCodeIncompatibleTypes: true,
	ErrCodeShapeUnknown:      true,
	ErrCodeInvalidDocument:   true,
	ErrCodeUnknownOperation:  true,
}

// IsStructuralCode returns true if the code denotes a structural graph error.
func IsStructuralCode(code ErrorCode) bool {
	return structuralCodes[code]
}
