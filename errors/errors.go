package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// --- Structural graph errors ---

// NodeNotFound creates an error for a node id missing from the graph.
func NodeNotFound(id int) *AppError {
	return &AppError{
		Code: ErrCodeNodeNotFound, Message: fmt.Sprintf("Node %d does not belong to the graph.", id),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"node": id},
	}
}

// EdgeNotFound creates an error for a missing edge.
func EdgeNotFound(source, target int) *AppError {
	return &AppError{
		Code: ErrCodeEdgeNotFound, Message: fmt.Sprintf("Edge %d->%d does not exist.", source, target),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"source": source, "target": target},
	}
}

// Cycle creates an error for a connection that would close a cycle.
func Cycle(source, target int) *AppError {
	return &AppError{
		Code: ErrCodeCycle, Message: fmt.Sprintf("Edge %d->%d not created because the resulting graph is not acyclic.", source, target),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"source": source, "target": target},
	}
}

// DuplicateEdge creates an error for a pair of nodes that is already connected.
func DuplicateEdge(source, target int) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateEdge, Message: fmt.Sprintf("Edge %d->%d already exists.", source, target),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"source": source, "target": target},
	}
}

// InvalidSlot creates an error for an input slot that cannot take a new edge.
func InvalidSlot(target, slot int, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidSlot, Message: fmt.Sprintf("Slot %d of node %d cannot be used: %s.", slot, target, reason),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"target": target, "slot": slot},
	}
}

// Arity creates an error for a connection exceeding a degree bound.
func Arity(source, target int, reason string) *AppError {
	return &AppError{
		Code: ErrCodeArity, Message: fmt.Sprintf("Edge %d->%d not created because %s.", source, target, reason),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"source": source, "target": target},
	}
}

// IncompatibleTypes creates an error for a target that reads none of the source column types.
func IncompatibleTypes(source, target int) *AppError {
	return &AppError{
		Code: ErrCodeIncompatibleTypes, Message: fmt.Sprintf("Edge %d->%d not created because the target accepts none of the source column types.", source, target),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"source": source, "target": target},
	}
}

// ShapeUnknown creates an error for a target that needs a shape the source cannot infer.
func ShapeUnknown(source, target int) *AppError {
	return &AppError{
		Code: ErrCodeShapeUnknown, Message: fmt.Sprintf("Edge %d->%d not created because the source yields an undefined output shape and the target needs it.", source, target),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"source": source, "target": target},
	}
}

// InvalidDocument creates an error for a serialized pipeline that cannot be rebuilt.
func InvalidDocument(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidDocument, Message: fmt.Sprintf("Invalid pipeline document: %s", reason),
		HTTPStatus: http.StatusBadRequest,
	}
}

// UnknownOperation creates an error for an operation name with no registered factory.
func UnknownOperation(name string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownOperation, Message: fmt.Sprintf("Operation %q is not registered.", name),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"operation": name},
	}
}

// --- Validation errors ---

// InvalidOptions creates an error for operation options that failed validation.
// Field-level diagnostics go into Details["fields"].
func InvalidOptions(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidOptions, Message: message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for request or configuration validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// --- Pre-run errors ---

// NoInputNodes creates the error raised when a flow has nothing to start from.
func NoInputNodes() *AppError {
	return &AppError{
		Code: ErrCodeNoInputNodes, Message: "Flow not started: there are no input nodes.",
		HTTPStatus: http.StatusConflict,
	}
}

// OptionsNotSet creates the error raised when a reachable node is not configured.
func OptionsNotSet(id int, operation string) *AppError {
	return &AppError{
		Code: ErrCodeOptionsNotSet, Message: fmt.Sprintf("Flow not started: operation %q (node %d) has options to set.", operation, id),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"node": id, "operation": operation},
	}
}

// FlowRunning creates the error raised when a run is requested during another run.
func FlowRunning() *AppError {
	return &AppError{
		Code: ErrCodeFlowRunning, Message: "Flow already running.",
		HTTPStatus: http.StatusConflict,
	}
}

// --- Runtime and internal errors ---

// ExecutionFault creates an error describing a node that failed during a run.
func ExecutionFault(id int, operation, message string) *AppError {
	return &AppError{
		Code: ErrCodeExecutionFault, Message: fmt.Sprintf("Operation %q (node %d) failed: %s", operation, id, message),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"node": id, "operation": operation},
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// Wrap converts any error into an AppError. AppErrors (also wrapped ones)
// pass through; anything else becomes an internal error with err as cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
