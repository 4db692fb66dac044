package logger

import "time"

// Field keys shared by the graph, the scheduler and the API.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldNode      = "node"
	FieldSource    = "source"
	FieldTarget    = "target"
	FieldSlot      = "slot"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldState     = "state"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldRows      = "rows"
	FieldColumns   = "columns"
)

// Fields builds a field map from alternating key-value pairs.
//
//	log.Info("node dispatched", logger.Fields(logger.FieldNode, 3, logger.FieldOperation, "scale"))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// NodeFields identifies a node and its operation.
func NodeFields(id int, operation string) map[string]any {
	return map[string]any{
		FieldNode:      id,
		FieldOperation: operation,
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]any, d time.Duration) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
