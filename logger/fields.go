package logger

import (
	"time"
)

// Field keys used across gobatch log lines.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldBatchID   = "batch_id"
	FieldNodeID    = "node_id"
	FieldMethod    = "method"
	FieldResource  = "resource"
	FieldStatus    = "status"
	FieldOutcome   = "outcome"
	FieldNodes     = "nodes"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a field map from alternating key-value pairs.
//
//	log.Info("batch submitted", logger.Fields("batch_id", id, "nodes", 3))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		"operation": op,
		FieldError:  err.Error(),
	}
}

// WithDuration adds a duration field to fields, allocating the map if needed.
func WithDuration(fields map[string]interface{}, d time.Duration) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
