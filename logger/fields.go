package logger

import "time"

// Field keys shared by every package that logs.
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldRole        = "role"
	FieldParticipant = "participant"
	FieldOperation   = "operation"
	FieldStatus      = "status"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields turns alternating keys and values into a field map. Pairs whose
// key is not a string are skipped, as is a trailing key without a value.
//
//	log.Info("run finished", logger.Fields("produced", 10, "consumed", 10))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation.
func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}

// DurationFields describes a finished operation that took d, plus any
// extra key-value pairs.
func DurationFields(op string, d time.Duration, kvs ...interface{}) map[string]interface{} {
	m := Fields(kvs...)
	m[FieldOperation] = op
	m[FieldDuration] = d.Milliseconds()
	return m
}

// MergeWithError sets the error field on fields, allocating the map when
// it is nil.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields[FieldError] = err.Error()
	return fields
}
