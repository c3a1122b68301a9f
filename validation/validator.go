package validation

import (
	"fmt"
	"strings"

	"github.com/erisonliang/dotdotnet/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks so a caller can report every problem
// with a set of arguments at once.
//
//	err := validation.New().
//		Check(len(producers) > 0, "producers", "at least one producer is required").
//		Positive("capacity", capacity).
//		Validate()
type Validator struct {
	fields []FieldError
}

func New() *Validator {
	return &Validator{}
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Message: message})
	}
	return v
}

// Positive checks that value is at least 1.
func (v *Validator) Positive(field string, value int) *Validator {
	return v.Check(value >= 1, field, fmt.Sprintf("must be at least 1 (got %d)", value))
}

// Merge folds err into the collected failures. Field errors carried by an
// error from this package are copied one by one; any other error is
// recorded under field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	if fields := Fields(err); fields != nil {
		v.fields = append(v.fields, fields...)
		return v
	}
	return v.Check(false, field, err.Error())
}

// Validate returns nil when every check passed and an INVALID_INPUT
// AppError listing the failures otherwise.
func (v *Validator) Validate() error {
	if len(v.fields) == 0 {
		return nil
	}
	parts := make([]string, 0, len(v.fields))
	for _, f := range v.fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.fields)
}

// Fields returns the field errors carried by err, or nil.
func Fields(err error) []FieldError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	return fields
}
