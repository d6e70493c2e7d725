package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries every rule violation found in an input payload.
// Errors holds plain rule messages in evaluation order; Fields holds
// business failures scoped to a single field (duplicate symbol, unresolved
// reference). Both render into the same flat errors list on the wire.
type ValidationError struct {
	Errors []string
	Fields map[string]string
}

func NewValidation(errs ...string) *ValidationError {
	return &ValidationError{Errors: errs}
}

// NewFieldError builds a ValidationError with a single field-scoped message.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages flattens rule and field errors into one list. Field errors are
// sorted by field name so the output is stable.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Errors)+len(e.Fields))
	out = append(out, e.Errors...)
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		out = append(out, f+": "+e.Fields[f])
	}
	return out
}

// NotFoundError identifies a missing resource by type and identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports an operation blocked by dependent records.
type ConflictError struct {
	Message string
}

func NewConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string {
	return e.Message
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// AsValidation returns the ValidationError wrapped in err, or nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
