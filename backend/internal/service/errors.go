package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the match service. Callers test for them with
// errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
)

// Error carries the kind of failure plus the field and rule that caused it.
type Error struct {
	Kind    error
	Field   string
	Rule    string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, field, rule, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}
