package command

import (
	"fmt"
	"reflect"
)

// ErrorKind classifies failures surfaced by the sync command
type ErrorKind string

const (
	// KindUsage indicates a malformed invocation, raised before any collaborator is contacted.
	KindUsage ErrorKind = "USAGE_ERROR"

	// KindSelection indicates interactive selection had nothing to offer.
	KindSelection ErrorKind = "SELECTION_ERROR"

	// KindNotFound indicates an explicit integration id did not resolve.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindCollaborator indicates a directory, selector, synchronizer or notifier failure.
	KindCollaborator ErrorKind = "COLLABORATOR_ERROR"

	// KindUnknown indicates a failure value that was not an error.
	KindUnknown ErrorKind = "UNKNOWN"
)

// objectDisplay is how composite non-error failure values are shown to the user
const objectDisplay = "[object Object]"

// Error is the single error type crossing the command boundary.
// Error() is the user-facing message, nothing else.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewUsageError builds a usage error for a malformed invocation
func NewUsageError(message string) *Error {
	return &Error{Kind: KindUsage, Message: message}
}

type messager interface {
	Message() string
}

// Normalize converts any failure value into an *Error.
// Errors keep their message verbatim; other values that carry a message
// surface it; everything else renders as "Unknown error: <value>".
func Normalize(v any) error {
	return normalize(v, KindCollaborator)
}

func normalize(v any, kind ErrorKind) error {
	switch value := v.(type) {
	case nil:
		return nil
	case *Error:
		return value
	case error:
		return &Error{Kind: kind, Message: value.Error(), Err: value}
	case messager:
		return &Error{Kind: kind, Message: value.Message()}
	default:
		return &Error{Kind: KindUnknown, Message: "Unknown error: " + display(value)}
	}
}

// display renders a non-error value for the unknown error message
func display(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return objectDisplay
	}
	return fmt.Sprint(rv.Interface())
}
