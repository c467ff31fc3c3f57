package results

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common client error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidOperation indicates a filter operation outside the fixed
	// set the API accepts.
	ErrInvalidOperation = errors.New("invalid filter operation")

	// ErrInvalidField indicates a filter, select, or sort field that is not
	// part of the tool's schema. The error message enumerates the valid
	// fields for the tool.
	ErrInvalidField = errors.New("invalid field")

	// ErrMissingFilter indicates execution was attempted with no filter
	// conditions. The API requires at least one.
	ErrMissingFilter = errors.New("at least one filter is required")

	// ErrMissingSelect indicates execution was attempted with no selected
	// result fields.
	ErrMissingSelect = errors.New("at least one selected field is required")

	// ErrInvalidArgument indicates a malformed argument such as a
	// non-positive page size or a negative offset.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSchemaUnavailable indicates the tool schema could not be fetched,
	// either because the tool is unknown or the transport call failed.
	ErrSchemaUnavailable = errors.New("tool schema unavailable")

	// ErrTransport indicates a request failed at the transport boundary.
	// The underlying transport error is wrapped and propagated unchanged.
	ErrTransport = errors.New("transport request failed")
)

// Error kinds categorize errors by their type.
const (
	// KindValidation represents errors raised by builder-time validation of
	// fields and operations.
	KindValidation = "validation"

	// KindArgument represents errors raised by malformed call arguments.
	KindArgument = "argument"

	// KindSchema represents errors raised while fetching or parsing a tool
	// schema.
	KindSchema = "schema"

	// KindTransport represents errors propagated from the Transport
	// boundary.
	KindTransport = "transport"
)

// Error is a structured error type that wraps underlying errors with the
// operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping, making
// it compatible with errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g., "Query.Filter", "Client.Search").
	Op string

	// Kind categorizes the error (e.g., KindValidation, KindTransport).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional), such
	// as the tool name or the offending field.
	Context map[string]any
}

// Error implements the error interface, returning a formatted message that
// includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("results: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("results: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("results: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on the
// underlying error or on another Error's Op/Kind pair.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the provided context added.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindValidation,
		Err:  err,
	}
}

// NewArgumentError creates a new Error with KindArgument.
func NewArgumentError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindArgument,
		Err:  err,
	}
}

// NewSchemaError creates a new Error with KindSchema.
func NewSchemaError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindSchema,
		Err:  err,
	}
}

// NewTransportError creates a new Error with KindTransport.
func NewTransportError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindTransport,
		Err:  err,
	}
}

// invalidFieldError builds an ErrInvalidField error whose message enumerates
// every valid field for the tool, so the caller can self-correct.
func invalidFieldError(op, field, tool string, valid []string) *Error {
	err := fmt.Errorf("%w %q for tool %q; valid fields: %s",
		ErrInvalidField, field, tool, strings.Join(valid, ", "))
	return NewValidationError(op, err).WithContext(map[string]any{
		"tool":  tool,
		"field": field,
	})
}
