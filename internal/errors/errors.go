// Package errors provides basic utilities to construct errors.
//
// Use this package rather than the standard library (errors.New, fmt.Errorf)
// anywhere in the core: it records a stack trace and a chain of wrapped
// causes at construction time, and the diagnostic layer (internal/diagnostic)
// relies on that trace to build the frame chain attached to a failed or
// errored TestItem.
//
// To construct a new error, use New or Errorf.
//
//	errors.New("fixture not found")
//	errors.Errorf("fixture %q not found", name)
//
// To add context to an existing error, use Wrap or Wrapf.
//
//	errors.Wrap(err, "failed to load test file")
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gotest/internal/errors/stack"
)

// E is the error implementation used by this package.
type E struct {
	msg   string      // error message to be prepended to cause
	stk   stack.Stack // stack trace where this error was created
	cause error       // original error that caused this error if non-nil
}

// Error implements the error interface.
func (e *E) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

// Unwrap implements the error Unwrap interface.
func (e *E) Unwrap() error {
	return e.cause
}

// Stack returns the stack trace captured where this error was created.
func (e *E) Stack() stack.Stack {
	return e.stk
}

// unwrapper is a private interface of *E providing access to its fields.
// We access *E via this interface to allow embedding *E in user-defined
// custom error types.
type unwrapper interface {
	unwrap() (msg string, stk stack.Stack, cause error)
}

func (e *E) unwrap() (msg string, stk stack.Stack, cause error) {
	return e.msg, e.stk, e.cause
}

func formatChain(err error) string {
	var chain []string
	for err != nil {
		if e, ok := err.(unwrapper); ok {
			msg, stk, cause := e.unwrap()
			chain = append(chain, fmt.Sprintf("%s\n%v", msg, stk))
			err = cause
		} else {
			chain = append(chain, fmt.Sprintf("%s\n\tat ???", err.Error()))
			err = nil
		}
	}
	return strings.Join(chain, "\n")
}

// Format implements the fmt.Formatter interface. The "%+v" verb prints the
// full error chain with stack traces; all other verbs print just Error().
func (e *E) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		io.WriteString(s, formatChain(e))
	} else {
		io.WriteString(s, e.Error())
	}
}

// New creates a new error with the given message, recording the location
// where it was called.
func New(msg string) *E {
	return &E{msg, stack.New(1), nil}
}

// Errorf creates a new error with the given message, recording the location
// where it was called.
func Errorf(format string, args ...interface{}) *E {
	return &E{fmt.Sprintf(format, args...), stack.New(1), nil}
}

// Wrap creates a new error wrapping cause, recording the location where it
// was called. If cause is nil, this is the same as New.
func Wrap(cause error, msg string) *E {
	return &E{msg, stack.New(1), cause}
}

// Wrapf creates a new error wrapping cause, recording the location where it
// was called. If cause is nil, this is the same as Errorf.
func Wrapf(cause error, format string, args ...interface{}) *E {
	return &E{fmt.Sprintf(format, args...), stack.New(1), cause}
}

// Unwrap wraps the standard library errors.Unwrap.
func Unwrap(err error) error { return errors.Unwrap(err) }

// As wraps the standard library errors.As.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is wraps the standard library errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
