// Package utils provides error plumbing shared by the diagnostic engine.
package utils

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy of the engine. Callers match them with errors.Is.
var (
	// ErrConfiguration reports malformed construction arguments.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrConflictingAxisDirective reports subset and average on the same axis.
	ErrConflictingAxisDirective = errors.New("conflicting axis directives")
	// ErrEmptySelection reports a range directive that matches no bin.
	ErrEmptySelection = errors.New("empty selection")
	// ErrEmptyTargetGrid reports a build3d range that produces no point.
	ErrEmptyTargetGrid = errors.New("empty target grid")
	// ErrUnknownQuantity reports an operation referencing an unavailable name.
	ErrUnknownQuantity = errors.New("unknown quantity")
	// ErrUnparsableOperation reports an operation that cannot be evaluated.
	ErrUnparsableOperation = errors.New("unparsable operation")
	// ErrMissingTimestep reports a query for a timestep that is not available.
	ErrMissingTimestep = errors.New("timestep not found")
	// ErrSourceOpen reports a backing file that is missing or corrupt.
	ErrSourceOpen = errors.New("cannot open source")
	// ErrInvalidDiagnostic is returned by every query on a diagnostic whose
	// construction failed.
	ErrInvalidDiagnostic = errors.New("diagnostic not loaded")
)

// DiagError represents an error with the operation context it happened in.
type DiagError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *DiagError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *DiagError) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &DiagError{
		Context: context,
		Cause:   cause,
	}
}

// Errorf builds an error of the given kind with a formatted message.
// The result matches kind with errors.Is.
func Errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// ErrorList accumulates construction problems as human-readable messages.
// The zero value is ready to use.
type ErrorList struct {
	errs []error
}

// Add records err. Nil errors are ignored.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

// Len returns the number of recorded errors.
func (l *ErrorList) Len() int {
	return len(l.errs)
}

// Messages returns one message per recorded error.
func (l *ErrorList) Messages() []string {
	msgs := make([]string, len(l.errs))
	for i, err := range l.errs {
		msgs[i] = err.Error()
	}
	return msgs
}

// Err joins the recorded errors, or returns nil when none were recorded.
func (l *ErrorList) Err() error {
	switch len(l.errs) {
	case 0:
		return nil
	case 1:
		return l.errs[0]
	default:
		return &joinedError{errs: l.errs}
	}
}

type joinedError struct {
	errs []error
}

func (e *joinedError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *joinedError) Unwrap() []error {
	return e.errs
}
