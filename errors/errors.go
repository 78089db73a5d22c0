// Package errors defines the fault and warning types produced while
// compiling tern source, together with a formatter for displaying them.
package errors

import (
	"errors"
	"fmt"
)

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Source   string // The line of source code
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// Kind classifies a compile fault.
type Kind int

const (
	// Syntax faults come from the tokenizer and parser.
	Syntax Kind = iota + 1
	// Resolution faults come from name, scope and arity checking.
	Resolution
	// InternalLimit faults report an exhausted encoding or stack limit.
	InternalLimit
	// Runtime faults are never raised by the compiler; the kind exists so
	// that runtime reports share the same surface.
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Resolution:
		return "resolution error"
	case InternalLimit:
		return "limit exceeded"
	case Runtime:
		return "runtime error"
	default:
		return "error"
	}
}

// FriendlyError is an interface for errors that have a human friendly message
// in addition to a the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FormattableError is an interface for errors that can be formatted with
// the enhanced error formatter (with colors, source context, etc).
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// FatalError ends an interactive session. It wraps failures that are not
// about the input unit itself, such as a broken input stream or a
// cancelled context.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError wraps err as a FatalError.
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

// IsRecoverable reports whether an interactive session may continue after
// err. Compile faults abort only the current input unit; FatalErrors and
// errors of unknown origin end the session.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return false
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return true
	}
	var ces *CompileErrors
	return errors.As(err, &ces)
}

// Warning is a non-fatal diagnostic. Warnings are counted and reported
// but never returned as errors.
type Warning struct {
	Code     ErrorCode
	Message  string
	Filename string
	Line     int
	Column   int
}

func (w *Warning) String() string {
	loc := SourceLocation{Filename: w.Filename, Line: w.Line, Column: w.Column}
	return fmt.Sprintf("%s: warning[%s]: %s", loc, w.Code, w.Message)
}

// ToFormatted converts the warning to a FormattedError for display.
func (w *Warning) ToFormatted() *FormattedError {
	return &FormattedError{
		Code:     w.Code,
		Kind:     "warning",
		Message:  w.Message,
		Filename: w.Filename,
		Line:     w.Line,
		Column:   w.Column,
	}
}
