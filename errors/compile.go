package errors

import (
	"fmt"
)

// CompileError is a single fault raised while compiling a unit. The source
// line is captured at construction so the error renders without the unit.
type CompileError struct {
	Kind        Kind
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// Newf returns a CompileError whose kind is derived from the code.
func Newf(code ErrorCode, loc SourceLocation, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:       code.Kind(),
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Filename:   loc.Filename,
		Line:       loc.Line,
		Column:     loc.Column,
		SourceLine: loc.Source,
	}
}

func (e *CompileError) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Filename == "" && e.Line == 0 {
		return msg
	}
	return msg + " at " + e.Location().String()
}

// Location returns the source location of the fault.
func (e *CompileError) Location() SourceLocation {
	return SourceLocation{Filename: e.Filename, Line: e.Line, Column: e.Column, Source: e.SourceLine}
}

// FriendlyErrorMessage renders the error with its source excerpt.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted implements FormattableError.
func (e *CompileError) ToFormatted() *FormattedError {
	out := &FormattedError{
		Code:      e.Code,
		Kind:      e.Kind.String(),
		Message:   e.Message,
		Filename:  e.Filename,
		Line:      e.Line,
		Column:    e.Column,
		EndColumn: e.EndColumn,
		Note:      e.Note,
		Hint:      FormatSuggestions(e.Suggestions),
	}
	if text := e.SourceLine; text != "" {
		out.SourceLines = append(out.SourceLines, SourceLineEntry{Number: e.Line, Text: text, IsMain: true})
	}
	return out
}

// CompileErrors collects the faults of one unit in the order they were found.
type CompileErrors struct {
	Errors []*CompileError
}

func (e *CompileErrors) Error() string {
	switch n := len(e.Errors); n {
	case 0:
		return ""
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%v (and %d more errors)", e.Errors[0], n-1)
	}
}

// FriendlyErrorMessage renders every error followed by a count.
func (e *CompileErrors) FriendlyErrorMessage() string {
	formatted := make([]*FormattedError, 0, len(e.Errors))
	for _, ce := range e.Errors {
		formatted = append(formatted, ce.ToFormatted())
	}
	return NewFormatter(false).FormatMultiple(formatted)
}

func (e *CompileErrors) Add(err *CompileError) { e.Errors = append(e.Errors, err) }

func (e *CompileErrors) Count() int { return len(e.Errors) }

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *CompileErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// ToError returns nil for an empty collection and the error itself when
// there is exactly one.
func (e *CompileErrors) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	default:
		return e
	}
}
