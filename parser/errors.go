package parser

import (
	"strings"

	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/token"
)

// ErrorOpts is a struct that holds a variety of error data.
// All fields are optional, although one of `Cause` or `Message`
// are recommended. If `Cause` is set, `Message` will be ignored.
type ErrorOpts struct {
	Code          errors.ErrorCode
	Message       string
	Cause         error
	File          string
	StartPosition token.Position
	EndPosition   token.Position
	SourceCode    string
}

// NewSyntaxError returns a syntax fault populated with the given error data.
func NewSyntaxError(opts ErrorOpts) *errors.CompileError {
	message := opts.Message
	if opts.Cause != nil {
		message = opts.Cause.Error()
	}
	code := opts.Code
	if code == "" {
		code = errors.E1003
	}
	err := &errors.CompileError{
		Kind:       errors.Syntax,
		Code:       code,
		Message:    message,
		Filename:   opts.File,
		Line:       opts.StartPosition.LineNumber(),
		Column:     opts.StartPosition.ColumnNumber(),
		SourceLine: opts.SourceCode,
	}
	if end := opts.EndPosition; end.Line == opts.StartPosition.Line && end.Column > opts.StartPosition.Column {
		err.EndColumn = end.ColumnNumber()
	}
	return err
}

// lexErrorCode classifies a tokenizer failure.
func lexErrorCode(err error) errors.ErrorCode {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "number literal"), strings.Contains(msg, "out of range"):
		return errors.E1008
	case strings.Contains(msg, "unterminated string"):
		return errors.E1002
	case strings.Contains(msg, "escape"):
		return errors.E1010
	default:
		return errors.E1011
	}
}

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.EOF, token.EOI:
		return "end of file"
	case token.IDENT:
		return "identifier"
	case token.NEWLINE:
		return "newline"
	case token.INT, token.FLOAT:
		return "number"
	case token.STRING, token.STRCONS_BEGIN:
		return "string"
	}
	if text, ok := token.KeywordText(t); ok {
		return "'" + text + "'"
	}
	return "'" + string(t) + "'"
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF, token.EOI:
		return "end of file"
	case token.NEWLINE:
		return "newline"
	case token.STRING, token.STRCONS_BEGIN:
		return "string"
	default:
		if t.Literal == "" {
			return string(t.Type)
		}
		return "'" + t.Literal + "'"
	}
}
