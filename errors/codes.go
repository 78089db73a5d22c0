package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Syntax errors
//   - E2xxx: Resolution errors
//   - E3xxx: Runtime errors
//   - E4xxx: Internal limits
//   - W1xxx: Warnings
type ErrorCode string

const (
	// Syntax errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unexpected token
	E1002 ErrorCode = "E1002" // Unterminated string literal
	E1003 ErrorCode = "E1003" // Invalid syntax
	E1004 ErrorCode = "E1004" // Missing expression
	E1005 ErrorCode = "E1005" // Invalid assignment target
	E1006 ErrorCode = "E1006" // Expected identifier
	E1007 ErrorCode = "E1007" // Unclosed block
	E1008 ErrorCode = "E1008" // Invalid number literal
	E1009 ErrorCode = "E1009" // Maximum nesting depth exceeded
	E1010 ErrorCode = "E1010" // Invalid escape sequence
	E1011 ErrorCode = "E1011" // Illegal character
	E1012 ErrorCode = "E1012" // Functions nested too deeply

	// Resolution errors (E2xxx)
	E2001 ErrorCode = "E2001" // Unknown label
	E2002 ErrorCode = "E2002" // Bare raise outside catch
	E2003 ErrorCode = "E2003" // Break outside loop
	E2004 ErrorCode = "E2004" // Continue outside loop
	E2005 ErrorCode = "E2005" // Duplicate parameter name
	E2006 ErrorCode = "E2006" // Too many arguments
	E2007 ErrorCode = "E2007" // Too many keyword arguments
	E2008 ErrorCode = "E2008" // Too many return values
	E2009 ErrorCode = "E2009" // Misplaced catch-all clause
	E2010 ErrorCode = "E2010" // Unresolvable assignment target
	E2011 ErrorCode = "E2011" // Name already declared
	E2012 ErrorCode = "E2012" // Member declaration outside class or package
	E2013 ErrorCode = "E2013" // Self outside function
	E2014 ErrorCode = "E2014" // Return or yield inside class or package body

	// Runtime errors (E3xxx)
	E3001 ErrorCode = "E3001" // Type error
	E3002 ErrorCode = "E3002" // Division by zero

	// Internal limits (E4xxx)
	E4001 ErrorCode = "E4001" // Operand stack too deep
	E4002 ErrorCode = "E4002" // Too many literals
	E4003 ErrorCode = "E4003" // Too many local variables
	E4004 ErrorCode = "E4004" // Function body too large
	E4005 ErrorCode = "E4005" // Inconsistent stack depth

	// Warnings (W1xxx)
	W1001 ErrorCode = "W1001" // Label has no meaning here
	W1002 ErrorCode = "W1002" // Jump out of finally block
	W1003 ErrorCode = "W1003" // Unreachable code
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unexpected token",
	E1002: "unterminated string literal",
	E1003: "invalid syntax",
	E1004: "missing expression",
	E1005: "invalid assignment target",
	E1006: "expected identifier",
	E1007: "unclosed block",
	E1008: "invalid number literal",
	E1009: "maximum nesting depth exceeded",
	E1010: "invalid escape sequence",
	E1011: "illegal character",
	E1012: "functions nested too deeply",

	E2001: "unknown label",
	E2002: "bare raise outside catch",
	E2003: "break outside loop",
	E2004: "continue outside loop",
	E2005: "duplicate parameter name",
	E2006: "too many arguments",
	E2007: "too many keyword arguments",
	E2008: "too many return values",
	E2009: "misplaced catch-all clause",
	E2010: "unresolvable assignment target",
	E2011: "name already declared",
	E2012: "member declaration outside class or package",
	E2013: "self outside function",
	E2014: "return inside class or package body",

	E3001: "type error",
	E3002: "division by zero",

	E4001: "operand stack too deep",
	E4002: "too many literals",
	E4003: "too many local variables",
	E4004: "function body too large",
	E4005: "inconsistent stack depth",

	W1001: "label has no meaning here",
	W1002: "jump out of finally block",
	W1003: "unreachable code",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Kind returns the fault kind implied by the code.
func (c ErrorCode) Kind() Kind {
	if len(c) < 2 || c[0] != 'E' {
		return 0
	}
	switch c[1] {
	case '1':
		return Syntax
	case '2':
		return Resolution
	case '3':
		return Runtime
	case '4':
		return InternalLimit
	}
	return 0
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	if c[0] == 'W' {
		return "warning"
	}
	switch c.Kind() {
	case Syntax:
		return "syntax"
	case Resolution:
		return "resolution"
	case Runtime:
		return "runtime"
	case InternalLimit:
		return "limit"
	default:
		return "unknown"
	}
}
