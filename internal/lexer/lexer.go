// Package lexer converts tern source text into a sequence of tokens.
//
// A Lexer is byte oriented: tern source is ASCII outside of string literals
// and comments, and a UTF-8 byte order mark is tolerated at offset zero. In
// interactive mode the end of the buffered input is reported as token.EOI
// rather than token.EOF so that a caller can Append another line and resume.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternlang/tern/internal/token"
)

const bom = "\xef\xbb\xbf"

// Lexer holds our object-state.
type Lexer struct {
	// The input source being scanned. Interactive sessions grow it with Append.
	input string

	// Byte offset of the next unread character.
	pos int

	// Line bookkeeping for positions.
	line      int
	lineStart int

	// The filename reported in token positions.
	file string

	// When true, running out of input yields EOI instead of EOF.
	interactive bool

	// One entry per open string constructor segment. Each entry counts the
	// unmatched '{' seen inside the segment's embedded expression.
	braces []int
}

// Option is a configuration function for a Lexer.
type Option func(*Lexer)

// WithFilename sets the file name reported in token positions.
func WithFilename(filename string) Option {
	return func(l *Lexer) {
		l.file = filename
	}
}

// WithInteractive makes the end of the buffered input produce token.EOI.
func WithInteractive() Option {
	return func(l *Lexer) {
		l.interactive = true
	}
}

// New creates a Lexer instance from the given input.
func New(input string, options ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range options {
		opt(l)
	}
	if strings.HasPrefix(input, bom) {
		l.pos = len(bom)
		l.lineStart = len(bom)
	}
	return l
}

// SetFilename sets the filename reported in token positions.
func (l *Lexer) SetFilename(filename string) {
	l.file = filename
}

// Filename returns the filename reported in token positions.
func (l *Lexer) Filename() string {
	return l.file
}

// Interactive reports whether end of input is reported as EOI.
func (l *Lexer) Interactive() bool {
	return l.interactive
}

// Append adds more source text to the end of the buffered input.
func (l *Lexer) Append(text string) {
	l.input += text
}

// Finish marks the input as complete. Subsequent reads at the end of the
// buffer produce EOF instead of EOI.
func (l *Lexer) Finish() {
	l.interactive = false
}

// Discard drops any unread input, including open string constructors.
func (l *Lexer) Discard() {
	for l.pos < len(l.input) {
		l.advance()
	}
	l.braces = nil
}

// Input returns the full source text buffered so far.
func (l *Lexer) Input() string {
	return l.input
}

// Next returns the next token from the input. Errors are returned together
// with an ILLEGAL token positioned at the offending text.
func (l *Lexer) Next() (token.Token, error) {
	if bad, ok := l.skipWhitespace(); ok {
		tok := l.emit(token.ILLEGAL, l.input[bad.Char:bad.Char+1], bad)
		return tok, fmt.Errorf("non-ASCII character 0x%02x in comment", l.input[bad.Char])
	}
	start := l.position()
	if l.pos >= len(l.input) {
		if l.interactive {
			return l.emit(token.EOI, "", start), nil
		}
		return l.emit(token.EOF, "", start), nil
	}
	c := l.input[l.pos]
	switch {
	case c == '\n':
		l.advance()
		return l.emit(token.NEWLINE, "\n", start), nil
	case isLetter(c):
		return l.readIdentifier(start), nil
	case isDigit(c):
		return l.readNumber(start)
	case c == '"':
		l.advance()
		return l.readStringBody(start, '"', false)
	case c == '\'':
		l.advance()
		return l.readStringBody(start, '\'', false)
	case c == '}' && len(l.braces) > 0 && l.braces[len(l.braces)-1] == 0:
		l.advance()
		return l.readStringBody(start, '"', true)
	case c >= 0x80:
		l.advance()
		return l.illegal(start, "non-ASCII character 0x%02x", c)
	}
	return l.readOperator(start)
}

// GetLineText returns the full source line on which the token starts.
func (l *Lexer) GetLineText(tok token.Token) string {
	return LineText(l.input, tok.StartPosition)
}

// LineText returns the line of input containing the given position.
func LineText(input string, pos token.Position) string {
	start := pos.LineStart
	if start < 0 || start > len(input) {
		return ""
	}
	end := strings.IndexByte(input[start:], '\n')
	if end < 0 {
		return strings.TrimRight(input[start:], "\r")
	}
	return strings.TrimRight(input[start:start+end], "\r")
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.file,
	}
}

func (l *Lexer) emit(t token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          t,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.position(),
	}
}

func (l *Lexer) illegal(start token.Position, format string, args ...any) (token.Token, error) {
	tok := l.emit(token.ILLEGAL, l.input[start.Char:l.pos], start)
	return tok, fmt.Errorf(format, args...)
}

// peekByte returns the byte n positions past the read position, or zero.
func (l *Lexer) peekByte(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}
	return 0
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.lineStart = l.pos + 1
	}
	l.pos++
}

// skipWhitespace skips blanks and comments but stops at newlines, which
// are significant as statement terminators. A comment is skipped whole; the
// position of its first non-ASCII byte, if any, is returned.
func (l *Lexer) skipWhitespace() (token.Position, bool) {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\r', '\f', '\v':
			l.advance()
		case '#':
			var bad token.Position
			found := false
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				if !found && l.input[l.pos] >= 0x80 {
					bad, found = l.position(), true
				}
				l.advance()
			}
			if found {
				return bad, true
			}
		default:
			return token.Position{}, false
		}
	}
	return token.Position{}, false
}

func (l *Lexer) readIdentifier(start token.Position) token.Token {
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance()
	}
	// The suffix is kept before a blank: "cond? a : b" lexes "cond?".
	if c := l.peekByte(0); c == '?' || c == '!' {
		switch next := l.peekByte(1); {
		case next == '=' || next == '?' || next == '.' || next == ':' || isIdentChar(next):
		default:
			l.advance()
		}
	}
	text := l.input[start.Char:l.pos]
	return l.emit(token.LookupIdentifier(text), text, start)
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	if l.input[l.pos] == '0' {
		base := 0
		switch l.peekByte(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			l.advance()
			l.advance()
			digits, ok := l.readDigits(func(c byte) bool { return digitValue(c) < base })
			if !ok || digits == "" || isIdentChar(l.peekByte(0)) {
				l.skipIdentChars()
				return l.illegal(start, "invalid number literal %q", l.input[start.Char:l.pos])
			}
			value, err := strconv.ParseInt(digits, base, 64)
			if err != nil {
				return l.illegal(start, "integer literal %q out of range", l.input[start.Char:l.pos])
			}
			tok := l.emit(token.INT, l.input[start.Char:l.pos], start)
			tok.Int = value
			return tok, nil
		}
	}
	whole, ok := l.readDigits(isDigit)
	isFloat := false
	text := whole
	if ok && l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		isFloat = true
		l.advance()
		var frac string
		frac, ok = l.readDigits(isDigit)
		text += "." + frac
	}
	if ok && (l.peekByte(0) == 'e' || l.peekByte(0) == 'E') {
		isFloat = true
		l.advance()
		text += "e"
		if c := l.peekByte(0); c == '+' || c == '-' {
			text += string(c)
			l.advance()
		}
		var exp string
		exp, ok = l.readDigits(isDigit)
		ok = ok && exp != ""
		text += exp
	}
	if !ok || isIdentChar(l.peekByte(0)) {
		l.skipIdentChars()
		return l.illegal(start, "invalid number literal %q", l.input[start.Char:l.pos])
	}
	raw := l.input[start.Char:l.pos]
	if isFloat {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return l.illegal(start, "invalid number literal %q", raw)
		}
		tok := l.emit(token.FLOAT, raw, start)
		tok.Float = value
		return tok, nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return l.illegal(start, "integer literal %q out of range", raw)
	}
	tok := l.emit(token.INT, raw, start)
	tok.Int = value
	return tok, nil
}

// readDigits consumes a run of digits accepted by valid, allowing single
// underscores between digits. The returned string has underscores removed.
func (l *Lexer) readDigits(valid func(byte) bool) (string, bool) {
	var b strings.Builder
	prevDigit := false
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case valid(c):
			b.WriteByte(c)
			prevDigit = true
		case c == '_':
			if !prevDigit || !valid(l.peekByte(1)) {
				l.advance()
				return b.String(), false
			}
			prevDigit = false
		default:
			return b.String(), true
		}
		l.advance()
	}
	return b.String(), true
}

func (l *Lexer) skipIdentChars() {
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance()
	}
}

// readStringBody scans string contents after an opening quote, or after the
// '}' that closes an interpolation segment when resumed is true.
func (l *Lexer) readStringBody(start token.Position, quote byte, resumed bool) (token.Token, error) {
	closed, opened := token.STRING, token.STRCONS_BEGIN
	if resumed {
		closed, opened = token.STRCONS_END, token.STRCONS_MID
	}
	var b strings.Builder
	// Scanning continues past a non-ASCII byte so the error token covers
	// the whole segment.
	bad := -1
	for {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			if resumed {
				l.braces = l.braces[:len(l.braces)-1]
			}
			return l.illegal(start, "unterminated string literal")
		}
		c := l.input[l.pos]
		switch {
		case c == quote:
			l.advance()
			if resumed {
				l.braces = l.braces[:len(l.braces)-1]
			}
			if bad >= 0 {
				return l.illegal(start, "non-ASCII character 0x%02x in string literal", l.input[bad])
			}
			return l.emit(closed, b.String(), start), nil
		case c == '{' && quote == '"':
			l.advance()
			if !resumed {
				l.braces = append(l.braces, 0)
			}
			if bad >= 0 {
				return l.illegal(start, "non-ASCII character 0x%02x in string literal", l.input[bad])
			}
			return l.emit(opened, b.String(), start), nil
		case c == '\\':
			escStart := l.position()
			if err := l.readEscape(&b); err != nil {
				tok := l.emit(token.ILLEGAL, l.input[escStart.Char:l.pos], escStart)
				return tok, err
			}
		default:
			if c >= 0x80 && bad < 0 {
				bad = l.pos
			}
			b.WriteByte(c)
			l.advance()
		}
	}
}

func (l *Lexer) readEscape(b *strings.Builder) error {
	l.advance() // backslash
	c := l.peekByte(0)
	if l.pos >= len(l.input) {
		return fmt.Errorf("unterminated escape sequence")
	}
	l.advance()
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case '\\', '\'', '"', '{', '}':
		b.WriteByte(c)
	case 'x':
		hi, lo := digitValue(l.peekByte(0)), digitValue(l.peekByte(1))
		if hi >= 16 || lo >= 16 {
			return fmt.Errorf("invalid \\x escape sequence")
		}
		l.advance()
		l.advance()
		b.WriteByte(byte(hi<<4 | lo))
	case 'u':
		if l.peekByte(0) != '{' {
			return fmt.Errorf("invalid \\u escape sequence (expected '{')")
		}
		l.advance()
		var r rune
		n := 0
		for l.pos < len(l.input) && l.input[l.pos] != '}' {
			d := digitValue(l.input[l.pos])
			if d >= 16 || n == 6 {
				return fmt.Errorf("invalid \\u escape sequence")
			}
			r = r<<4 | rune(d)
			n++
			l.advance()
		}
		if n == 0 || l.peekByte(0) != '}' || r > 0x10FFFF {
			return fmt.Errorf("invalid \\u escape sequence")
		}
		l.advance()
		b.WriteRune(r)
	default:
		return fmt.Errorf("invalid escape sequence '\\%c'", c)
	}
	return nil
}

var operators3 = map[string]token.Type{
	"//=": token.IDIV_EQUALS,
	"..=": token.CONCAT_EQUALS,
	"...": token.SPREAD,
}

var operators2 = map[string]token.Type{
	"+=": token.PLUS_EQUALS,
	"-=": token.MINUS_EQUALS,
	"*=": token.ASTERISK_EQUALS,
	"/=": token.SLASH_EQUALS,
	"%=": token.MOD_EQUALS,
	"//": token.IDIV,
	"..": token.CONCAT,
	"<<": token.LT_LT,
	">>": token.GT_GT,
	"==": token.EQ,
	"!=": token.NOT_EQ,
	"<=": token.LT_EQUALS,
	">=": token.GT_EQUALS,
	"??": token.NULLISH,
}

var operators1 = map[byte]token.Type{
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.ASTERISK,
	'/': token.SLASH,
	'%': token.MOD,
	'.': token.PERIOD,
	'&': token.AMPERSAND,
	'|': token.BITOR,
	'^': token.CARET,
	'~': token.TILDE,
	'<': token.LT,
	'>': token.GT,
	'=': token.ASSIGN,
	'?': token.QUESTION,
	':': token.COLON,
	',': token.COMMA,
	';': token.SEMICOLON,
	'(': token.LPAREN,
	')': token.RPAREN,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	'{': token.LBRACE,
	'}': token.RBRACE,
}

func (l *Lexer) readOperator(start token.Position) (token.Token, error) {
	rest := l.input[l.pos:]
	if len(rest) >= 3 {
		if t, ok := operators3[rest[:3]]; ok {
			l.advance()
			l.advance()
			l.advance()
			return l.emit(t, rest[:3], start), nil
		}
	}
	if len(rest) >= 2 {
		if t, ok := operators2[rest[:2]]; ok {
			l.advance()
			l.advance()
			return l.emit(t, rest[:2], start), nil
		}
	}
	c := rest[0]
	t, ok := operators1[c]
	l.advance()
	if !ok {
		return l.illegal(start, "illegal character %q", c)
	}
	if len(l.braces) > 0 {
		switch t {
		case token.LBRACE:
			l.braces[len(l.braces)-1]++
		case token.RBRACE:
			l.braces[len(l.braces)-1]--
		}
	}
	return l.emit(t, string(c), start), nil
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c)
}

// digitValue returns the numeric value of a hex digit, or 16 if c is not one.
func digitValue(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return 16
}
