// Package token defines language keywords and tokens used when lexing source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the input
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns a new Position advanced by n bytes.
// The advance must not cross a line boundary.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0 || p.Char > 0
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Token represents one token lexed from the input source code.
//
// Literal holds the decoded value for strings and the source text for
// everything else. Numeric tokens additionally carry their parsed value in
// Int or Float. StartPosition.Char and EndPosition.Char delimit the exact
// source bytes the token was scanned from.
type Token struct {
	Type          Type
	Literal       string
	Int           int64
	Float         float64
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"
	EOI     Type = "EOI" // end of the currently buffered input; more may follow
	NEWLINE Type = "EOL"

	IDENT         Type = "IDENT"
	INT           Type = "INT"
	FLOAT         Type = "FLOAT"
	STRING        Type = "STRING"
	STRCONS_BEGIN Type = "STRCONS_BEGIN"
	STRCONS_MID   Type = "STRCONS_MID"
	STRCONS_END   Type = "STRCONS_END"

	ASSIGN          Type = "="
	PLUS_EQUALS     Type = "+="
	MINUS_EQUALS    Type = "-="
	ASTERISK_EQUALS Type = "*="
	SLASH_EQUALS    Type = "/="
	IDIV_EQUALS     Type = "//="
	MOD_EQUALS      Type = "%="
	CONCAT_EQUALS   Type = "..="

	PLUS      Type = "+"
	MINUS     Type = "-"
	ASTERISK  Type = "*"
	SLASH     Type = "/"
	IDIV      Type = "//"
	MOD       Type = "%"
	CONCAT    Type = ".."
	SPREAD    Type = "..."
	AMPERSAND Type = "&"
	BITOR     Type = "|"
	CARET     Type = "^"
	TILDE     Type = "~"
	LT_LT     Type = "<<"
	GT_GT     Type = ">>"
	EQ        Type = "=="
	NOT_EQ    Type = "!="
	LT        Type = "<"
	LT_EQUALS Type = "<="
	GT        Type = ">"
	GT_EQUALS Type = ">="
	NULLISH   Type = "??"
	QUESTION  Type = "?"
	COLON     Type = ":"
	COMMA     Type = ","
	SEMICOLON Type = ";"
	PERIOD    Type = "."
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACKET  Type = "["
	RBRACKET  Type = "]"
	LBRACE    Type = "{"
	RBRACE    Type = "}"

	AND      Type = "AND"
	BREAK    Type = "BREAK"
	CATCH    Type = "CATCH"
	CLASS    Type = "CLASS"
	CONTINUE Type = "CONTINUE"
	DO       Type = "DO"
	ELSE     Type = "ELSE"
	ELSEIF   Type = "ELSEIF"
	END      Type = "END"
	FALSE    Type = "FALSE"
	FINALLY  Type = "FINALLY"
	FOR      Type = "FOR"
	FOREACH  Type = "FOREACH"
	FUNCTION Type = "FUNCTION"
	GET      Type = "GET"
	GLOBAL   Type = "GLOBAL"
	HAS      Type = "HAS"
	IF       Type = "IF"
	IN       Type = "IN"
	IS       Type = "IS"
	LOCAL    Type = "LOCAL"
	MEMBER   Type = "MEMBER"
	NOT      Type = "NOT"
	NULL     Type = "NULL"
	OR       Type = "OR"
	PACKAGE  Type = "PACKAGE"
	PROPERTY Type = "PROPERTY"
	RAISE    Type = "RAISE"
	REPEAT   Type = "REPEAT"
	RETURN   Type = "RETURN"
	SELF     Type = "SELF"
	SET      Type = "SET"
	STEP     Type = "STEP"
	THEN     Type = "THEN"
	TO       Type = "TO"
	TRUE     Type = "TRUE"
	TRY      Type = "TRY"
	UNTIL    Type = "UNTIL"
	USING    Type = "USING"
	WHILE    Type = "WHILE"
	XOR      Type = "XOR"
	YIELD    Type = "YIELD"
)

// Reserved keywords
var keywords = map[string]Type{
	"and":      AND,
	"break":    BREAK,
	"catch":    CATCH,
	"class":    CLASS,
	"continue": CONTINUE,
	"do":       DO,
	"else":     ELSE,
	"elseif":   ELSEIF,
	"end":      END,
	"false":    FALSE,
	"finally":  FINALLY,
	"for":      FOR,
	"foreach":  FOREACH,
	"function": FUNCTION,
	"get":      GET,
	"global":   GLOBAL,
	"has":      HAS,
	"if":       IF,
	"in":       IN,
	"is":       IS,
	"local":    LOCAL,
	"member":   MEMBER,
	"not":      NOT,
	"null":     NULL,
	"or":       OR,
	"package":  PACKAGE,
	"property": PROPERTY,
	"raise":    RAISE,
	"repeat":   REPEAT,
	"return":   RETURN,
	"self":     SELF,
	"set":      SET,
	"step":     STEP,
	"then":     THEN,
	"to":       TO,
	"true":     TRUE,
	"try":      TRY,
	"until":    UNTIL,
	"using":    USING,
	"while":    WHILE,
	"xor":      XOR,
	"yield":    YIELD,
}

type keyword struct {
	text string
	typ  Type
}

// maxKeywordLen bounds the length buckets; longer words are never keywords.
const maxKeywordLen = 8

// buckets groups keywords by length so a lookup only compares against
// candidates of the same size.
var buckets [maxKeywordLen + 1][]keyword

func init() {
	for text, typ := range keywords {
		if len(text) > maxKeywordLen {
			panic("token: keyword exceeds maxKeywordLen: " + text)
		}
		buckets[len(text)] = append(buckets[len(text)], keyword{text: text, typ: typ})
	}
}

// LookupIdentifier used to determinate whether identifier is keyword nor not
func LookupIdentifier(identifier string) Type {
	if len(identifier) > maxKeywordLen {
		return IDENT
	}
	for _, kw := range buckets[len(identifier)] {
		if kw.text == identifier {
			return kw.typ
		}
	}
	return IDENT
}

// IsKeyword reports whether the given type is a reserved word.
func IsKeyword(t Type) bool {
	_, ok := keywordText[t]
	return ok
}

// KeywordText returns the source spelling of a keyword type.
func KeywordText(t Type) (string, bool) {
	text, ok := keywordText[t]
	return text, ok
}

var keywordText = func() map[Type]string {
	m := make(map[Type]string, len(keywords))
	for text, typ := range keywords {
		m[typ] = text
	}
	return m
}()
