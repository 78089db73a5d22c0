package parser

import "github.com/ternlang/tern/internal/token"

// Precedence order for operators, loosest first
const (
	_ int = iota
	LOWEST
	NULLISH     // ??
	TERNARY     // ? :
	CONCAT      // ..
	OR          // or
	XOR         // xor
	AND         // and
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	EQUALS      // == != is has
	LESSGREATER // < <= > >=
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / // %
	PREFIX      // -X not X ~X
	CALL        // fn(X)
	INDEX       // list[i] obj.name
	HIGHEST
)

// Precedences for each token type
var precedences = map[token.Type]int{
	token.NULLISH:   NULLISH,
	token.QUESTION:  TERNARY,
	token.CONCAT:    CONCAT,
	token.OR:        OR,
	token.XOR:       XOR,
	token.AND:       AND,
	token.BITOR:     BITOR,
	token.CARET:     BITXOR,
	token.AMPERSAND: BITAND,
	token.EQ:        EQUALS,
	token.NOT_EQ:    EQUALS,
	token.IS:        EQUALS,
	token.HAS:       EQUALS,
	token.LT:        LESSGREATER,
	token.LT_EQUALS: LESSGREATER,
	token.GT:        LESSGREATER,
	token.GT_EQUALS: LESSGREATER,
	token.LT_LT:     SHIFT,
	token.GT_GT:     SHIFT,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.ASTERISK:  PRODUCT,
	token.SLASH:     PRODUCT,
	token.IDIV:      PRODUCT,
	token.MOD:       PRODUCT,
	token.LPAREN:    CALL,
	token.LBRACKET:  INDEX,
	token.PERIOD:    INDEX,
}

// assignOperators maps assignment tokens to the operator text recorded in
// ast.Assign.
var assignOperators = map[token.Type]string{
	token.ASSIGN:          "=",
	token.PLUS_EQUALS:     "+=",
	token.MINUS_EQUALS:    "-=",
	token.ASTERISK_EQUALS: "*=",
	token.SLASH_EQUALS:    "/=",
	token.IDIV_EQUALS:     "//=",
	token.MOD_EQUALS:      "%=",
	token.CONCAT_EQUALS:   "..=",
}
