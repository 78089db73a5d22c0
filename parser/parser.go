// Package parser is used to generate the abstract syntax tree (AST) for a
// tern program.
//
// A parser is created by calling New() with a lexer as input. Parse then
// produces the AST for the whole input. Interactive sessions create the
// lexer in interactive mode, attach a line source with WithLineSource, and
// call ParseUnit once per top-level input unit; the parser pulls more lines
// while a construct is still open.
package parser

import (
	"context"
	"fmt"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/lexer"
	"github.com/ternlang/tern/internal/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// statementTerminators end a statement. A newline ends an expression only
// when no operator is pending, so "x +\ny" is one expression and "x\ny" is
// two. Newlines inside brackets are skipped, and a block keyword such as
// "end" may close a statement on the same line.
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.EOF:       true,
	token.EOI:       true,
}

// blockTerminators are the keywords that close or split a block.
var blockTerminators = map[token.Type]bool{
	token.END:     true,
	token.ELSE:    true,
	token.ELSEIF:  true,
	token.CATCH:   true,
	token.FINALLY: true,
	token.UNTIL:   true,
	token.GET:     true,
	token.SET:     true,
}

// Parse lexes and parses input in one call.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	// The lexer needs the filename before the first token is read.
	var filename string
	for _, opt := range options {
		var scratch Parser
		opt(&scratch)
		if scratch.filename != "" {
			filename = scratch.filename
			break
		}
	}
	l := lexer.New(input, lexer.WithFilename(filename))
	return New(l, options...).Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth bounds the recursion depth. Defaults to DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// WithNodeList registers every node the parser creates with the list.
func WithNodeList(nodes *ast.NodeList) Option {
	return func(p *Parser) {
		p.nodes = nodes
	}
}

// WithLineSource attaches the source of additional input lines used when an
// interactive lexer runs out of buffered input.
func WithLineSource(src lexer.LineSource) Option {
	return func(p *Parser) {
		p.src = src
	}
}

// DefaultMaxDepth is the recursion depth allowed when no WithMaxDepth
// option is given.
const DefaultMaxDepth = 500

// MaxErrors caps the faults collected from one input before parsing stops.
const MaxErrors = 10

// Parser turns a token stream into an ast.Program.
type Parser struct {
	ctx context.Context

	// s is the token window over the lexer
	s *lexer.Stream

	// src supplies more lines in interactive mode
	src lexer.LineSource

	// Copies of the stream window, refreshed by sync.
	prevToken token.Token
	curToken  token.Token
	peekToken token.Token

	errors []*errors.CompileError

	// len(errors) when the current statement started.
	stmtErrorCount int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	// nodes receives every node created
	nodes *ast.NodeList

	// allowEOI is set between top-level statements, where running out of
	// buffered input ends the unit instead of requesting another line.
	allowEOI bool

	filename string
	depth    int
	maxDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename != "" {
		l.SetFilename(p.filename)
	} else {
		p.filename = l.Filename()
	}
	if p.nodes == nil {
		p.nodes = &ast.NodeList{}
	}

	// Prime the token pump
	s, err := lexer.NewStream(l, p.src)
	p.s = s
	p.sync()
	if err != nil {
		p.lexError(err, p.s.Peek())
	}
	p.allowEOI = l.Interactive()

	// Prefix parse functions
	p.registerPrefix(token.EOF, p.unexpectedEnd)
	p.registerPrefix(token.EOI, p.unexpectedEnd)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.CLASS, p.parseClassLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.FUNCTION, p.parseFuncLiteral)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.LBRACE, p.parseMap)
	p.registerPrefix(token.LBRACKET, p.parseList)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.NOT, p.parsePrefixExpr)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.PACKAGE, p.parsePackageLiteral)
	p.registerPrefix(token.PROPERTY, p.parsePropertyLiteral)
	p.registerPrefix(token.SELF, p.parseSelf)
	p.registerPrefix(token.STRCONS_BEGIN, p.parseStringCons)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TILDE, p.parsePrefixExpr)
	p.registerPrefix(token.TRUE, p.parseBoolean)

	// Infix parse functions
	for _, t := range []token.Type{
		token.NULLISH, token.CONCAT, token.OR, token.XOR, token.AND,
		token.BITOR, token.CARET, token.AMPERSAND, token.EQ, token.NOT_EQ,
		token.IS, token.HAS, token.LT, token.LT_EQUALS, token.GT,
		token.GT_EQUALS, token.LT_LT, token.GT_GT, token.PLUS, token.MINUS,
		token.ASTERISK, token.SLASH, token.IDIV, token.MOD,
	} {
		p.registerInfix(t, p.parseInfixExpr)
	}
	p.registerInfix(token.QUESTION, p.parseTernary)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.PERIOD, p.parseMember)
	return p
}

// Nodes returns the list that received every node created by the parser.
func (p *Parser) Nodes() *ast.NodeList {
	return p.nodes
}

// Stream returns the token window the parser reads from.
func (p *Parser) Stream() *lexer.Stream {
	return p.s
}

// Reset clears collected errors and installs a fresh node list, ready for
// the next interactive unit.
func (p *Parser) Reset(nodes *ast.NodeList) {
	p.errors = nil
	p.stmtErrorCount = 0
	p.depth = 0
	if nodes == nil {
		nodes = &ast.NodeList{}
	}
	p.nodes = nodes
}

func (p *Parser) sync() {
	p.prevToken = p.s.Prev()
	p.curToken = p.s.Cur()
	p.peekToken = p.s.Peek()
}

// track registers a node with the parser's node list and returns it.
func track[T ast.Node](p *Parser, n T) T {
	p.nodes.Add(n)
	return n
}

// nextToken shifts the token window by one. Inside an interactive
// statement, running out of buffered input pulls another line.
func (p *Parser) nextToken() error {
	err := p.s.Advance()
	p.sync()
	if err != nil {
		p.lexError(err, p.peekToken)
	}
	p.refill()
	return err
}

func (p *Parser) refill() {
	for p.needsRefill() {
		ok, err := p.s.Refill()
		p.sync()
		if err != nil {
			p.lexError(err, p.peekToken)
		}
		if !ok {
			return
		}
	}
}

func (p *Parser) needsRefill() bool {
	if p.allowEOI || p.hasErrors() {
		return false
	}
	return p.curToken.Type == token.EOI || p.peekToken.Type == token.EOI
}

// NeedsInput reports whether the parser stopped because the interactive
// input ran out at a statement boundary.
func (p *Parser) NeedsInput() bool {
	return p.curToken.Type == token.EOI
}

// Parse reads statements until the input ends. On faults the returned
// program holds only the statements that parsed; batch parsing resyncs after
// each fault and keeps collecting, interactive parsing stops at the first.
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	// Priming the window in New may already have failed.
	if p.hasErrors() {
		return nil, p.errorList()
	}
	program := track(p, &ast.Program{})
	interactive := p.s.Lexer().Interactive()
	for {
		if interactive {
			p.allowEOI = true
		}
		p.skipTerminators()
		if p.curTokenIs(token.EOF) || p.curTokenIs(token.EOI) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() || (interactive && p.hasErrors()) {
			break
		}
		p.allowEOI = false
		p.stmtErrorCount = len(p.errors)
		stmt := p.parseStatementStrict()
		if stmt != nil {
			program.Stmts = append(program.Stmts, stmt)
		} else if p.hadNewError() {
			if interactive {
				break
			}
			p.synchronize()
			if !statementTerminators[p.curToken.Type] {
				if blockTerminators[p.curToken.Type] {
					p.advanceToken()
				}
				continue
			}
		}
		if interactive {
			p.allowEOI = true
		}
		p.nextToken()
	}
	if p.hasErrors() {
		return program, p.errorList()
	}
	return program, nil
}

// ParseUnit parses one interactive unit: the statements on the next input
// line, plus as many further lines as needed to close any open construct.
// It returns a nil program and nil error when the line source is exhausted.
func (p *Parser) ParseUnit(ctx context.Context) (*ast.Program, error) {
	if p.curTokenIs(token.EOI) {
		ok, err := p.s.Refill()
		p.sync()
		if err != nil {
			p.lexError(err, p.peekToken)
			return nil, p.errorList()
		}
		if !ok {
			return nil, nil
		}
	}
	if p.curTokenIs(token.EOF) {
		return nil, nil
	}
	return p.Parse(ctx)
}

// DiscardInput drops the rest of the buffered input after a failed unit.
func (p *Parser) DiscardInput() {
	p.s.Discard()
	p.sync()
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) addError(err *errors.CompileError) {
	p.errors = append(p.errors, err)
}

// Errors returns the errors collected so far.
func (p *Parser) Errors() []*errors.CompileError {
	return p.errors
}

func (p *Parser) errorList() error {
	errs := &errors.CompileErrors{Errors: p.errors}
	return errs.ToError()
}

func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

// hadNewError reports a fault recorded since the current statement began.
func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}

// advanceToken shifts the window without error checks or refill, for
// recovery.
func (p *Parser) advanceToken() {
	p.s.Advance()
	p.sync()
}

// synchronize skips to the next statement boundary after a fault.
func (p *Parser) synchronize() {
	moved := false
	for !p.curTokenIs(token.EOF) && !p.curTokenIs(token.EOI) {
		if statementTerminators[p.curToken.Type] || blockTerminators[p.curToken.Type] {
			return
		}
		switch p.curToken.Type {
		case token.LOCAL, token.GLOBAL, token.MEMBER, token.RETURN, token.IF,
			token.WHILE, token.FOR, token.FOREACH, token.REPEAT, token.TRY,
			token.RAISE, token.USING:
			if moved && (p.prevToken.Type == token.NEWLINE || p.prevToken.Type == token.SEMICOLON) {
				return
			}
		}
		before := p.curToken.StartPosition
		p.advanceToken()
		moved = true
		if p.curToken.StartPosition == before {
			return
		}
	}
}

func (p *Parser) lexError(err error, tok token.Token) {
	p.addError(NewSyntaxError(ErrorOpts{
		Code:          lexErrorCode(err),
		Cause:         err,
		File:          p.filename,
		StartPosition: tok.StartPosition,
		EndPosition:   tok.EndPosition,
		SourceCode:    p.s.Lexer().GetLineText(tok),
	}))
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	p.setTokenError(errors.E1001, t, "invalid syntax (unexpected %s)", tokenDescription(t))
}

// peekError records that the next token is not of the expected type.
func (p *Parser) peekError(context string, expected token.Type, got token.Token) {
	code := errors.E1001
	switch {
	case got.Type == token.EOF || got.Type == token.EOI:
		code = errors.E1007
	case expected == token.IDENT:
		code = errors.E1006
	}
	p.setTokenError(code, got, "unexpected %s while parsing %s (expected %s)",
		tokenDescription(got), context, tokenTypeDescription(expected))
}

// cancelled records a fault and reports true once the context is done.
func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		p.addError(NewSyntaxError(ErrorOpts{Message: p.ctx.Err().Error(), File: p.filename}))
		return true
	default:
		return false
	}
}

func (p *Parser) setTokenError(code errors.ErrorCode, t token.Token, msg string, args ...any) {
	p.addError(NewSyntaxError(ErrorOpts{
		Code:          code,
		Message:       fmt.Sprintf(msg, args...),
		File:          p.filename,
		StartPosition: t.StartPosition,
		EndPosition:   t.EndPosition,
		SourceCode:    p.s.Lexer().GetLineText(t),
	}))
}

func (p *Parser) parseNode(precedence int) ast.Expr {
	if p.hadNewError() {
		return nil
	}
	p.depth++
	if p.depth > p.maxDepth {
		p.setTokenError(errors.E1009, p.curToken, "maximum nesting depth exceeded")
		p.depth--
		return nil
	}
	defer func() { p.depth-- }()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	left := prefix()
	if p.hadNewError() || left == nil {
		return nil
	}
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		if err := p.nextToken(); err != nil {
			return nil
		}
		left = infix(left)
		if p.hadNewError() || left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	if p.cancelled() {
		return nil
	}
	return p.parseNode(precedence)
}

func (p *Parser) illegalToken() ast.Expr {
	if !p.hadNewError() {
		p.setTokenError(errors.E1011, p.curToken, "illegal token %s", p.curToken.Literal)
	}
	return nil
}

func (p *Parser) unexpectedEnd() ast.Expr {
	p.setTokenError(errors.E1007, p.curToken, "unexpected end of file")
	return nil
}

func (p *Parser) newIdent(tok token.Token) *ast.Ident {
	return track(p, &ast.Ident{NamePos: tok.StartPosition, Name: tok.Literal})
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// sameLine reports whether the peek token starts on the current token's line.
func (p *Parser) sameLine() bool {
	return p.peekToken.StartPosition.Line == p.curToken.StartPosition.Line
}

// expectPeek advances onto the peek token when it has type t and records a
// syntax error otherwise.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	if !p.hadNewError() {
		p.peekError(context, t, p.peekToken)
	}
	return false
}

// expectPeekAfterNewlines is expectPeek for bracketed contexts, where
// newlines before the expected token are ignored.
func (p *Parser) expectPeekAfterNewlines(context string, t token.Type) bool {
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	return p.expectPeek(context, t)
}

// peekPrecedence returns the precedence of the next token.
func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

// currentPrecedence returns the precedence of the current token.
func (p *Parser) currentPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			return
		}
	}
}

// skipTerminators advances past newlines and semicolons.
func (p *Parser) skipTerminators() {
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
		if err := p.nextToken(); err != nil {
			return
		}
	}
}
