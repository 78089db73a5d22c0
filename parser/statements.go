package parser

import (
	"slices"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/token"
)

var storageKeywords = map[token.Type]ast.Storage{
	token.LOCAL:  ast.StorageLocal,
	token.GLOBAL: ast.StorageGlobal,
	token.MEMBER: ast.StorageMember,
}

// parenFreeArgStarts lists the tokens that begin the first argument of a
// parenthesis-free call such as `print "hi", x`.
var parenFreeArgStarts = map[token.Type]bool{
	token.INT:           true,
	token.FLOAT:         true,
	token.STRING:        true,
	token.STRCONS_BEGIN: true,
	token.IDENT:         true,
	token.TRUE:          true,
	token.FALSE:         true,
	token.NULL:          true,
	token.SELF:          true,
	token.FUNCTION:      true,
	token.LBRACE:        true,
	token.NOT:           true,
	token.TILDE:         true,
}

// parseStatementStrict parses a statement and checks that it is properly
// terminated: the next token must end the statement or close the block.
func (p *Parser) parseStatementStrict() ast.Stmt {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	if !statementTerminators[p.peekToken.Type] && !blockTerminators[p.peekToken.Type] {
		if !p.hadNewError() {
			p.setTokenError(errors.E1001, p.peekToken, "unexpected %s after statement",
				tokenDescription(p.peekToken))
		}
		return nil
	}
	return stmt
}

func (p *Parser) parseStatement() ast.Stmt {
	var stmt ast.Stmt
	switch p.curToken.Type {
	case token.LOCAL, token.GLOBAL, token.MEMBER:
		stmt = p.parseStorageStatement()
	case token.FUNCTION, token.PROPERTY, token.CLASS, token.PACKAGE:
		if p.peekTokenIs(token.IDENT) {
			stmt = p.parseDecl(ast.StorageDefault, token.NoPos)
		} else {
			stmt = p.parseSimpleStatement()
		}
	case token.IF:
		stmt = p.parseIf()
	case token.WHILE:
		stmt = p.parseWhile()
	case token.REPEAT:
		stmt = p.parseRepeat()
	case token.FOR:
		stmt = p.parseFor()
	case token.FOREACH:
		stmt = p.parseForEach()
	case token.TRY:
		stmt = p.parseTry()
	case token.RAISE:
		stmt = p.parseRaise()
	case token.USING:
		stmt = p.parseUsing()
	case token.DO:
		stmt = p.parseDo()
	case token.BREAK:
		stmt = p.parseBreak()
	case token.CONTINUE:
		stmt = p.parseContinue()
	case token.RETURN:
		stmt = p.parseReturn()
	case token.YIELD:
		stmt = p.parseYield()
	case token.IDENT:
		if p.peekTokenIs(token.COLON) {
			stmt = p.parseLabeled()
		} else {
			stmt = p.parseSimpleStatement()
		}
	default:
		stmt = p.parseSimpleStatement()
	}
	if stmt == nil || p.hadNewError() {
		return nil
	}
	return stmt
}

// parseBlock parses statements until one of the given terminators. It is
// called with the current token on the last token of the block header and
// returns with the current token on the terminator.
func (p *Parser) parseBlock(context string, terms ...token.Type) *ast.Block {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.setTokenError(errors.E1009, p.curToken, "maximum nesting depth exceeded")
		return nil
	}
	saved := p.stmtErrorCount
	defer func() { p.stmtErrorCount = saved }()
	interactive := p.s.Lexer().Interactive()

	block := track(p, &ast.Block{Begin: p.curToken.EndPosition})
	p.nextToken()
	for {
		p.skipTerminators()
		if slices.Contains(terms, p.curToken.Type) {
			block.EndPos = p.curToken.StartPosition
			return block
		}
		if p.curTokenIs(token.EOF) || p.curTokenIs(token.EOI) {
			if !p.hasErrors() || !interactive {
				p.setTokenError(errors.E1007, p.curToken, "unexpected end of file while parsing %s (expected %s)",
					context, tokenTypeDescription(terms[0]))
			}
			return nil
		}
		if p.tooManyErrors() {
			return nil
		}
		p.stmtErrorCount = len(p.errors)
		if stmt := p.parseStatementStrict(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
			p.nextToken()
			continue
		}
		if interactive {
			return nil
		}
		p.synchronize()
		if blockTerminators[p.curToken.Type] && !slices.Contains(terms, p.curToken.Type) {
			p.advanceToken()
		}
	}
}

func (p *Parser) parseStorageStatement() ast.Stmt {
	storage := storageKeywords[p.curToken.Type]
	pos := p.curToken.StartPosition
	switch p.peekToken.Type {
	case token.FUNCTION, token.PROPERTY, token.CLASS, token.PACKAGE:
		p.nextToken()
		return p.parseDecl(storage, pos)
	case token.IDENT:
		p.nextToken()
		return p.parseVarDecl(storage, pos)
	}
	p.peekError(storage.String()+" declaration", token.IDENT, p.peekToken)
	return nil
}

// parseDecl parses a named function, property, class or package
// declaration. The current token is the introducing keyword.
func (p *Parser) parseDecl(storage ast.Storage, pos token.Position) ast.Stmt {
	var value ast.Expr
	switch p.curToken.Type {
	case token.FUNCTION:
		value = p.parseFuncLiteral()
	case token.PROPERTY:
		value = p.parsePropertyLiteral()
	case token.CLASS:
		value = p.parseClassLiteral()
	case token.PACKAGE:
		value = p.parsePackageLiteral()
	}
	if value == nil {
		return nil
	}
	decl := track(p, &ast.Decl{StoragePos: pos, Storage: storage, Value: value})
	if decl.Name() == nil {
		p.setTokenError(errors.E1006, token.Token{StartPosition: value.Pos()},
			"%s declaration requires a name", storage)
		return nil
	}
	return decl
}

func (p *Parser) parseVarDecl(storage ast.Storage, pos token.Position) ast.Stmt {
	decl := track(p, &ast.VarDecl{StoragePos: pos, Storage: storage})
	decl.Names = append(decl.Names, p.newIdent(p.curToken))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek(storage.String()+" declaration", token.IDENT) {
			return nil
		}
		decl.Names = append(decl.Names, p.newIdent(p.curToken))
	}
	if !p.peekTokenIs(token.ASSIGN) {
		return decl
	}
	p.nextToken()
	p.nextToken()
	p.eatNewlines()
	decl.Values = p.parseExprList()
	if decl.Values == nil {
		return nil
	}
	return decl
}

// parseExprList parses one or more comma separated expressions.
func (p *Parser) parseExprList() []ast.Expr {
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	list := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		list = append(list, expr)
	}
	return list
}

func (p *Parser) parseSimpleStatement() ast.Stmt {
	if p.curTokenIs(token.IDENT) && p.sameLine() && parenFreeArgStarts[p.peekToken.Type] {
		call := track(p, &ast.Call{Fun: p.newIdent(p.curToken), NoParens: true})
		p.nextToken()
		if !p.parseCallArg(call) {
			return nil
		}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			p.eatNewlines()
			if !p.parseCallArg(call) {
				return nil
			}
		}
		return track(p, &ast.ExprStmt{X: call})
	}

	targets := p.parseExprList()
	if targets == nil {
		return nil
	}
	op, ok := assignOperators[p.peekToken.Type]
	if !ok {
		if len(targets) != 1 {
			p.setTokenError(errors.E1001, p.peekToken, "unexpected %s (expected '=')",
				tokenDescription(p.peekToken))
			return nil
		}
		return track(p, &ast.ExprStmt{X: targets[0]})
	}
	p.nextToken()
	opTok := p.curToken
	p.nextToken()
	p.eatNewlines()
	values := p.parseExprList()
	if values == nil {
		return nil
	}
	if op != "=" && (len(targets) != 1 || len(values) != 1) {
		p.setTokenError(errors.E1005, opTok, "compound assignment %s takes exactly one target and one value", op)
		return nil
	}
	return track(p, &ast.Assign{Targets: targets, OpPos: opTok.StartPosition, Op: op, Values: values})
}

func (p *Parser) parseIf() ast.Stmt {
	stmt := track(p, &ast.If{IfPos: p.curToken.StartPosition})
	for {
		p.nextToken()
		cond := p.parseExpression(LOWEST)
		if cond == nil || !p.expectPeek("if statement", token.THEN) {
			return nil
		}
		body := p.parseBlock("if statement", token.ELSEIF, token.ELSE, token.END)
		if body == nil {
			return nil
		}
		stmt.Clauses = append(stmt.Clauses, &ast.IfClause{Cond: cond, Body: body})
		if !p.curTokenIs(token.ELSEIF) {
			break
		}
	}
	if p.curTokenIs(token.ELSE) {
		stmt.Else = p.parseBlock("else block", token.END)
		if stmt.Else == nil {
			return nil
		}
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	stmt := track(p, &ast.While{WhilePos: p.curToken.StartPosition})
	p.nextToken()
	if stmt.Cond = p.parseExpression(LOWEST); stmt.Cond == nil {
		return nil
	}
	if !p.expectPeek("while loop", token.DO) {
		return nil
	}
	if stmt.Body = p.parseBlock("while loop", token.END); stmt.Body == nil {
		return nil
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseRepeat() ast.Stmt {
	stmt := track(p, &ast.Repeat{RepeatPos: p.curToken.StartPosition})
	if stmt.Body = p.parseBlock("repeat loop", token.UNTIL); stmt.Body == nil {
		return nil
	}
	p.nextToken()
	if stmt.Cond = p.parseExpression(LOWEST); stmt.Cond == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseFor() ast.Stmt {
	stmt := track(p, &ast.For{ForPos: p.curToken.StartPosition})
	if !p.expectPeek("for loop", token.IDENT) {
		return nil
	}
	stmt.Var = p.newIdent(p.curToken)
	if !p.expectPeek("for loop", token.ASSIGN) {
		return nil
	}
	p.nextToken()
	if stmt.From = p.parseExpression(LOWEST); stmt.From == nil {
		return nil
	}
	if !p.expectPeek("for loop", token.TO) {
		return nil
	}
	p.nextToken()
	if stmt.To = p.parseExpression(LOWEST); stmt.To == nil {
		return nil
	}
	if p.peekTokenIs(token.STEP) {
		p.nextToken()
		p.nextToken()
		if stmt.Step = p.parseExpression(LOWEST); stmt.Step == nil {
			return nil
		}
	}
	if !p.expectPeek("for loop", token.DO) {
		return nil
	}
	if stmt.Body = p.parseBlock("for loop", token.END); stmt.Body == nil {
		return nil
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseForEach() ast.Stmt {
	stmt := track(p, &ast.ForEach{ForPos: p.curToken.StartPosition})
	if !p.expectPeek("foreach loop", token.IDENT) {
		return nil
	}
	stmt.Vars = append(stmt.Vars, p.newIdent(p.curToken))
	if p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if !p.expectPeek("foreach loop", token.IDENT) {
			return nil
		}
		stmt.Vars = append(stmt.Vars, p.newIdent(p.curToken))
	}
	if !p.expectPeek("foreach loop", token.IN) {
		return nil
	}
	p.nextToken()
	if stmt.Seq = p.parseExpression(LOWEST); stmt.Seq == nil {
		return nil
	}
	if !p.expectPeek("foreach loop", token.DO) {
		return nil
	}
	if stmt.Body = p.parseBlock("foreach loop", token.END); stmt.Body == nil {
		return nil
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseTry() ast.Stmt {
	stmt := track(p, &ast.Try{TryPos: p.curToken.StartPosition})
	stmt.Body = p.parseBlock("try statement", token.CATCH, token.ELSE, token.FINALLY, token.END)
	if stmt.Body == nil {
		return nil
	}
	for p.curTokenIs(token.CATCH) {
		catch := p.parseCatch()
		if catch == nil {
			return nil
		}
		stmt.Catches = append(stmt.Catches, catch)
	}
	if p.curTokenIs(token.ELSE) {
		if stmt.Else = p.parseBlock("try statement", token.FINALLY, token.END); stmt.Else == nil {
			return nil
		}
	}
	if p.curTokenIs(token.FINALLY) {
		if stmt.Finally = p.parseBlock("finally block", token.END); stmt.Finally == nil {
			return nil
		}
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseCatch() *ast.Catch {
	catch := track(p, &ast.Catch{CatchPos: p.curToken.StartPosition})
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		catch.Var = p.newIdent(p.curToken)
	}
	if p.peekTokenIs(token.IS) {
		p.nextToken()
		p.nextToken()
		if catch.Type = p.parseExpression(EQUALS); catch.Type == nil {
			return nil
		}
	}
	if !p.expectPeek("catch clause", token.DO) {
		return nil
	}
	catch.Body = p.parseBlock("catch clause", token.CATCH, token.ELSE, token.FINALLY, token.END)
	if catch.Body == nil {
		return nil
	}
	return catch
}

func (p *Parser) atStatementEnd() bool {
	return statementTerminators[p.peekToken.Type] || blockTerminators[p.peekToken.Type]
}

func (p *Parser) parseRaise() ast.Stmt {
	stmt := track(p, &ast.Raise{RaisePos: p.curToken.StartPosition})
	if p.atStatementEnd() {
		return stmt
	}
	p.nextToken()
	if stmt.Value = p.parseExpression(LOWEST); stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseUsing() ast.Stmt {
	stmt := track(p, &ast.Using{UsingPos: p.curToken.StartPosition})
	p.nextToken()
	if stmt.Object = p.parseExpression(LOWEST); stmt.Object == nil {
		return nil
	}
	if !p.expectPeek("using statement", token.DO) {
		return nil
	}
	if stmt.Body = p.parseBlock("using statement", token.END); stmt.Body == nil {
		return nil
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseDo() ast.Stmt {
	stmt := track(p, &ast.Do{DoPos: p.curToken.StartPosition})
	if stmt.Body = p.parseBlock("do block", token.END); stmt.Body == nil {
		return nil
	}
	stmt.EndPos = p.curToken.EndPosition
	return stmt
}

func (p *Parser) parseLabeled() ast.Stmt {
	stmt := track(p, &ast.Labeled{Label: p.newIdent(p.curToken)})
	p.nextToken()
	stmt.Colon = p.curToken.StartPosition
	if !p.sameLine() || statementTerminators[p.peekToken.Type] {
		p.setTokenError(errors.E1004, p.peekToken, "label %s must be followed by a statement on the same line",
			stmt.Label.Name)
		return nil
	}
	p.nextToken()
	if stmt.Stmt = p.parseStatement(); stmt.Stmt == nil {
		return nil
	}
	return stmt
}

// parseJumpLabel parses the optional label after break or continue.
func (p *Parser) parseJumpLabel() *ast.Ident {
	if p.peekTokenIs(token.IDENT) && p.sameLine() {
		p.nextToken()
		return p.newIdent(p.curToken)
	}
	return nil
}

func (p *Parser) parseBreak() ast.Stmt {
	stmt := track(p, &ast.Break{BreakPos: p.curToken.StartPosition})
	stmt.Label = p.parseJumpLabel()
	return stmt
}

func (p *Parser) parseContinue() ast.Stmt {
	stmt := track(p, &ast.Continue{ContinuePos: p.curToken.StartPosition})
	stmt.Label = p.parseJumpLabel()
	return stmt
}

func (p *Parser) parseResultValues() ([]ast.Expr, bool) {
	if p.atStatementEnd() {
		return nil, true
	}
	p.nextToken()
	values := p.parseExprList()
	return values, values != nil
}

func (p *Parser) parseReturn() ast.Stmt {
	stmt := track(p, &ast.Return{ReturnPos: p.curToken.StartPosition})
	var ok bool
	if stmt.Values, ok = p.parseResultValues(); !ok {
		return nil
	}
	return stmt
}

func (p *Parser) parseYield() ast.Stmt {
	stmt := track(p, &ast.Yield{YieldPos: p.curToken.StartPosition})
	var ok bool
	if stmt.Values, ok = p.parseResultValues(); !ok {
		return nil
	}
	return stmt
}
