package parser

import (
	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/token"
)

func operatorText(t token.Token) string {
	if text, ok := token.KeywordText(t.Type); ok {
		return text
	}
	return string(t.Type)
}

func (p *Parser) parseIdent() ast.Expr {
	return p.newIdent(p.curToken)
}

func (p *Parser) parseSelf() ast.Expr {
	return track(p, &ast.Self{SelfPos: p.curToken.StartPosition})
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	opToken := p.curToken
	if err := p.nextToken(); err != nil {
		return nil
	}
	right := p.parseExpression(PREFIX)
	if right == nil {
		if !p.hadNewError() {
			p.setTokenError(errors.E1004, opToken, "invalid prefix expression")
		}
		return nil
	}
	return track(p, &ast.Prefix{OpPos: opToken.StartPosition, Op: operatorText(opToken), X: right})
}

func (p *Parser) parseInfixExpr(leftNode ast.Expr) ast.Expr {
	opToken := p.curToken
	precedence := p.currentPrecedence()
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		if !p.hadNewError() {
			p.setTokenError(errors.E1004, opToken, "invalid syntax: missing right operand of %s",
				operatorText(opToken))
		}
		return nil
	}
	return track(p, &ast.Infix{X: leftNode, OpPos: opToken.StartPosition, Op: operatorText(opToken), Y: right})
}

func (p *Parser) parseTernary(condition ast.Expr) ast.Expr {
	question := p.curToken.StartPosition
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	ifTrue := p.parseExpression(LOWEST)
	if ifTrue == nil {
		return nil
	}
	if !p.expectPeekAfterNewlines("ternary expression", token.COLON) {
		return nil
	}
	p.nextToken()
	p.eatNewlines()
	// Right-associative: a ? b : c ? d : e groups as a ? b : (c ? d : e)
	ifFalse := p.parseExpression(NULLISH)
	if ifFalse == nil {
		return nil
	}
	return track(p, &ast.Ternary{Cond: condition, Question: question, IfTrue: ifTrue, IfFalse: ifFalse})
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !p.expectPeekAfterNewlines("grouped expression", token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	call := track(p, &ast.Call{Fun: fn, Lparen: p.curToken.StartPosition})
	p.skipPeekNewlines()
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		call.Rparen = p.curToken.StartPosition
		return call
	}
	for {
		p.nextToken()
		p.eatNewlines()
		if !p.parseCallArg(call) {
			return nil
		}
		p.skipPeekNewlines()
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		// Trailing comma
		p.skipPeekNewlines()
		if p.peekTokenIs(token.RPAREN) {
			break
		}
	}
	if !p.expectPeek("call arguments", token.RPAREN) {
		return nil
	}
	call.Rparen = p.curToken.StartPosition
	return call
}

// parseCallArg parses one positional or keyword argument starting at the
// current token and appends it to the call.
func (p *Parser) parseCallArg(call *ast.Call) bool {
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
		name := p.newIdent(p.curToken)
		p.nextToken()
		p.nextToken()
		p.eatNewlines()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return false
		}
		call.Keywords = append(call.Keywords, track(p, &ast.KeywordArg{Name: name, Value: value}))
		return true
	}
	if len(call.Keywords) > 0 {
		p.setTokenError(errors.E1003, p.curToken, "positional argument follows keyword argument")
		return false
	}
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return false
	}
	call.Args = append(call.Args, arg)
	return true
}

func (p *Parser) parseIndex(left ast.Expr) ast.Expr {
	node := track(p, &ast.Index{X: left, Lbrack: p.curToken.StartPosition})
	if err := p.nextToken(); err != nil {
		return nil
	}
	p.eatNewlines()
	if node.Index = p.parseExpression(LOWEST); node.Index == nil {
		return nil
	}
	if !p.expectPeekAfterNewlines("index expression", token.RBRACKET) {
		return nil
	}
	node.Rbrack = p.curToken.StartPosition
	return node
}

func (p *Parser) parseMember(left ast.Expr) ast.Expr {
	period := p.curToken.StartPosition
	if !p.expectPeek("member access", token.IDENT) {
		return nil
	}
	return track(p, &ast.Member{X: left, Period: period, Name: p.newIdent(p.curToken)})
}

// skipPeekNewlines advances while the lookahead token is a newline, leaving
// the last newline as the current token.
func (p *Parser) skipPeekNewlines() {
	for p.peekTokenIs(token.NEWLINE) {
		if err := p.nextToken(); err != nil {
			return
		}
	}
}
