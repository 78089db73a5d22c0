package parser

import (
	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/token"
)

func (p *Parser) parseInt() ast.Expr {
	tok := p.curToken
	return track(p, &ast.Int{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: tok.Int})
}

func (p *Parser) parseFloat() ast.Expr {
	tok := p.curToken
	return track(p, &ast.Float{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: tok.Float})
}

func (p *Parser) parseBoolean() ast.Expr {
	return track(p, &ast.Bool{ValuePos: p.curToken.StartPosition, Value: p.curTokenIs(token.TRUE)})
}

func (p *Parser) parseNull() ast.Expr {
	return track(p, &ast.Null{NullPos: p.curToken.StartPosition})
}

func (p *Parser) parseString() ast.Expr {
	tok := p.curToken
	return track(p, &ast.String{ValuePos: tok.StartPosition, EndPos: tok.EndPosition, Value: tok.Literal})
}

// parseStringCons parses an interpolated string. The lexer splits it into a
// STRCONS_BEGIN segment, any number of STRCONS_MID segments and a final
// STRCONS_END segment, with one embedded expression between each pair.
// Empty literal segments are dropped.
func (p *Parser) parseStringCons() ast.Expr {
	cons := track(p, &ast.StringCons{Begin: p.curToken.StartPosition})
	p.addSegment(cons)
	for {
		if err := p.nextToken(); err != nil {
			return nil
		}
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		cons.Parts = append(cons.Parts, expr)
		switch p.peekToken.Type {
		case token.STRCONS_MID:
			p.nextToken()
			p.addSegment(cons)
		case token.STRCONS_END:
			p.nextToken()
			p.addSegment(cons)
			cons.EndPos = p.curToken.EndPosition
			return cons
		default:
			if !p.hadNewError() {
				p.setTokenError(errors.E1002, p.peekToken, "unterminated string interpolation (unexpected %s)",
					tokenDescription(p.peekToken))
			}
			return nil
		}
	}
}

func (p *Parser) addSegment(cons *ast.StringCons) {
	tok := p.curToken
	if tok.Literal == "" {
		return
	}
	cons.Parts = append(cons.Parts, track(p, &ast.String{
		ValuePos: tok.StartPosition,
		EndPos:   tok.EndPosition,
		Value:    tok.Literal,
	}))
}

func (p *Parser) parseList() ast.Expr {
	list := track(p, &ast.List{Lbrack: p.curToken.StartPosition})
	for {
		p.skipPeekNewlines()
		if p.peekTokenIs(token.RBRACKET) {
			p.nextToken()
			break
		}
		p.nextToken()
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil
		}
		list.Items = append(list.Items, item)
		p.skipPeekNewlines()
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.expectPeek("list", token.RBRACKET) {
			return nil
		}
		break
	}
	list.Rbrack = p.curToken.StartPosition
	return list
}

func (p *Parser) parseMap() ast.Expr {
	m := track(p, &ast.Map{Lbrace: p.curToken.StartPosition})
	for {
		p.skipPeekNewlines()
		if p.peekTokenIs(token.RBRACE) {
			p.nextToken()
			break
		}
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if key == nil {
			return nil
		}
		if !p.expectPeek("map", token.COLON) {
			return nil
		}
		p.nextToken()
		p.eatNewlines()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		m.Items = append(m.Items, ast.MapItem{Key: key, Value: value})
		p.skipPeekNewlines()
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.expectPeek("map", token.RBRACE) {
			return nil
		}
		break
	}
	m.Rbrace = p.curToken.StartPosition
	return m
}

// parseOptionalName consumes the identifier following a function, property,
// class or package keyword, if there is one.
func (p *Parser) parseOptionalName() *ast.Ident {
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		return p.newIdent(p.curToken)
	}
	return nil
}

func (p *Parser) parseFuncLiteral() ast.Expr {
	fn := track(p, &ast.Func{FuncPos: p.curToken.StartPosition})
	fn.Name = p.parseOptionalName()
	if !p.expectPeek("function", token.LPAREN) {
		return nil
	}
	if !p.parseFuncParams(fn) {
		return nil
	}
	if fn.Body = p.parseBlock("function", token.END); fn.Body == nil {
		return nil
	}
	fn.EndPos = p.curToken.EndPosition
	return fn
}

// parseFuncParams parses a parameter list. The current token is the opening
// parenthesis; on success it is the closing one.
func (p *Parser) parseFuncParams(fn *ast.Func) bool {
	seenDefault := false
	for {
		p.skipPeekNewlines()
		if p.peekTokenIs(token.RPAREN) {
			p.nextToken()
			return true
		}
		p.nextToken()
		if p.curTokenIs(token.SPREAD) {
			fn.VarArg = true
			fn.Rest = p.parseOptionalName()
			return p.expectPeekAfterNewlines("function parameters", token.RPAREN)
		}
		if !p.curTokenIs(token.IDENT) {
			p.peekError("function parameters", token.IDENT, p.curToken)
			return false
		}
		param := track(p, &ast.Param{Name: p.newIdent(p.curToken)})
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			if param.Default = p.parseExpression(LOWEST); param.Default == nil {
				return false
			}
			seenDefault = true
		} else if seenDefault {
			p.setTokenError(errors.E1003, p.curToken, "parameter %s without a default follows a parameter with one",
				param.Name.Name)
			return false
		}
		fn.Params = append(fn.Params, param)
		p.skipPeekNewlines()
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		return p.expectPeek("function parameters", token.RPAREN)
	}
}

func (p *Parser) parsePropertyLiteral() ast.Expr {
	prop := track(p, &ast.Property{PropPos: p.curToken.StartPosition})
	prop.Name = p.parseOptionalName()
	p.nextToken()
	p.skipTerminators()
	for !p.curTokenIs(token.END) {
		accessor := p.curToken
		switch accessor.Type {
		case token.GET:
			if prop.Getter != nil {
				p.setTokenError(errors.E1003, accessor, "property already has a getter")
				return nil
			}
			fn := track(p, &ast.Func{FuncPos: accessor.StartPosition})
			if fn.Body = p.parseBlock("property getter", token.GET, token.SET, token.END); fn.Body == nil {
				return nil
			}
			fn.EndPos = p.curToken.StartPosition
			prop.Getter = fn
		case token.SET:
			if prop.Setter != nil {
				p.setTokenError(errors.E1003, accessor, "property already has a setter")
				return nil
			}
			fn := track(p, &ast.Func{FuncPos: accessor.StartPosition})
			if !p.expectPeek("property setter", token.LPAREN) || !p.expectPeek("property setter", token.IDENT) {
				return nil
			}
			fn.Params = []*ast.Param{track(p, &ast.Param{Name: p.newIdent(p.curToken)})}
			if !p.expectPeek("property setter", token.RPAREN) {
				return nil
			}
			if fn.Body = p.parseBlock("property setter", token.GET, token.SET, token.END); fn.Body == nil {
				return nil
			}
			fn.EndPos = p.curToken.StartPosition
			prop.Setter = fn
		case token.EOF, token.EOI:
			p.setTokenError(errors.E1007, accessor, "unexpected end of file while parsing property (expected 'end')")
			return nil
		default:
			p.setTokenError(errors.E1001, accessor, "unexpected %s while parsing property (expected 'get', 'set' or 'end')",
				tokenDescription(accessor))
			return nil
		}
	}
	prop.EndPos = p.curToken.EndPosition
	return prop
}

func (p *Parser) parseClassLiteral() ast.Expr {
	class := track(p, &ast.Class{ClassPos: p.curToken.StartPosition})
	class.Name = p.parseOptionalName()
	if p.peekTokenIs(token.IS) {
		p.nextToken()
		p.nextToken()
		if class.Base = p.parseExpression(EQUALS); class.Base == nil {
			return nil
		}
	}
	if class.Body = p.parseBlock("class", token.END); class.Body == nil {
		return nil
	}
	class.EndPos = p.curToken.EndPosition
	return class
}

func (p *Parser) parsePackageLiteral() ast.Expr {
	pkg := track(p, &ast.Package{PkgPos: p.curToken.StartPosition})
	pkg.Name = p.parseOptionalName()
	if pkg.Body = p.parseBlock("package", token.END); pkg.Body == nil {
		return nil
	}
	pkg.EndPos = p.curToken.EndPosition
	return pkg
}
