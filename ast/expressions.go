package ast

import (
	"bytes"
	"strings"

	"github.com/ternlang/tern/internal/token"
)

// Ident is an expression node that refers to a variable by name.
type Ident struct {
	NamePos token.Position // position of identifier
	Name    string         // identifier name
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

// Self refers to the receiver of the running method.
type Self struct {
	SelfPos token.Position
}

func (x *Self) exprNode() {}

func (x *Self) Pos() token.Position { return x.SelfPos }
func (x *Self) End() token.Position { return x.SelfPos.Advance(4) }
func (x *Self) String() string      { return "self" }

// Prefix is an operator expression where the operator precedes the operand.
// Examples include "not done" and "-x".
type Prefix struct {
	OpPos token.Position // position of operator
	Op    string         // operator: "-", "not", "~"
	X     Expr           // operand
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }

func (x *Prefix) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.Op)
	if x.Op == "not" {
		out.WriteString(" ")
	}
	out.WriteString(x.X.String())
	out.WriteString(")")
	return out.String()
}

// Infix is an operator expression where the operator is between the operands.
// Examples include "x + y", "a and b" and "v is T".
type Infix struct {
	X     Expr           // left operand
	OpPos token.Position // position of operator
	Op    string         // operator: "+", "and", "??", "is", etc.
	Y     Expr           // right operand
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }

func (x *Infix) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Ternary is a conditional expression "cond ? a : b".
type Ternary struct {
	Cond     Expr
	Question token.Position
	IfTrue   Expr
	IfFalse  Expr
}

func (x *Ternary) exprNode() {}

func (x *Ternary) Pos() token.Position { return x.Cond.Pos() }
func (x *Ternary) End() token.Position { return x.IfFalse.End() }

func (x *Ternary) String() string {
	return "(" + x.Cond.String() + " ? " + x.IfTrue.String() + " : " + x.IfFalse.String() + ")"
}

// KeywordArg is a "name = value" argument in a call.
type KeywordArg struct {
	Name  *Ident
	Value Expr
}

func (x *KeywordArg) Pos() token.Position { return x.Name.Pos() }
func (x *KeywordArg) End() token.Position { return x.Value.End() }
func (x *KeywordArg) String() string      { return x.Name.Name + " = " + x.Value.String() }

// Call is a function call. NoParens is set for the parenthesis-free
// statement form "f 1, 2".
type Call struct {
	Fun      Expr
	Lparen   token.Position
	Args     []Expr
	Keywords []*KeywordArg
	Rparen   token.Position
	NoParens bool
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }

func (x *Call) End() token.Position {
	if x.NoParens {
		switch {
		case len(x.Keywords) > 0:
			return x.Keywords[len(x.Keywords)-1].End()
		case len(x.Args) > 0:
			return x.Args[len(x.Args)-1].End()
		}
		return x.Fun.End()
	}
	return x.Rparen.Advance(1)
}

func (x *Call) String() string {
	args := make([]string, 0, len(x.Args)+len(x.Keywords))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	for _, kw := range x.Keywords {
		args = append(args, kw.String())
	}
	if x.NoParens {
		return x.Fun.String() + " " + strings.Join(args, ", ")
	}
	return x.Fun.String() + "(" + strings.Join(args, ", ") + ")"
}

// Index is an index expression "x[i]".
type Index struct {
	X      Expr
	Lbrack token.Position
	Index  Expr
	Rbrack token.Position
}

func (x *Index) exprNode() {}

func (x *Index) Pos() token.Position { return x.X.Pos() }
func (x *Index) End() token.Position { return x.Rbrack.Advance(1) }

func (x *Index) String() string {
	return x.X.String() + "[" + x.Index.String() + "]"
}

// Member is a member access "x.name".
type Member struct {
	X      Expr
	Period token.Position
	Name   *Ident
}

func (x *Member) exprNode() {}

func (x *Member) Pos() token.Position { return x.X.Pos() }
func (x *Member) End() token.Position { return x.Name.End() }

func (x *Member) String() string {
	return x.X.String() + "." + x.Name.Name
}
