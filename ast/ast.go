// Package ast defines the abstract syntax tree representation of tern code.
package ast

import (
	"strings"

	"github.com/ternlang/tern/internal/token"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the source code.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() token.Position

	// End returns the position of the first character immediately after the node.
	End() token.Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node. Statements cause side effects but
// do not evaluate to a value.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value
// and may be embedded within other expressions.
type Expr interface {
	Node
	exprNode()
}

// Line returns the 1-indexed source line on which a node starts.
func Line(n Node) int {
	return n.Pos().LineNumber()
}

// BadExpr represents an expression containing syntax errors.
type BadExpr struct {
	From token.Position // start of bad expression
	To   token.Position // end of bad expression
}

func (x *BadExpr) exprNode() {}

func (x *BadExpr) Pos() token.Position { return x.From }
func (x *BadExpr) End() token.Position { return x.To }
func (x *BadExpr) String() string      { return "<bad expression>" }

// BadStmt represents a statement containing syntax errors.
type BadStmt struct {
	From token.Position // start of bad statement
	To   token.Position // end of bad statement
}

func (x *BadStmt) stmtNode() {}

func (x *BadStmt) Pos() token.Position { return x.From }
func (x *BadStmt) End() token.Position { return x.To }
func (x *BadStmt) String() string      { return "<bad statement>" }

// Program is the root node of a parsed compile unit.
type Program struct {
	Stmts []Stmt
}

func (p *Program) Pos() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return token.NoPos
}

func (p *Program) End() token.Position {
	if n := len(p.Stmts); n > 0 {
		return p.Stmts[n-1].End()
	}
	return token.NoPos
}

func (p *Program) String() string {
	lines := make([]string, 0, len(p.Stmts))
	for _, s := range p.Stmts {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

// NodeList records every node created while parsing one compile unit, so a
// session can drop the whole tree in one sweep wherever parsing stopped.
// Release may be called any number of times.
type NodeList struct {
	nodes    []Node
	released bool
}

// Add registers a node and returns it.
func (l *NodeList) Add(n Node) Node {
	if !l.released {
		l.nodes = append(l.nodes, n)
	}
	return n
}

// Len returns the number of registered nodes.
func (l *NodeList) Len() int {
	return len(l.nodes)
}

// Nodes returns the registered nodes in construction order.
func (l *NodeList) Nodes() []Node {
	return l.nodes
}

// Release drops all registered nodes.
func (l *NodeList) Release() {
	for i := range l.nodes {
		l.nodes[i] = nil
	}
	l.nodes = nil
	l.released = true
}

// Released reports whether Release has been called.
func (l *NodeList) Released() bool {
	return l.released
}
