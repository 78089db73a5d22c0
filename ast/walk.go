package ast

import (
	"fmt"
	"iter"
)

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// Children are skipped when f returns false.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Preorder returns an iterator over all nodes of the tree rooted at root,
// parents before children.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var visit func(Node) bool
		visit = func(n Node) bool {
			if !yield(n) {
				return false
			}
			for _, child := range Children(n) {
				if !visit(child) {
					return false
				}
			}
			return true
		}
		visit(root)
	}
}

// Children returns the direct, non-nil children of a node in source order.
// Every node type in the package is handled; an unknown type panics.
func Children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if n == nil || isNilNode(n) {
				continue
			}
			out = append(out, n)
		}
	}
	switch n := node.(type) {
	case *Program:
		for _, s := range n.Stmts {
			add(s)
		}
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}

	// Statements
	case *Decl:
		add(n.Value)
	case *VarDecl:
		for _, id := range n.Names {
			add(id)
		}
		for _, v := range n.Values {
			add(v)
		}
	case *Assign:
		for _, t := range n.Targets {
			add(t)
		}
		for _, v := range n.Values {
			add(v)
		}
	case *If:
		for _, c := range n.Clauses {
			add(c.Cond, c.Body)
		}
		add(n.Else)
	case *While:
		add(n.Cond, n.Body)
	case *Repeat:
		add(n.Body, n.Cond)
	case *For:
		add(n.Var, n.From, n.To, n.Step, n.Body)
	case *ForEach:
		for _, v := range n.Vars {
			add(v)
		}
		add(n.Seq, n.Body)
	case *Try:
		add(n.Body)
		for _, c := range n.Catches {
			add(c)
		}
		add(n.Else, n.Finally)
	case *Catch:
		add(n.Var, n.Type, n.Body)
	case *Raise:
		add(n.Value)
	case *Using:
		add(n.Object, n.Body)
	case *Do:
		add(n.Body)
	case *Labeled:
		add(n.Label, n.Stmt)
	case *Break:
		add(n.Label)
	case *Continue:
		add(n.Label)
	case *Return:
		for _, v := range n.Values {
			add(v)
		}
	case *Yield:
		for _, v := range n.Values {
			add(v)
		}
	case *ExprStmt:
		add(n.X)
	case *BadStmt:

	// Expressions
	case *Ident, *Self, *Int, *Float, *String, *Bool, *Null, *BadExpr:
	case *StringCons:
		for _, p := range n.Parts {
			add(p)
		}
	case *List:
		for _, item := range n.Items {
			add(item)
		}
	case *Map:
		for _, item := range n.Items {
			add(item.Key, item.Value)
		}
	case *Prefix:
		add(n.X)
	case *Infix:
		add(n.X, n.Y)
	case *Ternary:
		add(n.Cond, n.IfTrue, n.IfFalse)
	case *Call:
		add(n.Fun)
		for _, a := range n.Args {
			add(a)
		}
		for _, kw := range n.Keywords {
			add(kw)
		}
	case *KeywordArg:
		add(n.Name, n.Value)
	case *Index:
		add(n.X, n.Index)
	case *Member:
		add(n.X, n.Name)
	case *Param:
		add(n.Name, n.Default)
	case *Func:
		add(n.Name)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Rest, n.Body)
	case *Property:
		add(n.Name, n.Getter, n.Setter)
	case *Class:
		add(n.Name, n.Base, n.Body)
	case *Package:
		add(n.Name, n.Body)
	default:
		panic(fmt.Sprintf("ast: unexpected node type %T", node))
	}
	return out
}

// isNilNode reports whether an interface holds a typed nil pointer.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Ident:
		return v == nil
	case *Func:
		return v == nil
	}
	return false
}
