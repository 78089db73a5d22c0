package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternlang/tern/internal/token"
)

func pos(line, col int) token.Position {
	return token.Position{Line: line, Column: col}
}

func ident(name string) *Ident {
	return &Ident{NamePos: pos(0, 0), Name: name}
}

func TestStrings(t *testing.T) {
	fn := &Func{
		Name:   ident("add"),
		Params: []*Param{{Name: ident("a")}, {Name: ident("b"), Default: &Int{Literal: "2", Value: 2}}},
		VarArg: true,
		Body: &Block{Stmts: []Stmt{
			&Return{Values: []Expr{&Infix{X: ident("a"), Op: "+", Y: ident("b")}}},
		}},
	}
	require.Equal(t, "function add(a, b = 2, ...) return (a + b) end", fn.String())
	require.True(t, fn.HasDefaults())

	decl := &Decl{Storage: StorageLocal, Value: fn}
	require.Equal(t, "local "+fn.String(), decl.String())
	require.Equal(t, "add", decl.Name().Name)

	cons := &StringCons{Parts: []Expr{&String{Value: "n="}, ident("n"), &String{Value: "\n"}}}
	require.Equal(t, `"n={n}\n"`, cons.String())

	call := &Call{Fun: ident("print"), Args: []Expr{&Int{Literal: "1"}}, Keywords: []*KeywordArg{{Name: ident("sep"), Value: &String{Value: ","}}}, NoParens: true}
	require.Equal(t, `print 1, sep = ","`, call.String())

	try := &Try{
		Body:    &Block{Stmts: []Stmt{&ExprStmt{X: ident("f")}}},
		Catches: []*Catch{{Var: ident("e"), Type: ident("TypeError"), Body: &Block{Stmts: []Stmt{&Raise{}}}}},
		Finally: &Block{},
	}
	require.Equal(t, "try f catch e is TypeError do raise finally end", try.String())
}

func TestPositions(t *testing.T) {
	x := &Ident{NamePos: pos(2, 4), Name: "count"}
	require.Equal(t, 9, x.End().Column)
	require.Equal(t, 3, Line(x))

	idx := &Index{X: x, Index: &Int{Literal: "0"}, Rbrack: pos(2, 11)}
	require.Equal(t, x.Pos(), idx.Pos())
	require.Equal(t, 12, idx.End().Column)

	ret := &Return{ReturnPos: pos(1, 0)}
	require.Equal(t, 6, ret.End().Column)
}

func TestInspectVisitsEveryNode(t *testing.T) {
	loop := &ForEach{
		Vars: []*Ident{ident("k"), ident("v")},
		Seq:  ident("items"),
		Body: &Block{Stmts: []Stmt{
			&If{Clauses: []*IfClause{{Cond: ident("v"), Body: &Block{Stmts: []Stmt{&Break{}}}}}},
		}},
	}
	prog := &Program{Stmts: []Stmt{&Labeled{Label: ident("outer"), Stmt: loop}}}

	var names []string
	count := 0
	Inspect(prog, func(n Node) bool {
		count++
		if id, ok := n.(*Ident); ok {
			names = append(names, id.Name)
		}
		return true
	})
	require.Equal(t, []string{"outer", "k", "v", "items", "v"}, names)
	require.Equal(t, 12, count)

	// returning false prunes the subtree
	count = 0
	Inspect(prog, func(n Node) bool {
		count++
		_, isLoop := n.(*ForEach)
		return !isLoop
	})
	require.Equal(t, 4, count)
}

func TestPreorderStops(t *testing.T) {
	prog := &Program{Stmts: []Stmt{&ExprStmt{X: ident("a")}, &ExprStmt{X: ident("b")}}}
	var seen []Node
	for n := range Preorder(prog) {
		seen = append(seen, n)
		if len(seen) == 3 {
			break
		}
	}
	require.Len(t, seen, 3)
	require.Equal(t, "a", seen[2].(*Ident).Name)
}

func TestNodeListRelease(t *testing.T) {
	var list NodeList
	list.Add(ident("a"))
	list.Add(&Null{})
	require.Equal(t, 2, list.Len())
	list.Release()
	list.Release()
	require.True(t, list.Released())
	require.Equal(t, 0, list.Len())
	list.Add(ident("late"))
	require.Equal(t, 0, list.Len())
}
