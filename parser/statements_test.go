package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternlang/tern/ast"
)

func TestStatementRoundTrip(t *testing.T) {
	tests := []string{
		"local x, y = 1, 2",
		"global g",
		"if a then b() elseif c then d() else e() end",
		"while (x < 10) do x += 1 end",
		"repeat x += 1 until (x > 3)",
		"for i = 1 to 10 step 2 do print i end",
		"foreach k, v in m do end",
		"try f() catch e is Error do g() catch do h() else i() finally j() end",
		"using obj do x = 1 end",
		"do local x = 1 end",
		"outer: while true do break outer end",
		"while true do continue end",
		"class A is B member x = 1 end",
		"package P function f() end end",
		"a, b = b, a",
		"obj.items[i] ..= \"!\"",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			program := parseOK(t, input)
			require.Len(t, program.Stmts, 1)
			require.Equal(t, input, program.Stmts[0].String())
		})
	}
}

func TestDeclarations(t *testing.T) {
	program := parseOK(t, `
function f(a) return a end
local function g() end
global class C end
member property p get return 1 end
package P end
`)
	require.Len(t, program.Stmts, 5)

	storages := []ast.Storage{
		ast.StorageDefault, ast.StorageLocal, ast.StorageGlobal, ast.StorageMember, ast.StorageDefault,
	}
	names := []string{"f", "g", "C", "p", "P"}
	for i, stmt := range program.Stmts {
		decl, ok := stmt.(*ast.Decl)
		require.True(t, ok, "statement %d is %T", i, stmt)
		require.Equal(t, storages[i], decl.Storage)
		require.Equal(t, names[i], decl.Name().Name)
	}
	require.Equal(t, 3, program.Stmts[1].Pos().LineNumber())
	require.Equal(t, 1, program.Stmts[1].Pos().ColumnNumber())
}

func TestParenFreeCall(t *testing.T) {
	program := parseOK(t, "print \"a\", x, sep = \" \"\nprint(1)\nf -1\n")
	require.Len(t, program.Stmts, 3)

	call := program.Stmts[0].(*ast.ExprStmt).X.(*ast.Call)
	require.True(t, call.NoParens)
	require.Len(t, call.Args, 2)
	require.Len(t, call.Keywords, 1)
	require.Equal(t, "sep", call.Keywords[0].Name.Name)

	call = program.Stmts[1].(*ast.ExprStmt).X.(*ast.Call)
	require.False(t, call.NoParens)

	// A minus sign after a name is subtraction, not an argument.
	infix := program.Stmts[2].(*ast.ExprStmt).X.(*ast.Infix)
	require.Equal(t, "-", infix.Op)
}

func TestReturnAndYield(t *testing.T) {
	program := parseOK(t, "function f()\n  yield 1, 2\n  return\nend")
	fn := program.Stmts[0].(*ast.Decl).Value.(*ast.Func)
	require.Len(t, fn.Body.Stmts, 2)
	require.Len(t, fn.Body.Stmts[0].(*ast.Yield).Values, 2)
	require.Empty(t, fn.Body.Stmts[1].(*ast.Return).Values)

	program = parseOK(t, "if x then return end")
	ifStmt := program.Stmts[0].(*ast.If)
	require.Empty(t, ifStmt.Clauses[0].Body.Stmts[0].(*ast.Return).Values)
}

func TestTryClauses(t *testing.T) {
	program := parseOK(t, `
try
  risky()
catch e is IOError do
  log(e)
catch do
  raise
finally
  cleanup()
end
`)
	stmt := program.Stmts[0].(*ast.Try)
	require.Len(t, stmt.Catches, 2)
	require.Equal(t, "e", stmt.Catches[0].Var.Name)
	require.Equal(t, "IOError", stmt.Catches[0].Type.String())
	require.Nil(t, stmt.Catches[1].Var)
	require.Nil(t, stmt.Catches[1].Type)
	require.Nil(t, stmt.Catches[1].Body.Stmts[0].(*ast.Raise).Value)
	require.Nil(t, stmt.Else)
	require.NotNil(t, stmt.Finally)
}

func TestLabels(t *testing.T) {
	program := parseOK(t, "outer: foreach x in xs do\n  inner: for i = 1 to 3 do\n    continue outer\n  end\nend")
	labeled := program.Stmts[0].(*ast.Labeled)
	require.Equal(t, "outer", labeled.Label.Name)
	loop := labeled.Stmt.(*ast.ForEach)
	inner := loop.Body.Stmts[0].(*ast.Labeled)
	require.Equal(t, "inner", inner.Label.Name)
	cont := inner.Stmt.(*ast.For).Body.Stmts[0].(*ast.Continue)
	require.Equal(t, "outer", cont.Label.Name)

	// A label on a statement that is not a loop still parses.
	program = parseOK(t, "here: x = 1")
	require.IsType(t, &ast.Assign{}, program.Stmts[0].(*ast.Labeled).Stmt)
}

func TestNestedBlockRecovery(t *testing.T) {
	program, err := Parse(context.Background(), "while x do\n  y = )\nend\nz = 1\n")
	require.Error(t, err)
	require.Len(t, program.Stmts, 1)
	require.Equal(t, "z = 1", program.Stmts[0].String())
}
