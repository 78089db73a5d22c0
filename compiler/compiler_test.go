package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/op"
)

func compileOK(t *testing.T, src string) *Unit {
	t.Helper()
	unit, err := New(Config{Filename: "test.tern"}).Compile(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, unit)
	return unit
}

func compileFault(t *testing.T, cfg Config, src string) *errors.CompileError {
	t.Helper()
	_, err := New(cfg).Compile(context.Background(), src)
	require.Error(t, err)
	var ce *errors.CompileError
	require.ErrorAs(t, err, &ce)
	return ce
}

type word struct {
	op   op.Code
	a, b int
}

func words(def *bytecode.Def) []word {
	out := make([]word, def.BytecodeLength())
	for i := range out {
		code, a, b := op.Decode(def.CodeAt(i))
		out[i] = word{code, a, b}
	}
	return out
}

func opcodes(def *bytecode.Def) []op.Code {
	var out []op.Code
	for _, w := range words(def) {
		out = append(out, w.op)
	}
	return out
}

func countOp(def *bytecode.Def, code op.Code) int {
	n := 0
	for _, w := range words(def) {
		if w.op == code {
			n++
		}
	}
	return n
}

// hasNamed reports whether def contains code with a B operand naming name
// in the literal pool.
func hasNamed(def *bytecode.Def, code op.Code, name string) bool {
	for _, w := range words(def) {
		if w.op != code {
			continue
		}
		if lit := def.Pool().At(w.b); lit.Kind == bytecode.StringLiteral && lit.Str == name {
			return true
		}
	}
	return false
}

func findDef(t *testing.T, unit *Unit, name string) *bytecode.Def {
	t.Helper()
	var found *bytecode.Def
	unit.Root.Walk(func(d *bytecode.Def) {
		if d.Name() == name && found == nil {
			found = d
		}
	})
	require.NotNil(t, found, "no function named %q", name)
	return found
}

func TestFoldedLocalInitializer(t *testing.T) {
	unit := compileOK(t, "local x = 1 + 2")
	code := words(unit.Root)
	require.Equal(t, []op.Code{op.PushLit, op.DeclLocal, op.PushNull, op.Return}, opcodes(unit.Root))

	lit := unit.Pool.At(code[0].b)
	require.Equal(t, bytecode.IntLiteral, lit.Kind)
	require.Equal(t, int64(3), lit.Int)
	require.Equal(t, 0, code[1].b)
	require.Equal(t, 1, unit.Root.NumLocals())
	require.Equal(t, 1, unit.Folds)
}

func TestNumericForLoop(t *testing.T) {
	unit := compileOK(t, "for i = 1 to 5 do\n  total = i\nend")
	root := unit.Root
	require.Equal(t, 3, root.NumLocals())
	require.Equal(t, []op.Code{
		op.PushLit, op.DeclLocal,
		op.PushLit, op.DeclLocal,
		op.PushLit, op.DeclLocal,
		op.ForCheck, op.JumpIfFalse,
		op.LoadLocal, op.StoreGlobal,
		op.ForStep, op.Jump,
		op.EndLocal, op.EndLocal, op.EndLocal,
		op.PushNull, op.Return,
	}, opcodes(root))

	code := words(root)
	require.Equal(t, []int{0, 1, 2}, []int{code[1].b, code[3].b, code[5].b})
	// The backward jump returns to the loop check.
	require.Equal(t, op.Jump, code[11].op)
	require.Equal(t, 6, code[11].b)
	require.Equal(t, op.ForCheck, code[code[11].b].op)
	// The exit branch leaves the loop.
	require.Equal(t, 12, code[7].b)
}

func TestTypedCatchAndReraise(t *testing.T) {
	unit := compileOK(t, `
function f()
  try
    g()
  catch e is TypeError do
    raise
  catch e do
    h(e)
  end
end
`)
	f := findDef(t, unit, "f")
	require.Equal(t, 1, countOp(f, op.PushHandler))
	require.Equal(t, 1, countOp(f, op.PopHandler))
	require.Equal(t, 1, countOp(f, op.Dup))
	require.Equal(t, 1, countOp(f, op.Is))
	require.True(t, hasNamed(f, op.LoadGlobal, "TypeError"))
	require.Equal(t, 2, f.NumLocals())

	code := words(f)
	var decls []int
	reraise := -1
	for i, w := range code {
		if w.op == op.DeclLocal {
			decls = append(decls, w.b)
		}
		if w.op == op.Raise && i > 0 && code[i-1].op == op.LoadLocal {
			reraise = code[i-1].b
		}
	}
	// One binding per clause, each in its own slot.
	require.Equal(t, []int{0, 1}, decls)
	// The bare raise rethrows the value bound by the typed clause.
	require.Equal(t, 0, reraise)
}

func TestBreakOutsideLoop(t *testing.T) {
	ce := compileFault(t, Config{}, "function f()\n  break\nend")
	require.Equal(t, errors.E2003, ce.Code)
	require.Equal(t, 2, ce.Line)
	require.Contains(t, ce.Message, "break outside of a loop")

	ce = compileFault(t, Config{}, "continue")
	require.Equal(t, errors.E2004, ce.Code)
}

func TestStringLiteralsShared(t *testing.T) {
	unit := compileOK(t, "a = \"x\"\nb = \"x\"\nc = \"y\"")
	var lits []int
	for _, w := range words(unit.Root) {
		if w.op == op.PushLit {
			lits = append(lits, w.b)
		}
	}
	require.Len(t, lits, 3)
	require.Equal(t, lits[0], lits[1])
	require.NotEqual(t, lits[0], lits[2])
}

func TestShadowing(t *testing.T) {
	unit := compileOK(t, `
function f()
  local x = 1
  do
    local x = 2
    g(x)
  end
  local x = 3
  return x
end
`)
	f := findDef(t, unit, "f")
	require.Equal(t, 3, f.NumLocals())

	code := words(f)
	var decls, loads []int
	for _, w := range code {
		switch w.op {
		case op.DeclLocal:
			decls = append(decls, w.b)
		case op.LoadLocal:
			loads = append(loads, w.b)
		}
	}
	require.Equal(t, []int{0, 1, 2}, decls)
	require.Equal(t, []int{1, 2}, loads)
	require.Equal(t, 1, countOp(f, op.EndLocal))
}

func TestMustCloseChain(t *testing.T) {
	unit := compileOK(t, `
function outer()
  local v = 1
  function middle()
    function inner()
      return v
    end
    return inner
  end
  return middle
end
function other()
  return 1
end
`)
	require.False(t, unit.Root.MustClose())
	require.False(t, findDef(t, unit, "outer").MustClose())
	require.True(t, findDef(t, unit, "middle").MustClose())
	require.False(t, findDef(t, unit, "other").MustClose())

	inner := findDef(t, unit, "inner")
	require.True(t, inner.MustClose())
	require.Contains(t, words(inner), word{op.LoadOuter, 2, 0})
}

func TestStorageDefaults(t *testing.T) {
	unit := compileOK(t, `
x = 1
function f()
  y = 2
end
class C
  z = 3
end
using obj do
  w = 4
  q = w + u
end
`)
	root := unit.Root
	require.True(t, hasNamed(root, op.StoreGlobal, "x"))
	require.True(t, hasNamed(root, op.StoreGlobal, "f"))
	require.True(t, hasNamed(root, op.StoreGlobal, "C"))
	require.True(t, hasNamed(root, op.StoreMember, "z"))
	require.True(t, hasNamed(root, op.StoreGlobal, "w"))
	require.True(t, hasNamed(root, op.LoadGlobal, "w"))
	require.True(t, hasNamed(root, op.LoadMember, "u"))
	require.Equal(t, 2, countOp(root, op.EnterWith))
	require.Equal(t, 2, countOp(root, op.ExitWith))

	f := findDef(t, unit, "f")
	require.Contains(t, words(f), word{op.DeclLocal, 0, 0})
	require.Equal(t, 1, f.NumLocals())
}

func TestClassDeclarationBalancesStack(t *testing.T) {
	unit := compileOK(t, "class A is B\n  function m() return self end\nend")
	require.Equal(t, []op.Code{
		op.PushScope, op.LoadGlobal, op.NewClass, op.Dup, op.StoreGlobal, op.EnterWith,
		op.MakeFunc, op.StoreMember, op.ExitWith, op.PushNull, op.Return,
	}, opcodes(unit.Root))
	require.Equal(t, 2, unit.Root.MaxStack())

	m := findDef(t, unit, "m")
	require.Equal(t, []op.Code{op.PushSelf, op.Return, op.PushNull, op.Return}, opcodes(m))
}

func TestResolutionFaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		src  string
		code errors.ErrorCode
	}{
		{"bare raise", Config{}, "raise", errors.E2002},
		{"duplicate parameter", Config{}, "function f(a, a) end", errors.E2005},
		{"too many arguments", Config{Limits: Limits{MaxArgs: 2}}, "f(1, 2, 3)", errors.E2006},
		{"too many method arguments", Config{Limits: Limits{MaxArgs: 2}}, "o.m(1, 2)", errors.E2006},
		{"too many parameters", Config{Limits: Limits{MaxArgs: 1}}, "function f(a, b) end", errors.E2006},
		{"too many keywords", Config{Limits: Limits{MaxKeywordArgs: 1}}, "f(a = 1, b = 2)", errors.E2007},
		{"too many results", Config{Limits: Limits{MaxReturnValues: 1}}, "function f() return 1, 2 end", errors.E2008},
		{"catch after catch-all", Config{}, "try f() catch do g() catch e is T do h() end", errors.E2009},
		{"global then local", Config{}, "global g\nlocal g = 1", errors.E2011},
		{"member outside with", Config{}, "member m = 1", errors.E2012},
		{"self outside function", Config{}, "x = self", errors.E2013},
		{"return in class", Config{}, "class C\n  return 1\nend", errors.E2014},
		{"yield in package", Config{}, "package P\n  yield\nend", errors.E2014},
		{"nesting too deep", Config{Limits: Limits{MaxFunctionDepth: 2}},
			"function a()\n function b()\n  function c() end\n end\nend", errors.E1012},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ce := compileFault(t, tc.cfg, tc.src)
			require.Equal(t, tc.code, ce.Code)
		})
	}
}

func TestUnknownLabelSuggestion(t *testing.T) {
	ce := compileFault(t, Config{Filename: "loop.tern"}, "outer: while true do\n  break outr\nend")
	require.Equal(t, errors.E2001, ce.Code)
	require.Equal(t, errors.Resolution, ce.Kind)
	require.Equal(t, "loop.tern", ce.Filename)
	require.Equal(t, 2, ce.Line)
	require.Equal(t, "  break outr", ce.SourceLine)
	require.NotEmpty(t, ce.Suggestions)
	require.Equal(t, "outer", ce.Suggestions[0].Value)
}

func TestLabeledBreakLeavesOuterLoop(t *testing.T) {
	unit := compileOK(t, "outer: while a do\n  while b do\n    break outer\n  end\nend")
	code := words(unit.Root)
	require.Equal(t, []op.Code{
		op.LoadGlobal, op.JumpIfFalse,
		op.LoadGlobal, op.JumpIfFalse,
		op.Jump, op.Jump,
		op.Jump,
		op.PushNull, op.Return,
	}, opcodes(unit.Root))
	require.Equal(t, 7, code[4].b)
	require.Equal(t, 6, code[3].b)
	require.Equal(t, 2, code[5].b)
	require.Equal(t, 0, code[6].b)
}

func TestWarnings(t *testing.T) {
	unit := compileOK(t, "here: x = 1")
	require.Len(t, unit.Warnings, 1)
	require.Equal(t, errors.W1001, unit.Warnings[0].Code)

	unit = compileOK(t, "function f()\n  return 1\n  g()\n  h()\nend")
	require.Len(t, unit.Warnings, 1)
	require.Equal(t, errors.W1003, unit.Warnings[0].Code)
	require.Equal(t, 3, unit.Warnings[0].Line)

	unit = compileOK(t, "while true do\n  try\n    f()\n  finally\n    break\n  end\nend")
	require.Len(t, unit.Warnings, 1)
	require.Equal(t, errors.W1002, unit.Warnings[0].Code)
}

func TestTailCall(t *testing.T) {
	unit := compileOK(t, "function f(n)\n  return g(n - 1)\nend")
	f := findDef(t, unit, "f")
	require.Equal(t, 1, countOp(f, op.TailCall))
	require.Equal(t, 0, countOp(f, op.Call))

	unit = compileOK(t, "function f()\n  try\n    return g()\n  catch do\n  end\nend")
	f = findDef(t, unit, "f")
	require.Equal(t, 0, countOp(f, op.TailCall))
	require.Equal(t, 1, countOp(f, op.Call))
	// The handler is popped before the value leaves the function.
	require.Equal(t, 2, countOp(f, op.PopHandler))
}

func TestFunctionFlags(t *testing.T) {
	unit := compileOK(t, `
function gen(a, b = 2, ...rest)
  yield a, b
end
`)
	gen := findDef(t, unit, "gen")
	require.Equal(t, 2, gen.NumArgs())
	require.Equal(t, 3, gen.NumLocals())
	require.True(t, gen.IsGenerator())
	require.True(t, gen.IsKeyword())
	require.True(t, gen.IsVarArg())
	require.Equal(t, unit.ID, gen.UnitID())
	require.Equal(t, "test.tern", gen.Filename())
	require.Same(t, unit.Root, gen.Parent())
	// The default value is evaluated where the function is created.
	var made bool
	for _, w := range words(unit.Root) {
		if w.op == op.MakeFunc {
			require.Equal(t, 1, w.a)
			require.Same(t, gen, unit.Pool.At(w.b).Def)
			made = true
		}
	}
	require.True(t, made)
}

func TestLineTableAndLocals(t *testing.T) {
	unit := compileOK(t, "function f(a)\n  local b = a\n  do\n    local c = b\n  end\n  return b\nend")
	f := findDef(t, unit, "f")
	require.Equal(t, 2, f.LineAt(0))
	require.Equal(t, 6, f.LineAt(f.BytecodeLength()-3))

	names := map[string]bytecode.LocalRange{}
	for i := 0; i < f.LocalCount(); i++ {
		r := f.LocalAt(i)
		names[r.Name] = r
	}
	require.Len(t, names, 3)
	require.Equal(t, 0, names["a"].Start)
	require.Equal(t, f.BytecodeLength(), names["a"].End)
	require.Less(t, names["c"].End, f.BytecodeLength())
	require.Equal(t, "b", f.LocalName(1, names["c"].End))
}

func TestCompilerCounters(t *testing.T) {
	c := New(Config{})
	_, err := c.Compile(context.Background(), "raise")
	require.Error(t, err)
	_, err = c.Compile(context.Background(), "member m = 1")
	require.Error(t, err)
	_, err = c.Compile(context.Background(), "here: x = 1")
	require.NoError(t, err)
	require.Equal(t, 2, c.Errors())
	require.Equal(t, 1, c.Warnings())
	require.Equal(t, DefaultName, c.Config().Name)
	require.Equal(t, DefaultLimits(), c.Config().Limits)
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Compile(ctx, "x = 1\ny = 2")
	require.Error(t, err)
	require.False(t, errors.IsRecoverable(err))
}

func TestReturnThroughFinally(t *testing.T) {
	unit := compileOK(t, `
function f()
  try
    return g()
  finally
    h()
  end
end
`)
	f := findDef(t, unit, "f")
	require.Equal(t, []op.Code{
		op.PushFinally,
		op.LoadGlobal, op.Call, op.DeclLocal,
		op.PopFinally, op.CallFinally, op.LoadLocal, op.Return,
		op.PopFinally, op.CallFinally, op.Jump,
		op.DeclLocal, op.CallFinally, op.LoadLocal, op.Raise,
		op.LoadGlobal, op.Call, op.Pop, op.RetFinally,
		op.PushNull, op.Return,
	}, opcodes(f))
	require.Equal(t, 0, countOp(f, op.TailCall))
	require.Equal(t, 1, countOp(f, op.RetFinally))
	require.Equal(t, 2, f.NumLocals())
	require.Equal(t, 2, f.MaxStack())

	code := words(f)
	// The exception entry saves the raised value, runs the block and
	// raises it again.
	require.Equal(t, 11, code[0].b)
	require.Equal(t, word{op.DeclLocal, 0, 1}, code[11])
	require.Equal(t, word{op.LoadLocal, 0, 1}, code[13])
	// Every path calls the same finally block.
	for _, i := range []int{5, 9, 12} {
		require.Equal(t, 15, code[i].b, "call at %d", i)
	}
	// The returned value is parked while the block runs.
	require.Equal(t, word{op.DeclLocal, 0, 0}, code[3])
	require.Equal(t, word{op.LoadLocal, 0, 0}, code[6])
	require.Equal(t, 19, code[10].b)
}

func TestBreakOutOfUsing(t *testing.T) {
	unit := compileOK(t, "while a do\n  using o do\n    break\n  end\nend")
	root := unit.Root
	require.Equal(t, []op.Code{
		op.LoadGlobal, op.JumpIfFalse,
		op.LoadGlobal, op.EnterWith,
		op.ExitWith, op.Jump,
		op.ExitWith, op.Jump,
		op.PushNull, op.Return,
	}, opcodes(root))
	require.Equal(t, 1, root.MaxStack())

	code := words(root)
	require.Equal(t, word{op.Jump, 0, 8}, code[5])
	require.Equal(t, 8, code[1].b)
	require.Equal(t, word{op.Jump, 0, 0}, code[7])
}

func TestReturnOutOfUsing(t *testing.T) {
	unit := compileOK(t, "function f()\n  using o do\n    return 1\n  end\nend")
	f := findDef(t, unit, "f")
	require.Equal(t, []op.Code{
		op.LoadGlobal, op.EnterWith,
		op.PushLit, op.DeclLocal, op.ExitWith, op.LoadLocal, op.Return,
		op.ExitWith,
		op.PushNull, op.Return,
	}, opcodes(f))
	require.Equal(t, 1, f.MaxStack())
}

func TestForEachContinue(t *testing.T) {
	unit := compileOK(t, "foreach k, v in m do\n  if k then\n    continue\n  end\nend")
	root := unit.Root
	require.Equal(t, []op.Code{
		op.LoadGlobal, op.GetIter, op.DeclLocal,
		op.LoadLocal, op.IterNext, op.DeclLocal, op.DeclLocal,
		op.LoadLocal, op.JumpIfFalse, op.Jump,
		op.EndLocal, op.EndLocal, op.Jump,
		op.EndLocal,
		op.PushNull, op.Return,
	}, opcodes(root))
	require.Equal(t, 3, root.NumLocals())
	require.Equal(t, 2, root.MaxStack())

	code := words(root)
	require.Equal(t, word{op.DeclLocal, 0, 0}, code[2])
	require.Equal(t, word{op.IterNext, 2, 13}, code[4])
	// The last value is on top, so v is bound first.
	require.Equal(t, word{op.DeclLocal, 0, 2}, code[5])
	require.Equal(t, word{op.DeclLocal, 0, 1}, code[6])
	// continue lands on the EndLocal pair that closes the loop variables.
	require.Equal(t, word{op.Jump, 0, 10}, code[9])
	require.Equal(t, 10, code[8].b)
	require.Equal(t, word{op.EndLocal, 0, 2}, code[10])
	require.Equal(t, word{op.EndLocal, 0, 1}, code[11])
	require.Equal(t, word{op.Jump, 0, 3}, code[12])
	require.Equal(t, word{op.EndLocal, 0, 0}, code[13])
}

func TestStoreToEnclosingLocal(t *testing.T) {
	unit := compileOK(t, "function o()\n  local x\n  function i()\n    x = 1\n  end\nend")
	require.Contains(t, words(findDef(t, unit, "o")), word{op.DeclLocal, 0, 0})

	i := findDef(t, unit, "i")
	require.Equal(t, []op.Code{op.PushLit, op.StoreOuter, op.PushNull, op.Return}, opcodes(i))
	require.Equal(t, word{op.StoreOuter, 1, 0}, words(i)[1])
	require.Equal(t, 0, i.NumLocals())
	require.Equal(t, 1, i.MaxStack())
	require.True(t, i.MustClose())
}

func TestMultipleAssignment(t *testing.T) {
	unit := compileOK(t, "a, b = t")
	require.Equal(t, []op.Code{
		op.LoadGlobal, op.Unpack, op.StoreGlobal, op.StoreGlobal, op.PushNull, op.Return,
	}, opcodes(unit.Root))
	code := words(unit.Root)
	require.Equal(t, word{op.Unpack, 0, 2}, code[1])
	require.Equal(t, "b", unit.Pool.At(code[2].b).Str)
	require.Equal(t, "a", unit.Pool.At(code[3].b).Str)
	require.Equal(t, 2, unit.Root.MaxStack())

	unit = compileOK(t, "x, y, z = 1, 2")
	require.Equal(t, []op.Code{
		op.PushLit, op.PushLit, op.PushNull,
		op.StoreGlobal, op.StoreGlobal, op.StoreGlobal,
		op.PushNull, op.Return,
	}, opcodes(unit.Root))
	require.Equal(t, 3, unit.Root.MaxStack())
}

func TestAssignmentTargetsBeforeStores(t *testing.T) {
	unit := compileOK(t, "a[i], i = 1, 2")
	root := unit.Root
	require.Equal(t, []op.Code{
		op.PushLit, op.PushLit,
		op.LoadGlobal, op.DeclLocal, op.LoadGlobal, op.DeclLocal,
		op.StoreGlobal,
		op.LoadLocal, op.LoadLocal, op.SetIndex,
		op.PushNull, op.Return,
	}, opcodes(root))
	code := words(root)
	// i is read for the index before it is assigned.
	require.Equal(t, "i", unit.Pool.At(code[4].b).Str)
	require.Equal(t, "i", unit.Pool.At(code[6].b).Str)
	require.Equal(t, []int{0, 1}, []int{code[7].b, code[8].b})
	require.Equal(t, 2, root.NumLocals())
	require.Equal(t, 3, root.MaxStack())

	unit = compileOK(t, "o.f, o = 1, 2")
	require.Equal(t, []op.Code{
		op.PushLit, op.PushLit,
		op.LoadGlobal, op.DeclLocal,
		op.StoreGlobal,
		op.LoadLocal, op.SetField,
		op.PushNull, op.Return,
	}, opcodes(unit.Root))
	require.True(t, hasNamed(unit.Root, op.SetField, "f"))

	// A single target keeps the direct form.
	unit = compileOK(t, "a[i] = 1")
	require.Equal(t, []op.Code{
		op.PushLit, op.LoadGlobal, op.LoadGlobal, op.SetIndex, op.PushNull, op.Return,
	}, opcodes(unit.Root))
}
