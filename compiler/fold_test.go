package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/op"
)

func TestFoldArithmetic(t *testing.T) {
	tests := []struct {
		expr  string
		isInt bool
		i     int64
		f     float64
	}{
		{"2 * 3", true, 6, 0},
		{"10 - 4 - 3", true, 3, 0},
		{"1 + 2 * 3", true, 7, 0},
		{"6 / 3", true, 2, 0},
		{"7 / 2", false, 0, 3.5},
		{"7 // 2", true, 3, 0},
		{"-7 // 2", true, -4, 0},
		{"-7 % 3", true, 2, 0},
		{"7 % -3", true, -2, 0},
		{"1.5 + 1", false, 0, 2.5},
		{"0.5 * 4", false, 0, 2},
		{"-(2.5)", false, 0, -2.5},
		{"7.5 // 2", false, 0, 3},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			unit := compileOK(t, "x = "+tc.expr)
			require.Equal(t, []op.Code{op.PushLit, op.StoreGlobal, op.PushNull, op.Return}, opcodes(unit.Root))
			lit := unit.Pool.At(words(unit.Root)[0].b)
			if tc.isInt {
				require.Equal(t, bytecode.IntLiteral, lit.Kind)
				require.Equal(t, tc.i, lit.Int)
			} else {
				require.Equal(t, bytecode.FloatLiteral, lit.Kind)
				require.InDelta(t, tc.f, lit.Float, 1e-12)
			}
		})
	}
}

func TestFoldDeclined(t *testing.T) {
	tests := []struct {
		expr string
		op   op.Code
	}{
		{"1 / 0", op.Div},
		{"1 // 0", op.IDiv},
		{"1 % 0", op.Mod},
		{"1.0 / 0", op.Div},
		{"9223372036854775807 + 1", op.Add},
		{"-9223372036854775807 - 2", op.Sub},
		{"4611686018427387904 * 2", op.Mul},
		{"1 + y", op.Add},
		{"\"a\" + 1", op.Add},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			unit := compileOK(t, "x = "+tc.expr)
			require.Equal(t, 1, countOp(unit.Root, tc.op))
		})
	}
}

func TestFoldBranches(t *testing.T) {
	unit := compileOK(t, "if true then f() end")
	require.Equal(t, 0, countOp(unit.Root, op.JumpIfFalse))
	require.Equal(t, 0, countOp(unit.Root, op.PushTrue))

	unit = compileOK(t, "if false then f() else g() end")
	require.Equal(t, 0, countOp(unit.Root, op.JumpIfFalse))
	require.Equal(t, 0, countOp(unit.Root, op.PushFalse))
	require.Equal(t, 2, countOp(unit.Root, op.Jump))

	unit = compileOK(t, "if null then f() end")
	require.Equal(t, 0, countOp(unit.Root, op.JumpIfFalse))
	require.Equal(t, 1, countOp(unit.Root, op.Jump))

	unit = compileOK(t, "if 'yes' then f() end")
	require.Equal(t, 0, countOp(unit.Root, op.JumpIfFalse))
	require.Equal(t, 0, countOp(unit.Root, op.PushLit))

	unit = compileOK(t, "if x then f() end")
	require.Equal(t, 1, countOp(unit.Root, op.JumpIfFalse))
}

func TestShortCircuitConstants(t *testing.T) {
	unit := compileOK(t, "y = false and x")
	require.Equal(t, []op.Code{op.PushFalse, op.StoreGlobal, op.PushNull, op.Return}, opcodes(unit.Root))

	unit = compileOK(t, "y = 1 or x")
	require.False(t, hasNamed(unit.Root, op.LoadGlobal, "x"))

	unit = compileOK(t, "y = true and x")
	require.Equal(t, []op.Code{op.LoadGlobal, op.StoreGlobal, op.PushNull, op.Return}, opcodes(unit.Root))

	unit = compileOK(t, "y = null ?? x")
	require.Equal(t, []op.Code{op.LoadGlobal, op.StoreGlobal, op.PushNull, op.Return}, opcodes(unit.Root))

	unit = compileOK(t, "y = a or b")
	require.Equal(t, []op.Code{
		op.LoadGlobal, op.Dup, op.JumpIfTrue, op.Pop, op.LoadGlobal, op.StoreGlobal, op.PushNull, op.Return,
	}, opcodes(unit.Root))
}

// A literal that is a jump target may be reached with another value on the
// stack, so neither it nor the branch after it is folded.
func TestNoFoldAcrossLabel(t *testing.T) {
	g := NewGraph()
	push := func(code op.Code, b int) InstrID {
		return g.Append(Instr{Op: code, B: b, Target: NoInstr})
	}
	st := NewState(Config{}, "")
	one := st.pool.AddInt(1)

	target := g.NewLabel()
	push(op.LoadGlobal, 0)
	push(op.JumpIfTrue, 0)
	g.At(g.Tail()).Target = target
	push(op.PushLit, one)
	g.Place(target)
	push(op.PushLit, one)
	push(op.Add, 0)
	g.BindLabels()

	fold(st, g)
	require.Equal(t, 0, st.Folds())
	require.Equal(t, 5, g.Len())
}

func TestFoldNegAfterLabel(t *testing.T) {
	g := NewGraph()
	st := NewState(Config{}, "")
	lit := st.pool.AddInt(4)

	g.Append(Instr{Op: op.PushLit, B: lit, Target: NoInstr})
	label := g.NewLabel()
	g.Place(label)
	neg := g.Append(Instr{Op: op.Neg, Target: NoInstr})
	g.Append(Instr{Op: op.Jump, Target: label})
	g.BindLabels()
	require.True(t, g.At(neg).Label)

	fold(st, g)
	require.Equal(t, 0, st.Folds())
	require.True(t, g.IsPlaced(neg))
}

func TestIntArith(t *testing.T) {
	r, ok := intArith(op.Div, -9, 3)
	require.True(t, ok)
	require.Equal(t, number{isInt: true, i: -3}, r)

	_, ok = intArith(op.Div, -1<<63, -1)
	require.False(t, ok)

	_, ok = intArith(op.Mul, -1, -1<<63)
	require.False(t, ok)

	r, ok = intArith(op.Mul, 0, -1<<63)
	require.True(t, ok)
	require.Equal(t, int64(0), r.i)

	r, ok = intArith(op.Mod, 7, 0)
	require.False(t, ok)
	require.Equal(t, number{}, r)
}
