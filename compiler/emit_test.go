package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/op"
)

func emitGraph(t *testing.T, cfg Config, build func(g *Graph)) (*bytecode.Def, error) {
	t.Helper()
	st := NewState(cfg, "")
	g := NewGraph()
	build(g)
	g.BindLabels()
	return st.Root(), emit(st, st.Root(), g, nil)
}

func add(g *Graph, code op.Code, a, b int) InstrID {
	return g.Append(Instr{Op: code, A: a, B: b, Line: 1, Target: NoInstr})
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var ce *errors.CompileError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, code, ce.Code)
}

func TestEmitMaxStack(t *testing.T) {
	def, err := emitGraph(t, Config{}, func(g *Graph) {
		add(g, op.PushLit, 0, 0)
		add(g, op.PushLit, 0, 0)
		add(g, op.PushLit, 0, 0)
		add(g, op.BuildList, 0, 3)
		add(g, op.Return, 0, 1)
	})
	require.NoError(t, err)
	require.Equal(t, 3, def.MaxStack())
	require.Equal(t, 5, def.BytecodeLength())
	require.True(t, def.IsFinalized())

	code, a, b := op.Decode(def.CodeAt(3))
	require.Equal(t, op.BuildList, code)
	require.Equal(t, 0, a)
	require.Equal(t, 3, b)
}

func TestEmitUnderflow(t *testing.T) {
	_, err := emitGraph(t, Config{}, func(g *Graph) {
		add(g, op.PushNull, 0, 0)
		add(g, op.Add, 0, 0)
		add(g, op.Return, 0, 1)
	})
	requireCode(t, err, errors.E4005)
}

func TestEmitInconsistentDepth(t *testing.T) {
	_, err := emitGraph(t, Config{}, func(g *Graph) {
		join := g.NewLabel()
		add(g, op.LoadGlobal, 0, 0)
		br := add(g, op.JumpIfTrue, 0, 0)
		g.At(br).Target = join
		add(g, op.PushNull, 0, 0)
		g.Place(join)
		add(g, op.PushNull, 0, 0)
		add(g, op.Return, 0, 1)
	})
	requireCode(t, err, errors.E4005)
}

func TestEmitStackLimit(t *testing.T) {
	_, err := emitGraph(t, Config{Limits: Limits{MaxStackDepth: 2}}, func(g *Graph) {
		add(g, op.PushNull, 0, 0)
		add(g, op.PushNull, 0, 0)
		add(g, op.PushNull, 0, 0)
		add(g, op.Return, 0, 3)
	})
	requireCode(t, err, errors.E4001)
}

func TestEmitOperandRange(t *testing.T) {
	_, err := emitGraph(t, Config{}, func(g *Graph) {
		add(g, op.PushLit, 0, op.MaxB+1)
		add(g, op.Return, 0, 1)
	})
	requireCode(t, err, errors.E4002)

	_, err = emitGraph(t, Config{}, func(g *Graph) {
		add(g, op.LoadLocal, 0, op.MaxB+1)
		add(g, op.Return, 0, 1)
	})
	requireCode(t, err, errors.E4003)

	_, err = emitGraph(t, Config{}, func(g *Graph) {
		add(g, op.LoadGlobal, 0, 0)
		add(g, op.Call, op.MaxA+1, 0)
		add(g, op.Return, 0, 1)
	})
	requireCode(t, err, errors.E4004)
}

func TestEmitJumpTargets(t *testing.T) {
	def, err := emitGraph(t, Config{}, func(g *Graph) {
		els, end := g.NewLabel(), g.NewLabel()
		add(g, op.LoadGlobal, 0, 0)
		g.At(add(g, op.JumpIfFalse, 0, 0)).Target = els
		add(g, op.PushTrue, 0, 0)
		g.At(add(g, op.Jump, 0, 0)).Target = end
		g.Place(els)
		add(g, op.PushFalse, 0, 0)
		g.Place(end)
		add(g, op.Return, 0, 1)
	})
	require.NoError(t, err)
	require.Equal(t, 1, def.MaxStack())

	_, _, b := op.Decode(def.CodeAt(1))
	require.Equal(t, 4, b)
	_, _, b = op.Decode(def.CodeAt(3))
	require.Equal(t, 5, b)
}

func TestEmitLineTable(t *testing.T) {
	st := NewState(Config{}, "a\nb\nc")
	g := NewGraph()
	for _, line := range []int{1, 1, 2, 2, 3} {
		g.Append(Instr{Op: op.Nop, Line: line, Target: NoInstr})
	}
	g.Append(Instr{Op: op.PushNull, Line: 3, Target: NoInstr})
	g.Append(Instr{Op: op.Return, B: 1, Line: 3, Target: NoInstr})
	require.NoError(t, emit(st, st.Root(), g, nil))

	def := st.Root()
	require.Equal(t, 3, def.LineCount())
	require.Equal(t, bytecode.LineEntry{Pos: 2, Line: 2}, def.LineEntryAt(1))
	require.Equal(t, 3, def.LineAt(6))
}
