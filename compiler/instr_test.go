package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/op"
)

func graphOps(g *Graph) []op.Code {
	var out []op.Code
	for _, in := range g.All() {
		out = append(out, in.Op)
	}
	return out
}

func TestGraphAppendRemove(t *testing.T) {
	g := NewGraph()
	require.Equal(t, NoInstr, g.Head())

	a := g.Append(Instr{Op: op.PushNull, Target: NoInstr})
	b := g.Append(Instr{Op: op.Pop, Target: NoInstr})
	c := g.Append(Instr{Op: op.PushTrue, Target: NoInstr})
	require.Equal(t, 3, g.Len())
	require.Equal(t, a, g.Head())
	require.Equal(t, c, g.Tail())
	require.Equal(t, b, g.Next(a))
	require.Equal(t, b, g.Prev(c))

	g.Remove(b)
	g.Remove(b)
	require.Equal(t, 2, g.Len())
	require.Equal(t, c, g.Next(a))
	require.False(t, g.IsPlaced(b))
	require.Equal(t, []op.Code{op.PushNull, op.PushTrue}, graphOps(g))

	g.Remove(a)
	g.Remove(c)
	require.Equal(t, NoInstr, g.Head())
	require.Equal(t, NoInstr, g.Tail())
	require.Equal(t, 0, g.Len())
}

func TestGraphRemoveWhileIterating(t *testing.T) {
	g := NewGraph()
	for i := 0; i < 4; i++ {
		g.Append(Instr{Op: op.Pop, B: i, Target: NoInstr})
	}
	for id, in := range g.All() {
		if in.B%2 == 0 {
			g.Remove(id)
		}
	}
	var left []int
	for _, in := range g.All() {
		left = append(left, in.B)
	}
	require.Equal(t, []int{1, 3}, left)
}

func TestBindLabels(t *testing.T) {
	g := NewGraph()
	top, end := g.NewLabel(), g.NewLabel()
	require.False(t, g.IsPlaced(top))

	g.Place(top)
	first := g.Append(Instr{Op: op.LoadGlobal, Target: NoInstr})
	br := g.Append(Instr{Op: op.JumpIfFalse, Target: end})
	back := g.Append(Instr{Op: op.Jump, Target: top})
	g.Place(end)
	// Two labels in a row bind to the same instruction.
	extra := g.NewLabel()
	g.Place(extra)
	last := g.Append(Instr{Op: op.PushNull, Target: NoInstr})
	g.Append(Instr{Op: op.Jump, Target: extra})

	require.Equal(t, 8, g.Len())
	g.BindLabels()
	require.Equal(t, 5, g.Len())

	require.Equal(t, first, g.At(back).Target)
	require.Equal(t, last, g.At(br).Target)
	require.Equal(t, last, g.At(g.Tail()).Target)
	require.True(t, g.At(first).Label)
	require.True(t, g.At(last).Label)
	require.False(t, g.At(br).Label)
	for _, in := range g.All() {
		require.False(t, in.IsLabel())
	}
}

func TestPlaceTwicePanics(t *testing.T) {
	g := NewGraph()
	l := g.NewLabel()
	g.Place(l)
	require.Panics(t, func() { g.Place(l) })

	nop := g.Append(Instr{Op: op.Nop, Target: NoInstr})
	require.Panics(t, func() { g.Place(nop) })
}

func TestSince(t *testing.T) {
	g := NewGraph()
	g.Append(Instr{Op: op.PushNull, Target: NoInstr})
	mark := g.Mark()
	unplaced := g.NewLabel()
	b := g.Append(Instr{Op: op.Break, Target: NoInstr})
	c := g.Append(Instr{Op: op.Continue, Target: NoInstr})
	g.Remove(c)

	var ids []InstrID
	for id := range g.Since(mark) {
		ids = append(ids, id)
	}
	require.Equal(t, []InstrID{b}, ids)
	require.False(t, g.IsPlaced(unplaced))
}
