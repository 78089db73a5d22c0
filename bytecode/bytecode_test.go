package bytecode

import (
	"math"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestLiteralPoolDedup(t *testing.T) {
	pool := NewLiteralPool()
	a := pool.AddString("hello")
	b := pool.AddString("world")
	c := pool.AddString("hello")
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)

	i1 := pool.AddInt(3)
	f1 := pool.AddFloat(3)
	require.NotEqual(t, i1, f1)
	require.Equal(t, i1, pool.AddInt(3))
	require.Equal(t, f1, pool.AddFloat(3.0))

	zero := pool.AddFloat(0)
	negZero := pool.AddFloat(math.Copysign(0, -1))
	require.NotEqual(t, zero, negZero)

	require.Equal(t, 6, pool.Len())
	require.Equal(t, StringLiteral, pool.At(a).Kind)
	require.Equal(t, `"hello"`, pool.At(a).String())
	require.Equal(t, "3", pool.At(i1).String())
	require.True(t, pool.At(f1).IsNumber())
}

func TestLiteralPoolDefs(t *testing.T) {
	root := NewDef(DefParams{Name: "main"})
	child := NewDef(DefParams{Name: "f", Parent: root})
	pool := root.Pool()
	x := pool.AddDef(child)
	y := pool.AddDef(child)
	require.NotEqual(t, x, y)
	require.Same(t, child, pool.At(x).Def)
	require.Equal(t, "<def f>", pool.At(x).String())
	require.Equal(t, 2, pool.Add(Literal{Kind: IntLiteral, Int: 9}))
}

func TestDefTree(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	root := NewDef(DefParams{Name: "main", Filename: "main.tern", UnitID: id})
	f := NewDef(DefParams{Name: "f", Parent: root, Line: 3})
	g := NewDef(DefParams{Name: "g", Parent: f, Line: 4})

	require.Same(t, root.Pool(), g.Pool())
	require.Equal(t, "main.tern", g.Filename())
	require.Equal(t, id, g.UnitID())
	require.Same(t, root, g.Root())
	require.Same(t, f, g.Parent())
	require.Equal(t, 2, g.Depth())
	require.Equal(t, 1, root.ChildCount())
	require.Same(t, f, root.ChildAt(0))

	var names []string
	root.Walk(func(d *Def) { names = append(names, d.Name()) })
	require.Equal(t, []string{"main", "f", "g"}, names)
}

func TestDefFinalize(t *testing.T) {
	d := NewDef(DefParams{Name: "f"})
	d.SetNumArgs(1)
	require.Equal(t, 0, d.AllocLocal())
	require.Equal(t, 1, d.AllocLocal())
	d.SetMustClose()
	d.SetGenerator(true)

	code := []uint32{1, 2, 3, 4}
	lines := []LineEntry{{Pos: 0, Line: 1}, {Pos: 2, Line: 3}}
	locals := []LocalRange{{Name: "x", Slot: 0, Start: 0, End: 4}, {Name: "y", Slot: 1, Start: 2, End: 3}}
	d.Finalize(code, lines, locals, 5)
	code[0] = 99

	require.True(t, d.IsFinalized())
	require.Equal(t, uint32(1), d.CodeAt(0))
	require.Equal(t, 4, d.BytecodeLength())
	require.Equal(t, []uint32{1, 2, 3, 4}, d.Bytecode())
	require.Equal(t, 1, d.LineAt(1))
	require.Equal(t, 3, d.LineAt(3))
	require.Equal(t, "y", d.LocalName(1, 2))
	require.Equal(t, "", d.LocalName(1, 3))
	require.Equal(t, 2, d.NumLocals())
	require.Equal(t, "def f(args=1 locals=2 stack=5 code=4 close generator)", d.String())

	stats := d.Stats()
	require.Equal(t, 4, stats.InstructionCount)
	require.Equal(t, 1, stats.FunctionCount)
	require.Equal(t, 1, stats.ClosureCount)
	require.Equal(t, 5, stats.MaxStack)
}
