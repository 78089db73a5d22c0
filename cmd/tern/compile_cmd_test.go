package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern"
)

func TestSummarize(t *testing.T) {
	unit, err := tern.Compile(context.Background(), "function f(a, ...rest)\n  yield a\nend\nx = 2 * 3",
		tern.WithFilename("gen.tern"))
	require.NoError(t, err)

	s := summarize(unit)
	require.Equal(t, unit.ID.String(), s.ID)
	require.Equal(t, "gen.tern", s.Filename)
	require.Equal(t, 1, s.Folds)
	require.Equal(t, unit.Pool.Len(), s.Literals)
	require.Greater(t, s.Nodes, 5)
	require.Equal(t, 2, s.Functions)
	require.Equal(t, unit.Root.BytecodeLength()+unit.Root.ChildAt(0).BytecodeLength(), s.Instructions)

	require.Equal(t, "<script>", s.Root.Name)
	require.Len(t, s.Root.Children, 1)
	f := s.Root.Children[0]
	require.Equal(t, "f", f.Name)
	require.Equal(t, 1, f.Args)
	require.Equal(t, 1, f.Line)
	require.True(t, f.VarArg)
	require.True(t, f.Generator)
	require.False(t, f.MustClose)
}

func TestWriteSummary(t *testing.T) {
	unit, err := tern.Compile(context.Background(), "function outer()\n  function inner()\n  end\nend")
	require.NoError(t, err)

	var buf bytes.Buffer
	writeSummary(&buf, unit)
	out := buf.String()
	require.Contains(t, out, "unit "+unit.ID.String())
	require.Contains(t, out, "\ndef <script>(")
	require.Contains(t, out, "\n  def outer(")
	require.Contains(t, out, "\n    def inner(")
}

func TestFindDef(t *testing.T) {
	unit, err := tern.Compile(context.Background(), "function a()\n  function b()\n  end\nend")
	require.NoError(t, err)
	require.Equal(t, "b", findDef(unit.Root, "b").Name())
	require.Same(t, unit.Root, findDef(unit.Root, "<script>"))
	require.Nil(t, findDef(unit.Root, "missing"))
}
