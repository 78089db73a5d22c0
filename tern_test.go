package tern

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/compiler"
	"github.com/ternlang/tern/errors"
)

func TestCompile(t *testing.T) {
	unit, err := Compile(context.Background(), "x = 1 + 2", WithFilename("calc.tern"))
	require.NoError(t, err)
	require.Equal(t, compiler.DefaultName, unit.Root.Name())
	require.Equal(t, "calc.tern", unit.Root.Filename())
	require.Equal(t, unit.ID, unit.Root.UnitID())
	require.Equal(t, 1, unit.Folds)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.tern")
	require.NoError(t, os.WriteFile(path, []byte("function f()\n  return 1\nend\n"), 0o644))

	unit, err := CompileFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, path, unit.Root.Filename())
	require.Equal(t, 1, unit.Root.ChildCount())
	require.Equal(t, path, unit.Root.ChildAt(0).Filename())

	_, err = CompileFile(context.Background(), filepath.Join(t.TempDir(), "missing.tern"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithLimits(t *testing.T) {
	_, err := Compile(context.Background(), "f(1, 2, 3)", WithLimits(compiler.Limits{MaxArgs: 2}))
	var ce *errors.CompileError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, errors.E2006, ce.Code)

	_, err = Compile(context.Background(), "f(1, 2, 3)")
	require.NoError(t, err)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := Compile(context.Background(), "x = 1", WithLogger(logger))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "compiling unit")
}

func TestParse(t *testing.T) {
	program, err := Parse(context.Background(), "x = 1\ny = x")
	require.NoError(t, err)
	require.Len(t, program.Stmts, 2)

	var idents []string
	ast.Inspect(program, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			idents = append(idents, id.Name)
		}
		return true
	})
	require.Equal(t, []string{"x", "y", "x"}, idents)

	_, err = Parse(context.Background(), "x = ((((((1))))))", WithMaxParseDepth(3))
	require.Error(t, err)
}

func TestSession(t *testing.T) {
	input := []string{"a = 1\n", "function f()\n", "  return a\n", "end\n"}
	src := lineFunc(func() (string, error) {
		if len(input) == 0 {
			return "", io.EOF
		}
		line := input[0]
		input = input[1:]
		return line, nil
	})
	s := NewSession(src, WithFilename("<repl>"))

	unit, err := s.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "<repl>", unit.Root.Filename())

	unit, err = s.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, unit.Root.ChildCount())

	_, err = s.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

type lineFunc func() (string, error)

func (f lineFunc) NextLine() (string, error) { return f() }
