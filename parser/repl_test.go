package parser

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/lexer"
)

func lineSource(lines ...string) lexer.LineSource {
	return lexer.LineSourceFunc(func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	})
}

func newInteractive(first string, more ...string) *Parser {
	l := lexer.New(first, lexer.WithInteractive())
	return New(l, WithLineSource(lineSource(more...)))
}

func TestParseUnitRefillsOpenBlock(t *testing.T) {
	ctx := context.Background()
	p := newInteractive("if x then\n", "y = 1\n", "end\n", "z = 2\n")

	program, err := p.ParseUnit(ctx)
	require.NoError(t, err)
	require.Len(t, program.Stmts, 1)
	require.Equal(t, "if x then y = 1 end", program.Stmts[0].String())
	require.True(t, p.NeedsInput())

	p.Reset(nil)
	program, err = p.ParseUnit(ctx)
	require.NoError(t, err)
	require.Len(t, program.Stmts, 1)
	require.Equal(t, "z = 2", program.Stmts[0].String())

	p.Reset(nil)
	program, err = p.ParseUnit(ctx)
	require.NoError(t, err)
	require.Nil(t, program)
}

func TestParseUnitMultipleStatements(t *testing.T) {
	p := newInteractive("a = 1; b = 2\n")
	program, err := p.ParseUnit(context.Background())
	require.NoError(t, err)
	require.Len(t, program.Stmts, 2)
}

func TestParseUnitContinuesExpression(t *testing.T) {
	p := newInteractive("x = f(1,\n", "2)\n")
	program, err := p.ParseUnit(context.Background())
	require.NoError(t, err)
	require.Equal(t, "x = f(1, 2)", program.String())
}

func TestParseUnitErrorDoesNotRefill(t *testing.T) {
	ctx := context.Background()
	p := newInteractive("x = )\n", "y = 1\n")

	_, err := p.ParseUnit(ctx)
	require.Error(t, err)
	require.True(t, errors.IsRecoverable(err))

	p.DiscardInput()
	p.Reset(nil)
	program, err := p.ParseUnit(ctx)
	require.NoError(t, err)
	require.Equal(t, "y = 1", program.String())
}

func TestParseUnitSourceExhausted(t *testing.T) {
	p := newInteractive("while true do\n")
	_, err := p.ParseUnit(context.Background())
	require.Equal(t, errors.E1007, firstError(t, err).Code)
}
