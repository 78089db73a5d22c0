package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestRepl(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	in := strings.NewReader("x = 1\nif x then\n  y = 2\nend\nraise\nz = 3")
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), in, &out, true))

	text := out.String()
	require.Equal(t, 3, strings.Count(text, "unit "))
	require.Contains(t, text, prompt)
	require.Contains(t, text, continuationPrompt)
	require.Contains(t, text, "E2002")
	require.True(t, strings.HasSuffix(text, "\n"))
}

func TestReplDisassembles(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), strings.NewReader("x = 40 + 2\n"), &out, false))
	text := out.String()
	require.Contains(t, text, "def <script>(")
	require.Contains(t, text, "STORE_GLOBAL")
	require.Contains(t, text, "42")
}

func TestReplCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := repl(ctx, strings.NewReader("x = 1\n"), &out, true)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPromptSource(t *testing.T) {
	var out bytes.Buffer
	src := &promptSource{r: bufio.NewReader(strings.NewReader("a\nb")), w: &out}

	line, err := src.NextLine()
	require.NoError(t, err)
	require.Equal(t, "a\n", line)
	line, err = src.NextLine()
	require.NoError(t, err)
	require.Equal(t, "b\n", line)
	_, err = src.NextLine()
	require.Error(t, err)
	require.Equal(t, prompt+continuationPrompt+continuationPrompt, out.String())
}
