package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern"
	"github.com/ternlang/tern/compiler"
)

func resetConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
		require.NoError(t, viper.BindPFlags(rootCmd.PersistentFlags()))
	})
}

func compileWith(code, filename string) (*compiler.Unit, error) {
	return tern.Compile(context.Background(), code, getTernOptions(filename)...)
}

func inputCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("code", "c", "", "")
	cmd.Flags().Bool("stdin", false, "")
	return cmd
}

func TestLimitsFromConfigAndEnv(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "tern.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max-args: 3\nmax-stack-depth: 9\n"), 0o644))
	t.Setenv("TERN_MAX_STACK_DEPTH", "7")

	cfgFile = path
	initConfig()

	require.Equal(t, compiler.Limits{MaxArgs: 3, MaxStackDepth: 7}, getLimits())
}

func TestTernOptions(t *testing.T) {
	resetConfig(t)
	viper.Set("max-args", 1)
	viper.Set("max-parse-depth", 50)

	cmd := inputCmd()
	require.NoError(t, cmd.Flags().Set("code", "f(1, 2)"))
	code, filename, err := getTernCode(cmd, nil)
	require.NoError(t, err)
	require.Equal(t, "<code>", filename)

	_, err = compileWith(code, filename)
	require.Error(t, err)
	require.Contains(t, formatError(err).Error(), "E2006")
}

func TestGetTernCode(t *testing.T) {
	cmd := inputCmd()
	cmd.SetIn(strings.NewReader("x = 1"))
	require.NoError(t, cmd.Flags().Set("stdin", "true"))
	code, filename, err := getTernCode(cmd, nil)
	require.NoError(t, err)
	require.Equal(t, "x = 1", code)
	require.Equal(t, "<stdin>", filename)

	path := filepath.Join(t.TempDir(), "a.tern")
	require.NoError(t, os.WriteFile(path, []byte("y = 2"), 0o644))
	code, filename, err = getTernCode(inputCmd(), []string{path})
	require.NoError(t, err)
	require.Equal(t, "y = 2", code)
	require.Equal(t, path, filename)

	_, _, err = getTernCode(cmd, []string{path})
	require.EqualError(t, err, "multiple input sources specified")

	_, _, err = getTernCode(inputCmd(), nil)
	require.EqualError(t, err, "no input provided")
}

func TestFormatError(t *testing.T) {
	_, err := compileWith("break", "x.tern")
	require.Error(t, err)
	formatted := formatError(err).Error()
	require.Contains(t, formatted, "x.tern")
	require.Contains(t, formatted, "break")

	plain := os.ErrNotExist
	require.Equal(t, plain, formatError(plain))
}
