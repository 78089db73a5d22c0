package main

import (
	"errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ternlang/tern"
	"github.com/ternlang/tern/compiler"
)

// Limits from flags, TERN_* variables or the config file. Zero keeps the
// compiler default.
func getLimits() compiler.Limits {
	return compiler.Limits{
		MaxFunctionDepth: viper.GetInt("max-function-depth"),
		MaxArgs:          viper.GetInt("max-args"),
		MaxKeywordArgs:   viper.GetInt("max-keyword-args"),
		MaxReturnValues:  viper.GetInt("max-return-values"),
		MaxStackDepth:    viper.GetInt("max-stack-depth"),
	}
}

func getLogger() zerolog.Logger {
	if !viper.GetBool("verbose") {
		return zerolog.Nop()
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}
	return zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

func getTernOptions(filename string) []tern.Option {
	opts := []tern.Option{
		tern.WithLimits(getLimits()),
		tern.WithLogger(getLogger()),
	}
	if filename != "" {
		opts = append(opts, tern.WithFilename(filename))
	}
	if depth := viper.GetInt("max-parse-depth"); depth > 0 {
		opts = append(opts, tern.WithMaxParseDepth(depth))
	}
	return opts
}

// getTernCode determines the code to process and the filename to report.
// There are three possibilities:
//  1. --code <code>
//  2. --stdin (read code from stdin)
//  3. path as args[0]
func getTernCode(cmd *cobra.Command, args []string) (code, filename string, err error) {
	var codeFlagSet, stdinFlagSet bool
	if f := cmd.Flags().Lookup("code"); f != nil && f.Changed {
		codeFlagSet = true
	}
	if f := cmd.Flags().Lookup("stdin"); f != nil && f.Changed {
		stdinFlagSet = true
	}
	pathSupplied := len(args) > 0
	if pathSupplied && (codeFlagSet || stdinFlagSet) {
		return "", "", errors.New("multiple input sources specified")
	} else if codeFlagSet && stdinFlagSet {
		return "", "", errors.New("multiple input sources specified")
	}
	switch {
	case stdinFlagSet:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	case pathSupplied:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	case codeFlagSet:
		code, err := cmd.Flags().GetString("code")
		return code, "<code>", err
	}
	return "", "", errors.New("no input provided")
}
