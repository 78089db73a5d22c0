package main

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"

	"github.com/ternlang/tern/compiler"
	"github.com/ternlang/tern/errors"
)

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminalIO() bool {
	stdin := os.Stdin.Fd()
	stdout := os.Stdout.Fd()
	inTerm := isatty.IsTerminal(stdin) || isatty.IsCygwinTerminal(stdin)
	outTerm := isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
	return inTerm && outTerm
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}

func getOutputJSON(v any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(v, "", "  ")
	}
	return prettyjson.Marshal(v)
}

func formatter() *errors.Formatter {
	return errors.NewFormatter(!color.NoColor)
}

// formatError renders compile faults in the source-quoting layout. Other
// errors are returned unchanged.
func formatError(err error) error {
	if color.NoColor {
		var friendly errors.FriendlyError
		if goerrors.As(err, &friendly) {
			return goerrors.New(friendly.FriendlyErrorMessage())
		}
	}
	var multi *errors.CompileErrors
	if goerrors.As(err, &multi) {
		formatted := make([]*errors.FormattedError, 0, len(multi.Errors))
		for _, ce := range multi.Errors {
			formatted = append(formatted, ce.ToFormatted())
		}
		return goerrors.New(formatter().FormatMultiple(formatted))
	}
	var formattable errors.FormattableError
	if goerrors.As(err, &formattable) {
		return goerrors.New(formatter().Format(formattable.ToFormatted()))
	}
	return err
}

func printWarnings(w io.Writer, unit *compiler.Unit) {
	for _, warning := range unit.Warnings {
		fmt.Fprint(w, formatter().Format(warning.ToFormatted()))
	}
}
