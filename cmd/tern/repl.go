package main

import (
	"bufio"
	"context"
	goerrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern"
	"github.com/ternlang/tern/dis"
	"github.com/ternlang/tern/errors"
)

const (
	prompt             = ">>> "
	continuationPrompt = "... "
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Compile statements interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, _ := cmd.Flags().GetBool("summary")
		return repl(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), summary)
	},
}

func init() {
	replCmd.Flags().Bool("summary", false, "Summarize each unit instead of disassembling it")
}

func runRepl(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "tern %s\n", version)
	return repl(ctx, in, out, false)
}

// promptSource reads lines for a session, printing the continuation prompt
// while a unit is still open.
type promptSource struct {
	r         *bufio.Reader
	w         io.Writer
	continued bool
}

func (s *promptSource) NextLine() (string, error) {
	if s.continued {
		fmt.Fprint(s.w, continuationPrompt)
	} else {
		fmt.Fprint(s.w, prompt)
	}
	s.continued = true
	line, err := s.r.ReadString('\n')
	if err == io.EOF && line != "" {
		return line + "\n", nil
	}
	return line, err
}

func repl(ctx context.Context, in io.Reader, out io.Writer, summary bool) error {
	src := &promptSource{r: bufio.NewReader(in), w: out}
	session := tern.NewSession(src, getTernOptions("<repl>")...)
	for {
		src.continued = false
		unit, err := session.Next(ctx)
		if goerrors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			if !errors.IsRecoverable(err) {
				return err
			}
			fmt.Fprintln(out, formatError(err))
			continue
		}
		printWarnings(out, unit)
		if summary {
			writeSummary(out, unit)
			continue
		}
		if err := dis.PrintDef(unit.Root, out); err != nil {
			return err
		}
	}
}
