package main

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern/internal/lexer"
	"github.com/ternlang/tern/internal/table"
	"github.com/ternlang/tern/internal/token"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "List the tokens of the code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, filename, err := getTernCode(cmd, args)
		if err != nil {
			return err
		}
		return printTokens(cmd.OutOrStdout(), code, filename)
	},
}

// printTokens lexes code and prints one row per token. Lexing stops at the
// first illegal token.
func printTokens(w io.Writer, code, filename string) error {
	l := lexer.New(code, lexer.WithFilename(filename))
	t := table.NewTable(w)
	t.WithHeader([]string{"LINE", "COL", "TYPE", "LITERAL"})
	t.WithColumnAlignment([]table.Alignment{table.AlignRight, table.AlignRight, table.AlignLeft, table.AlignLeft})
	for {
		tok, err := l.Next()
		if err != nil {
			t.Render()
			return err
		}
		pos := tok.StartPosition
		t.Append([]string{
			strconv.Itoa(pos.LineNumber()),
			strconv.Itoa(pos.ColumnNumber()),
			string(tok.Type),
			literal(tok),
		})
		if tok.Type == token.EOF {
			break
		}
	}
	t.Render()
	return nil
}

func literal(tok token.Token) string {
	switch tok.Type {
	case token.NEWLINE:
		return `\n`
	case token.STRING:
		return strconv.Quote(tok.Literal)
	}
	return tok.Literal
}
