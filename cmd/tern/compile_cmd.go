package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern"
	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/compiler"
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile code and summarize the resulting functions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := compileInput(cmd, args)
		if err != nil {
			return err
		}
		printWarnings(os.Stderr, unit)
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			data, err := getOutputJSON(summarize(unit))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		writeSummary(cmd.OutOrStdout(), unit)
		return nil
	},
}

func init() {
	compileCmd.Flags().Bool("json", false, "Print the function tree as JSON")
}

func compileInput(cmd *cobra.Command, args []string) (*compiler.Unit, error) {
	code, filename, err := getTernCode(cmd, args)
	if err != nil {
		return nil, err
	}
	return tern.Compile(cmd.Context(), code, getTernOptions(filename)...)
}

type defSummary struct {
	Name       string        `json:"name"`
	Line       int           `json:"line"`
	Args       int           `json:"args"`
	Locals     int           `json:"locals"`
	MaxStack   int           `json:"max_stack"`
	CodeLength int           `json:"code_length"`
	MustClose  bool          `json:"must_close,omitempty"`
	VarArg     bool          `json:"vararg,omitempty"`
	Keyword    bool          `json:"keyword,omitempty"`
	Generator  bool          `json:"generator,omitempty"`
	Children   []*defSummary `json:"children,omitempty"`
}

type unitSummary struct {
	ID           string      `json:"id"`
	Filename     string      `json:"filename,omitempty"`
	Nodes        int         `json:"nodes"`
	Functions    int         `json:"functions"`
	Instructions int         `json:"instructions"`
	Closures     int         `json:"closures"`
	Literals     int         `json:"literals"`
	Folds        int         `json:"folds"`
	Warnings     int         `json:"warnings"`
	Root         *defSummary `json:"root"`
}

func summarize(unit *compiler.Unit) *unitSummary {
	nodes := 0
	ast.Inspect(unit.Program, func(ast.Node) bool {
		nodes++
		return true
	})
	stats := unit.Root.Stats()
	return &unitSummary{
		ID:           unit.ID.String(),
		Filename:     unit.Root.Filename(),
		Nodes:        nodes,
		Functions:    stats.FunctionCount,
		Instructions: stats.InstructionCount,
		Closures:     stats.ClosureCount,
		Literals:     stats.LiteralCount,
		Folds:        unit.Folds,
		Warnings:     len(unit.Warnings),
		Root:         summarizeDef(unit.Root),
	}
}

func summarizeDef(d *bytecode.Def) *defSummary {
	s := &defSummary{
		Name:       d.Name(),
		Line:       d.Line(),
		Args:       d.NumArgs(),
		Locals:     d.NumLocals(),
		MaxStack:   d.MaxStack(),
		CodeLength: d.BytecodeLength(),
		MustClose:  d.MustClose(),
		VarArg:     d.IsVarArg(),
		Keyword:    d.IsKeyword(),
		Generator:  d.IsGenerator(),
	}
	for i := 0; i < d.ChildCount(); i++ {
		s.Children = append(s.Children, summarizeDef(d.ChildAt(i)))
	}
	return s
}

func writeSummary(w io.Writer, unit *compiler.Unit) {
	s := summarize(unit)
	fmt.Fprintf(w, "unit %s: %d functions, %d instructions, %d literals, %d folds, %d warnings\n",
		s.ID, s.Functions, s.Instructions, s.Literals, s.Folds, s.Warnings)
	unit.Root.Walk(func(d *bytecode.Def) {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", d.Depth()), d.String())
	})
}
