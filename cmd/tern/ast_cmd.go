package main

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern"
	"github.com/ternlang/tern/ast"
)

var astCmd = &cobra.Command{
	Use:   "ast [file]",
	Short: "Display the syntax tree of the code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, filename, err := getTernCode(cmd, args)
		if err != nil {
			return err
		}
		program, err := tern.Parse(cmd.Context(), code, getTernOptions(filename)...)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			data, err := getOutputJSON(nodeToJSON(program))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		printAST(cmd.OutOrStdout(), program)
		return nil
	},
}

func init() {
	astCmd.Flags().Bool("json", false, "Print the tree as JSON")
}

// ASTNode represents a node in the JSON AST output
type ASTNode struct {
	Type     string     `json:"type"`
	Line     int        `json:"line"`
	Value    any        `json:"value,omitempty"`
	Children []*ASTNode `json:"children,omitempty"`
}

func nodeToJSON(node ast.Node) *ASTNode {
	result := &ASTNode{
		Type:  nodeType(node),
		Line:  node.Pos().LineNumber(),
		Value: nodeValue(node),
	}
	for _, child := range ast.Children(node) {
		result.Children = append(result.Children, nodeToJSON(child))
	}
	return result
}

func nodeType(node ast.Node) string {
	return reflect.TypeOf(node).Elem().Name()
}

// nodeValue returns the payload shown next to a node: a name, an operator
// or a literal value.
func nodeValue(node ast.Node) any {
	switch n := node.(type) {
	case *ast.Ident:
		return n.Name
	case *ast.Int:
		return n.Value
	case *ast.Float:
		return n.Value
	case *ast.String:
		return n.Value
	case *ast.Bool:
		return n.Value
	case *ast.Prefix:
		return n.Op
	case *ast.Infix:
		return n.Op
	case *ast.Assign:
		return n.Op
	case *ast.Decl:
		if n.Storage != ast.StorageDefault {
			return n.Storage.String()
		}
	case *ast.VarDecl:
		return n.Storage.String()
	}
	return nil
}

type astPrinter struct {
	w     io.Writer
	depth int
}

func (p astPrinter) Visit(node ast.Node) ast.Visitor {
	line := strings.Repeat("  ", p.depth) + nodeType(node)
	switch v := nodeValue(node).(type) {
	case nil:
	case string:
		if _, ok := node.(*ast.String); ok {
			v = strconv.Quote(v)
		}
		line += " " + v
	default:
		line += fmt.Sprintf(" %v", v)
	}
	fmt.Fprintf(p.w, "%s (line %d)\n", line, node.Pos().LineNumber())
	return astPrinter{w: p.w, depth: p.depth + 1}
}

func printAST(w io.Writer, program *ast.Program) {
	ast.Walk(astPrinter{w: w}, program)
}
