package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/dis"
)

var disCmd = &cobra.Command{
	Use:   "dis [file]",
	Short: "Disassemble compiled code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := compileInput(cmd, args)
		if err != nil {
			return err
		}
		printWarnings(os.Stderr, unit)

		// If a function name was provided, disassemble its code only
		funcName, _ := cmd.Flags().GetString("func")
		if funcName == "" {
			return dis.PrintDef(unit.Root, cmd.OutOrStdout())
		}
		target := findDef(unit.Root, funcName)
		if target == nil {
			return fmt.Errorf("function %q not found", funcName)
		}
		instructions, err := dis.Disassemble(target)
		if err != nil {
			return err
		}
		dis.Print(instructions, cmd.OutOrStdout())
		return nil
	},
}

func init() {
	disCmd.Flags().String("func", "", "Function to disassemble")
}

// findDef returns the first Def named name, parents first.
func findDef(root *bytecode.Def, name string) *bytecode.Def {
	var found *bytecode.Def
	root.Walk(func(d *bytecode.Def) {
		if found == nil && d.Name() == name {
			found = d
		}
	})
	return found
}
