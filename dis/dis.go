// Package dis disassembles finalized tern function definitions.
package dis

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/internal/table"
	"github.com/ternlang/tern/op"
)

var (
	opColor   = color.New(color.FgCyan)
	jumpColor = color.New(color.FgYellow)
	nameColor = color.New(color.Bold)
)

// Instruction is one decoded code unit.
type Instruction struct {
	Offset int
	Line   int
	Code   op.Code
	A      int
	B      int
	Info   string
}

// Name returns the opcode name.
func (i Instruction) Name() string {
	return i.Code.String()
}

// Operands returns the meaningful operands as text.
func (i Instruction) Operands() string {
	switch op.GetInfo(i.Code).Format {
	case op.FormatWord:
		return strconv.Itoa(i.B)
	case op.FormatJump:
		if i.A != 0 {
			return fmt.Sprintf("%d %d", i.A, i.B)
		}
		return strconv.Itoa(i.B)
	case op.FormatByteWord:
		return fmt.Sprintf("%d %d", i.A, i.B)
	default:
		return ""
	}
}

// Disassemble decodes the code of def. Literal, local and jump operands are
// annotated in Info.
func Disassemble(def *bytecode.Def) ([]Instruction, error) {
	out := make([]Instruction, 0, def.BytecodeLength())
	pool := def.Pool()
	for pos := 0; pos < def.BytecodeLength(); pos++ {
		code, a, b := op.Decode(def.CodeAt(pos))
		if !op.IsValid(code) {
			return nil, fmt.Errorf("invalid opcode %d at offset %d", code, pos)
		}
		in := Instruction{Offset: pos, Line: def.LineAt(pos), Code: code, A: a, B: b}
		switch code {
		case op.PushLit:
			if b >= pool.Len() {
				return nil, fmt.Errorf("literal %d out of range at offset %d", b, pos)
			}
			in.Info = pool.At(b).String()
		case op.LoadGlobal, op.StoreGlobal, op.LoadMember, op.StoreMember,
			op.GetField, op.SetField, op.GetMethod, op.MakeProperty, op.NewClass, op.NewPackage:
			if b >= pool.Len() {
				return nil, fmt.Errorf("literal %d out of range at offset %d", b, pos)
			}
			in.Info = pool.At(b).Str
		case op.MakeFunc:
			if b >= pool.Len() || pool.At(b).Def == nil {
				return nil, fmt.Errorf("function literal %d missing at offset %d", b, pos)
			}
			in.Info = pool.At(b).Def.Name()
		case op.LoadLocal, op.StoreLocal, op.DeclLocal, op.EndLocal:
			in.Info = def.LocalName(b, pos)
			if code == op.DeclLocal && in.Info == "" {
				in.Info = def.LocalName(b, pos+1)
			}
		case op.Call, op.TailCall:
			if b > 0 {
				in.Info = fmt.Sprintf("%d keyword", b)
			}
		default:
			if code.IsJump() {
				in.Info = "-> " + strconv.Itoa(b)
			}
		}
		out = append(out, in)
	}
	return out, nil
}

// Print writes instructions as a table.
func Print(instructions []Instruction, w io.Writer) {
	t := table.NewTable(w)
	t.WithHeader([]string{"OFFSET", "LINE", "OPCODE", "OPERANDS", "INFO"})
	t.WithHeaderAlignment([]table.Alignment{
		table.AlignCenter, table.AlignCenter, table.AlignCenter, table.AlignCenter, table.AlignCenter,
	})
	t.WithColumnAlignment([]table.Alignment{
		table.AlignRight, table.AlignRight, table.AlignLeft, table.AlignRight, table.AlignLeft,
	})
	for _, in := range instructions {
		info := in.Info
		if in.Code.IsJump() {
			info = jumpColor.Sprint(info)
		}
		t.Append([]string{
			strconv.Itoa(in.Offset),
			strconv.Itoa(in.Line),
			opColor.Sprint(in.Name()),
			in.Operands(),
			info,
		})
	}
	t.Render()
}

// PrintDef disassembles def and every Def nested in it, parents first.
func PrintDef(def *bytecode.Def, w io.Writer) error {
	var err error
	def.Walk(func(d *bytecode.Def) {
		if err != nil {
			return
		}
		var instructions []Instruction
		instructions, err = Disassemble(d)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "%s\n", nameColor.Sprint(d.String()))
		Print(instructions, w)
		fmt.Fprintln(w)
	})
	return err
}
