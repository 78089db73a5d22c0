package bytecode

import (
	"bytes"
	"fmt"

	"github.com/gofrs/uuid"
)

// Def is a compiled function definition: the script body, a function
// literal, or a property accessor. The parent chain mirrors lexical
// nesting and is what the runtime follows to build closures.
type Def struct {
	name     string
	filename string
	line     int
	unitID   uuid.UUID
	parent   *Def
	children []*Def
	pool     *LiteralPool

	numArgs     int
	numLocals   int
	mustClose   bool
	isVarArg    bool
	isKeyword   bool
	isGenerator bool

	code      []uint32
	lines     []LineEntry
	locals    []LocalRange
	maxStack  int
	finalized bool
}

// DefParams contains parameters for creating a new Def.
type DefParams struct {
	Name     string
	Filename string
	Line     int
	Parent   *Def
	Pool     *LiteralPool
	UnitID   uuid.UUID
}

// NewDef creates a Def and registers it as a child of its parent. A child
// inherits its parent's pool, filename and unit id when they are not set.
func NewDef(params DefParams) *Def {
	d := &Def{
		name:     params.Name,
		filename: params.Filename,
		line:     params.Line,
		parent:   params.Parent,
		pool:     params.Pool,
		unitID:   params.UnitID,
	}
	if p := params.Parent; p != nil {
		p.children = append(p.children, d)
		if d.pool == nil {
			d.pool = p.pool
		}
		if d.filename == "" {
			d.filename = p.filename
		}
		if d.unitID == uuid.Nil {
			d.unitID = p.unitID
		}
	}
	if d.pool == nil {
		d.pool = NewLiteralPool()
	}
	return d
}

// Name returns the function name. Anonymous functions are named
// "<anonymous>".
func (d *Def) Name() string { return d.name }

// Filename returns the name of the source the Def was compiled from.
func (d *Def) Filename() string { return d.filename }

// Line returns the source line where the definition starts.
func (d *Def) Line() int { return d.line }

// UnitID identifies the compile unit that produced the Def.
func (d *Def) UnitID() uuid.UUID { return d.unitID }

// Parent returns the lexically enclosing Def, or nil for the root.
func (d *Def) Parent() *Def { return d.parent }

// Root returns the outermost Def of the unit.
func (d *Def) Root() *Def {
	cur := d
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Depth returns the number of Defs enclosing this one.
func (d *Def) Depth() int {
	n := 0
	for cur := d.parent; cur != nil; cur = cur.parent {
		n++
	}
	return n
}

// Pool returns the literal pool shared by the unit.
func (d *Def) Pool() *LiteralPool { return d.pool }

// ChildCount returns the number of directly nested Defs.
func (d *Def) ChildCount() int { return len(d.children) }

// ChildAt returns the nested Def at the given index, in definition order.
func (d *Def) ChildAt(index int) *Def { return d.children[index] }

// Walk calls fn for the Def and each descendant, parents first.
func (d *Def) Walk(fn func(*Def)) {
	fn(d)
	for _, c := range d.children {
		c.Walk(fn)
	}
}

// NumArgs returns the number of declared parameters, excluding the rest
// parameter.
func (d *Def) NumArgs() int { return d.numArgs }

// NumLocals returns the number of local slots, including parameters.
func (d *Def) NumLocals() int { return d.numLocals }

// MustClose reports whether an inner function captures a local reachable
// through this frame, so the frame must outlive the call.
func (d *Def) MustClose() bool { return d.mustClose }

// IsVarArg reports whether extra arguments are collected into a rest slot
// at offset NumArgs.
func (d *Def) IsVarArg() bool { return d.isVarArg }

// IsKeyword reports whether parameters may be passed by keyword.
func (d *Def) IsKeyword() bool { return d.isKeyword }

// IsGenerator reports whether the body contains a yield.
func (d *Def) IsGenerator() bool { return d.isGenerator }

// MaxStack returns the operand stack depth the code requires.
func (d *Def) MaxStack() int { return d.maxStack }

// IsFinalized reports whether Finalize has been called.
func (d *Def) IsFinalized() bool { return d.finalized }

func (d *Def) SetNumArgs(n int)       { d.numArgs = n }
func (d *Def) SetNumLocals(n int)     { d.numLocals = n }
func (d *Def) SetMustClose()          { d.mustClose = true }
func (d *Def) SetVarArg(v bool)       { d.isVarArg = v }
func (d *Def) SetKeyword(v bool)      { d.isKeyword = v }
func (d *Def) SetGenerator(v bool)    { d.isGenerator = v }
func (d *Def) SetUnitID(id uuid.UUID) { d.unitID = id }

// AllocLocal reserves the next local slot and returns its offset.
func (d *Def) AllocLocal() int {
	off := d.numLocals
	d.numLocals++
	return off
}

// Finalize installs the packed code and debug tables. Input slices are
// copied.
func (d *Def) Finalize(code []uint32, lines []LineEntry, locals []LocalRange, maxStack int) {
	d.code = copyWords(code)
	d.lines = copyLines(lines)
	d.locals = copyLocals(locals)
	d.maxStack = maxStack
	d.finalized = true
}

// Bytecode returns a copy of the packed code.
func (d *Def) Bytecode() []uint32 { return copyWords(d.code) }

// BytecodeLength returns the number of code units.
func (d *Def) BytecodeLength() int { return len(d.code) }

// CodeAt returns the code unit at the given position.
func (d *Def) CodeAt(pos int) uint32 { return d.code[pos] }

// LineCount returns the number of line table entries.
func (d *Def) LineCount() int { return len(d.lines) }

// LineEntryAt returns the line table entry at the given index.
func (d *Def) LineEntryAt(index int) LineEntry { return d.lines[index] }

// LineAt returns the source line of the code at pos, or 0 when unknown.
func (d *Def) LineAt(pos int) int { return lineAt(d.lines, pos) }

// LocalCount returns the number of local range entries.
func (d *Def) LocalCount() int { return len(d.locals) }

// LocalAt returns the local range at the given index.
func (d *Def) LocalAt(index int) LocalRange { return d.locals[index] }

// LocalName returns the name of the slot live at pos, or "".
func (d *Def) LocalName(slot, pos int) string {
	for _, r := range d.locals {
		if r.Slot == slot && r.Contains(pos) {
			return r.Name
		}
	}
	return ""
}

// String returns a one-line summary of the Def.
func (d *Def) String() string {
	var out bytes.Buffer
	fmt.Fprintf(&out, "def %s(args=%d locals=%d stack=%d code=%d", d.name, d.numArgs, d.numLocals, d.maxStack, len(d.code))
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{d.mustClose, "close"},
		{d.isVarArg, "vararg"},
		{d.isKeyword, "keyword"},
		{d.isGenerator, "generator"},
	} {
		if flag.set {
			out.WriteString(" " + flag.name)
		}
	}
	out.WriteString(")")
	return out.String()
}
