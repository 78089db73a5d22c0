package compiler

import (
	"iter"

	"github.com/ternlang/tern/op"
	"github.com/ternlang/tern/symtab"
)

// InstrID indexes an Instr in its Graph. IDs are never reused, so a removed
// instruction's ID stays invalid rather than aliasing a newer one.
type InstrID int32

// NoInstr is the null InstrID.
const NoInstr InstrID = -1

// Instr is one unpacked instruction. Jump-format instructions refer to
// their target by ID until the emitter assigns positions.
type Instr struct {
	Op     op.Code
	A      int
	B      int
	Line   int
	Target InstrID

	// Sym is the loop symbol a Break or Continue placeholder belongs to, or
	// the named local a DeclLocal introduces.
	Sym *symtab.Symbol

	// Label marks a jump target. Label placeholders are Nops with Label set
	// that are not yet linked into the list.
	Label bool

	prev    InstrID
	next    InstrID
	placed  bool
	removed bool
}

// IsLabel reports whether the instruction is a label placeholder rather
// than real code.
func (in *Instr) IsLabel() bool {
	return in.Op == op.Nop && in.Label
}

// Graph is the arena that owns the instructions of one function, linked in
// code order.
type Graph struct {
	instrs []Instr
	head   InstrID
	tail   InstrID
	count  int
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{head: NoInstr, tail: NoInstr}
}

// At returns the instruction with the given ID.
func (g *Graph) At(id InstrID) *Instr {
	return &g.instrs[id]
}

// Head returns the first instruction, or NoInstr.
func (g *Graph) Head() InstrID { return g.head }

// Tail returns the last instruction, or NoInstr.
func (g *Graph) Tail() InstrID { return g.tail }

// Len returns the number of linked instructions, labels included.
func (g *Graph) Len() int { return g.count }

// Next returns the instruction after id, or NoInstr.
func (g *Graph) Next(id InstrID) InstrID { return g.instrs[id].next }

// Prev returns the instruction before id, or NoInstr.
func (g *Graph) Prev(id InstrID) InstrID { return g.instrs[id].prev }

func (g *Graph) alloc(in Instr) InstrID {
	id := InstrID(len(g.instrs))
	in.prev, in.next = NoInstr, NoInstr
	in.placed, in.removed = false, false
	g.instrs = append(g.instrs, in)
	return id
}

func (g *Graph) link(id InstrID) {
	in := &g.instrs[id]
	in.placed = true
	in.prev = g.tail
	if g.tail != NoInstr {
		g.instrs[g.tail].next = id
	} else {
		g.head = id
	}
	g.tail = id
	g.count++
}

// Append adds an instruction at the end of the list. Callers set Target to
// NoInstr for instructions without one.
func (g *Graph) Append(in Instr) InstrID {
	id := g.alloc(in)
	g.link(id)
	return id
}

// NewLabel allocates a detached label placeholder.
func (g *Graph) NewLabel() InstrID {
	return g.alloc(Instr{Op: op.Nop, Label: true, Target: NoInstr})
}

// Place links a label created by NewLabel at the end of the list. A label
// is placed exactly once.
func (g *Graph) Place(label InstrID) {
	in := &g.instrs[label]
	if !in.IsLabel() || in.placed {
		panic("compiler: label placed twice or not a label")
	}
	g.link(label)
}

// IsPlaced reports whether id is linked into the list.
func (g *Graph) IsPlaced(id InstrID) bool {
	in := &g.instrs[id]
	return in.placed && !in.removed
}

// Remove unlinks an instruction. Its slot in the arena stays allocated.
func (g *Graph) Remove(id InstrID) {
	in := &g.instrs[id]
	if !in.placed || in.removed {
		return
	}
	if in.prev != NoInstr {
		g.instrs[in.prev].next = in.next
	} else {
		g.head = in.next
	}
	if in.next != NoInstr {
		g.instrs[in.next].prev = in.prev
	} else {
		g.tail = in.prev
	}
	in.removed = true
	in.prev, in.next = NoInstr, NoInstr
	g.count--
}

// All iterates over the linked instructions in code order. The current
// instruction may be removed during iteration.
func (g *Graph) All() iter.Seq2[InstrID, *Instr] {
	return func(yield func(InstrID, *Instr) bool) {
		for id := g.head; id != NoInstr; {
			next := g.instrs[id].next
			if !yield(id, &g.instrs[id]) {
				return
			}
			id = next
		}
	}
}

// Since iterates over instructions allocated at or after start, in
// allocation order, skipping removed ones and unplaced labels.
func (g *Graph) Since(start InstrID) iter.Seq2[InstrID, *Instr] {
	return func(yield func(InstrID, *Instr) bool) {
		for id := start; int(id) < len(g.instrs); id++ {
			if !g.IsPlaced(id) {
				continue
			}
			if !yield(id, &g.instrs[id]) {
				return
			}
		}
	}
}

// Mark returns the ID the next allocation will receive.
func (g *Graph) Mark() InstrID {
	return InstrID(len(g.instrs))
}

// BindLabels moves every jump that targets a label placeholder onto the
// first real instruction after the label, flags that instruction as a
// label, and removes the placeholders.
func (g *Graph) BindLabels() {
	resolved := make(map[InstrID]InstrID)
	next := NoInstr
	for id := g.tail; id != NoInstr; id = g.instrs[id].prev {
		if g.instrs[id].IsLabel() {
			resolved[id] = next
			continue
		}
		next = id
	}
	for _, in := range g.All() {
		if in.IsLabel() || !in.Op.IsJump() || in.Target == NoInstr {
			continue
		}
		if to, ok := resolved[in.Target]; ok {
			in.Target = to
		}
		if in.Target != NoInstr {
			g.instrs[in.Target].Label = true
		}
	}
	for id, in := range g.All() {
		if in.IsLabel() {
			g.Remove(id)
		}
	}
}
