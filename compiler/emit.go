package compiler

import (
	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/op"
)

// emit checks a folded graph, packs it into code units and finalizes def
// with the code, its line table, its local ranges and its maximum stack
// depth. params are the ranges of the parameter slots, which are live from
// position zero.
func emit(st *State, def *bytecode.Def, g *Graph, params []bytecode.LocalRange) error {
	// Placeholders that no loop patched.
	for _, in := range g.All() {
		switch in.Op {
		case op.Break:
			return st.errorLine(errors.E2003, in.Line, "break outside of a loop")
		case op.Continue:
			return st.errorLine(errors.E2004, in.Line, "continue outside of a loop")
		}
	}

	pos := make(map[InstrID]int, g.Len())
	order := make([]InstrID, 0, g.Len())
	for id := range g.All() {
		pos[id] = len(order)
		order = append(order, id)
	}
	if len(order) > op.MaxB+1 {
		return st.errorLine(errors.E4004, def.Line(), "function %s is %d instructions long (limit %d)",
			def.Name(), len(order), op.MaxB+1)
	}

	operands := make([]int, len(order))
	for i, id := range order {
		in := g.At(id)
		b := in.B
		if in.Op.IsJump() {
			target, ok := pos[in.Target]
			if !ok {
				return st.errorLine(errors.E4004, in.Line, "%s has no target", in.Op)
			}
			b = target
		}
		if err := checkOperands(st, in, b); err != nil {
			return err
		}
		operands[i] = b
	}

	maxStack, err := stackDepth(st, g, order)
	if err != nil {
		return err
	}

	code := make([]uint32, len(order))
	var lines []bytecode.LineEntry
	for i, id := range order {
		in := g.At(id)
		code[i] = op.Encode(in.Op, in.A, operands[i])
		if len(lines) == 0 || lines[len(lines)-1].Line != in.Line {
			lines = append(lines, bytecode.LineEntry{Pos: i, Line: in.Line})
		}
	}

	locals := localRanges(g, order, params)
	def.Finalize(code, lines, locals, maxStack)
	st.log.Debug().
		Str("function", def.Name()).
		Int("code", len(code)).
		Int("max_stack", maxStack).
		Int("locals", def.NumLocals()).
		Int("folds", st.folds).
		Msg("emitted function")
	return nil
}

// checkOperands reports operands that do not fit their fields.
func checkOperands(st *State, in *Instr, b int) error {
	if in.A < 0 || in.A > op.MaxA {
		return st.errorLine(errors.E4004, in.Line, "%s operand %d out of range", in.Op, in.A)
	}
	if b >= 0 && b <= op.MaxB {
		return nil
	}
	switch in.Op {
	case op.PushLit, op.LoadGlobal, op.StoreGlobal, op.LoadMember, op.StoreMember,
		op.GetField, op.SetField, op.GetMethod, op.MakeFunc, op.MakeProperty,
		op.NewClass, op.NewPackage:
		return st.errorLine(errors.E4002, in.Line, "literal pool holds more than %d entries", op.MaxB+1)
	case op.LoadLocal, op.StoreLocal, op.DeclLocal, op.EndLocal, op.LoadOuter, op.StoreOuter,
		op.ForCheck, op.ForStep:
		return st.errorLine(errors.E4003, in.Line, "more than %d local variables", op.MaxB+1)
	default:
		return st.errorLine(errors.E4004, in.Line, "%s operand %d out of range", in.Op, b)
	}
}

// stackDepth propagates operand stack depths along every edge of the
// graph. Each instruction must be reached with a single depth.
func stackDepth(st *State, g *Graph, order []InstrID) (int, error) {
	if len(order) == 0 {
		return 0, nil
	}
	limit := st.limits.MaxStackDepth
	depth := make(map[InstrID]int, len(order))
	work := []InstrID{order[0]}
	depth[order[0]] = 0
	maxDepth := 0

	reach := func(from *Instr, to InstrID, d int) error {
		if d < 0 {
			return st.errorLine(errors.E4005, from.Line, "%s underflows the operand stack", from.Op)
		}
		if d > limit {
			return st.errorLine(errors.E4001, from.Line, "operand stack deeper than %d", limit)
		}
		if d > maxDepth {
			maxDepth = d
		}
		if to == NoInstr {
			return nil
		}
		if prev, seen := depth[to]; seen {
			if prev != d {
				return st.errorLine(errors.E4005, g.At(to).Line,
					"instruction reached with stack depth %d and %d", prev, d)
			}
			return nil
		}
		depth[to] = d
		work = append(work, to)
		return nil
	}

	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		in := g.At(id)
		d := depth[id]
		info := op.GetInfo(in.Op)
		after := d + op.StackEffect(in.Op, in.A, in.B)
		if !info.Terminal {
			if err := reach(in, g.Next(id), after); err != nil {
				return 0, err
			}
		} else if after < 0 {
			return 0, st.errorLine(errors.E4005, in.Line, "%s underflows the operand stack", in.Op)
		}
		if in.Op.IsJump() && in.Target != NoInstr {
			if err := reach(in, in.Target, d+info.JumpEffect); err != nil {
				return 0, err
			}
		}
	}
	return maxDepth, nil
}

// localRanges builds the debug ranges of named locals: a range opens at the
// DeclLocal that introduces a symbol and closes at the matching EndLocal or
// at the end of the code.
func localRanges(g *Graph, order []InstrID, params []bytecode.LocalRange) []bytecode.LocalRange {
	out := make([]bytecode.LocalRange, 0, len(params))
	for _, p := range params {
		p.Start, p.End = 0, len(order)
		out = append(out, p)
	}
	open := map[int]int{} // slot -> index in out
	for i, id := range order {
		in := g.At(id)
		switch in.Op {
		case op.DeclLocal:
			if idx, ok := open[in.B]; ok {
				out[idx].End = i
				delete(open, in.B)
			}
			if in.Sym != nil {
				open[in.B] = len(out)
				out = append(out, bytecode.LocalRange{Name: in.Sym.Name, Slot: in.B, Start: i, End: len(order)})
			}
		case op.EndLocal:
			if idx, ok := open[in.B]; ok {
				out[idx].End = i
				delete(open, in.B)
			}
		}
	}
	return out
}
