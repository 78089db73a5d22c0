package compiler

import (
	"math"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/op"
)

// fold runs one forward pass of peephole constant folding over a graph
// whose labels are bound. Nothing is folded across a jump target: an
// instruction flagged as a label may be reached with other operands.
func fold(st *State, g *Graph) {
	for id, in := range g.All() {
		switch {
		case in.Op.IsConditional():
			if foldBranch(g, id) {
				st.folds++
			}
		case in.Op == op.Neg:
			if foldNeg(st.pool, g, id) {
				st.folds++
			}
		case isArith(in.Op):
			if foldArith(st.pool, g, id) {
				st.folds++
			}
		}
	}
}

func isArith(code op.Code) bool {
	switch code {
	case op.Add, op.Sub, op.Mul, op.Div, op.IDiv, op.Mod:
		return true
	}
	return false
}

// constant describes an instruction that pushes a known value.
func constant(in *Instr) (truthy, null, ok bool) {
	switch in.Op {
	case op.PushNull:
		return false, true, true
	case op.PushFalse:
		return false, false, true
	case op.PushTrue, op.PushLit:
		return true, false, true
	}
	return false, false, false
}

// foldBranch resolves a conditional branch over a constant push: a branch
// that is always taken becomes a jump, one that never is disappears along
// with the push.
func foldBranch(g *Graph, id InstrID) bool {
	br := g.At(id)
	prevID := g.Prev(id)
	if prevID == NoInstr || br.Label {
		return false
	}
	prev := g.At(prevID)
	truthy, null, ok := constant(prev)
	if !ok || prev.Label {
		return false
	}
	var taken bool
	switch br.Op {
	case op.JumpIfFalse:
		taken = !truthy
	case op.JumpIfTrue:
		taken = truthy
	case op.JumpIfNotNull:
		taken = !null
	}
	g.Remove(prevID)
	if taken {
		br.Op = op.Jump
		return true
	}
	g.Remove(id)
	return true
}

// number is a folded numeric operand.
type number struct {
	isInt bool
	i     int64
	f     float64
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func literalNumber(pool *bytecode.LiteralPool, in *Instr) (number, bool) {
	if in.Op != op.PushLit || in.Label {
		return number{}, false
	}
	lit := pool.At(in.B)
	switch lit.Kind {
	case bytecode.IntLiteral:
		return number{isInt: true, i: lit.Int}, true
	case bytecode.FloatLiteral:
		return number{f: lit.Float}, true
	}
	return number{}, false
}

func addNumber(pool *bytecode.LiteralPool, n number) int {
	if n.isInt {
		return pool.AddInt(n.i)
	}
	return pool.AddFloat(n.f)
}

func foldNeg(pool *bytecode.LiteralPool, g *Graph, id InstrID) bool {
	neg := g.At(id)
	prevID := g.Prev(id)
	if neg.Label || prevID == NoInstr {
		return false
	}
	prev := g.At(prevID)
	n, ok := literalNumber(pool, prev)
	if !ok {
		return false
	}
	if n.isInt {
		if n.i == math.MinInt64 {
			return false
		}
		n.i = -n.i
	} else {
		n.f = -n.f
	}
	prev.B = addNumber(pool, n)
	g.Remove(id)
	return true
}

func foldArith(pool *bytecode.LiteralPool, g *Graph, id InstrID) bool {
	ins := g.At(id)
	yID := g.Prev(id)
	if ins.Label || yID == NoInstr {
		return false
	}
	xID := g.Prev(yID)
	if xID == NoInstr {
		return false
	}
	y, ok := literalNumber(pool, g.At(yID))
	if !ok {
		return false
	}
	x, ok := literalNumber(pool, g.At(xID))
	if !ok {
		return false
	}
	r, ok := arith(ins.Op, x, y)
	if !ok {
		return false
	}
	g.At(xID).B = addNumber(pool, r)
	g.Remove(yID)
	g.Remove(id)
	return true
}

// arith computes x op y the way the runtime does. It declines whenever the
// runtime would raise or the result would not be exact: integer overflow,
// division by zero, and MinInt64 / -1.
func arith(code op.Code, x, y number) (number, bool) {
	if x.isInt && y.isInt {
		return intArith(code, x.i, y.i)
	}
	a, b := x.float(), y.float()
	switch code {
	case op.Add:
		return number{f: a + b}, true
	case op.Sub:
		return number{f: a - b}, true
	case op.Mul:
		return number{f: a * b}, true
	case op.Div:
		if b == 0 {
			return number{}, false
		}
		return number{f: a / b}, true
	case op.IDiv:
		if b == 0 {
			return number{}, false
		}
		return number{f: math.Floor(a / b)}, true
	case op.Mod:
		if b == 0 {
			return number{}, false
		}
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return number{f: r}, true
	}
	return number{}, false
}

func intArith(code op.Code, a, b int64) (number, bool) {
	switch code {
	case op.Add:
		r := a + b
		if (r > a) != (b > 0) {
			return number{}, false
		}
		return number{isInt: true, i: r}, true
	case op.Sub:
		r := a - b
		if (r < a) != (b > 0) {
			return number{}, false
		}
		return number{isInt: true, i: r}, true
	case op.Mul:
		if a == 0 || b == 0 {
			return number{isInt: true}, true
		}
		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return number{}, false
		}
		return number{isInt: true, i: r}, true
	}
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return number{}, false
	}
	switch code {
	case op.Div:
		if a%b == 0 {
			return number{isInt: true, i: a / b}, true
		}
		return number{f: float64(a) / float64(b)}, true
	case op.IDiv:
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return number{isInt: true, i: q}, true
	case op.Mod:
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return number{isInt: true, i: r}, true
	}
	return number{}, false
}
