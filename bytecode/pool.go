package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// LiteralKind identifies the type of a Literal.
type LiteralKind uint8

const (
	IntLiteral LiteralKind = iota + 1
	FloatLiteral
	StringLiteral
	DefLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case IntLiteral:
		return "int"
	case FloatLiteral:
		return "float"
	case StringLiteral:
		return "string"
	case DefLiteral:
		return "def"
	default:
		return "unknown"
	}
}

// Literal is one constant in a LiteralPool.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Def   *Def
}

// IsNumber reports whether the literal is an int or a float.
func (l Literal) IsNumber() bool {
	return l.Kind == IntLiteral || l.Kind == FloatLiteral
}

// String returns the literal in source form.
func (l Literal) String() string {
	switch l.Kind {
	case IntLiteral:
		return strconv.FormatInt(l.Int, 10)
	case FloatLiteral:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case StringLiteral:
		return strconv.Quote(l.Str)
	case DefLiteral:
		return fmt.Sprintf("<def %s>", l.Def.Name())
	default:
		return "<invalid>"
	}
}

type literalKey struct {
	kind LiteralKind
	i    int64
	bits uint64
	s    string
}

// LiteralPool is an append-only table of constants. Ints, floats and
// strings are deduplicated by value; floats compare by bit pattern so 0.0
// and -0.0 stay distinct. Defs are never deduplicated.
type LiteralPool struct {
	items []Literal
	index map[literalKey]int
}

// NewLiteralPool returns an empty pool.
func NewLiteralPool() *LiteralPool {
	return &LiteralPool{index: map[literalKey]int{}}
}

func (p *LiteralPool) intern(key literalKey, lit Literal) int {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := len(p.items)
	p.items = append(p.items, lit)
	p.index[key] = idx
	return idx
}

// AddInt returns the index of an integer constant, adding it if needed.
func (p *LiteralPool) AddInt(v int64) int {
	return p.intern(literalKey{kind: IntLiteral, i: v}, Literal{Kind: IntLiteral, Int: v})
}

// AddFloat returns the index of a real constant, adding it if needed.
func (p *LiteralPool) AddFloat(v float64) int {
	return p.intern(literalKey{kind: FloatLiteral, bits: math.Float64bits(v)}, Literal{Kind: FloatLiteral, Float: v})
}

// AddString returns the index of a string constant, adding it if needed.
func (p *LiteralPool) AddString(v string) int {
	return p.intern(literalKey{kind: StringLiteral, s: v}, Literal{Kind: StringLiteral, Str: v})
}

// AddDef appends a nested function definition and returns its index.
func (p *LiteralPool) AddDef(d *Def) int {
	p.items = append(p.items, Literal{Kind: DefLiteral, Def: d})
	return len(p.items) - 1
}

// Add adds an arbitrary literal, deduplicating values other than Defs.
func (p *LiteralPool) Add(lit Literal) int {
	switch lit.Kind {
	case IntLiteral:
		return p.AddInt(lit.Int)
	case FloatLiteral:
		return p.AddFloat(lit.Float)
	case StringLiteral:
		return p.AddString(lit.Str)
	default:
		return p.AddDef(lit.Def)
	}
}

// At returns the literal at the given index.
func (p *LiteralPool) At(index int) Literal {
	return p.items[index]
}

// Len returns the number of literals in the pool.
func (p *LiteralPool) Len() int {
	return len(p.items)
}
