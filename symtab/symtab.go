// Package symtab implements the chained scope tables used to resolve tern
// names. A Table is created for each block, function, script, class,
// package, using, catch and finally body. Lookups walk the parent chain.
package symtab

import (
	"errors"
	"sort"
)

// Kind identifies the construct a Table belongs to.
type Kind uint8

const (
	Block Kind = iota
	Function
	Script
	Class
	Package
	Using
	Catch
	Finally
)

func (k Kind) String() string {
	switch k {
	case Block:
		return "block"
	case Function:
		return "function"
	case Script:
		return "script"
	case Class:
		return "class"
	case Package:
		return "package"
	case Using:
		return "using"
	case Catch:
		return "catch"
	case Finally:
		return "finally"
	default:
		return "unknown"
	}
}

// NoOffset is the Offset of a symbol that does not live in a local slot.
const NoOffset = -1

// Flags describe the storage class of a symbol. A symbol with no flags set
// is a local.
type Flags uint8

const (
	Global Flags = 1 << iota
	With
)

// ErrAlreadyDefined is returned by Define when the name exists in the table.
var ErrAlreadyDefined = errors.New("symbol already defined")

// Symbol is a name bound in a Table.
type Symbol struct {
	Name   string
	Table  *Table
	Flags  Flags
	Offset int
}

// IsGlobal reports whether the symbol names a global variable.
func (s *Symbol) IsGlobal() bool { return s.Flags&Global != 0 }

// IsWith reports whether the symbol names a member of the with-object.
func (s *Symbol) IsWith() bool { return s.Flags&With != 0 }

// IsLocal reports whether the symbol occupies a local slot.
func (s *Symbol) IsLocal() bool { return s.Offset != NoOffset }

// Depth returns the function depth of the table that owns the symbol.
func (s *Symbol) Depth() int {
	if s.Table == nil {
		return 0
	}
	return s.Table.depth
}

// Table is one scope in the chain.
type Table struct {
	parent  *Table
	kind    Kind
	depth   int
	symbols map[string]*Symbol
	order   []*Symbol
	labels  map[string]*Symbol
}

// New returns a table of the given kind nested in parent, which may be nil
// for the outermost scope. Function tables are one level deeper than their
// parent; all other kinds share the parent's depth.
func New(kind Kind, parent *Table) *Table {
	t := &Table{
		parent:  parent,
		kind:    kind,
		symbols: map[string]*Symbol{},
	}
	if parent != nil {
		t.depth = parent.depth
		if kind == Function {
			t.depth++
		}
	}
	return t
}

func (t *Table) Parent() *Table { return t.parent }
func (t *Table) Kind() Kind     { return t.kind }

// Depth returns the number of function tables enclosing this table,
// counting the table itself.
func (t *Table) Depth() int { return t.depth }

// Define adds a symbol to this table. It fails if the name already exists
// here; names in enclosing tables are shadowed.
func (t *Table) Define(name string, flags Flags, offset int) (*Symbol, error) {
	if _, ok := t.symbols[name]; ok {
		return nil, ErrAlreadyDefined
	}
	return t.add(name, flags, offset), nil
}

// Shadow adds a symbol to this table, replacing any symbol of the same name
// already defined here. The replaced symbol keeps its slot.
func (t *Table) Shadow(name string, flags Flags, offset int) *Symbol {
	return t.add(name, flags, offset)
}

func (t *Table) add(name string, flags Flags, offset int) *Symbol {
	if flags != 0 {
		offset = NoOffset
	}
	sym := &Symbol{Name: name, Table: t, Flags: flags, Offset: offset}
	t.symbols[name] = sym
	t.order = append(t.order, sym)
	return sym
}

// LookupLocal finds a name in this table only.
func (t *Table) LookupLocal(name string) *Symbol {
	return t.symbols[name]
}

// Lookup finds a name in this table or the nearest enclosing table that
// defines it.
func (t *Table) Lookup(name string) *Symbol {
	for cur := t; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// Symbols returns the symbols defined in this table in definition order,
// including shadowed ones.
func (t *Table) Symbols() []*Symbol {
	return t.order
}

// Locals returns the local symbols defined in this table in definition
// order.
func (t *Table) Locals() []*Symbol {
	var out []*Symbol
	for _, sym := range t.order {
		if sym.IsLocal() {
			out = append(out, sym)
		}
	}
	return out
}

// IsFunction reports whether the table is a function or script body.
func (t *Table) IsFunction() bool {
	return t.kind == Function || t.kind == Script
}

// IsPackage reports whether the table is a class or package body.
func (t *Table) IsPackage() bool {
	return t.kind == Class || t.kind == Package
}

// IsUsing reports whether the table is a using body.
func (t *Table) IsUsing() bool {
	return t.kind == Using
}

// IsNoInherit reports whether the table stops with-object inheritance.
func (t *Table) IsNoInherit() bool {
	return t.kind == Catch || t.kind == Finally
}

// Function returns the nearest enclosing function or script table.
func (t *Table) Function() *Table {
	cur := t
	for cur != nil && !cur.IsFunction() {
		cur = cur.parent
	}
	return cur
}

// WithScope returns the class, package or using table whose object is the
// innermost with-object for this table, or nil. The search stops at the
// enclosing function and at catch or finally bodies.
func (t *Table) WithScope() *Table {
	for cur := t; cur != nil; cur = cur.parent {
		switch {
		case cur.IsNoInherit(), cur.IsFunction():
			return nil
		case cur.IsPackage(), cur.IsUsing():
			return cur
		}
	}
	return nil
}

// IsWithBlock reports whether unknown names in this table refer to members
// of a with-object.
func (t *Table) IsWithBlock() bool {
	return t.WithScope() != nil
}

// DefaultsToGlobal reports whether names first assigned in this table are
// globals: script, package and using bodies default to global, function
// bodies to local.
func (t *Table) DefaultsToGlobal() bool {
	for cur := t; cur != nil; cur = cur.parent {
		switch cur.kind {
		case Function:
			return false
		case Script, Package, Using:
			return true
		}
	}
	return true
}

// InPackageBody reports whether the table is inside a class or package body
// without an intervening function.
func (t *Table) InPackageBody() bool {
	for cur := t; cur != nil && !cur.IsFunction(); cur = cur.parent {
		if cur.IsPackage() {
			return true
		}
	}
	return false
}

// DefineLabel binds a loop label in this table. The returned symbol has no
// storage and identifies the loop.
func (t *Table) DefineLabel(name string) *Symbol {
	if t.labels == nil {
		t.labels = map[string]*Symbol{}
	}
	sym := &Symbol{Name: name, Table: t, Offset: NoOffset}
	t.labels[name] = sym
	return sym
}

// LookupLabel finds a loop label visible from this table. Labels do not
// cross function, class or package bodies.
func (t *Table) LookupLabel(name string) *Symbol {
	for cur := t; cur != nil; cur = cur.parent {
		if sym, ok := cur.labels[name]; ok {
			return sym
		}
		if cur.IsFunction() || cur.IsPackage() {
			return nil
		}
	}
	return nil
}

// Labels returns the names of all labels visible from this table, sorted.
func (t *Table) Labels() []string {
	var names []string
	for cur := t; cur != nil; cur = cur.parent {
		for name := range cur.labels {
			names = append(names, name)
		}
		if cur.IsFunction() || cur.IsPackage() {
			break
		}
	}
	sort.Strings(names)
	return names
}

// Names returns every name visible from this table, innermost first.
func (t *Table) Names() []string {
	seen := map[string]bool{}
	var names []string
	for cur := t; cur != nil; cur = cur.parent {
		for _, sym := range cur.order {
			if !seen[sym.Name] {
				seen[sym.Name] = true
				names = append(names, sym.Name)
			}
		}
	}
	return names
}
