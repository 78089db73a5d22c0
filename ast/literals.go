package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/ternlang/tern/internal/token"
)

// Int is an integer literal.
type Int struct {
	ValuePos token.Position
	Literal  string // original source text, e.g. "0x1F"
	Value    int64
}

func (x *Int) exprNode() {}

func (x *Int) Pos() token.Position { return x.ValuePos }
func (x *Int) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }
func (x *Int) String() string      { return x.Literal }

// Float is a real number literal.
type Float struct {
	ValuePos token.Position
	Literal  string
	Value    float64
}

func (x *Float) exprNode() {}

func (x *Float) Pos() token.Position { return x.ValuePos }
func (x *Float) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }
func (x *Float) String() string      { return x.Literal }

// String is a plain string literal, or one literal segment of a StringCons.
type String struct {
	ValuePos token.Position
	EndPos   token.Position
	Value    string
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.EndPos }
func (x *String) String() string      { return strconv.Quote(x.Value) }

// StringCons is an interpolated string. Parts alternates between *String
// segments and embedded expressions, in source order.
type StringCons struct {
	Begin  token.Position
	EndPos token.Position
	Parts  []Expr
}

func (x *StringCons) exprNode() {}

func (x *StringCons) Pos() token.Position { return x.Begin }
func (x *StringCons) End() token.Position { return x.EndPos }

func (x *StringCons) String() string {
	var out bytes.Buffer
	out.WriteByte('"')
	for _, part := range x.Parts {
		if s, ok := part.(*String); ok {
			q := strconv.Quote(s.Value)
			out.WriteString(q[1 : len(q)-1])
			continue
		}
		out.WriteByte('{')
		out.WriteString(part.String())
		out.WriteByte('}')
	}
	out.WriteByte('"')
	return out.String()
}

// Bool is a true or false literal.
type Bool struct {
	ValuePos token.Position
	Value    bool
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }
func (x *Bool) End() token.Position { return x.ValuePos.Advance(len(x.String())) }
func (x *Bool) String() string      { return strconv.FormatBool(x.Value) }

// Null is the null literal.
type Null struct {
	NullPos token.Position
}

func (x *Null) exprNode() {}

func (x *Null) Pos() token.Position { return x.NullPos }
func (x *Null) End() token.Position { return x.NullPos.Advance(4) }
func (x *Null) String() string      { return "null" }

// List is a list literal, e.g. [1, 2, 3].
type List struct {
	Lbrack token.Position
	Items  []Expr
	Rbrack token.Position
}

func (x *List) exprNode() {}

func (x *List) Pos() token.Position { return x.Lbrack }
func (x *List) End() token.Position { return x.Rbrack.Advance(1) }

func (x *List) String() string {
	items := make([]string, 0, len(x.Items))
	for _, item := range x.Items {
		items = append(items, item.String())
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// MapItem is one key/value pair in a map literal.
type MapItem struct {
	Key   Expr
	Value Expr
}

// Map is a map literal, e.g. {"a": 1}.
type Map struct {
	Lbrace token.Position
	Items  []MapItem
	Rbrace token.Position
}

func (x *Map) exprNode() {}

func (x *Map) Pos() token.Position { return x.Lbrace }
func (x *Map) End() token.Position { return x.Rbrace.Advance(1) }

func (x *Map) String() string {
	items := make([]string, 0, len(x.Items))
	for _, item := range x.Items {
		items = append(items, item.Key.String()+": "+item.Value.String())
	}
	return "{" + strings.Join(items, ", ") + "}"
}

// Param is a function parameter with an optional default value. Parameters
// with defaults may also be passed by keyword.
type Param struct {
	Name    *Ident
	Default Expr
}

func (x *Param) Pos() token.Position { return x.Name.Pos() }

func (x *Param) End() token.Position {
	if x.Default != nil {
		return x.Default.End()
	}
	return x.Name.End()
}

func (x *Param) String() string {
	if x.Default != nil {
		return x.Name.Name + " = " + x.Default.String()
	}
	return x.Name.Name
}

// Func is a function literal or the value of a function declaration.
type Func struct {
	FuncPos token.Position
	Name    *Ident // nil for anonymous functions
	Params  []*Param
	VarArg  bool   // the parameter list ends with "..."
	Rest    *Ident // optional name bound to the extra arguments
	Body    *Block
	EndPos  token.Position
}

func (x *Func) exprNode() {}

func (x *Func) Pos() token.Position { return x.FuncPos }
func (x *Func) End() token.Position { return x.EndPos }

// HasDefaults reports whether any parameter declares a default value.
func (x *Func) HasDefaults() bool {
	for _, p := range x.Params {
		if p.Default != nil {
			return true
		}
	}
	return false
}

func (x *Func) String() string {
	var out bytes.Buffer
	out.WriteString("function")
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	params := make([]string, 0, len(x.Params)+1)
	for _, p := range x.Params {
		params = append(params, p.String())
	}
	if x.VarArg {
		rest := "..."
		if x.Rest != nil {
			rest += x.Rest.Name
		}
		params = append(params, rest)
	}
	out.WriteString("(" + strings.Join(params, ", ") + ")")
	out.WriteString(x.Body.blockString())
	out.WriteString("end")
	return out.String()
}

// Property is a property literal with optional getter and setter functions.
type Property struct {
	PropPos token.Position
	Name    *Ident // nil for anonymous properties
	Getter  *Func
	Setter  *Func
	EndPos  token.Position
}

func (x *Property) exprNode() {}

func (x *Property) Pos() token.Position { return x.PropPos }
func (x *Property) End() token.Position { return x.EndPos }

func (x *Property) String() string {
	var out bytes.Buffer
	out.WriteString("property")
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	if x.Getter != nil {
		out.WriteString(" get" + x.Getter.Body.blockString())
	}
	if x.Setter != nil {
		out.WriteString(" set(" + x.Setter.Params[0].Name.Name + ")" + x.Setter.Body.blockString())
	}
	out.WriteString("end")
	return out.String()
}

// Class is a class literal. The body executes with the new class as the
// innermost with-object.
type Class struct {
	ClassPos token.Position
	Name     *Ident
	Base     Expr
	Body     *Block
	EndPos   token.Position
}

func (x *Class) exprNode() {}

func (x *Class) Pos() token.Position { return x.ClassPos }
func (x *Class) End() token.Position { return x.EndPos }

func (x *Class) String() string {
	var out bytes.Buffer
	out.WriteString("class")
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	if x.Base != nil {
		out.WriteString(" is " + x.Base.String())
	}
	out.WriteString(x.Body.blockString())
	out.WriteString("end")
	return out.String()
}

// Package is a package literal.
type Package struct {
	PkgPos token.Position
	Name   *Ident
	Body   *Block
	EndPos token.Position
}

func (x *Package) exprNode() {}

func (x *Package) Pos() token.Position { return x.PkgPos }
func (x *Package) End() token.Position { return x.EndPos }

func (x *Package) String() string {
	var out bytes.Buffer
	out.WriteString("package")
	if x.Name != nil {
		out.WriteString(" " + x.Name.Name)
	}
	out.WriteString(x.Body.blockString())
	out.WriteString("end")
	return out.String()
}
