package ast

import (
	"bytes"
	"strings"

	"github.com/ternlang/tern/internal/token"
)

// Storage is the storage class requested by a declaration keyword.
type Storage int

const (
	StorageDefault Storage = iota // no keyword; the enclosing scope decides
	StorageLocal
	StorageGlobal
	StorageMember
)

func (s Storage) String() string {
	switch s {
	case StorageLocal:
		return "local"
	case StorageGlobal:
		return "global"
	case StorageMember:
		return "member"
	default:
		return ""
	}
}

// Block is a sequence of statements forming one lexical scope.
type Block struct {
	Begin  token.Position
	Stmts  []Stmt
	EndPos token.Position
}

func (s *Block) stmtNode() {}

func (s *Block) Pos() token.Position { return s.Begin }
func (s *Block) End() token.Position { return s.EndPos }

func (s *Block) String() string {
	return strings.TrimSpace(s.blockString())
}

func (s *Block) blockString() string {
	if s == nil || len(s.Stmts) == 0 {
		return " "
	}
	parts := make([]string, 0, len(s.Stmts))
	for _, stmt := range s.Stmts {
		parts = append(parts, stmt.String())
	}
	return " " + strings.Join(parts, "; ") + " "
}

// Decl is a function, property, class or package declaration with an
// optional storage keyword. Value is one of *Func, *Property, *Class or
// *Package and always carries a name.
type Decl struct {
	StoragePos token.Position // position of the storage keyword, if any
	Storage    Storage
	Value      Expr
}

func (s *Decl) stmtNode() {}

func (s *Decl) Pos() token.Position {
	if s.Storage != StorageDefault {
		return s.StoragePos
	}
	return s.Value.Pos()
}

func (s *Decl) End() token.Position { return s.Value.End() }

// Name returns the declared name.
func (s *Decl) Name() *Ident {
	switch v := s.Value.(type) {
	case *Func:
		return v.Name
	case *Property:
		return v.Name
	case *Class:
		return v.Name
	case *Package:
		return v.Name
	}
	return nil
}

func (s *Decl) String() string {
	if s.Storage == StorageDefault {
		return s.Value.String()
	}
	return s.Storage.String() + " " + s.Value.String()
}

// VarDecl declares one or more variables with an explicit storage class,
// e.g. "local a, b = 1, 2".
type VarDecl struct {
	StoragePos token.Position
	Storage    Storage
	Names      []*Ident
	Values     []Expr
}

func (s *VarDecl) stmtNode() {}

func (s *VarDecl) Pos() token.Position { return s.StoragePos }

func (s *VarDecl) End() token.Position {
	if n := len(s.Values); n > 0 {
		return s.Values[n-1].End()
	}
	return s.Names[len(s.Names)-1].End()
}

func (s *VarDecl) String() string {
	var out bytes.Buffer
	out.WriteString(s.Storage.String())
	out.WriteString(" ")
	out.WriteString(joinExprs(identsToExprs(s.Names)))
	if len(s.Values) > 0 {
		out.WriteString(" = ")
		out.WriteString(joinExprs(s.Values))
	}
	return out.String()
}

// Assign is an assignment to one or more targets. Op is "=" or a compound
// operator such as "+="; compound assignments have exactly one target and
// one value.
type Assign struct {
	Targets []Expr
	OpPos   token.Position
	Op      string
	Values  []Expr
}

func (s *Assign) stmtNode() {}

func (s *Assign) Pos() token.Position { return s.Targets[0].Pos() }
func (s *Assign) End() token.Position { return s.Values[len(s.Values)-1].End() }

func (s *Assign) String() string {
	return joinExprs(s.Targets) + " " + s.Op + " " + joinExprs(s.Values)
}

// IfClause is one "if" or "elseif" arm.
type IfClause struct {
	Cond Expr
	Body *Block
}

// If is a conditional statement.
type If struct {
	IfPos   token.Position
	Clauses []*IfClause
	Else    *Block
	EndPos  token.Position
}

func (s *If) stmtNode() {}

func (s *If) Pos() token.Position { return s.IfPos }
func (s *If) End() token.Position { return s.EndPos }

func (s *If) String() string {
	var out bytes.Buffer
	for i, c := range s.Clauses {
		if i == 0 {
			out.WriteString("if ")
		} else {
			out.WriteString("elseif ")
		}
		out.WriteString(c.Cond.String())
		out.WriteString(" then")
		out.WriteString(c.Body.blockString())
	}
	if s.Else != nil {
		out.WriteString("else")
		out.WriteString(s.Else.blockString())
	}
	out.WriteString("end")
	return out.String()
}

// While is a pre-tested loop.
type While struct {
	WhilePos token.Position
	Cond     Expr
	Body     *Block
	EndPos   token.Position
}

func (s *While) stmtNode() {}

func (s *While) Pos() token.Position { return s.WhilePos }
func (s *While) End() token.Position { return s.EndPos }

func (s *While) String() string {
	return "while " + s.Cond.String() + " do" + s.Body.blockString() + "end"
}

// Repeat is a post-tested loop that runs until its condition is true.
type Repeat struct {
	RepeatPos token.Position
	Body      *Block
	Cond      Expr
}

func (s *Repeat) stmtNode() {}

func (s *Repeat) Pos() token.Position { return s.RepeatPos }
func (s *Repeat) End() token.Position { return s.Cond.End() }

func (s *Repeat) String() string {
	return "repeat" + s.Body.blockString() + "until " + s.Cond.String()
}

// For is a numeric loop "for i = a to b step s do ... end".
type For struct {
	ForPos token.Position
	Var    *Ident
	From   Expr
	To     Expr
	Step   Expr // nil means 1
	Body   *Block
	EndPos token.Position
}

func (s *For) stmtNode() {}

func (s *For) Pos() token.Position { return s.ForPos }
func (s *For) End() token.Position { return s.EndPos }

func (s *For) String() string {
	var out bytes.Buffer
	out.WriteString("for " + s.Var.Name + " = " + s.From.String() + " to " + s.To.String())
	if s.Step != nil {
		out.WriteString(" step " + s.Step.String())
	}
	out.WriteString(" do" + s.Body.blockString() + "end")
	return out.String()
}

// ForEach iterates over a sequence "foreach k, v in seq do ... end".
type ForEach struct {
	ForPos token.Position
	Vars   []*Ident // one or two loop variables
	Seq    Expr
	Body   *Block
	EndPos token.Position
}

func (s *ForEach) stmtNode() {}

func (s *ForEach) Pos() token.Position { return s.ForPos }
func (s *ForEach) End() token.Position { return s.EndPos }

func (s *ForEach) String() string {
	return "foreach " + joinExprs(identsToExprs(s.Vars)) + " in " + s.Seq.String() +
		" do" + s.Body.blockString() + "end"
}

// Catch is one catch clause. Var and Type are both optional; a clause
// without Type is a catch-all.
type Catch struct {
	CatchPos token.Position
	Var      *Ident
	Type     Expr
	Body     *Block
}

func (s *Catch) Pos() token.Position { return s.CatchPos }
func (s *Catch) End() token.Position { return s.Body.End() }

func (s *Catch) String() string {
	var out bytes.Buffer
	out.WriteString("catch")
	if s.Var != nil {
		out.WriteString(" " + s.Var.Name)
	}
	if s.Type != nil {
		out.WriteString(" is " + s.Type.String())
	}
	out.WriteString(" do" + s.Body.blockString())
	return out.String()
}

// Try is an exception handling statement.
type Try struct {
	TryPos  token.Position
	Body    *Block
	Catches []*Catch
	Else    *Block // runs only when Body completes without raising
	Finally *Block
	EndPos  token.Position
}

func (s *Try) stmtNode() {}

func (s *Try) Pos() token.Position { return s.TryPos }
func (s *Try) End() token.Position { return s.EndPos }

func (s *Try) String() string {
	var out bytes.Buffer
	out.WriteString("try" + s.Body.blockString())
	for _, c := range s.Catches {
		out.WriteString(c.String())
	}
	if s.Else != nil {
		out.WriteString("else" + s.Else.blockString())
	}
	if s.Finally != nil {
		out.WriteString("finally" + s.Finally.blockString())
	}
	out.WriteString("end")
	return out.String()
}

// Raise raises an exception. A nil Value re-raises the exception being
// handled by the enclosing catch clause.
type Raise struct {
	RaisePos token.Position
	Value    Expr
}

func (s *Raise) stmtNode() {}

func (s *Raise) Pos() token.Position { return s.RaisePos }

func (s *Raise) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.RaisePos.Advance(5)
}

func (s *Raise) String() string {
	if s.Value == nil {
		return "raise"
	}
	return "raise " + s.Value.String()
}

// Using runs its body with Object as the innermost with-object.
type Using struct {
	UsingPos token.Position
	Object   Expr
	Body     *Block
	EndPos   token.Position
}

func (s *Using) stmtNode() {}

func (s *Using) Pos() token.Position { return s.UsingPos }
func (s *Using) End() token.Position { return s.EndPos }

func (s *Using) String() string {
	return "using " + s.Object.String() + " do" + s.Body.blockString() + "end"
}

// Do is an explicit nested block "do ... end".
type Do struct {
	DoPos  token.Position
	Body   *Block
	EndPos token.Position
}

func (s *Do) stmtNode() {}

func (s *Do) Pos() token.Position { return s.DoPos }
func (s *Do) End() token.Position { return s.EndPos }
func (s *Do) String() string      { return "do" + s.Body.blockString() + "end" }

// Labeled attaches a label to a statement. Only loops give a label meaning.
type Labeled struct {
	Label *Ident
	Colon token.Position
	Stmt  Stmt
}

func (s *Labeled) stmtNode() {}

func (s *Labeled) Pos() token.Position { return s.Label.Pos() }
func (s *Labeled) End() token.Position { return s.Stmt.End() }
func (s *Labeled) String() string      { return s.Label.Name + ": " + s.Stmt.String() }

// Break exits the innermost loop, or the loop with the given label.
type Break struct {
	BreakPos token.Position
	Label    *Ident
}

func (s *Break) stmtNode() {}

func (s *Break) Pos() token.Position { return s.BreakPos }

func (s *Break) End() token.Position {
	if s.Label != nil {
		return s.Label.End()
	}
	return s.BreakPos.Advance(5)
}

func (s *Break) String() string {
	if s.Label != nil {
		return "break " + s.Label.Name
	}
	return "break"
}

// Continue starts the next iteration of the innermost or labeled loop.
type Continue struct {
	ContinuePos token.Position
	Label       *Ident
}

func (s *Continue) stmtNode() {}

func (s *Continue) Pos() token.Position { return s.ContinuePos }

func (s *Continue) End() token.Position {
	if s.Label != nil {
		return s.Label.End()
	}
	return s.ContinuePos.Advance(8)
}

func (s *Continue) String() string {
	if s.Label != nil {
		return "continue " + s.Label.Name
	}
	return "continue"
}

// Return returns zero or more values from the running function.
type Return struct {
	ReturnPos token.Position
	Values    []Expr
}

func (s *Return) stmtNode() {}

func (s *Return) Pos() token.Position { return s.ReturnPos }

func (s *Return) End() token.Position {
	if n := len(s.Values); n > 0 {
		return s.Values[n-1].End()
	}
	return s.ReturnPos.Advance(6)
}

func (s *Return) String() string {
	if len(s.Values) == 0 {
		return "return"
	}
	return "return " + joinExprs(s.Values)
}

// Yield produces zero or more values from a generator function.
type Yield struct {
	YieldPos token.Position
	Values   []Expr
}

func (s *Yield) stmtNode() {}

func (s *Yield) Pos() token.Position { return s.YieldPos }

func (s *Yield) End() token.Position {
	if n := len(s.Values); n > 0 {
		return s.Values[n-1].End()
	}
	return s.YieldPos.Advance(5)
}

func (s *Yield) String() string {
	if len(s.Values) == 0 {
		return "yield"
	}
	return "yield " + joinExprs(s.Values)
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) stmtNode() {}

func (s *ExprStmt) Pos() token.Position { return s.X.Pos() }
func (s *ExprStmt) End() token.Position { return s.X.End() }
func (s *ExprStmt) String() string      { return s.X.String() }

func joinExprs(exprs []Expr) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func identsToExprs(idents []*Ident) []Expr {
	exprs := make([]Expr, 0, len(idents))
	for _, id := range idents {
		exprs = append(exprs, id)
	}
	return exprs
}
