package compiler

import (
	"fmt"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/symtab"
)

// BindingKind says where the value of a name lives at run time.
type BindingKind uint8

const (
	BindLocal BindingKind = iota
	BindOuter
	BindGlobal
	BindMember
)

func (k BindingKind) String() string {
	switch k {
	case BindLocal:
		return "local"
	case BindOuter:
		return "outer"
	case BindGlobal:
		return "global"
	case BindMember:
		return "member"
	default:
		return "unknown"
	}
}

// Binding is the resolved storage of one identifier occurrence.
type Binding struct {
	Kind   BindingKind
	Name   string
	Offset int  // slot, for BindLocal and BindOuter
	Depth  int  // function levels between use and definition, for BindOuter
	Decl   bool // the occurrence introduces the local
	Sym    *symtab.Symbol
}

// Resources is everything CalculateResources learned about a tree. The
// generator reads it; nothing here is mutated after resolution.
type Resources struct {
	root    *bytecode.Def
	idents  map[*ast.Ident]*Binding
	funcs   map[*ast.Func]*bytecode.Def
	blocks  map[*ast.Block][]*symtab.Symbol
	forBase map[*ast.For]int
	iters   map[*ast.ForEach]int
	catches map[*ast.Catch]int
	raises  map[*ast.Raise]int
	loops   map[ast.Stmt]*symtab.Symbol
	jumps   map[ast.Stmt]*symtab.Symbol
}

func newResources(root *bytecode.Def) *Resources {
	return &Resources{
		root:    root,
		idents:  map[*ast.Ident]*Binding{},
		funcs:   map[*ast.Func]*bytecode.Def{},
		blocks:  map[*ast.Block][]*symtab.Symbol{},
		forBase: map[*ast.For]int{},
		iters:   map[*ast.ForEach]int{},
		catches: map[*ast.Catch]int{},
		raises:  map[*ast.Raise]int{},
		loops:   map[ast.Stmt]*symtab.Symbol{},
		jumps:   map[ast.Stmt]*symtab.Symbol{},
	}
}

// Root returns the script Def.
func (r *Resources) Root() *bytecode.Def { return r.root }

// Binding returns the binding of an identifier, or nil if it was never
// resolved.
func (r *Resources) Binding(id *ast.Ident) *Binding { return r.idents[id] }

// Def returns the Def allocated for a function literal.
func (r *Resources) Def(fn *ast.Func) *bytecode.Def { return r.funcs[fn] }

// BlockLocals returns the locals declared directly in a block, in
// declaration order.
func (r *Resources) BlockLocals(b *ast.Block) []*symtab.Symbol { return r.blocks[b] }

// ForBase returns the first of the three slots of a numeric for loop: the
// loop variable, the bound and the step.
func (r *Resources) ForBase(s *ast.For) int { return r.forBase[s] }

// IteratorSlot returns the hidden slot holding a foreach iterator.
func (r *Resources) IteratorSlot(s *ast.ForEach) int { return r.iters[s] }

// CatchSlot returns the slot a catch clause binds the raised value to.
func (r *Resources) CatchSlot(c *ast.Catch) int { return r.catches[c] }

// RaiseSlot returns the catch slot a bare raise re-raises.
func (r *Resources) RaiseSlot(s *ast.Raise) (int, bool) {
	slot, ok := r.raises[s]
	return slot, ok
}

// LoopLabel returns the label symbol of a labeled loop, or nil.
func (r *Resources) LoopLabel(loop ast.Stmt) *symtab.Symbol { return r.loops[loop] }

// JumpLabel returns the loop label a break or continue names, or nil for
// an unlabeled jump.
func (r *Resources) JumpLabel(s ast.Stmt) *symtab.Symbol { return r.jumps[s] }

// tryState tracks the exception context of the statement being resolved.
// It is reset at every function boundary.
type tryState struct {
	inTry    bool
	inCatch  bool
	catchVar int
}

type resolver struct {
	st    *State
	res   *Resources
	table *symtab.Table
	def   *bytecode.Def
	defs  []*bytecode.Def // indexed by function depth
	try   tryState
}

// CalculateResources walks a parsed unit, builds its scope chain, binds
// every identifier, allocates local slots and nested Defs, and checks the
// structural rules that do not depend on code layout. It stops at the first
// fault.
func CalculateResources(st *State, program *ast.Program) (*Resources, error) {
	res := newResources(st.root)
	r := &resolver{
		st:    st,
		res:   res,
		table: symtab.New(symtab.Script, nil),
		def:   st.root,
		defs:  []*bytecode.Def{st.root},
	}
	if err := r.stmts(program.Stmts); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *resolver) scoped(t *symtab.Table, fn func() error) error {
	saved := r.table
	r.table = t
	defer func() { r.table = saved }()
	return fn()
}

// block resolves b in a new table of the given kind and records the locals
// that need closing when the block ends.
func (r *resolver) block(b *ast.Block, kind symtab.Kind) error {
	if b == nil {
		return nil
	}
	return r.blockIn(b, symtab.New(kind, r.table))
}

func (r *resolver) blockIn(b *ast.Block, t *symtab.Table) error {
	return r.scoped(t, func() error {
		if err := r.stmts(b.Stmts); err != nil {
			return err
		}
		r.res.blocks[b] = t.Locals()
		return nil
	})
}

func (r *resolver) stmts(list []ast.Stmt) error {
	warned := false
	for i, s := range list {
		if err := r.stmt(s); err != nil {
			return err
		}
		if !warned && i+1 < len(list) && endsFlow(s) {
			r.st.warnAt(errors.W1003, list[i+1], "unreachable code")
			warned = true
		}
	}
	return nil
}

func endsFlow(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.Return, *ast.Raise, *ast.Break, *ast.Continue:
		return true
	}
	return false
}

func isLoop(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.While, *ast.Repeat, *ast.For, *ast.ForEach:
		return true
	}
	return false
}

func (r *resolver) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Decl:
		return r.decl(s)
	case *ast.VarDecl:
		return r.varDecl(s)
	case *ast.Assign:
		return r.assign(s)
	case *ast.If:
		for _, c := range s.Clauses {
			if err := r.expr(c.Cond); err != nil {
				return err
			}
			if err := r.block(c.Body, symtab.Block); err != nil {
				return err
			}
		}
		return r.block(s.Else, symtab.Block)
	case *ast.While:
		if err := r.expr(s.Cond); err != nil {
			return err
		}
		return r.block(s.Body, symtab.Block)
	case *ast.Repeat:
		if err := r.block(s.Body, symtab.Block); err != nil {
			return err
		}
		return r.expr(s.Cond)
	case *ast.For:
		return r.forStmt(s)
	case *ast.ForEach:
		return r.forEach(s)
	case *ast.Try:
		return r.tryStmt(s)
	case *ast.Raise:
		if s.Value != nil {
			return r.expr(s.Value)
		}
		if !r.try.inCatch {
			return r.st.errorf(errors.E2002, s, "raise without a value outside of a catch clause")
		}
		r.res.raises[s] = r.try.catchVar
		return nil
	case *ast.Using:
		if err := r.expr(s.Object); err != nil {
			return err
		}
		return r.block(s.Body, symtab.Using)
	case *ast.Do:
		return r.block(s.Body, symtab.Block)
	case *ast.Labeled:
		return r.labeled(s)
	case *ast.Break:
		return r.jump(s, s.Label)
	case *ast.Continue:
		return r.jump(s, s.Label)
	case *ast.Return:
		return r.results(s, s.Values, "return")
	case *ast.Yield:
		if err := r.results(s, s.Values, "yield"); err != nil {
			return err
		}
		r.def.SetGenerator(true)
		return nil
	case *ast.ExprStmt:
		return r.expr(s.X)
	case *ast.BadStmt:
		return r.st.errorf(errors.E1003, s, "invalid statement")
	default:
		panic(fmt.Sprintf("compiler: unexpected statement %T", s))
	}
}

func (r *resolver) labeled(s *ast.Labeled) error {
	if !isLoop(s.Stmt) {
		r.st.warnAt(errors.W1001, s.Label, "label %q is not on a loop and cannot be jumped to", s.Label.Name)
		return r.stmt(s.Stmt)
	}
	t := symtab.New(symtab.Block, r.table)
	r.res.loops[s.Stmt] = t.DefineLabel(s.Label.Name)
	return r.scoped(t, func() error { return r.stmt(s.Stmt) })
}

func (r *resolver) jump(s ast.Stmt, label *ast.Ident) error {
	if label == nil {
		return nil
	}
	sym := r.table.LookupLabel(label.Name)
	if sym == nil {
		err := r.st.errorf(errors.E2001, label, "unknown label %q", label.Name)
		err.Suggestions = errors.SuggestSimilar(label.Name, r.table.Labels())
		return err
	}
	r.res.jumps[s] = sym
	return nil
}

func (r *resolver) results(s ast.Stmt, values []ast.Expr, what string) error {
	if r.table.InPackageBody() {
		return r.st.errorf(errors.E2014, s, "%s inside a class or package body", what)
	}
	if limit := r.st.limits.MaxReturnValues; len(values) > limit {
		return r.st.errorf(errors.E2008, s, "%s has %d values (limit %d)", what, len(values), limit)
	}
	return r.exprs(values)
}

func (r *resolver) forStmt(s *ast.For) error {
	if err := r.exprs([]ast.Expr{s.From, s.To}); err != nil {
		return err
	}
	if s.Step != nil {
		if err := r.expr(s.Step); err != nil {
			return err
		}
	}
	t := symtab.New(symtab.Block, r.table)
	base := r.def.AllocLocal()
	r.def.AllocLocal() // bound
	r.def.AllocLocal() // step
	sym, _ := t.Define(s.Var.Name, 0, base)
	r.res.idents[s.Var] = &Binding{Kind: BindLocal, Name: s.Var.Name, Offset: base, Decl: true, Sym: sym}
	r.res.forBase[s] = base
	return r.scoped(t, func() error { return r.block(s.Body, symtab.Block) })
}

func (r *resolver) forEach(s *ast.ForEach) error {
	if err := r.expr(s.Seq); err != nil {
		return err
	}
	t := symtab.New(symtab.Block, r.table)
	r.res.iters[s] = r.def.AllocLocal()
	for _, v := range s.Vars {
		slot := r.def.AllocLocal()
		sym, err := t.Define(v.Name, 0, slot)
		if err != nil {
			return r.st.errorf(errors.E2011, v, "loop variable %q is declared twice", v.Name)
		}
		r.res.idents[v] = &Binding{Kind: BindLocal, Name: v.Name, Offset: slot, Decl: true, Sym: sym}
	}
	return r.scoped(t, func() error { return r.block(s.Body, symtab.Block) })
}

func (r *resolver) tryStmt(s *ast.Try) error {
	saved := r.try
	defer func() { r.try = saved }()

	r.try.inTry = true
	if err := r.block(s.Body, symtab.Block); err != nil {
		return err
	}
	r.try = saved

	catchAll := false
	for _, c := range s.Catches {
		if catchAll {
			return r.st.errorf(errors.E2009, c, "catch clause follows a catch-all clause")
		}
		if c.Type == nil {
			catchAll = true
		} else if err := r.expr(c.Type); err != nil {
			return err
		}
		if err := r.catchClause(c, saved); err != nil {
			return err
		}
	}
	r.try = saved
	if err := r.block(s.Else, symtab.Block); err != nil {
		return err
	}
	return r.block(s.Finally, symtab.Finally)
}

func (r *resolver) catchClause(c *ast.Catch, outer tryState) error {
	t := symtab.New(symtab.Catch, r.table)
	slot := r.def.AllocLocal()
	r.res.catches[c] = slot
	if c.Var != nil {
		sym, _ := t.Define(c.Var.Name, 0, slot)
		r.res.idents[c.Var] = &Binding{Kind: BindLocal, Name: c.Var.Name, Offset: slot, Decl: true, Sym: sym}
	}
	r.try = tryState{inTry: outer.inTry, inCatch: true, catchVar: slot}
	return r.scoped(t, func() error { return r.block(c.Body, symtab.Block) })
}

func (r *resolver) decl(s *ast.Decl) error {
	// The name is bound before the value so a function can call itself.
	if name := s.Name(); name != nil {
		if err := r.declare(name, s.Storage); err != nil {
			return err
		}
	}
	return r.expr(s.Value)
}

func (r *resolver) varDecl(s *ast.VarDecl) error {
	if err := r.exprs(s.Values); err != nil {
		return err
	}
	for _, name := range s.Names {
		if err := r.declare(name, s.Storage); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) assign(s *ast.Assign) error {
	if err := r.exprs(s.Values); err != nil {
		return err
	}
	for _, target := range s.Targets {
		switch t := target.(type) {
		case *ast.Ident:
			if s.Op != "=" {
				r.ident(t)
				continue
			}
			if err := r.target(t); err != nil {
				return err
			}
		case *ast.Member:
			if err := r.expr(t.X); err != nil {
				return err
			}
		case *ast.Index:
			if err := r.exprs([]ast.Expr{t.X, t.Index}); err != nil {
				return err
			}
		default:
			return r.st.errorf(errors.E2010, target, "cannot assign to %s", target)
		}
	}
	return nil
}

// declare binds a name introduced by a storage keyword, or by a
// declaration without one.
func (r *resolver) declare(id *ast.Ident, storage ast.Storage) error {
	switch storage {
	case ast.StorageLocal:
		return r.declareLocal(id)
	case ast.StorageGlobal:
		if sym := r.table.LookupLocal(id.Name); sym != nil {
			if !sym.IsGlobal() {
				return r.alreadyDeclared(id, sym)
			}
			r.bind(id, sym)
			return nil
		}
		sym, _ := r.table.Define(id.Name, symtab.Global, symtab.NoOffset)
		r.bind(id, sym)
		return nil
	case ast.StorageMember:
		if !r.table.IsWithBlock() {
			return r.st.errorf(errors.E2012, id, "member %q declared outside a class, package or using body", id.Name)
		}
		if sym := r.table.LookupLocal(id.Name); sym != nil {
			if !sym.IsWith() {
				return r.alreadyDeclared(id, sym)
			}
			r.bind(id, sym)
			return nil
		}
		sym, _ := r.table.Define(id.Name, symtab.With, symtab.NoOffset)
		r.bind(id, sym)
		return nil
	default:
		return r.target(id)
	}
}

func (r *resolver) declareLocal(id *ast.Ident) error {
	existing := r.table.LookupLocal(id.Name)
	if existing != nil && !existing.IsLocal() {
		return r.alreadyDeclared(id, existing)
	}
	slot := r.def.AllocLocal()
	var sym *symtab.Symbol
	if existing != nil {
		sym = r.table.Shadow(id.Name, 0, slot)
	} else {
		sym, _ = r.table.Define(id.Name, 0, slot)
	}
	r.res.idents[id] = &Binding{Kind: BindLocal, Name: id.Name, Offset: slot, Decl: true, Sym: sym}
	return nil
}

func (r *resolver) alreadyDeclared(id *ast.Ident, sym *symtab.Symbol) error {
	kind := "local"
	switch {
	case sym.IsGlobal():
		kind = "global"
	case sym.IsWith():
		kind = "member"
	}
	return r.st.errorf(errors.E2011, id, "%q is already declared as a %s in this scope", id.Name, kind)
}

// target binds an assignment target without a storage keyword. Known names
// are reused; a new name becomes a member in class and package bodies, a
// global in script and using bodies, and a local in function bodies.
func (r *resolver) target(id *ast.Ident) error {
	if sym := r.lookup(id.Name); sym != nil {
		r.bind(id, sym)
		return nil
	}
	switch ws := r.table.WithScope(); {
	case ws != nil && ws.IsPackage():
		sym, _ := r.table.Define(id.Name, symtab.With, symtab.NoOffset)
		r.bind(id, sym)
	case r.table.DefaultsToGlobal():
		sym, _ := r.table.Define(id.Name, symtab.Global, symtab.NoOffset)
		r.bind(id, sym)
	default:
		return r.declareLocal(id)
	}
	return nil
}

// lookup finds the symbol a name refers to. Members bound in an enclosing
// function's with-scope are not visible, because that with-object is not
// active here.
func (r *resolver) lookup(name string) *symtab.Symbol {
	crossed := false
	for t := r.table; t != nil; t = t.Parent() {
		if sym := t.LookupLocal(name); sym != nil {
			if sym.IsWith() && crossed {
				return nil
			}
			return sym
		}
		if t.Kind() == symtab.Function {
			crossed = true
		}
	}
	return nil
}

func (r *resolver) bind(id *ast.Ident, sym *symtab.Symbol) {
	b := &Binding{Name: id.Name, Sym: sym}
	switch {
	case sym.IsGlobal():
		b.Kind = BindGlobal
	case sym.IsWith():
		b.Kind = BindMember
	default:
		b.Kind = BindLocal
		b.Offset = sym.Offset
		if d := r.table.Depth() - sym.Depth(); d > 0 {
			b.Kind = BindOuter
			b.Depth = d
			r.markClose(sym.Depth())
		}
	}
	r.res.idents[id] = b
}

// markClose flags every Def between the current function and the one that
// owns a captured local.
func (r *resolver) markClose(owner int) {
	for d := owner + 1; d <= r.table.Depth(); d++ {
		r.defs[d].SetMustClose()
	}
}

// ident resolves a read of a name.
func (r *resolver) ident(id *ast.Ident) {
	if sym := r.lookup(id.Name); sym != nil {
		r.bind(id, sym)
		return
	}
	kind := BindGlobal
	if r.table.IsWithBlock() {
		kind = BindMember
	}
	r.res.idents[id] = &Binding{Kind: kind, Name: id.Name}
}

func (r *resolver) exprs(list []ast.Expr) error {
	for _, e := range list {
		if err := r.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Ident:
		r.ident(e)
		return nil
	case *ast.Self:
		if fn := r.table.Function(); fn == nil || fn.Kind() != symtab.Function {
			return r.st.errorf(errors.E2013, e, "self used outside of a function")
		}
		return nil
	case *ast.Int, *ast.Float, *ast.String, *ast.Bool, *ast.Null:
		return nil
	case *ast.StringCons:
		return r.exprs(e.Parts)
	case *ast.List:
		return r.exprs(e.Items)
	case *ast.Map:
		for _, item := range e.Items {
			if err := r.exprs([]ast.Expr{item.Key, item.Value}); err != nil {
				return err
			}
		}
		return nil
	case *ast.Prefix:
		return r.expr(e.X)
	case *ast.Infix:
		return r.exprs([]ast.Expr{e.X, e.Y})
	case *ast.Ternary:
		return r.exprs([]ast.Expr{e.Cond, e.IfTrue, e.IfFalse})
	case *ast.Call:
		return r.call(e)
	case *ast.Index:
		return r.exprs([]ast.Expr{e.X, e.Index})
	case *ast.Member:
		return r.expr(e.X)
	case *ast.Func:
		return r.function(e, funcName(e))
	case *ast.Property:
		name := "<property>"
		if e.Name != nil {
			name = e.Name.Name
		}
		if e.Getter != nil {
			if err := r.function(e.Getter, name+".get"); err != nil {
				return err
			}
		}
		if e.Setter != nil {
			return r.function(e.Setter, name+".set")
		}
		return nil
	case *ast.Class:
		if e.Base != nil {
			if err := r.expr(e.Base); err != nil {
				return err
			}
		}
		return r.block(e.Body, symtab.Class)
	case *ast.Package:
		return r.block(e.Body, symtab.Package)
	case *ast.BadExpr:
		return r.st.errorf(errors.E1003, e, "invalid expression")
	default:
		panic(fmt.Sprintf("compiler: unexpected expression %T", e))
	}
}

func funcName(fn *ast.Func) string {
	if fn.Name != nil {
		return fn.Name.Name
	}
	return "<anonymous>"
}

func (r *resolver) call(e *ast.Call) error {
	argc := len(e.Args)
	if _, ok := e.Fun.(*ast.Member); ok {
		argc++ // receiver
	}
	if limit := r.st.limits.MaxArgs; argc > limit {
		return r.st.errorf(errors.E2006, e, "call has %d arguments (limit %d)", argc, limit)
	}
	if limit := r.st.limits.MaxKeywordArgs; len(e.Keywords) > limit {
		return r.st.errorf(errors.E2007, e, "call has %d keyword arguments (limit %d)", len(e.Keywords), limit)
	}
	if err := r.expr(e.Fun); err != nil {
		return err
	}
	if err := r.exprs(e.Args); err != nil {
		return err
	}
	for _, kw := range e.Keywords {
		if err := r.expr(kw.Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) function(fn *ast.Func, name string) error {
	// Defaults are evaluated where the function is created.
	for _, p := range fn.Params {
		if p.Default != nil {
			if err := r.expr(p.Default); err != nil {
				return err
			}
		}
	}
	depth := r.table.Depth() + 1
	if limit := r.st.limits.MaxFunctionDepth; depth > limit {
		return r.st.errorf(errors.E1012, fn, "functions nested more than %d deep", limit)
	}
	if limit := r.st.limits.MaxArgs; len(fn.Params) > limit {
		return r.st.errorf(errors.E2006, fn, "function has %d parameters (limit %d)", len(fn.Params), limit)
	}
	def := bytecode.NewDef(bytecode.DefParams{
		Name:   name,
		Line:   ast.Line(fn),
		Parent: r.def,
	})
	def.SetNumArgs(len(fn.Params))
	def.SetKeyword(fn.HasDefaults())
	def.SetVarArg(fn.VarArg)
	r.res.funcs[fn] = def

	savedTable, savedDef, savedDefs, savedTry := r.table, r.def, r.defs, r.try
	defer func() {
		r.table, r.def, r.defs, r.try = savedTable, savedDef, savedDefs, savedTry
	}()
	t := symtab.New(symtab.Function, r.table)
	r.table = t
	r.def = def
	r.defs = append(r.defs[:depth:depth], def)
	r.try = tryState{}

	for _, p := range fn.Params {
		if err := r.param(t, p.Name); err != nil {
			return err
		}
	}
	if fn.VarArg {
		slot := def.AllocLocal()
		if fn.Rest != nil {
			sym, err := t.Define(fn.Rest.Name, 0, slot)
			if err != nil {
				return r.st.errorf(errors.E2005, fn.Rest, "duplicate parameter %q", fn.Rest.Name)
			}
			r.res.idents[fn.Rest] = &Binding{Kind: BindLocal, Name: fn.Rest.Name, Offset: slot, Sym: sym}
		}
	}
	return r.stmts(fn.Body.Stmts)
}

func (r *resolver) param(t *symtab.Table, id *ast.Ident) error {
	slot := r.def.AllocLocal()
	sym, err := t.Define(id.Name, 0, slot)
	if err != nil {
		return r.st.errorf(errors.E2005, id, "duplicate parameter %q", id.Name)
	}
	r.res.idents[id] = &Binding{Kind: BindLocal, Name: id.Name, Offset: slot, Sym: sym}
	return nil
}
