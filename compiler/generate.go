package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/op"
	"github.com/ternlang/tern/symtab"
)

var binaryOps = map[string]op.Code{
	"+":   op.Add,
	"-":   op.Sub,
	"*":   op.Mul,
	"/":   op.Div,
	"//":  op.IDiv,
	"%":   op.Mod,
	"..":  op.Concat,
	"&":   op.BitAnd,
	"|":   op.BitOr,
	"^":   op.BitXor,
	"<<":  op.Shl,
	">>":  op.Shr,
	"==":  op.Eq,
	"!=":  op.Ne,
	"<":   op.Lt,
	"<=":  op.Le,
	">":   op.Gt,
	">=":  op.Ge,
	"is":  op.Is,
	"has": op.Has,
	"xor": op.Xor,
}

var prefixOps = map[string]op.Code{
	"-":   op.Neg,
	"not": op.Not,
	"~":   op.BitNot,
}

var compoundOps = map[string]op.Code{
	"+=":  op.Add,
	"-=":  op.Sub,
	"*=":  op.Mul,
	"/=":  op.Div,
	"//=": op.IDiv,
	"%=":  op.Mod,
	"..=": op.Concat,
}

// ctxKind identifies a construct that break, continue and return have to
// leave cleanly.
type ctxKind uint8

const (
	ctxLoop        ctxKind = iota
	ctxHandler             // try body with a pushed handler
	ctxFinally             // region guarded by PushFinally
	ctxFinallyBody         // finally block, return address on the stack
	ctxWith                // using body
	ctxBarrier             // class or package body
)

type genContext struct {
	kind ctxKind
	sym  *symtab.Symbol // ctxLoop
	fin  InstrID        // ctxFinally
}

// funcJob is one function waiting to be lowered.
type funcJob struct {
	def  *bytecode.Def
	fn   *ast.Func // nil for the script body
	body []ast.Stmt
}

type generator struct {
	st    *State
	res   *Resources
	def   *bytecode.Def
	g     *Graph
	line  int
	ctx   []genContext
	queue *[]funcJob
}

// GenerateCode lowers every function of a resolved unit to an Instr graph,
// binds labels, folds constants and emits the bytecode into each Def.
// Functions are processed parent first. A fault stops only the function it
// occurs in; the faults of all functions are returned together.
func GenerateCode(st *State, res *Resources, program *ast.Program) error {
	queue := []funcJob{{def: res.Root(), body: program.Stmts}}
	var result *multierror.Error
	for i := 0; i < len(queue); i++ {
		if err := generateFunction(st, res, queue[i], &queue); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return flattenErrors(result)
}

// flattenErrors turns the collected per-function faults into the error
// surface shared with the parser.
func flattenErrors(merr *multierror.Error) error {
	if merr == nil || len(merr.Errors) == 0 {
		return nil
	}
	out := &errors.CompileErrors{}
	for _, err := range merr.Errors {
		switch e := err.(type) {
		case *errors.CompileError:
			out.Add(e)
		case *errors.CompileErrors:
			for _, ce := range e.Errors {
				out.Add(ce)
			}
		default:
			return merr.ErrorOrNil()
		}
	}
	return out.ToError()
}

func generateFunction(st *State, res *Resources, job funcJob, queue *[]funcJob) error {
	gen := &generator{
		st:    st,
		res:   res,
		def:   job.def,
		g:     NewGraph(),
		line:  job.def.Line(),
		queue: queue,
	}
	var params []bytecode.LocalRange
	if job.fn != nil {
		params = gen.paramRanges(job.fn)
	}
	if err := gen.stmts(job.body); err != nil {
		return err
	}
	if job.fn != nil {
		gen.line = job.fn.End().LineNumber()
	}
	gen.simple(op.PushNull)
	gen.emit(op.Return, 0, 1)

	gen.g.BindLabels()
	fold(st, gen.g)
	return emit(st, job.def, gen.g, params)
}

func (g *generator) paramRanges(fn *ast.Func) []bytecode.LocalRange {
	var out []bytecode.LocalRange
	add := func(id *ast.Ident) {
		if b := g.res.Binding(id); b != nil {
			out = append(out, bytecode.LocalRange{Name: id.Name, Slot: b.Offset})
		}
	}
	for _, p := range fn.Params {
		add(p.Name)
	}
	if fn.Rest != nil {
		add(fn.Rest)
	}
	return out
}

func (g *generator) emit(code op.Code, a, b int) InstrID {
	return g.g.Append(Instr{Op: code, A: a, B: b, Line: g.line, Target: NoInstr})
}

func (g *generator) simple(code op.Code) InstrID {
	return g.emit(code, 0, 0)
}

func (g *generator) jump(code op.Code, target InstrID) InstrID {
	id := g.emit(code, 0, 0)
	g.g.At(id).Target = target
	return id
}

func (g *generator) declLocal(slot int, sym *symtab.Symbol) {
	id := g.emit(op.DeclLocal, 0, slot)
	g.g.At(id).Sym = sym
}

func (g *generator) label() InstrID { return g.g.NewLabel() }

func (g *generator) place(label InstrID) { g.g.Place(label) }

func (g *generator) setLine(n ast.Node) {
	if line := ast.Line(n); line > 0 {
		g.line = line
	}
}

func (g *generator) literal(idx int) { g.emit(op.PushLit, 0, idx) }

func (g *generator) name(s string) int { return g.st.pool.AddString(s) }

func (g *generator) pushCtx(c genContext) { g.ctx = append(g.ctx, c) }

func (g *generator) popCtx() { g.ctx = g.ctx[:len(g.ctx)-1] }

func (g *generator) stmts(list []ast.Stmt) error {
	for _, s := range list {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// block generates a nested block and closes the locals it declared.
func (g *generator) block(b *ast.Block) error {
	if b == nil {
		return nil
	}
	if err := g.stmts(b.Stmts); err != nil {
		return err
	}
	locals := g.res.BlockLocals(b)
	for i := len(locals) - 1; i >= 0; i-- {
		g.emit(op.EndLocal, 0, locals[i].Offset)
	}
	return nil
}

func (g *generator) stmt(s ast.Stmt) error {
	g.setLine(s)
	switch s := s.(type) {
	case *ast.Decl:
		return g.decl(s)
	case *ast.VarDecl:
		return g.varDecl(s)
	case *ast.Assign:
		if s.Op != "=" {
			return g.compound(s)
		}
		return g.assignValues(s.Targets, s.Values)
	case *ast.If:
		return g.ifStmt(s)
	case *ast.While:
		return g.while(s)
	case *ast.Repeat:
		return g.repeat(s)
	case *ast.For:
		return g.forStmt(s)
	case *ast.ForEach:
		return g.forEach(s)
	case *ast.Try:
		return g.try(s)
	case *ast.Raise:
		if s.Value != nil {
			if err := g.expr(s.Value); err != nil {
				return err
			}
		} else {
			slot, ok := g.res.RaiseSlot(s)
			if !ok {
				return g.st.errorf(errors.E2002, s, "raise without a value outside of a catch clause")
			}
			g.emit(op.LoadLocal, 0, slot)
		}
		g.simple(op.Raise)
		return nil
	case *ast.Using:
		if err := g.expr(s.Object); err != nil {
			return err
		}
		g.simple(op.EnterWith)
		g.pushCtx(genContext{kind: ctxWith})
		err := g.block(s.Body)
		g.popCtx()
		if err != nil {
			return err
		}
		g.simple(op.ExitWith)
		return nil
	case *ast.Do:
		return g.block(s.Body)
	case *ast.Labeled:
		// Loops find their own label through the resources.
		return g.stmt(s.Stmt)
	case *ast.Break:
		return g.loopExit(s, op.Break)
	case *ast.Continue:
		return g.loopExit(s, op.Continue)
	case *ast.Return:
		return g.ret(s)
	case *ast.Yield:
		if err := g.exprs(s.Values); err != nil {
			return err
		}
		g.emit(op.Yield, 0, len(s.Values))
		return nil
	case *ast.ExprStmt:
		if err := g.expr(s.X); err != nil {
			return err
		}
		g.simple(op.Pop)
		return nil
	case *ast.BadStmt:
		return g.st.errorf(errors.E1003, s, "invalid statement")
	default:
		panic(fmt.Sprintf("compiler: unexpected statement %T", s))
	}
}

func (g *generator) decl(s *ast.Decl) error {
	name := s.Name()
	switch v := s.Value.(type) {
	case *ast.Class:
		return g.class(v, name)
	case *ast.Package:
		return g.pkg(v, name)
	}
	if err := g.expr(s.Value); err != nil {
		return err
	}
	return g.store(name)
}

func (g *generator) varDecl(s *ast.VarDecl) error {
	if len(s.Values) > 0 {
		targets := make([]ast.Expr, len(s.Names))
		for i, name := range s.Names {
			targets[i] = name
		}
		return g.assignValues(targets, s.Values)
	}
	// "global x" and "member x" only declare; a bare local starts as null.
	if s.Storage != ast.StorageLocal {
		return nil
	}
	for _, name := range s.Names {
		g.simple(op.PushNull)
		if err := g.store(name); err != nil {
			return err
		}
	}
	return nil
}

// assignValues evaluates all values first, adjusts their count to the
// targets, then stores right to left. With several targets the objects and
// indexes of field and index targets are evaluated into hidden locals before
// the first store, so "a[i], i = 1, 2" writes the old a[i].
func (g *generator) assignValues(targets, values []ast.Expr) error {
	n, m := len(targets), len(values)
	if m == 1 && n > 1 {
		if err := g.expr(values[0]); err != nil {
			return err
		}
		g.emit(op.Unpack, 0, n)
	} else {
		if err := g.exprs(values); err != nil {
			return err
		}
		for i := n; i < m; i++ {
			g.simple(op.Pop)
		}
		for i := m; i < n; i++ {
			g.simple(op.PushNull)
		}
	}
	var held [][]int
	if n > 1 {
		var err error
		if held, err = g.holdTargets(targets); err != nil {
			return err
		}
	}
	for i := n - 1; i >= 0; i-- {
		if held != nil && held[i] != nil {
			g.storeHeld(targets[i], held[i])
			continue
		}
		if err := g.storeTarget(targets[i]); err != nil {
			return err
		}
	}
	return nil
}

// holdTargets parks the object and index operands of each field or index
// target in fresh slots. Entries for plain names are nil.
func (g *generator) holdTargets(targets []ast.Expr) ([][]int, error) {
	held := make([][]int, len(targets))
	for i, target := range targets {
		var parts []ast.Expr
		switch t := target.(type) {
		case *ast.Member:
			parts = []ast.Expr{t.X}
		case *ast.Index:
			parts = []ast.Expr{t.X, t.Index}
		default:
			continue
		}
		for _, part := range parts {
			if err := g.expr(part); err != nil {
				return nil, err
			}
			slot := g.def.AllocLocal()
			g.declLocal(slot, nil)
			held[i] = append(held[i], slot)
		}
	}
	return held, nil
}

func (g *generator) storeHeld(target ast.Expr, slots []int) {
	for _, slot := range slots {
		g.emit(op.LoadLocal, 0, slot)
	}
	switch t := target.(type) {
	case *ast.Member:
		g.emit(op.SetField, 0, g.name(t.Name.Name))
	case *ast.Index:
		g.simple(op.SetIndex)
	}
}

func (g *generator) storeTarget(target ast.Expr) error {
	switch t := target.(type) {
	case *ast.Ident:
		return g.store(t)
	case *ast.Member:
		if err := g.expr(t.X); err != nil {
			return err
		}
		g.emit(op.SetField, 0, g.name(t.Name.Name))
		return nil
	case *ast.Index:
		if err := g.exprs([]ast.Expr{t.X, t.Index}); err != nil {
			return err
		}
		g.simple(op.SetIndex)
		return nil
	default:
		return g.st.errorf(errors.E2010, target, "cannot assign to %s", target)
	}
}

func (g *generator) compound(s *ast.Assign) error {
	code, ok := compoundOps[s.Op]
	if !ok || len(s.Targets) != 1 || len(s.Values) != 1 {
		return g.st.errorf(errors.E2010, s, "invalid compound assignment %s", s.Op)
	}
	value := s.Values[0]
	switch t := s.Targets[0].(type) {
	case *ast.Ident:
		if err := g.load(t); err != nil {
			return err
		}
		if err := g.expr(value); err != nil {
			return err
		}
		g.simple(code)
		return g.store(t)
	case *ast.Member:
		name := g.name(t.Name.Name)
		if err := g.expr(t.X); err != nil {
			return err
		}
		g.simple(op.Dup)
		g.emit(op.GetField, 0, name)
		if err := g.expr(value); err != nil {
			return err
		}
		g.simple(code)
		g.simple(op.Swap)
		g.emit(op.SetField, 0, name)
		return nil
	case *ast.Index:
		if err := g.exprs([]ast.Expr{t.X, t.Index}); err != nil {
			return err
		}
		g.simple(op.Dup2)
		g.simple(op.GetIndex)
		if err := g.expr(value); err != nil {
			return err
		}
		g.simple(code)
		g.simple(op.Rot3)
		g.simple(op.SetIndex)
		return nil
	default:
		return g.st.errorf(errors.E2010, s.Targets[0], "cannot assign to %s", s.Targets[0])
	}
}

func (g *generator) binding(id *ast.Ident) (*Binding, error) {
	b := g.res.Binding(id)
	if b == nil {
		return nil, g.st.errorf(errors.E2010, id, "unresolved name %q", id.Name)
	}
	return b, nil
}

func (g *generator) load(id *ast.Ident) error {
	b, err := g.binding(id)
	if err != nil {
		return err
	}
	switch b.Kind {
	case BindLocal:
		g.emit(op.LoadLocal, 0, b.Offset)
	case BindOuter:
		g.emit(op.LoadOuter, b.Depth, b.Offset)
	case BindGlobal:
		g.emit(op.LoadGlobal, 0, g.name(b.Name))
	case BindMember:
		g.emit(op.LoadMember, 0, g.name(b.Name))
	}
	return nil
}

func (g *generator) store(id *ast.Ident) error {
	b, err := g.binding(id)
	if err != nil {
		return err
	}
	switch b.Kind {
	case BindLocal:
		if b.Decl {
			g.declLocal(b.Offset, b.Sym)
		} else {
			g.emit(op.StoreLocal, 0, b.Offset)
		}
	case BindOuter:
		g.emit(op.StoreOuter, b.Depth, b.Offset)
	case BindGlobal:
		g.emit(op.StoreGlobal, 0, g.name(b.Name))
	case BindMember:
		g.emit(op.StoreMember, 0, g.name(b.Name))
	}
	return nil
}

func (g *generator) ifStmt(s *ast.If) error {
	end := g.label()
	for i, c := range s.Clauses {
		g.setLine(c.Cond)
		if err := g.expr(c.Cond); err != nil {
			return err
		}
		next := g.label()
		g.jump(op.JumpIfFalse, next)
		if err := g.block(c.Body); err != nil {
			return err
		}
		if i < len(s.Clauses)-1 || s.Else != nil {
			g.jump(op.Jump, end)
		}
		g.place(next)
	}
	if err := g.block(s.Else); err != nil {
		return err
	}
	g.place(end)
	return nil
}

// loopSym returns the symbol that identifies a loop to its break and
// continue placeholders.
func (g *generator) loopSym(s ast.Stmt) *symtab.Symbol {
	if sym := g.res.LoopLabel(s); sym != nil {
		return sym
	}
	return &symtab.Symbol{Offset: symtab.NoOffset}
}

func (g *generator) loopBody(sym *symtab.Symbol, body *ast.Block) error {
	g.pushCtx(genContext{kind: ctxLoop, sym: sym})
	defer g.popCtx()
	return g.block(body)
}

// patchLoop turns the placeholders emitted for a loop into jumps.
func (g *generator) patchLoop(from InstrID, sym *symtab.Symbol, brk, cont InstrID) {
	for _, in := range g.g.Since(from) {
		if in.Sym != sym {
			continue
		}
		switch in.Op {
		case op.Break:
			in.Op, in.Target = op.Jump, brk
		case op.Continue:
			in.Op, in.Target = op.Jump, cont
		}
	}
}

func (g *generator) while(s *ast.While) error {
	sym := g.loopSym(s)
	start := g.g.Mark()
	cond, end := g.label(), g.label()
	g.place(cond)
	if err := g.expr(s.Cond); err != nil {
		return err
	}
	g.jump(op.JumpIfFalse, end)
	if err := g.loopBody(sym, s.Body); err != nil {
		return err
	}
	g.jump(op.Jump, cond)
	g.place(end)
	g.patchLoop(start, sym, end, cond)
	return nil
}

func (g *generator) repeat(s *ast.Repeat) error {
	sym := g.loopSym(s)
	start := g.g.Mark()
	top, cont, end := g.label(), g.label(), g.label()
	g.place(top)
	if err := g.loopBody(sym, s.Body); err != nil {
		return err
	}
	g.place(cont)
	g.setLine(s.Cond)
	if err := g.expr(s.Cond); err != nil {
		return err
	}
	g.jump(op.JumpIfFalse, top)
	g.place(end)
	g.patchLoop(start, sym, end, cont)
	return nil
}

func (g *generator) forStmt(s *ast.For) error {
	sym := g.loopSym(s)
	start := g.g.Mark()
	base := g.res.ForBase(s)
	varSym := g.res.Binding(s.Var).Sym

	if err := g.expr(s.From); err != nil {
		return err
	}
	g.declLocal(base, varSym)
	if err := g.expr(s.To); err != nil {
		return err
	}
	g.declLocal(base+1, nil)
	if s.Step != nil {
		if err := g.expr(s.Step); err != nil {
			return err
		}
	} else {
		g.literal(g.st.pool.AddInt(1))
	}
	g.declLocal(base+2, nil)

	cond, cont, end := g.label(), g.label(), g.label()
	g.place(cond)
	g.emit(op.ForCheck, 0, base)
	g.jump(op.JumpIfFalse, end)
	if err := g.loopBody(sym, s.Body); err != nil {
		return err
	}
	g.place(cont)
	g.emit(op.ForStep, 0, base)
	g.jump(op.Jump, cond)
	g.place(end)
	for slot := base + 2; slot >= base; slot-- {
		g.emit(op.EndLocal, 0, slot)
	}
	g.patchLoop(start, sym, end, cont)
	return nil
}

func (g *generator) forEach(s *ast.ForEach) error {
	sym := g.loopSym(s)
	start := g.g.Mark()
	it := g.res.IteratorSlot(s)

	if err := g.expr(s.Seq); err != nil {
		return err
	}
	g.simple(op.GetIter)
	g.declLocal(it, nil)

	next, cont, end := g.label(), g.label(), g.label()
	g.place(next)
	g.emit(op.LoadLocal, 0, it)
	iter := g.jump(op.IterNext, end)
	g.g.At(iter).A = len(s.Vars)
	// The last value is on top.
	for i := len(s.Vars) - 1; i >= 0; i-- {
		b := g.res.Binding(s.Vars[i])
		g.declLocal(b.Offset, b.Sym)
	}
	if err := g.loopBody(sym, s.Body); err != nil {
		return err
	}
	g.place(cont)
	for i := len(s.Vars) - 1; i >= 0; i-- {
		g.emit(op.EndLocal, 0, g.res.Binding(s.Vars[i]).Offset)
	}
	g.jump(op.Jump, next)
	g.place(end)
	g.emit(op.EndLocal, 0, it)
	g.patchLoop(start, sym, end, cont)
	return nil
}

// try lowers a try statement. With a finally block the layout is:
//
//	PUSH_FINALLY exc
//	  <handler part>
//	POP_FINALLY
//	CALL_FINALLY fin
//	JUMP end
//	exc: DECL_LOCAL tmp; CALL_FINALLY fin; LOAD_LOCAL tmp; RAISE
//	fin: <finally block>; RET_FINALLY
//	end:
func (g *generator) try(s *ast.Try) error {
	if s.Finally == nil {
		return g.tryHandlers(s)
	}
	exc, fin, end := g.label(), g.label(), g.label()
	g.jump(op.PushFinally, exc)
	g.pushCtx(genContext{kind: ctxFinally, fin: fin})
	err := g.tryHandlers(s)
	g.popCtx()
	if err != nil {
		return err
	}
	g.simple(op.PopFinally)
	g.jump(op.CallFinally, fin)
	g.jump(op.Jump, end)

	g.place(exc)
	tmp := g.def.AllocLocal()
	g.declLocal(tmp, nil)
	g.jump(op.CallFinally, fin)
	g.emit(op.LoadLocal, 0, tmp)
	g.simple(op.Raise)

	g.place(fin)
	g.setLine(s.Finally)
	g.pushCtx(genContext{kind: ctxFinallyBody})
	err = g.block(s.Finally)
	g.popCtx()
	if err != nil {
		return err
	}
	g.simple(op.RetFinally)
	g.place(end)
	return nil
}

// tryHandlers lowers the body, catch clauses and else block. The raised
// value is on the stack when the handler starts; a typed clause tests a
// copy of it and falls through to the next clause on mismatch.
func (g *generator) tryHandlers(s *ast.Try) error {
	if len(s.Catches) == 0 {
		if err := g.block(s.Body); err != nil {
			return err
		}
		return g.block(s.Else)
	}
	handler, done := g.label(), g.label()
	g.jump(op.PushHandler, handler)
	g.pushCtx(genContext{kind: ctxHandler})
	err := g.block(s.Body)
	g.popCtx()
	if err != nil {
		return err
	}
	g.simple(op.PopHandler)
	if err := g.block(s.Else); err != nil {
		return err
	}
	g.jump(op.Jump, done)

	g.place(handler)
	caught := false
	for _, c := range s.Catches {
		g.setLine(c)
		slot := g.res.CatchSlot(c)
		var sym *symtab.Symbol
		if c.Var != nil {
			sym = g.res.Binding(c.Var).Sym
		}
		next := NoInstr
		if c.Type != nil {
			g.simple(op.Dup)
			if err := g.expr(c.Type); err != nil {
				return err
			}
			g.simple(op.Is)
			next = g.label()
			g.jump(op.JumpIfFalse, next)
		} else {
			caught = true
		}
		g.declLocal(slot, sym)
		if err := g.block(c.Body); err != nil {
			return err
		}
		g.emit(op.EndLocal, 0, slot)
		g.jump(op.Jump, done)
		if next != NoInstr {
			g.place(next)
		}
	}
	if !caught {
		g.simple(op.Raise)
	}
	g.place(done)
	return nil
}

// loopExit lowers break and continue. The jump is emitted as a placeholder
// carrying the target loop's symbol; the loop patches it once its labels
// are known. A placeholder no loop claims is reported by the emitter.
func (g *generator) loopExit(s ast.Stmt, code op.Code) error {
	want := g.res.JumpLabel(s)
	target := -1
	for i := len(g.ctx) - 1; i >= 0; i-- {
		c := g.ctx[i]
		if c.kind == ctxBarrier {
			break
		}
		if c.kind == ctxLoop && (want == nil || c.sym == want) {
			target = i
			break
		}
	}
	if target < 0 {
		id := g.simple(code)
		g.g.At(id).Sym = want
		return nil
	}
	g.cleanup(s, target+1)
	id := g.simple(code)
	g.g.At(id).Sym = g.ctx[target].sym
	return nil
}

// cleanup emits the exit code of every context above depth, innermost
// first.
func (g *generator) cleanup(at ast.Node, depth int) {
	for i := len(g.ctx) - 1; i >= depth; i-- {
		switch c := g.ctx[i]; c.kind {
		case ctxHandler:
			g.simple(op.PopHandler)
		case ctxFinally:
			g.simple(op.PopFinally)
			g.jump(op.CallFinally, c.fin)
		case ctxFinallyBody:
			g.simple(op.Pop)
			g.st.warnAt(errors.W1002, at, "jump out of a finally block discards the pending exit")
		case ctxWith:
			g.simple(op.ExitWith)
		case ctxLoop, ctxBarrier:
		}
	}
}

// guarded reports whether leaving the function needs cleanup code.
func (g *generator) guarded() bool {
	for _, c := range g.ctx {
		if c.kind != ctxLoop && c.kind != ctxBarrier {
			return true
		}
	}
	return false
}

func (g *generator) ret(s *ast.Return) error {
	n := len(s.Values)
	guarded := g.guarded()
	if n == 1 && !guarded {
		if call, ok := s.Values[0].(*ast.Call); ok {
			argc, kw, err := g.callee(call)
			if err != nil {
				return err
			}
			g.emit(op.TailCall, argc, kw)
			return nil
		}
	}
	if err := g.exprs(s.Values); err != nil {
		return err
	}
	if guarded {
		// Park the results while the cleanup code runs.
		slots := make([]int, n)
		for i := n - 1; i >= 0; i-- {
			slots[i] = g.def.AllocLocal()
			g.declLocal(slots[i], nil)
		}
		g.cleanup(s, 0)
		for _, slot := range slots {
			g.emit(op.LoadLocal, 0, slot)
		}
	}
	g.emit(op.Return, 0, n)
	return nil
}

func (g *generator) exprs(list []ast.Expr) error {
	for _, e := range list {
		if err := g.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Ident:
		return g.load(e)
	case *ast.Self:
		g.simple(op.PushSelf)
	case *ast.Int:
		g.literal(g.st.pool.AddInt(e.Value))
	case *ast.Float:
		g.literal(g.st.pool.AddFloat(e.Value))
	case *ast.String:
		g.literal(g.st.pool.AddString(e.Value))
	case *ast.Bool:
		if e.Value {
			g.simple(op.PushTrue)
		} else {
			g.simple(op.PushFalse)
		}
	case *ast.Null:
		g.simple(op.PushNull)
	case *ast.StringCons:
		return g.stringCons(e)
	case *ast.List:
		if err := g.exprs(e.Items); err != nil {
			return err
		}
		g.emit(op.BuildList, 0, len(e.Items))
	case *ast.Map:
		for _, item := range e.Items {
			if err := g.exprs([]ast.Expr{item.Key, item.Value}); err != nil {
				return err
			}
		}
		g.emit(op.BuildMap, 0, len(e.Items))
	case *ast.Prefix:
		code, ok := prefixOps[e.Op]
		if !ok {
			return g.st.errorf(errors.E1003, e, "unknown operator %q", e.Op)
		}
		if err := g.expr(e.X); err != nil {
			return err
		}
		g.simple(code)
	case *ast.Infix:
		return g.infix(e)
	case *ast.Ternary:
		if err := g.expr(e.Cond); err != nil {
			return err
		}
		els, end := g.label(), g.label()
		g.jump(op.JumpIfFalse, els)
		if err := g.expr(e.IfTrue); err != nil {
			return err
		}
		g.jump(op.Jump, end)
		g.place(els)
		if err := g.expr(e.IfFalse); err != nil {
			return err
		}
		g.place(end)
	case *ast.Call:
		argc, kw, err := g.callee(e)
		if err != nil {
			return err
		}
		g.emit(op.Call, argc, kw)
	case *ast.Index:
		if err := g.exprs([]ast.Expr{e.X, e.Index}); err != nil {
			return err
		}
		g.simple(op.GetIndex)
	case *ast.Member:
		if err := g.expr(e.X); err != nil {
			return err
		}
		g.emit(op.GetField, 0, g.name(e.Name.Name))
	case *ast.Func:
		return g.function(e)
	case *ast.Property:
		return g.property(e)
	case *ast.Class:
		return g.class(e, nil)
	case *ast.Package:
		return g.pkg(e, nil)
	case *ast.BadExpr:
		return g.st.errorf(errors.E1003, e, "invalid expression")
	default:
		panic(fmt.Sprintf("compiler: unexpected expression %T", e))
	}
	return nil
}

// constTruth reports whether e is a literal and, if so, whether it is
// truthy. Only null and false are falsy.
func constTruth(e ast.Expr) (truthy, ok bool) {
	switch e := e.(type) {
	case *ast.Null:
		return false, true
	case *ast.Bool:
		return e.Value, true
	case *ast.Int, *ast.Float, *ast.String:
		return true, true
	}
	return false, false
}

func (g *generator) infix(e *ast.Infix) error {
	switch e.Op {
	case "and", "or":
		if truthy, ok := constTruth(e.X); ok {
			// "and" yields a falsy left operand, "or" a truthy one.
			if truthy == (e.Op == "or") {
				return g.expr(e.X)
			}
			return g.expr(e.Y)
		}
		branch := op.JumpIfFalse
		if e.Op == "or" {
			branch = op.JumpIfTrue
		}
		return g.shortCircuit(e, branch)
	case "??":
		if _, isNull := e.X.(*ast.Null); isNull {
			return g.expr(e.Y)
		}
		if _, ok := constTruth(e.X); ok {
			return g.expr(e.X)
		}
		return g.shortCircuit(e, op.JumpIfNotNull)
	}
	code, ok := binaryOps[e.Op]
	if !ok {
		return g.st.errorf(errors.E1003, e, "unknown operator %q", e.Op)
	}
	if err := g.exprs([]ast.Expr{e.X, e.Y}); err != nil {
		return err
	}
	g.simple(code)
	return nil
}

// shortCircuit keeps the left operand when branch is taken on it and
// evaluates the right operand otherwise.
func (g *generator) shortCircuit(e *ast.Infix, branch op.Code) error {
	if err := g.expr(e.X); err != nil {
		return err
	}
	end := g.label()
	g.simple(op.Dup)
	g.jump(branch, end)
	g.simple(op.Pop)
	if err := g.expr(e.Y); err != nil {
		return err
	}
	g.place(end)
	return nil
}

func (g *generator) stringCons(e *ast.StringCons) error {
	parts := e.Parts
	if len(parts) == 0 {
		g.literal(g.name(""))
		return nil
	}
	if _, ok := parts[0].(*ast.String); !ok {
		// Concatenating onto an empty string converts the first value.
		g.literal(g.name(""))
		if err := g.expr(parts[0]); err != nil {
			return err
		}
		g.simple(op.Concat)
	} else if err := g.expr(parts[0]); err != nil {
		return err
	}
	for _, part := range parts[1:] {
		if err := g.expr(part); err != nil {
			return err
		}
		g.simple(op.Concat)
	}
	return nil
}

// callee pushes the function, its receiver for method calls, and the
// arguments. Keyword arguments are name/value pairs after the positional
// ones.
func (g *generator) callee(call *ast.Call) (argc, kw int, err error) {
	g.setLine(call)
	argc = len(call.Args)
	if m, ok := call.Fun.(*ast.Member); ok {
		if err := g.expr(m.X); err != nil {
			return 0, 0, err
		}
		g.emit(op.GetMethod, 0, g.name(m.Name.Name))
		argc++
	} else if err := g.expr(call.Fun); err != nil {
		return 0, 0, err
	}
	if err := g.exprs(call.Args); err != nil {
		return 0, 0, err
	}
	for _, k := range call.Keywords {
		g.literal(g.name(k.Name.Name))
		if err := g.expr(k.Value); err != nil {
			return 0, 0, err
		}
	}
	return argc, len(call.Keywords), nil
}

func (g *generator) function(fn *ast.Func) error {
	def := g.res.Def(fn)
	if def == nil {
		return g.st.errorf(errors.E1003, fn, "function was not resolved")
	}
	defaults := 0
	for _, p := range fn.Params {
		if p.Default == nil {
			continue
		}
		if err := g.expr(p.Default); err != nil {
			return err
		}
		defaults++
	}
	g.emit(op.MakeFunc, defaults, g.st.pool.AddDef(def))
	*g.queue = append(*g.queue, funcJob{def: def, fn: fn, body: fn.Body.Stmts})
	return nil
}

func (g *generator) property(p *ast.Property) error {
	mask := 0
	if p.Getter != nil {
		if err := g.function(p.Getter); err != nil {
			return err
		}
		mask |= op.PropGetter
	}
	if p.Setter != nil {
		if err := g.function(p.Setter); err != nil {
			return err
		}
		mask |= op.PropSetter
	}
	g.emit(op.MakeProperty, mask, g.identName(p.Name))
	return nil
}

func (g *generator) identName(id *ast.Ident) int {
	if id == nil {
		return g.name("")
	}
	return g.name(id.Name)
}

// class lowers a class literal. When store is set the class is also
// assigned to it before the body runs, so methods can refer to it.
func (g *generator) class(c *ast.Class, store *ast.Ident) error {
	g.simple(op.PushScope)
	hasBase := 0
	if c.Base != nil {
		if err := g.expr(c.Base); err != nil {
			return err
		}
		hasBase = 1
	} else {
		g.simple(op.PushNull)
	}
	g.emit(op.NewClass, hasBase, g.identName(c.Name))
	return g.scopeBody(c.Body, store)
}

func (g *generator) pkg(p *ast.Package, store *ast.Ident) error {
	g.simple(op.PushScope)
	g.emit(op.NewPackage, 0, g.identName(p.Name))
	return g.scopeBody(p.Body, store)
}

// scopeBody runs a class or package body with the new object as the
// with-object. The object stays on the stack for the expression form.
func (g *generator) scopeBody(body *ast.Block, store *ast.Ident) error {
	g.simple(op.Dup)
	if store != nil {
		if err := g.store(store); err != nil {
			return err
		}
	}
	g.simple(op.EnterWith)
	g.pushCtx(genContext{kind: ctxBarrier})
	err := g.block(body)
	g.popCtx()
	if err != nil {
		return err
	}
	g.simple(op.ExitWith)
	return nil
}
