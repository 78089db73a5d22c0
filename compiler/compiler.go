// Package compiler turns a parsed tern program into finalized function
// definitions that the runtime can load.
//
// # Phases
//
// A compile unit runs through four phases, each taking the unit's State
// explicitly:
//
//   - CalculateResources walks the AST once, builds the scope chain, binds
//     every identifier to a local slot, an enclosing function's slot, a
//     global or a member, allocates the nested Defs and marks the frames
//     that closures capture.
//   - GenerateCode lowers each function to an Instr graph: a doubly linked
//     list of abstract instructions kept in an arena and addressed by
//     InstrID, with symbolic jump targets.
//   - fold rewrites constant arithmetic and branches over constant
//     conditions, never across a jump target.
//   - emit computes the maximum operand stack depth, packs every Instr into
//     a 32-bit code unit and records the line and local debug tables.
//
// # Storage
//
// Undeclared assignment targets default to a local inside a function body,
// to a global in the script and using bodies, and to a member inside class
// and package bodies. Reading an unknown name loads a member inside a
// with-scope and a global elsewhere.
//
// # Faults
//
// Syntax and resolution faults abort the unit and are returned as
// *errors.CompileError values. Lowering faults are collected per function so
// siblings still compile. Warnings never fail a compile; they are logged
// and kept on the Unit.
package compiler

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/lexer"
	"github.com/ternlang/tern/parser"
)

// DefaultName is the name given to the script Def of a unit.
const DefaultName = "<script>"

// Limits are the fixed maxima that the resolver and emitter enforce.
type Limits struct {
	// MaxFunctionDepth is the deepest allowed nesting of function literals.
	MaxFunctionDepth int

	// MaxArgs bounds the parameters of a function and the arguments of a call.
	MaxArgs int

	// MaxKeywordArgs bounds the keyword arguments of a call.
	MaxKeywordArgs int

	// MaxReturnValues bounds the values of a return or yield.
	MaxReturnValues int

	// MaxStackDepth bounds the operand stack of any function.
	MaxStackDepth int
}

// DefaultLimits returns the limits used when a Config leaves them unset.
func DefaultLimits() Limits {
	return Limits{
		MaxFunctionDepth: 32,
		MaxArgs:          255,
		MaxKeywordArgs:   64,
		MaxReturnValues:  255,
		MaxStackDepth:    1024,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxFunctionDepth <= 0 {
		l.MaxFunctionDepth = d.MaxFunctionDepth
	}
	if l.MaxArgs <= 0 {
		l.MaxArgs = d.MaxArgs
	}
	if l.MaxKeywordArgs <= 0 {
		l.MaxKeywordArgs = d.MaxKeywordArgs
	}
	if l.MaxReturnValues <= 0 {
		l.MaxReturnValues = d.MaxReturnValues
	}
	if l.MaxStackDepth <= 0 {
		l.MaxStackDepth = d.MaxStackDepth
	}
	return l
}

// Config holds compiler configuration options. The zero value is usable.
type Config struct {
	// Filename is reported in faults and stored on every Def.
	Filename string

	// Name is the name of the script Def. Defaults to "<script>".
	Name string

	// Limits overrides individual maxima; zero fields take their defaults.
	Limits Limits

	// Logger receives debug and warning events. The zero Logger discards
	// everything.
	Logger zerolog.Logger

	// MaxParseDepth bounds parser recursion. Defaults to parser.DefaultMaxDepth.
	MaxParseDepth int
}

func (cfg Config) withDefaults() Config {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.MaxParseDepth <= 0 {
		cfg.MaxParseDepth = parser.DefaultMaxDepth
	}
	cfg.Limits = cfg.Limits.withDefaults()
	return cfg
}

// Unit is the result of compiling one input unit.
type Unit struct {
	// ID identifies the unit. It is also stored on every Def.
	ID uuid.UUID

	// Root is the script Def. Nested Defs are reachable through its pool.
	Root *bytecode.Def

	// Pool is the literal pool shared by every Def of the unit.
	Pool *bytecode.LiteralPool

	// Program is the parsed tree the unit was compiled from.
	Program *ast.Program

	// Warnings reported while compiling the unit.
	Warnings []*errors.Warning

	// Folds counts the constant folds applied.
	Folds int
}

// Compiler compiles tern source. It keeps error and warning tallies across
// every Compile call so a caller can decide whether to run the result.
type Compiler struct {
	cfg      Config
	errors   int
	warnings int
}

// New returns a Compiler using cfg.
func New(cfg Config) *Compiler {
	return &Compiler{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (c *Compiler) Config() Config {
	return c.cfg
}

// Errors returns the number of faults reported so far.
func (c *Compiler) Errors() int {
	return c.errors
}

// Warnings returns the number of warnings reported so far.
func (c *Compiler) Warnings() int {
	return c.warnings
}

// Compile parses and compiles src as one batch unit.
func (c *Compiler) Compile(ctx context.Context, src string) (*Unit, error) {
	nodes := &ast.NodeList{}
	l := lexer.New(src, lexer.WithFilename(c.cfg.Filename))
	p := parser.New(l,
		parser.WithFilename(c.cfg.Filename),
		parser.WithMaxDepth(c.cfg.MaxParseDepth),
		parser.WithNodeList(nodes),
	)
	program, err := p.Parse(ctx)
	if err != nil {
		nodes.Release()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewFatalError(ctxErr)
		}
		c.count(err)
		return nil, err
	}
	unit, err := c.compileProgram(ctx, program, src)
	if err != nil {
		nodes.Release()
		return nil, err
	}
	return unit, nil
}

// CompileProgram compiles an already parsed program. source is only used to
// quote lines in faults and may be empty.
func (c *Compiler) CompileProgram(ctx context.Context, program *ast.Program, source string) (*Unit, error) {
	return c.compileProgram(ctx, program, source)
}

func (c *Compiler) compileProgram(ctx context.Context, program *ast.Program, source string) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewFatalError(err)
	}
	st := NewState(c.cfg, source)
	st.log.Debug().Str("filename", c.cfg.Filename).Int("statements", len(program.Stmts)).Msg("compiling unit")

	res, err := CalculateResources(st, program)
	if err == nil {
		err = GenerateCode(st, res, program)
	}
	c.warnings += len(st.warnings)
	if err != nil {
		c.count(err)
		return nil, err
	}
	return &Unit{
		ID:       st.unitID,
		Root:     st.root,
		Pool:     st.pool,
		Program:  program,
		Warnings: st.warnings,
		Folds:    st.folds,
	}, nil
}

func (c *Compiler) count(err error) {
	switch e := err.(type) {
	case *errors.CompileErrors:
		c.errors += e.Count()
	default:
		c.errors++
	}
}
