package compiler

import (
	"context"
	"io"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/lexer"
	"github.com/ternlang/tern/parser"
)

// Session compiles an interactive input one top-level unit at a time. A
// unit is the statements of one input line plus whatever further lines are
// needed to close an open construct.
type Session struct {
	c     *Compiler
	lx    *lexer.Lexer
	p     *parser.Parser
	nodes *ast.NodeList
}

// NewSession returns a Session reading lines from src.
func NewSession(cfg Config, src lexer.LineSource) *Session {
	c := New(cfg)
	lx := lexer.New("", lexer.WithFilename(c.cfg.Filename), lexer.WithInteractive())
	nodes := &ast.NodeList{}
	p := parser.New(lx,
		parser.WithFilename(c.cfg.Filename),
		parser.WithMaxDepth(c.cfg.MaxParseDepth),
		parser.WithNodeList(nodes),
		parser.WithLineSource(src),
	)
	return &Session{c: c, lx: lx, p: p, nodes: nodes}
}

// Compiler returns the compiler holding the session's tallies.
func (s *Session) Compiler() *Compiler {
	return s.c
}

// Next compiles the next input unit. It returns io.EOF once the line source
// is exhausted. A fault in the unit is returned as a recoverable error and
// the rest of the buffered input is dropped; a *errors.FatalError means the
// session cannot continue.
func (s *Session) Next(ctx context.Context) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewFatalError(err)
	}
	s.nodes.Release()
	s.nodes = &ast.NodeList{}
	s.p.Reset(s.nodes)

	program, err := s.p.ParseUnit(ctx)
	if srcErr := s.p.Stream().Err(); srcErr != nil {
		s.nodes.Release()
		return nil, errors.NewFatalError(srcErr)
	}
	if err != nil {
		s.nodes.Release()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewFatalError(ctxErr)
		}
		s.p.DiscardInput()
		s.c.count(err)
		return nil, err
	}
	if program == nil {
		return nil, io.EOF
	}
	unit, err := s.c.compileProgram(ctx, program, s.lx.Input())
	if err != nil {
		s.nodes.Release()
		return nil, err
	}
	return unit, nil
}
