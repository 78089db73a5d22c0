package compiler

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/errors"
	"github.com/ternlang/tern/internal/lexer"
	"github.com/ternlang/tern/internal/token"
)

// State is the per-unit compile state shared by the resolver, generator,
// folder and emitter. It is passed explicitly to each phase; nothing about
// a compile lives in package-level variables.
type State struct {
	unitID   uuid.UUID
	filename string
	source   string
	limits   Limits
	log      zerolog.Logger

	pool *bytecode.LiteralPool
	root *bytecode.Def

	warnings []*errors.Warning
	folds    int
}

// NewState prepares the state for one compile unit. source is the text the
// unit was parsed from and is only used to quote lines in diagnostics.
func NewState(cfg Config, source string) *State {
	id, err := uuid.NewV4()
	if err != nil {
		id = uuid.Nil
	}
	cfg = cfg.withDefaults()
	st := &State{
		unitID:   id,
		filename: cfg.Filename,
		source:   source,
		limits:   cfg.Limits,
		pool:     bytecode.NewLiteralPool(),
	}
	st.log = cfg.Logger.With().Str("unit", id.String()).Logger()
	st.root = bytecode.NewDef(bytecode.DefParams{
		Name:     cfg.Name,
		Filename: cfg.Filename,
		Line:     1,
		Pool:     st.pool,
		UnitID:   id,
	})
	return st
}

// UnitID returns the unit's identifier.
func (st *State) UnitID() uuid.UUID { return st.unitID }

// Root returns the script Def of the unit.
func (st *State) Root() *bytecode.Def { return st.root }

// Pool returns the unit's literal pool.
func (st *State) Pool() *bytecode.LiteralPool { return st.pool }

// Limits returns the limits in force for the unit.
func (st *State) Limits() Limits { return st.limits }

// Warnings returns the warnings reported so far.
func (st *State) Warnings() []*errors.Warning { return st.warnings }

// Folds returns the number of constant folds applied so far.
func (st *State) Folds() int { return st.folds }

func (st *State) location(pos token.Position) errors.SourceLocation {
	return errors.SourceLocation{
		Filename: st.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   lexer.LineText(st.source, pos),
	}
}

// errorf builds a fault located at the start of node.
func (st *State) errorf(code errors.ErrorCode, node ast.Node, format string, args ...any) *errors.CompileError {
	return st.errorAt(code, node.Pos(), format, args...)
}

func (st *State) errorAt(code errors.ErrorCode, pos token.Position, format string, args ...any) *errors.CompileError {
	return errors.Newf(code, st.location(pos), format, args...)
}

// errorLine builds a fault for code that only knows its source line.
func (st *State) errorLine(code errors.ErrorCode, line int, format string, args ...any) *errors.CompileError {
	loc := errors.SourceLocation{Filename: st.filename, Line: line, Source: st.sourceLine(line)}
	return errors.Newf(code, loc, format, args...)
}

func (st *State) sourceLine(line int) string {
	text := st.source
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return strings.TrimRight(text, "\r")
}

// warn records a warning and logs it.
func (st *State) warn(code errors.ErrorCode, line, column int, format string, args ...any) {
	w := &errors.Warning{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Filename: st.filename,
		Line:     line,
		Column:   column,
	}
	st.warnings = append(st.warnings, w)
	st.log.Warn().
		Str("code", string(code)).
		Int("line", line).
		Msg(w.Message)
}

func (st *State) warnAt(code errors.ErrorCode, node ast.Node, format string, args ...any) {
	pos := node.Pos()
	st.warn(code, pos.LineNumber(), pos.ColumnNumber(), format, args...)
}
