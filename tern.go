// Package tern compiles tern source code into bytecode function
// definitions.
//
// The simplest entry point is Compile:
//
//	unit, err := tern.Compile(ctx, "x = 1 + 2")
//
// The returned unit holds the script Def and the literal pool shared by every
// function nested in it. Interactive hosts feed source line by line through a
// Session instead.
package tern

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ternlang/tern/ast"
	"github.com/ternlang/tern/compiler"
	"github.com/ternlang/tern/parser"
)

// Option configures a compilation.
type Option func(*options)

type options struct {
	filename      string
	limits        compiler.Limits
	logger        zerolog.Logger
	maxParseDepth int
}

func collectOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) config() compiler.Config {
	return compiler.Config{
		Filename:      o.filename,
		Limits:        o.limits,
		Logger:        o.logger,
		MaxParseDepth: o.maxParseDepth,
	}
}

// WithFilename sets the filename reported in faults and stored on every Def.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLimits overrides the compiler limits. Zero fields keep their defaults.
func WithLimits(limits compiler.Limits) Option {
	return func(o *options) {
		o.limits = limits
	}
}

// WithLogger sets the logger that receives debug events and warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxParseDepth bounds the recursion depth of the parser.
func WithMaxParseDepth(depth int) Option {
	return func(o *options) {
		o.maxParseDepth = depth
	}
}

// Compile compiles source as a single unit.
func Compile(ctx context.Context, source string, opts ...Option) (*compiler.Unit, error) {
	return compiler.New(collectOptions(opts...).config()).Compile(ctx, source)
}

// CompileFile reads and compiles the file at path. The filename defaults to
// path unless WithFilename is given.
func CompileFile(ctx context.Context, path string, opts ...Option) (*compiler.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	o := collectOptions(append([]Option{WithFilename(path)}, opts...)...)
	return compiler.New(o.config()).Compile(ctx, string(data))
}

// Parse parses source without compiling it.
func Parse(ctx context.Context, source string, opts ...Option) (*ast.Program, error) {
	o := collectOptions(opts...)
	popts := []parser.Option{parser.WithFilename(o.filename)}
	if o.maxParseDepth > 0 {
		popts = append(popts, parser.WithMaxDepth(o.maxParseDepth))
	}
	return parser.Parse(ctx, source, popts...)
}

// LineSource supplies source text one line at a time to a Session. NextLine
// returns io.EOF when the input is exhausted.
type LineSource interface {
	NextLine() (string, error)
}

// NewSession returns a Session that compiles one top-level statement at a
// time from src, requesting more lines while a statement is incomplete.
func NewSession(src LineSource, opts ...Option) *compiler.Session {
	return compiler.NewSession(collectOptions(opts...).config(), src)
}
