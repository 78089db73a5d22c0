package lexer

import (
	"errors"
	"io"
	"strings"

	"github.com/ternlang/tern/internal/token"
)

// LineSource supplies additional physical input lines to an interactive
// Stream. NextLine returns io.EOF once the source is exhausted.
type LineSource interface {
	NextLine() (string, error)
}

// LineSourceFunc adapts a function to the LineSource interface.
type LineSourceFunc func() (string, error)

// NextLine calls f.
func (f LineSourceFunc) NextLine() (string, error) {
	return f()
}

// Stream buffers one token of history, the current token and one token of
// lookahead over a Lexer. When the Lexer is interactive and a LineSource is
// attached, Refill pulls another line and re-synchronizes the window.
type Stream struct {
	lx   *Lexer
	src  LineSource
	prev token.Token
	cur  token.Token
	peek token.Token

	// lexer error attached to the peek token, if any
	peekErr error

	// error from the line source other than io.EOF
	srcErr error
}

// NewStream creates a Stream and primes it so that Cur and Peek hold the
// first two tokens. Any error lexing those tokens is returned.
func NewStream(lx *Lexer, src LineSource) (*Stream, error) {
	s := &Stream{lx: lx, src: src}
	if err := s.Advance(); err != nil {
		return s, err
	}
	return s, s.Advance()
}

// Lexer returns the underlying lexer.
func (s *Stream) Lexer() *Lexer {
	return s.lx
}

// Prev returns the token before the current one.
func (s *Stream) Prev() token.Token { return s.prev }

// Cur returns the current token.
func (s *Stream) Cur() token.Token { return s.cur }

// Peek returns the lookahead token.
func (s *Stream) Peek() token.Token { return s.peek }

// Advance shifts the window by one token. The returned error belongs to the
// new lookahead token, which will be token.ILLEGAL.
func (s *Stream) Advance() error {
	s.prev = s.cur
	s.cur = s.peek
	s.peek, s.peekErr = s.lx.Next()
	return s.peekErr
}

// Err returns a failure reported by the line source, if any.
func (s *Stream) Err() error {
	return s.srcErr
}

// Refill requests one more physical line from the line source. It reports
// false when no source is attached or it is exhausted; in that case the
// lexer is finished and any EOI tokens in the window become EOF. When a
// line is read, EOI tokens in the current or lookahead slot are re-lexed
// from the new input.
func (s *Stream) Refill() (bool, error) {
	if s.src == nil || !s.lx.Interactive() {
		return false, nil
	}
	line, err := s.src.NextLine()
	if err != nil {
		s.lx.Finish()
		if !errors.Is(err, io.EOF) {
			s.srcErr = err
		}
		return false, s.resync()
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	s.lx.Append(line)
	return true, s.resync()
}

func (s *Stream) resync() error {
	switch {
	case s.cur.Type == token.EOI:
		var err error
		s.cur, err = s.lx.Next()
		s.peek, s.peekErr = s.lx.Next()
		if err != nil {
			return err
		}
		return s.peekErr
	case s.peek.Type == token.EOI:
		s.peek, s.peekErr = s.lx.Next()
		return s.peekErr
	}
	return nil
}

// Discard drops the remainder of the buffered input and leaves the window
// positioned at the end of input. Used to recover from a fault in one
// interactive unit.
func (s *Stream) Discard() {
	s.lx.Discard()
	s.prev = s.cur
	s.cur, _ = s.lx.Next()
	s.peek, s.peekErr = s.lx.Next()
}
