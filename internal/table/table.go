// Package table renders rows of text as a bordered ASCII table. Cell widths
// ignore ANSI colour sequences so coloured cells stay aligned.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Alignment controls how a cell is padded to its column width.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func width(s string) int {
	return utf8.RuneCountInString(stripAnsi(s))
}

// Table accumulates rows and writes them on Render.
type Table struct {
	w           io.Writer
	header      []string
	headerAlign []Alignment
	columnAlign []Alignment
	rows        [][]string
}

// NewTable returns a Table that renders to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithHeaderAlignment sets the alignment of each header cell.
func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

// WithColumnAlignment sets the alignment of each body column.
func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.columnAlign = align
	return t
}

// Append adds a body row.
func (t *Table) Append(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table. Nothing is written for a table without a header
// or rows.
func (t *Table) Render() {
	widths := t.widths()
	if len(widths) == 0 {
		return
	}
	sep := t.separator(widths)
	fmt.Fprintln(t.w, sep)
	if t.header != nil {
		fmt.Fprintln(t.w, t.line(t.header, widths, t.headerAlign))
		fmt.Fprintln(t.w, sep)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.w, t.line(row, widths, t.columnAlign))
	}
	fmt.Fprintln(t.w, sep)
}

func (t *Table) widths() []int {
	var widths []int
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], width(cell))
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *Table) separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	return b.String()
}

func (t *Table) line(row []string, widths []int, align []Alignment) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		a := AlignLeft
		if i < len(align) {
			a = align[i]
		}
		b.WriteByte(' ')
		b.WriteString(pad(cell, w, a))
		b.WriteString(" |")
	}
	return b.String()
}

func pad(s string, w int, align Alignment) string {
	gap := w - width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
