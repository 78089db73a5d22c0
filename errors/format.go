package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter formats errors in a Rust-like layout, optionally coloured.
type Formatter struct {
	UseColor bool
}

func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorError     = color.New(color.FgRed)
	colorErrorBold = color.New(color.FgHiRed, color.Bold)
	colorWarning   = color.New(color.FgHiYellow, color.Bold)
	colorCode      = color.New(color.FgHiBlack)
	colorLocation  = color.New(color.FgCyan)
	colorPipe      = color.New(color.FgHiBlack)
	colorCaret     = color.New(color.FgHiRed)
	colorHint      = color.New(color.FgHiYellow)
	colorNote      = color.New(color.FgHiBlue)
)

// FormattedError is the display form shared by compile errors and warnings.
// When EndColumn is past Column the caret underline spans the range.
type FormattedError struct {
	Code        ErrorCode
	Kind        string
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int
	SourceLines []SourceLineEntry
	Hint        string
	Note        string
}

// SourceLineEntry is one numbered line of the excerpt. The caret is drawn
// under the IsMain line.
type SourceLineEntry struct {
	Number int
	Text   string
	IsMain bool
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}

// Format renders err as a multi-line report.
func (f *Formatter) Format(err *FormattedError) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix is Format with a position marker such as "2/3" shown when
// the error has no code.
func (f *Formatter) FormatWithPrefix(err *FormattedError, prefix string) string {
	var b strings.Builder
	width := 2
	if err.Line >= 100 {
		width = len(fmt.Sprintf("%d", err.Line))
	}
	f.writeHeader(&b, err, prefix)
	f.writeLocation(&b, err, width)
	f.writeSource(&b, err, width)
	if err.Hint != "" {
		f.writeAnnotation(&b, colorHint, "hint: ", err.Hint, width, true)
	}
	if err.Note != "" {
		f.writeAnnotation(&b, colorNote, "note: ", err.Note, width, false)
	}
	return b.String()
}

func (f *Formatter) writeHeader(b *strings.Builder, err *FormattedError, prefix string) {
	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	if label == "warning" {
		b.WriteString(f.paint(colorWarning, label))
	} else {
		b.WriteString(f.paint(colorErrorBold, label))
	}
	if err.Code != "" {
		b.WriteString(f.paint(colorCode, "["+string(err.Code)+"]"))
	} else if prefix != "" {
		b.WriteString(f.paint(colorCode, "["+prefix+"]"))
	}
	b.WriteString(f.paint(colorError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")
}

func (f *Formatter) writeLocation(b *strings.Builder, err *FormattedError, width int) {
	if err.Line == 0 && err.Filename == "" {
		return
	}
	b.WriteString(strings.Repeat(" ", width))
	b.WriteString(f.paint(colorLocation, "-->"))
	b.WriteString(" ")
	loc := ""
	if err.Filename != "" {
		loc = err.Filename
		if err.Line > 0 {
			loc += fmt.Sprintf(":%d:%d", err.Line, err.Column)
		}
	} else if err.Line > 0 {
		loc = fmt.Sprintf("%d:%d", err.Line, err.Column)
	}
	b.WriteString(f.paint(colorLocation, loc))
	b.WriteString("\n")
}

func (f *Formatter) writeSource(b *strings.Builder, err *FormattedError, width int) {
	if len(err.SourceLines) == 0 {
		return
	}
	padding := strings.Repeat(" ", width)
	b.WriteString(padding)
	b.WriteString(f.paint(colorPipe, " |\n"))
	for _, line := range err.SourceLines {
		b.WriteString(f.paint(colorPipe, fmt.Sprintf("%*d", width, line.Number)))
		b.WriteString(f.paint(colorPipe, " | "))
		b.WriteString(line.Text)
		b.WriteString("\n")
		if !line.IsMain || err.Column <= 0 {
			continue
		}
		b.WriteString(padding)
		b.WriteString(f.paint(colorPipe, " | "))
		b.WriteString(strings.Repeat(" ", err.Column-1))
		n := 1
		if err.EndColumn > err.Column {
			n = err.EndColumn - err.Column
		}
		b.WriteString(f.paint(colorCaret, strings.Repeat("^", n)))
		b.WriteString("\n")
	}
}

func (f *Formatter) writeAnnotation(b *strings.Builder, c *color.Color, label, text string, width int, gap bool) {
	padding := strings.Repeat(" ", width)
	if gap {
		b.WriteString(padding)
		b.WriteString(f.paint(colorPipe, " |\n"))
	}
	b.WriteString(padding)
	b.WriteString(f.paint(colorPipe, " = "))
	b.WriteString(f.paint(c, label))
	b.WriteString(text)
	b.WriteString("\n")
}

// FormatMultiple renders each error numbered, then a total.
func (f *Formatter) FormatMultiple(errs []*FormattedError) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return f.Format(errs[0])
	}
	var b strings.Builder
	total := len(errs)
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.FormatWithPrefix(err, fmt.Sprintf("%d/%d", i+1, total)))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorErrorBold, fmt.Sprintf("found %d errors", total)))
	b.WriteString("\n")
	return b.String()
}
