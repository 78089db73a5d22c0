package bytecode

import "fmt"

// LineEntry records that the code starting at Pos was generated from
// source line Line. A line table has one entry per line change.
type LineEntry struct {
	Pos  int
	Line int
}

// String returns a formatted representation of the entry.
func (e LineEntry) String() string {
	return fmt.Sprintf("%d@%d", e.Line, e.Pos)
}

// LocalRange is the live range of a local slot: from the instruction that
// declares it up to, but not including, End. Parameters start at 0.
type LocalRange struct {
	Name  string
	Slot  int
	Start int
	End   int
}

// Contains reports whether the range covers the code position.
func (r LocalRange) Contains(pos int) bool {
	return pos >= r.Start && pos < r.End
}

// lineAt finds the line of a position in a sorted line table.
func lineAt(lines []LineEntry, pos int) int {
	line := 0
	for _, e := range lines {
		if e.Pos > pos {
			break
		}
		line = e.Line
	}
	return line
}
