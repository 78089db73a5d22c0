package bytecode

// copyWords returns a copy of the given code slice.
func copyWords(src []uint32) []uint32 {
	if src == nil {
		return nil
	}
	dst := make([]uint32, len(src))
	copy(dst, src)
	return dst
}

// copyLines returns a copy of the given line table.
func copyLines(src []LineEntry) []LineEntry {
	if src == nil {
		return nil
	}
	dst := make([]LineEntry, len(src))
	copy(dst, src)
	return dst
}

// copyLocals returns a copy of the given local range table.
func copyLocals(src []LocalRange) []LocalRange {
	if src == nil {
		return nil
	}
	dst := make([]LocalRange, len(src))
	copy(dst, src)
	return dst
}
