package bytecode

// Stats contains statistics about a compiled Def tree. This is useful for
// auditing a unit before handing it to a runtime.
type Stats struct {
	// InstructionCount is the total number of code units in all Defs.
	InstructionCount int

	// LiteralCount is the number of constants in the shared literal pool.
	LiteralCount int

	// FunctionCount is the number of Defs, including the root.
	FunctionCount int

	// MaxStack is the largest operand stack requirement of any Def.
	MaxStack int

	// ClosureCount is the number of Defs marked mustClose.
	ClosureCount int
}

// Stats walks the Def and its descendants.
func (d *Def) Stats() Stats {
	var s Stats
	if d.pool != nil {
		s.LiteralCount = d.pool.Len()
	}
	d.Walk(func(def *Def) {
		s.FunctionCount++
		s.InstructionCount += len(def.code)
		s.MaxStack = max(s.MaxStack, def.maxStack)
		if def.mustClose {
			s.ClosureCount++
		}
	})
	return s
}
