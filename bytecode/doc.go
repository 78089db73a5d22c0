// Package bytecode provides the records produced by the tern compiler.
//
// A compile unit yields a tree of [Def] values, one per script, function
// and property accessor, rooted at the script's Def. All Defs of a unit share
// one [LiteralPool]; bytecode refers to constants only by pool index.
//
// # Key Types
//
//   - [Def]: a function definition with packed code, debug tables and the
//     metadata the runtime needs to build closures
//   - [LiteralPool]: the deduplicated constant table of a compile unit
//   - [LineEntry]: maps a code position to the source line that starts there
//   - [LocalRange]: the live range of one local slot
//
// # Lifecycle
//
// The compiler creates Defs while resolving names, fills in counts and flags
// as it discovers them, and calls [Def.Finalize] once the code is packed.
// After that the Def is not modified and may be shared between goroutines.
//
// Index-based access is used for collections:
//
//	def.CodeAt(0)
//	def.ChildAt(i)
//	pool.At(j)
//
// [Def.Bytecode] returns a copy of the packed code for callers that need the
// whole slice.
package bytecode
