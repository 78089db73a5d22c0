// Package op defines the tern instruction set: opcodes, operand formats,
// stack effects and the packed code-unit encoding.
package op

// Code is an opcode. It occupies the low byte of a code unit.
type Code uint8

const (
	Nop Code = iota

	// Push
	PushNull
	PushTrue
	PushFalse
	PushLit
	PushSelf

	// Stack
	Pop
	Dup
	Dup2
	Swap
	Rot3

	// Storage
	LoadLocal
	StoreLocal
	DeclLocal
	EndLocal
	LoadOuter
	StoreOuter
	LoadGlobal
	StoreGlobal
	LoadMember
	StoreMember

	// Arithmetic
	Add
	Sub
	Mul
	Div
	IDiv
	Mod
	Neg
	Not
	BitNot
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Concat
	Xor

	// Comparison
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Is
	Has

	// Control
	Jump
	JumpIfFalse
	JumpIfTrue
	JumpIfNotNull

	// Calls
	GetMethod
	Call
	TailCall
	Return
	Yield
	MakeFunc
	MakeProperty

	// Containers
	GetIndex
	SetIndex
	GetField
	SetField
	BuildList
	BuildMap
	Unpack

	// Exceptions
	PushHandler
	PopHandler
	Raise
	PushFinally
	PopFinally
	CallFinally
	RetFinally

	// Iteration
	ForCheck
	ForStep
	GetIter
	IterNext

	// Scopes
	PushScope
	NewClass
	NewPackage
	EnterWith
	ExitWith

	// Placeholders resolved before packing
	Break
	Continue

	numCodes
)

// Format describes which operand fields of a code unit are meaningful.
type Format uint8

const (
	// FormatNone has no operands.
	FormatNone Format = iota
	// FormatJump has a target position in B and may carry a count in A.
	FormatJump
	// FormatWord has a literal index, slot or count in B.
	FormatWord
	// FormatByteWord uses both A and B.
	FormatByteWord
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatJump:
		return "jump"
	case FormatWord:
		return "word"
	case FormatByteWord:
		return "byte+word"
	default:
		return "unknown"
	}
}

// Dynamic marks an Info.Effect that depends on the operands; use
// StackEffect to compute it.
const Dynamic = -1 << 15

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string

	Format Format

	// Effect is the change in operand stack depth when execution falls
	// through to the next instruction.
	Effect int

	// JumpEffect is the change in depth along the taken edge of a
	// FormatJump instruction.
	JumpEffect int

	// Terminal instructions never fall through.
	Terminal bool
}

var infos [256]Info

func init() {
	type opInfo struct {
		op       Code
		name     string
		format   Format
		effect   int
		jump     int
		terminal bool
	}
	ops := []opInfo{
		{Nop, "NOP", FormatNone, 0, 0, false},
		{PushNull, "PUSH_NULL", FormatNone, 1, 0, false},
		{PushTrue, "PUSH_TRUE", FormatNone, 1, 0, false},
		{PushFalse, "PUSH_FALSE", FormatNone, 1, 0, false},
		{PushLit, "PUSH_LIT", FormatWord, 1, 0, false},
		{PushSelf, "PUSH_SELF", FormatNone, 1, 0, false},
		{Pop, "POP", FormatNone, -1, 0, false},
		{Dup, "DUP", FormatNone, 1, 0, false},
		{Dup2, "DUP2", FormatNone, 2, 0, false},
		{Swap, "SWAP", FormatNone, 0, 0, false},
		{Rot3, "ROT3", FormatNone, 0, 0, false},
		{LoadLocal, "LOAD_LOCAL", FormatWord, 1, 0, false},
		{StoreLocal, "STORE_LOCAL", FormatWord, -1, 0, false},
		{DeclLocal, "DECL_LOCAL", FormatWord, -1, 0, false},
		{EndLocal, "END_LOCAL", FormatWord, 0, 0, false},
		{LoadOuter, "LOAD_OUTER", FormatByteWord, 1, 0, false},
		{StoreOuter, "STORE_OUTER", FormatByteWord, -1, 0, false},
		{LoadGlobal, "LOAD_GLOBAL", FormatWord, 1, 0, false},
		{StoreGlobal, "STORE_GLOBAL", FormatWord, -1, 0, false},
		{LoadMember, "LOAD_MEMBER", FormatWord, 1, 0, false},
		{StoreMember, "STORE_MEMBER", FormatWord, -1, 0, false},
		{Add, "ADD", FormatNone, -1, 0, false},
		{Sub, "SUB", FormatNone, -1, 0, false},
		{Mul, "MUL", FormatNone, -1, 0, false},
		{Div, "DIV", FormatNone, -1, 0, false},
		{IDiv, "IDIV", FormatNone, -1, 0, false},
		{Mod, "MOD", FormatNone, -1, 0, false},
		{Neg, "NEG", FormatNone, 0, 0, false},
		{Not, "NOT", FormatNone, 0, 0, false},
		{BitNot, "BIT_NOT", FormatNone, 0, 0, false},
		{BitAnd, "BIT_AND", FormatNone, -1, 0, false},
		{BitOr, "BIT_OR", FormatNone, -1, 0, false},
		{BitXor, "BIT_XOR", FormatNone, -1, 0, false},
		{Shl, "SHL", FormatNone, -1, 0, false},
		{Shr, "SHR", FormatNone, -1, 0, false},
		{Concat, "CONCAT", FormatNone, -1, 0, false},
		{Xor, "XOR", FormatNone, -1, 0, false},
		{Eq, "EQ", FormatNone, -1, 0, false},
		{Ne, "NE", FormatNone, -1, 0, false},
		{Lt, "LT", FormatNone, -1, 0, false},
		{Le, "LE", FormatNone, -1, 0, false},
		{Gt, "GT", FormatNone, -1, 0, false},
		{Ge, "GE", FormatNone, -1, 0, false},
		{Is, "IS", FormatNone, -1, 0, false},
		{Has, "HAS", FormatNone, -1, 0, false},
		{Jump, "JUMP", FormatJump, 0, 0, true},
		{JumpIfFalse, "JUMP_IF_FALSE", FormatJump, -1, -1, false},
		{JumpIfTrue, "JUMP_IF_TRUE", FormatJump, -1, -1, false},
		{JumpIfNotNull, "JUMP_IF_NOT_NULL", FormatJump, -1, -1, false},
		{GetMethod, "GET_METHOD", FormatWord, 1, 0, false},
		{Call, "CALL", FormatByteWord, Dynamic, 0, false},
		{TailCall, "TAIL_CALL", FormatByteWord, Dynamic, 0, true},
		{Return, "RETURN", FormatWord, Dynamic, 0, true},
		{Yield, "YIELD", FormatWord, Dynamic, 0, false},
		{MakeFunc, "MAKE_FUNC", FormatByteWord, Dynamic, 0, false},
		{MakeProperty, "MAKE_PROPERTY", FormatByteWord, Dynamic, 0, false},
		{GetIndex, "GET_INDEX", FormatNone, -1, 0, false},
		{SetIndex, "SET_INDEX", FormatNone, -3, 0, false},
		{GetField, "GET_FIELD", FormatWord, 0, 0, false},
		{SetField, "SET_FIELD", FormatWord, -2, 0, false},
		{BuildList, "BUILD_LIST", FormatWord, Dynamic, 0, false},
		{BuildMap, "BUILD_MAP", FormatWord, Dynamic, 0, false},
		{Unpack, "UNPACK", FormatWord, Dynamic, 0, false},
		{PushHandler, "PUSH_HANDLER", FormatJump, 0, 1, false},
		{PopHandler, "POP_HANDLER", FormatNone, 0, 0, false},
		{Raise, "RAISE", FormatNone, -1, 0, true},
		{PushFinally, "PUSH_FINALLY", FormatJump, 0, 1, false},
		{PopFinally, "POP_FINALLY", FormatNone, 0, 0, false},
		{CallFinally, "CALL_FINALLY", FormatJump, 0, 1, false},
		{RetFinally, "RET_FINALLY", FormatNone, -1, 0, true},
		{ForCheck, "FOR_CHECK", FormatWord, 1, 0, false},
		{ForStep, "FOR_STEP", FormatWord, 0, 0, false},
		{GetIter, "GET_ITER", FormatNone, 0, 0, false},
		{IterNext, "ITER_NEXT", FormatJump, Dynamic, -1, false},
		{PushScope, "PUSH_SCOPE", FormatNone, 1, 0, false},
		{NewClass, "NEW_CLASS", FormatByteWord, -1, 0, false},
		{NewPackage, "NEW_PACKAGE", FormatWord, 0, 0, false},
		{EnterWith, "ENTER_WITH", FormatNone, -1, 0, false},
		{ExitWith, "EXIT_WITH", FormatNone, 0, 0, false},
		{Break, "BREAK", FormatJump, 0, 0, true},
		{Continue, "CONTINUE", FormatJump, 0, 0, true},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:       o.op,
			Name:       o.name,
			Format:     o.format,
			Effect:     o.effect,
			JumpEffect: o.jump,
			Terminal:   o.terminal,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(code Code) Info {
	return infos[code]
}

// IsValid reports whether code is a defined opcode.
func IsValid(code Code) bool {
	return code < numCodes
}

// String returns the opcode name.
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return "INVALID"
}

// IsJump reports whether the opcode carries a jump target.
func (c Code) IsJump() bool {
	return infos[c].Format == FormatJump
}

// IsConditional reports whether the opcode is a conditional branch that
// pops its operand.
func (c Code) IsConditional() bool {
	return c == JumpIfFalse || c == JumpIfTrue || c == JumpIfNotNull
}

// StackEffect returns the fall-through change in stack depth for an
// instruction with the given operands.
func StackEffect(code Code, a, b int) int {
	switch code {
	case Call:
		// callee, positional arguments, keyword name/value pairs
		return -(1 + a + 2*b) + 1
	case TailCall:
		return -(1 + a + 2*b)
	case Return:
		return -b
	case Yield:
		return -b
	case MakeFunc:
		return -a + 1
	case MakeProperty:
		n := 0
		if a&PropGetter != 0 {
			n++
		}
		if a&PropSetter != 0 {
			n++
		}
		return -n + 1
	case BuildList:
		return -b + 1
	case BuildMap:
		return -2*b + 1
	case Unpack:
		return b - 1
	case IterNext:
		return a - 1
	}
	return infos[code].Effect
}

// Property accessor mask bits for MakeProperty's A operand.
const (
	PropGetter = 1 << iota
	PropSetter
)

// Operand limits of a packed code unit.
const (
	MaxA = 0xFF
	MaxB = 0xFFFF
)

// Encode packs an instruction into one code unit: opcode in bits 0-7,
// A in bits 8-15, B in bits 16-31. Operands are truncated to their width;
// callers check MaxA and MaxB first.
func Encode(code Code, a, b int) uint32 {
	return uint32(code) | uint32(a&MaxA)<<8 | uint32(b&MaxB)<<16
}

// Decode unpacks a code unit.
func Decode(word uint32) (code Code, a, b int) {
	return Code(word & 0xFF), int(word >> 8 & 0xFF), int(word >> 16)
}
