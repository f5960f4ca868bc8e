// Package op defines opcodes used by the Serpent compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute. Each
// instruction is encoded as a fixed-width pair of (opcode, arg byte). Operands
// wider than one byte are carried by one or more preceding ExtendedArg units.
type Code uint8

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	ExtendedArg Code = 2
	Call        Code = 3
	CallKw      Code = 4
	CallEx      Code = 5
	ReturnValue Code = 6

	// Jumps. Operands are absolute instruction indices, resolved when the
	// block graph is linearized.
	Jump             Code = 10
	PopJumpIfFalse   Code = 11
	PopJumpIfTrue    Code = 12
	PopJumpIfNone    Code = 13
	PopJumpIfNotNone Code = 14
	JumpIfFalseOrPop Code = 15
	JumpIfTrueOrPop  Code = 16

	// Load
	LoadConst  Code = 20
	LoadFast   Code = 21
	LoadGlobal Code = 22
	LoadName   Code = 23
	LoadDeref  Code = 24
	LoadAttr   Code = 25
	LoadMethod Code = 26

	// Store
	StoreFast   Code = 30
	StoreGlobal Code = 31
	StoreName   Code = 32
	StoreDeref  Code = 33
	StoreAttr   Code = 34

	// Delete
	DeleteFast   Code = 35
	DeleteGlobal Code = 36
	DeleteName   Code = 37
	DeleteDeref  Code = 38
	DeleteAttr   Code = 39

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryPositive Code = 43
	UnaryNot      Code = 44
	UnaryInvert   Code = 45
	ContainsOp    Code = 46
	IsOp          Code = 47

	// Build
	BuildTuple  Code = 50
	BuildList   Code = 51
	BuildSet    Code = 52
	BuildMap    Code = 53
	BuildString Code = 54
	BuildSlice  Code = 55
	ListAppend  Code = 56
	SetAdd      Code = 57
	MapAdd      Code = 58
	ListExtend  Code = 59
	DictMerge   Code = 65
	SetUpdate   Code = 66
	ListToTuple Code = 67

	// Containers
	BinarySubscr   Code = 60
	StoreSubscr    Code = 61
	DeleteSubscr   Code = 62
	UnpackSequence Code = 63
	UnpackEx       Code = 64

	// Stack
	PopTop   Code = 70
	Copy     Code = 71
	Swap     Code = 72
	PushNil  Code = 73
	LoadNone Code = 74

	// Iteration
	GetIter Code = 80
	ForIter Code = 81

	// Functions and closures
	MakeFunction   Code = 90
	LoadClosure    Code = 91
	LoadBuildClass Code = 92

	// Exception handling. SetupExcept and PopBlock are pseudo instructions:
	// they delimit handler ranges during compilation and are rewritten to Nop
	// when the exception table is computed.
	SetupExcept     Code = 100
	PopBlock        Code = 101
	Raise           Code = 102
	Reraise         Code = 103
	PushExcInfo     Code = 104
	PopExcInfo      Code = 105
	CheckExcMatch   Code = 106
	BeforeWith      Code = 107
	WithExceptStart Code = 108

	// Generators and coroutines
	Yield        Code = 110
	Send         Code = 111
	GetAwaitable Code = 112
	CleanupThrow Code = 113

	// Pattern matching
	MatchClass    Code = 120
	MatchMapping  Code = 121
	MatchSequence Code = 122
	MatchKeys     Code = 123

	// Imports
	ImportName Code = 130
	ImportFrom Code = 131
	ImportStar Code = 132

	// Namespaces
	SetupAnnotations Code = 140
)

// Operand values for the Raise instruction.
const (
	RaiseBare  = 0 // re-raise the active exception
	RaiseExc   = 1 // raise TOS
	RaiseCause = 2 // raise TOS1 from TOS
)

// Operand values for the Yield instruction. A delegated yield marks a
// `yield from` or `await` suspension point, which is how the VM recognizes
// that a thrown exception should be routed into the delegate on top of the
// stack before being raised locally.
const (
	YieldPlain     = 0
	YieldDelegated = 1
)

// Operand values for the Reraise instruction.
const (
	ReraisePlain      = 0 // exception on TOS
	ReraiseWithOffset = 1 // TOS1 holds the faulting offset to restore
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint8

const (
	Add        BinaryOpType = 1
	Subtract   BinaryOpType = 2
	Multiply   BinaryOpType = 3
	Divide     BinaryOpType = 4
	FloorDiv   BinaryOpType = 5
	Modulo     BinaryOpType = 6
	Power      BinaryOpType = 7
	LShift     BinaryOpType = 8
	RShift     BinaryOpType = 9
	BitwiseAnd BinaryOpType = 10
	BitwiseOr  BinaryOpType = 11
	BitwiseXor BinaryOpType = 12
	MatrixMul  BinaryOpType = 13
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case FloorDiv:
		return "//"
	case Modulo:
		return "%"
	case Power:
		return "**"
	case LShift:
		return "<<"
	case RShift:
		return ">>"
	case BitwiseAnd:
		return "&"
	case BitwiseOr:
		return "|"
	case BitwiseXor:
		return "^"
	case MatrixMul:
		return "@"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint8

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code   Code
	Name   string
	HasArg bool
	IsJump bool
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op     Code
		name   string
		hasArg bool
		isJump bool
	}
	ops := []opInfo{
		{Nop, "NOP", false, false},
		{ExtendedArg, "EXTENDED_ARG", true, false},
		{Call, "CALL", true, false},
		{CallKw, "CALL_KW", true, false},
		{CallEx, "CALL_EX", true, false},
		{ReturnValue, "RETURN_VALUE", false, false},
		{Jump, "JUMP", true, true},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE", true, true},
		{PopJumpIfTrue, "POP_JUMP_IF_TRUE", true, true},
		{PopJumpIfNone, "POP_JUMP_IF_NONE", true, true},
		{PopJumpIfNotNone, "POP_JUMP_IF_NOT_NONE", true, true},
		{JumpIfFalseOrPop, "JUMP_IF_FALSE_OR_POP", true, true},
		{JumpIfTrueOrPop, "JUMP_IF_TRUE_OR_POP", true, true},
		{LoadConst, "LOAD_CONST", true, false},
		{LoadFast, "LOAD_FAST", true, false},
		{LoadGlobal, "LOAD_GLOBAL", true, false},
		{LoadName, "LOAD_NAME", true, false},
		{LoadDeref, "LOAD_DEREF", true, false},
		{LoadAttr, "LOAD_ATTR", true, false},
		{LoadMethod, "LOAD_METHOD", true, false},
		{StoreFast, "STORE_FAST", true, false},
		{StoreGlobal, "STORE_GLOBAL", true, false},
		{StoreName, "STORE_NAME", true, false},
		{StoreDeref, "STORE_DEREF", true, false},
		{StoreAttr, "STORE_ATTR", true, false},
		{DeleteFast, "DELETE_FAST", true, false},
		{DeleteGlobal, "DELETE_GLOBAL", true, false},
		{DeleteName, "DELETE_NAME", true, false},
		{DeleteDeref, "DELETE_DEREF", true, false},
		{DeleteAttr, "DELETE_ATTR", true, false},
		{BinaryOp, "BINARY_OP", true, false},
		{CompareOp, "COMPARE_OP", true, false},
		{UnaryNegative, "UNARY_NEGATIVE", false, false},
		{UnaryPositive, "UNARY_POSITIVE", false, false},
		{UnaryNot, "UNARY_NOT", false, false},
		{UnaryInvert, "UNARY_INVERT", false, false},
		{ContainsOp, "CONTAINS_OP", true, false},
		{IsOp, "IS_OP", true, false},
		{BuildTuple, "BUILD_TUPLE", true, false},
		{BuildList, "BUILD_LIST", true, false},
		{BuildSet, "BUILD_SET", true, false},
		{BuildMap, "BUILD_MAP", true, false},
		{BuildString, "BUILD_STRING", true, false},
		{BuildSlice, "BUILD_SLICE", true, false},
		{ListAppend, "LIST_APPEND", true, false},
		{SetAdd, "SET_ADD", true, false},
		{MapAdd, "MAP_ADD", true, false},
		{ListExtend, "LIST_EXTEND", true, false},
		{DictMerge, "DICT_MERGE", true, false},
		{SetUpdate, "SET_UPDATE", true, false},
		{ListToTuple, "LIST_TO_TUPLE", false, false},
		{BinarySubscr, "BINARY_SUBSCR", false, false},
		{StoreSubscr, "STORE_SUBSCR", false, false},
		{DeleteSubscr, "DELETE_SUBSCR", false, false},
		{UnpackSequence, "UNPACK_SEQUENCE", true, false},
		{UnpackEx, "UNPACK_EX", true, false},
		{PopTop, "POP_TOP", false, false},
		{Copy, "COPY", true, false},
		{Swap, "SWAP", true, false},
		{PushNil, "PUSH_NIL", false, false},
		{LoadNone, "LOAD_NONE", false, false},
		{GetIter, "GET_ITER", false, false},
		{ForIter, "FOR_ITER", true, true},
		{MakeFunction, "MAKE_FUNCTION", true, false},
		{LoadClosure, "LOAD_CLOSURE", true, false},
		{LoadBuildClass, "LOAD_BUILD_CLASS", false, false},
		{SetupExcept, "SETUP_EXCEPT", true, true},
		{PopBlock, "POP_BLOCK", false, false},
		{Raise, "RAISE", true, false},
		{Reraise, "RERAISE", true, false},
		{PushExcInfo, "PUSH_EXC_INFO", false, false},
		{PopExcInfo, "POP_EXC_INFO", false, false},
		{CheckExcMatch, "CHECK_EXC_MATCH", false, false},
		{BeforeWith, "BEFORE_WITH", false, false},
		{WithExceptStart, "WITH_EXCEPT_START", false, false},
		{Yield, "YIELD", true, false},
		{Send, "SEND", true, true},
		{GetAwaitable, "GET_AWAITABLE", false, false},
		{CleanupThrow, "CLEANUP_THROW", false, false},
		{MatchClass, "MATCH_CLASS", true, false},
		{MatchMapping, "MATCH_MAPPING", false, false},
		{MatchSequence, "MATCH_SEQUENCE", false, false},
		{MatchKeys, "MATCH_KEYS", false, false},
		{ImportName, "IMPORT_NAME", true, false},
		{ImportFrom, "IMPORT_FROM", true, false},
		{ImportStar, "IMPORT_STAR", false, false},
		{SetupAnnotations, "SETUP_ANNOTATIONS", false, false},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:   o.op,
			Name:   o.name,
			HasArg: o.hasArg,
			IsJump: o.isJump,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(code Code) Info {
	return infos[code]
}
