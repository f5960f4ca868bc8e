// Package bytecode defines the compiled form of a code unit: a fixed-width
// instruction sequence plus the constant pool, name tables, exception table,
// and metadata a frame needs to execute it. Code objects are immutable once
// assembled and safe to share across frames and goroutines.
package bytecode

import (
	"fmt"

	"github.com/cloudcmds/serpent/op"
)

// Unit is one fixed-width instruction: an opcode and a one-byte operand.
// Operands wider than a byte are carried by preceding op.ExtendedArg units,
// each contributing eight high bits.
type Unit struct {
	Op  op.Code
	Arg uint8
}

// Flags describe properties of a code object.
type Flags uint16

const (
	// FlagOptimized marks function bodies: locals live in the fast-local
	// array rather than a namespace.
	FlagOptimized Flags = 1 << iota

	// FlagNewLocals means the frame gets a fresh local namespace.
	FlagNewLocals

	// FlagVarArgs marks a *args parameter.
	FlagVarArgs

	// FlagVarKeywords marks a **kwargs parameter.
	FlagVarKeywords

	// FlagGenerator marks code whose call produces a generator.
	FlagGenerator

	// FlagCoroutine marks code whose call produces a coroutine.
	FlagCoroutine
)

// ExceptionTableEntry maps a half-open instruction range [Start, End) to the
// handler that receives exceptions raised inside it. Entries are sorted by
// Start and never overlap.
type ExceptionTableEntry struct {
	Start  uint32
	End    uint32
	Target uint32

	// Depth is the value-stack depth to truncate to before entering the
	// handler.
	Depth uint32

	// PushOffset makes the unwinder push the faulting instruction offset
	// below the exception, so a finally body can resume via Reraise.
	PushOffset bool
}

// Ellipsis is the constant value of an `...` literal.
type Ellipsis struct{}

// Tuple is a constant tuple. Elements are constants themselves.
type Tuple []any

// Code is one compiled code unit. Constants hold nil, bool, int64, float64,
// complex128, string, []byte, Ellipsis, Tuple, or nested *Code values.
type Code struct {
	ID   string
	Name string

	// QualName is the dotted path locating a nested definition lexically,
	// e.g. "f.C.m" for a method of a class defined inside f.
	QualName string

	Filename  string
	FirstLine int
	Flags     Flags

	// Parameter shape. ArgCount counts positional parameters (including
	// positional-only); KwOnlyArgCount counts keyword-only parameters.
	// *args and **kwargs slots follow them in VarNames when the
	// corresponding flag is set.
	ArgCount        int
	PosOnlyArgCount int
	KwOnlyArgCount  int

	Units     []Unit
	Constants []any

	// Name tables. Names resolve by-name and global accesses; VarNames
	// index fast locals; CellVars then FreeVars index the frame's cell
	// array.
	Names    []string
	VarNames []string
	CellVars []string
	FreeVars []string

	// Lines holds the source line for each unit, parallel to Units.
	Lines []int32

	MaxStackDepth  int
	ExceptionTable []ExceptionTableEntry
}

// IsGenerator reports whether calling this code produces a generator.
func (c *Code) IsGenerator() bool { return c.Flags&FlagGenerator != 0 }

// IsCoroutine reports whether calling this code produces a coroutine.
func (c *Code) IsCoroutine() bool { return c.Flags&FlagCoroutine != 0 }

// NumCells returns the size of a frame's cell array: cell variables followed
// by free variables.
func (c *Code) NumCells() int { return len(c.CellVars) + len(c.FreeVars) }

// LineFor returns the source line of the unit at the given offset.
func (c *Code) LineFor(offset int) int {
	if offset >= 0 && offset < len(c.Lines) {
		return int(c.Lines[offset])
	}
	return c.FirstLine
}

// FindExceptionHandler returns the innermost table entry covering the
// faulting offset. Entries are ordered and disjoint, so the first covering
// entry is the answer.
func (c *Code) FindExceptionHandler(offset int) (ExceptionTableEntry, bool) {
	for _, e := range c.ExceptionTable {
		if uint32(offset) < e.Start {
			break
		}
		if uint32(offset) < e.End {
			return e, true
		}
	}
	return ExceptionTableEntry{}, false
}

// Decoded is one logical instruction after extended-arg folding.
type Decoded struct {
	// Offset is the unit index of the operation itself (not of any
	// ExtendedArg prefix).
	Offset int
	Op     op.Code
	Arg    int
}

// Decode folds ExtendedArg prefixes and returns the logical instructions.
// Jump targets remain unit offsets into the original sequence.
func Decode(units []Unit) []Decoded {
	out := make([]Decoded, 0, len(units))
	ext := 0
	for i, u := range units {
		if u.Op == op.ExtendedArg {
			ext = ext<<8 | int(u.Arg)
			continue
		}
		out = append(out, Decoded{Offset: i, Op: u.Op, Arg: ext<<8 | int(u.Arg)})
		ext = 0
	}
	return out
}

// ConstantString renders a constant for disassembly and error messages.
func ConstantString(v any) string {
	switch c := v.(type) {
	case nil:
		return "None"
	case bool:
		if c {
			return "True"
		}
		return "False"
	case string:
		return fmt.Sprintf("%q", c)
	case []byte:
		return fmt.Sprintf("b%q", string(c))
	case Ellipsis:
		return "Ellipsis"
	case Tuple:
		s := "("
		for i, elt := range c {
			if i > 0 {
				s += ", "
			}
			s += ConstantString(elt)
		}
		if len(c) == 1 {
			s += ","
		}
		return s + ")"
	case *Code:
		return fmt.Sprintf("<code %s>", c.Name)
	default:
		return fmt.Sprintf("%v", c)
	}
}
