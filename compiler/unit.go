package compiler

import (
	"fmt"

	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/op"
	"github.com/cloudcmds/serpent/symtab"
)

// blockLabel identifies a basic block within one code unit.
type blockLabel int

const noBlock blockLabel = -1

// instr is one pre-assembly instruction. Jump operands reference blocks by
// label; the operand value is resolved when the graph is linearized.
type instr struct {
	op   op.Code
	arg  int
	line int32

	// target is the destination block for jumps and for SetupExcept
	// markers.
	target blockLabel

	// push carries the push-offset flag of a SetupExcept marker.
	push bool

	// depthAt, when set on a SetupExcept marker, names the marker whose
	// simulated entry depth this one reuses. Reopened markers sit in
	// blocks the depth simulation never reaches, so they borrow the depth
	// of the marker that originally opened the range.
	depthAt *markerPos
}

// markerPos locates one emitted instruction within the block graph.
type markerPos struct {
	block blockLabel
	index int
}

// block is a basic block. A block is open while instructions may still be
// appended and closes exactly once, when a terminator is emitted. Emitting
// into a closed block, or closing it again, is a compiler defect and panics.
type block struct {
	instrs []instr
	closed bool
}

// unit accumulates one code object under construction.
type unit struct {
	name      string
	qualname  string
	filename  string
	firstLine int
	flags     bytecode.Flags

	argCount int
	posOnly  int
	kwOnly   int

	scope  *symtab.Scope
	parent *unit

	blocks  []*block
	current blockLabel

	// layout records blocks in the order they were first made current,
	// which is the order they are linearized in.
	layout []blockLabel
	placed []bool

	constants []any
	constKeys map[string]int

	names    []string
	nameIdx  map[string]int
	varnames []string
	varIdx   map[string]int
	cellvars []string
	cellIdx  map[string]int
	freevars []string
	freeIdx  map[string]int

	fblocks []fblock

	// annotationsReady is set once SetupAnnotations has been emitted.
	annotationsReady bool
}

func newUnit(name, filename string, firstLine int, scope *symtab.Scope, parent *unit) *unit {
	u := &unit{
		name:      name,
		qualname:  name,
		filename:  filename,
		firstLine: firstLine,
		scope:     scope,
		parent:    parent,
		current:   noBlock,
		constKeys: map[string]int{},
		nameIdx:   map[string]int{},
		varIdx:    map[string]int{},
		cellIdx:   map[string]int{},
		freeIdx:   map[string]int{},
	}
	// The module unit does not qualify its direct children.
	if parent != nil && parent.parent != nil {
		u.qualname = parent.qualname + "." + name
	}
	u.useBlock(u.newBlock())
	return u
}

// newBlock allocates a new open block and returns its label.
func (u *unit) newBlock() blockLabel {
	u.blocks = append(u.blocks, &block{})
	u.placed = append(u.placed, false)
	return blockLabel(len(u.blocks) - 1)
}

// useBlock makes the given block the target of subsequent emits. Re-entering
// a closed block violates the open-to-closed invariant.
func (u *unit) useBlock(label blockLabel) {
	b := u.blocks[label]
	if b.closed {
		panic(fmt.Sprintf("compiler: reentering closed block %d in %q", label, u.name))
	}
	if !u.placed[label] {
		u.placed[label] = true
		u.layout = append(u.layout, label)
	}
	u.current = label
}

// currentClosed reports whether the current block has been terminated.
func (u *unit) currentClosed() bool {
	return u.blocks[u.current].closed
}

func (u *unit) append(in instr) {
	b := u.blocks[u.current]
	if b.closed {
		panic(fmt.Sprintf("compiler: emit into closed block %d in %q", u.current, u.name))
	}
	b.instrs = append(b.instrs, in)
	switch in.op {
	case op.Jump, op.ReturnValue, op.Raise, op.Reraise:
		b.closed = true
	}
}

func (u *unit) emit(line int32, code op.Code, arg int) {
	u.append(instr{op: code, arg: arg, line: line, target: noBlock})
}

func (u *unit) emitJump(line int32, code op.Code, target blockLabel) {
	if !op.GetInfo(code).IsJump {
		panic(fmt.Sprintf("compiler: %s is not a jump", op.GetInfo(code).Name))
	}
	u.append(instr{op: code, line: line, target: target})
}

// markSetup opens a protected range that unwinds to the handler block. It
// returns the marker's position so a reopened range can reuse its depth.
func (u *unit) markSetup(line int32, handler blockLabel, pushOffset bool) markerPos {
	u.append(instr{op: op.SetupExcept, line: line, target: handler, push: pushOffset})
	return markerPos{block: u.current, index: len(u.blocks[u.current].instrs) - 1}
}

// markReopen re-opens a protected range that an early exit closed, keeping
// the entry depth of the original marker.
func (u *unit) markReopen(line int32, fb fblock) {
	at := fb.setupAt
	u.append(instr{
		op:      op.SetupExcept,
		line:    line,
		target:  fb.handler,
		push:    fb.push,
		depthAt: &at,
	})
}

// markPop closes the innermost protected range.
func (u *unit) markPop(line int32) {
	u.append(instr{op: op.PopBlock, line: line, target: noBlock})
}

// constant interns a constant value and returns its pool index. Scalar
// constants deduplicate by type and value; code objects are always distinct.
func (u *unit) constant(v any) int {
	if code, ok := v.(*bytecode.Code); ok {
		u.constants = append(u.constants, code)
		return len(u.constants) - 1
	}
	key := constKey(v)
	if idx, ok := u.constKeys[key]; ok {
		return idx
	}
	u.constants = append(u.constants, v)
	idx := len(u.constants) - 1
	u.constKeys[key] = idx
	return idx
}

func constKey(v any) string {
	switch c := v.(type) {
	case bytecode.Tuple:
		key := "tuple("
		for _, elt := range c {
			key += constKey(elt) + ","
		}
		return key + ")"
	case []byte:
		return fmt.Sprintf("bytes|%q", string(c))
	default:
		return fmt.Sprintf("%T|%v", v, v)
	}
}

func internString(list *[]string, idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	*list = append(*list, name)
	i := len(*list) - 1
	idx[name] = i
	return i
}

// nameIndex interns a by-name or global name.
func (u *unit) nameIndex(name string) int {
	return internString(&u.names, u.nameIdx, name)
}

// varIndex interns a fast-local name.
func (u *unit) varIndex(name string) int {
	return internString(&u.varnames, u.varIdx, name)
}

// cellIndex returns the cell-array index for a cell or free variable. Free
// variables follow cell variables in the array.
func (u *unit) cellIndex(name string) int {
	if i, ok := u.cellIdx[name]; ok {
		return i
	}
	if i, ok := u.freeIdx[name]; ok {
		return len(u.cellvars) + i
	}
	panic(fmt.Sprintf("compiler: no cell for %q in %q", name, u.name))
}

// declareCells fixes the cell and free variable tables from the scope. Cell
// tables must be complete before any cellIndex call, since free variable
// indices are offset by the cell count.
func (u *unit) declareCells() {
	for _, name := range u.scope.SymbolsOfKind(symtab.Cell) {
		internString(&u.cellvars, u.cellIdx, name)
	}
	for _, name := range u.scope.FreeNames() {
		internString(&u.freevars, u.freeIdx, name)
	}
}
