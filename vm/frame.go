package vm

import (
	"sync"

	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/object"
)

// FrameState tracks where an activation is in its lifecycle.
type FrameState uint8

const (
	// FrameFresh means the frame has been created but never entered.
	FrameFresh FrameState = iota

	// FrameRunning means the frame is executing on some caller's stack.
	FrameRunning

	// FrameSuspended means the frame is paused at a yield or await and can
	// be resumed.
	FrameSuspended

	// FrameReturned means the frame completed normally.
	FrameReturned

	// FrameRaised means the frame completed by raising an exception.
	FrameRaised
)

func (s FrameState) String() string {
	switch s {
	case FrameFresh:
		return "fresh"
	case FrameRunning:
		return "running"
	case FrameSuspended:
		return "suspended"
	case FrameReturned:
		return "returned"
	case FrameRaised:
		return "raised"
	}
	return "unknown"
}

// Frame is the mutable execution state of one activation of a code object.
// All state lives here rather than on the Go stack, which is what lets
// generator and coroutine frames outlive the call that created them.
//
// The mutex is a single-owner guard: the interpreter holds it while the
// frame runs, and introspection methods take it so they observe a settled
// state. Two callers can never execute the same frame concurrently.
type Frame struct {
	mu sync.Mutex

	code    *bytecode.Code
	fn      *object.Function
	globals map[string]object.Object

	// names is the by-name namespace for frames without fast locals
	// (module and class bodies). For module frames it aliases globals.
	names map[string]object.Object

	locals []object.Object
	cells  []*object.Cell

	// stack slots are nilable: a nil slot is the "no implicit receiver"
	// marker in the call protocol. Popping nil anywhere else is a fatal
	// fault.
	stack []object.Object
	sp    int

	ip    int
	state FrameState
}

func newFrame(code *bytecode.Code, fn *object.Function, globals, names map[string]object.Object) *Frame {
	f := &Frame{
		code:    code,
		fn:      fn,
		globals: globals,
		names:   names,
		stack:   make([]object.Object, code.MaxStackDepth+1),
		locals:  make([]object.Object, len(code.VarNames)),
		cells:   make([]*object.Cell, code.NumCells()),
	}
	for i := range f.cells {
		f.cells[i] = object.NewCell()
	}
	return f
}

// initCells moves captured parameters into their cells and installs the
// closure cells for free variables.
func (f *Frame) initCells(closure []*object.Cell) {
	for i, name := range f.code.CellVars {
		for j, vn := range f.code.VarNames {
			if vn == name {
				if f.locals[j] != nil {
					f.cells[i].Set(f.locals[j])
				}
				break
			}
		}
	}
	for i := range f.code.FreeVars {
		if i < len(closure) {
			f.cells[len(f.code.CellVars)+i] = closure[i]
		}
	}
}

// Code returns the code object this frame executes.
func (f *Frame) Code() *bytecode.Code { return f.code }

// State reports the frame's lifecycle state.
func (f *Frame) State() FrameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CurrentLine reports the source line of the instruction the frame is
// paused at. Safe to call from another goroutine while the frame is
// suspended.
func (f *Frame) CurrentLine() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ip := f.ip
	if ip > 0 {
		ip--
	}
	return f.code.LineFor(ip)
}

func (f *Frame) push(v object.Object) {
	if f.sp >= len(f.stack) {
		f.stack = append(f.stack, v)
		f.sp++
		return
	}
	f.stack[f.sp] = v
	f.sp++
}

func (f *Frame) pop() object.Object {
	if f.sp == 0 {
		panic("vm: value stack underflow")
	}
	f.sp--
	v := f.stack[f.sp]
	f.stack[f.sp] = nil
	return v
}

// popValue is pop for positions where the call-protocol nil marker is not
// legal.
func (f *Frame) popValue() object.Object {
	v := f.pop()
	if v == nil {
		panic("vm: nil stack slot outside call protocol")
	}
	return v
}

func (f *Frame) peek(n int) object.Object {
	return f.stack[f.sp-1-n]
}

func (f *Frame) popN(n int) []object.Object {
	if n == 0 {
		return nil
	}
	if f.sp < n {
		panic("vm: value stack underflow")
	}
	out := make([]object.Object, n)
	copy(out, f.stack[f.sp-n:f.sp])
	for i := f.sp - n; i < f.sp; i++ {
		f.stack[i] = nil
	}
	f.sp -= n
	return out
}

// truncate cuts the value stack to the given depth during unwinding.
func (f *Frame) truncate(depth int) {
	for i := depth; i < f.sp; i++ {
		f.stack[i] = nil
	}
	f.sp = depth
}

func (f *Frame) functionName() string {
	if f.fn != nil {
		return f.fn.Name()
	}
	return f.code.Name
}

// cellName maps a cell index to its variable name: cell variables first,
// then free variables.
func (f *Frame) cellName(i int) string {
	if i < len(f.code.CellVars) {
		return f.code.CellVars[i]
	}
	return f.code.FreeVars[i-len(f.code.CellVars)]
}
