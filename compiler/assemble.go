package compiler

import (
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/op"
)

// assemble linearizes the block graph into a code object: blocks are placed
// in first-use order, jump operands become absolute unit offsets (widened
// with ExtendedArg prefixes until a fixpoint), SetupExcept/PopBlock markers
// turn into Nop units while contributing exception-table entries, and the
// maximum stack depth comes from simulating every path through the graph.
func (u *unit) assemble() *bytecode.Code {
	depths, maxDepth := u.simulate()

	widths := make([][]int, len(u.blocks))
	for label, b := range u.blocks {
		widths[label] = make([]int, len(b.instrs))
		for i, in := range b.instrs {
			switch {
			case in.op == op.SetupExcept || in.op == op.PopBlock:
				widths[label][i] = 1
			case in.target != noBlock:
				widths[label][i] = 1
			case op.GetInfo(in.op).HasArg:
				widths[label][i] = 1 + extCount(in.arg)
			default:
				widths[label][i] = 1
			}
		}
	}

	// Jump operand widths depend on target offsets, which depend on widths.
	// Widths only ever grow, so iterating to a fixpoint terminates.
	blockOffset := make([]int, len(u.blocks))
	for {
		off := 0
		for _, label := range u.layout {
			blockOffset[label] = off
			for _, w := range widths[label] {
				off += w
			}
		}
		changed := false
		for _, label := range u.layout {
			for i, in := range u.blocks[label].instrs {
				if in.op == op.SetupExcept || in.target == noBlock {
					continue
				}
				if !u.placed[in.target] {
					panic(fmt.Sprintf("compiler: dangling jump to block %d in %q",
						in.target, u.name))
				}
				w := 1 + extCount(blockOffset[in.target])
				if w > widths[label][i] {
					widths[label][i] = w
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	var units []bytecode.Unit
	var lines []int32
	var table []bytecode.ExceptionTableEntry

	type activeHandler struct {
		target   blockLabel
		depth    int
		push     bool
		segStart int
	}
	var handlers []activeHandler
	flush := func(end int) {
		h := &handlers[len(handlers)-1]
		// A negative depth means the range sits in code the depth
		// simulation never reached; nothing in it can raise.
		if end > h.segStart && h.depth >= 0 {
			table = append(table, bytecode.ExceptionTableEntry{
				Start:      uint32(h.segStart),
				End:        uint32(end),
				Target:     uint32(blockOffset[h.target]),
				Depth:      uint32(h.depth),
				PushOffset: h.push,
			})
		}
	}

	for _, label := range u.layout {
		for i, in := range u.blocks[label].instrs {
			offset := len(units)
			switch in.op {
			case op.SetupExcept:
				if !u.placed[in.target] {
					panic(fmt.Sprintf("compiler: dangling handler block %d in %q",
						in.target, u.name))
				}
				if len(handlers) > 0 {
					flush(offset)
				}
				depth := depths[label][i]
				if in.depthAt != nil {
					depth = depths[in.depthAt.block][in.depthAt.index]
				}
				handlers = append(handlers, activeHandler{
					target:   in.target,
					depth:    depth,
					push:     in.push,
					segStart: offset,
				})
				units = append(units, bytecode.Unit{Op: op.Nop})
				lines = append(lines, in.line)
			case op.PopBlock:
				if len(handlers) == 0 {
					panic(fmt.Sprintf("compiler: unbalanced PopBlock in %q", u.name))
				}
				flush(offset)
				handlers = handlers[:len(handlers)-1]
				if len(handlers) > 0 {
					handlers[len(handlers)-1].segStart = offset
				}
				units = append(units, bytecode.Unit{Op: op.Nop})
				lines = append(lines, in.line)
			default:
				arg := in.arg
				if in.target != noBlock {
					arg = blockOffset[in.target]
				}
				for k := widths[label][i] - 1; k >= 1; k-- {
					units = append(units, bytecode.Unit{
						Op:  op.ExtendedArg,
						Arg: uint8((arg >> (8 * k)) & 0xFF),
					})
					lines = append(lines, in.line)
				}
				units = append(units, bytecode.Unit{Op: in.op, Arg: uint8(arg & 0xFF)})
				lines = append(lines, in.line)
			}
		}
	}
	if len(handlers) != 0 {
		panic(fmt.Sprintf("compiler: %d unclosed handler ranges in %q",
			len(handlers), u.name))
	}

	return &bytecode.Code{
		ID:              uuid.Must(uuid.NewV4()).String(),
		Name:            u.name,
		QualName:        u.qualname,
		Filename:        u.filename,
		FirstLine:       u.firstLine,
		Flags:           u.flags,
		ArgCount:        u.argCount,
		PosOnlyArgCount: u.posOnly,
		KwOnlyArgCount:  u.kwOnly,
		Units:           units,
		Constants:       u.constants,
		Names:           u.names,
		VarNames:        u.varnames,
		CellVars:        u.cellvars,
		FreeVars:        u.freevars,
		Lines:           lines,
		MaxStackDepth:   maxDepth,
		ExceptionTable:  table,
	}
}

// simulate walks every path through the block graph tracking value-stack
// depth. It returns the depth before each instruction (used for exception
// table entries) and the maximum depth reached anywhere.
func (u *unit) simulate() ([][]int, int) {
	depths := make([][]int, len(u.blocks))
	for label, b := range u.blocks {
		depths[label] = make([]int, len(b.instrs))
		for i := range depths[label] {
			depths[label][i] = -1
		}
	}
	blockIn := make([]int, len(u.blocks))
	for i := range blockIn {
		blockIn[i] = -1
	}
	layoutPos := make(map[blockLabel]int, len(u.layout))
	for i, label := range u.layout {
		layoutPos[label] = i
	}

	maxDepth := 0
	type work struct {
		label blockLabel
		depth int
	}
	stack := []work{{u.layout[0], 0}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if blockIn[w.label] >= w.depth {
			continue
		}
		blockIn[w.label] = w.depth

		d := w.depth
		terminated := false
		for i, in := range u.blocks[w.label].instrs {
			if d > depths[w.label][i] {
				depths[w.label][i] = d
			}
			switch {
			case in.op == op.SetupExcept:
				hd := d + 1
				if in.push {
					hd++
				}
				if hd > maxDepth {
					maxDepth = hd
				}
				stack = append(stack, work{in.target, hd})
			case in.op == op.PopBlock:
				// marker only
			case in.target != noBlock:
				jd := d + stackEffect(in.op, in.arg, true)
				stack = append(stack, work{in.target, jd})
				d += stackEffect(in.op, in.arg, false)
			default:
				d += stackEffect(in.op, in.arg, false)
			}
			if d > maxDepth {
				maxDepth = d
			}
			if d < 0 {
				panic(fmt.Sprintf("compiler: stack underflow at %s in %q",
					op.GetInfo(in.op).Name, u.name))
			}
			switch in.op {
			case op.Jump, op.ReturnValue, op.Raise, op.Reraise:
				terminated = true
			}
			if terminated {
				break
			}
		}
		if !terminated {
			if pos := layoutPos[w.label]; pos+1 < len(u.layout) {
				stack = append(stack, work{u.layout[pos+1], d})
			}
		}
	}
	return depths, maxDepth
}

// extCount returns how many ExtendedArg prefixes an operand value needs.
func extCount(v int) int {
	n := 0
	for v > 0xFF {
		v >>= 8
		n++
	}
	return n
}
