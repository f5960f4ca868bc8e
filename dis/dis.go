// Package dis renders compiled code objects in a human-readable form.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/op"
)

// Instruction is one decoded instruction annotated for display.
type Instruction struct {
	Offset int
	Line   int
	Name   string
	Arg    int
	HasArg bool
	Info   string
	Nested *bytecode.Code
	IsJump bool
}

// Disassemble decodes a code object into annotated instructions.
// ExtendedArg prefixes are folded into their operation.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	decoded := bytecode.Decode(code.Units)
	out := make([]Instruction, 0, len(decoded))
	for _, d := range decoded {
		info := op.GetInfo(d.Op)
		if info.Name == "" {
			return nil, fmt.Errorf("dis: invalid opcode %d at offset %d", d.Op, d.Offset)
		}
		inst := Instruction{
			Offset: d.Offset,
			Line:   code.LineFor(d.Offset),
			Name:   info.Name,
			Arg:    d.Arg,
			HasArg: info.HasArg,
			IsJump: info.IsJump,
			Info:   operandInfo(code, d),
		}
		if d.Op == op.LoadConst {
			if nested, ok := code.Constants[d.Arg].(*bytecode.Code); ok {
				inst.Nested = nested
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

// operandInfo explains an operand in terms of the code object's tables.
func operandInfo(code *bytecode.Code, d bytecode.Decoded) string {
	switch d.Op {
	case op.LoadConst:
		if d.Arg < len(code.Constants) {
			return bytecode.ConstantString(code.Constants[d.Arg])
		}
	case op.LoadName, op.StoreName, op.DeleteName,
		op.LoadGlobal, op.StoreGlobal, op.DeleteGlobal,
		op.LoadAttr, op.StoreAttr, op.DeleteAttr, op.LoadMethod,
		op.ImportName, op.ImportFrom:
		if d.Arg < len(code.Names) {
			return code.Names[d.Arg]
		}
	case op.LoadFast, op.StoreFast, op.DeleteFast:
		if d.Arg < len(code.VarNames) {
			return code.VarNames[d.Arg]
		}
	case op.LoadDeref, op.StoreDeref, op.DeleteDeref, op.LoadClosure:
		return cellName(code, d.Arg)
	case op.BinaryOp:
		return op.BinaryOpType(d.Arg).String()
	case op.CompareOp:
		return op.CompareOpType(d.Arg).String()
	case op.Jump, op.PopJumpIfFalse, op.PopJumpIfTrue,
		op.PopJumpIfNone, op.PopJumpIfNotNone,
		op.JumpIfFalseOrPop, op.JumpIfTrueOrPop, op.ForIter:
		return fmt.Sprintf("to %d", d.Arg)
	case op.Raise:
		switch d.Arg {
		case op.RaiseBare:
			return "bare"
		case op.RaiseExc:
			return "exc"
		case op.RaiseCause:
			return "exc from cause"
		}
	case op.Yield:
		if d.Arg == op.YieldDelegated {
			return "delegated"
		}
	case op.Reraise:
		if d.Arg == op.ReraiseWithOffset {
			return "with offset"
		}
	case op.ContainsOp, op.IsOp:
		if d.Arg == 1 {
			return "inverted"
		}
	case op.UnpackEx:
		return fmt.Sprintf("%d before, %d after", d.Arg&0xff, d.Arg>>8)
	}
	return ""
}

func cellName(code *bytecode.Code, i int) string {
	if i < len(code.CellVars) {
		return code.CellVars[i]
	}
	i -= len(code.CellVars)
	if i < len(code.FreeVars) {
		return code.FreeVars[i]
	}
	return ""
}

var opcodeColor = color.New(color.FgCyan)

// Print writes the instructions as a table.
func Print(instructions []Instruction, w io.Writer) {
	widths := []int{6, len("OPCODE"), len("OPERANDS"), len("INFO")}
	for _, inst := range instructions {
		widths[1] = max(widths[1], len(inst.Name))
		if inst.HasArg {
			widths[2] = max(widths[2], len(fmt.Sprintf("%d", inst.Arg)))
		}
		widths[3] = max(widths[3], len(inst.Info))
	}
	sep := "+"
	for _, width := range widths {
		sep += strings.Repeat("-", width+2) + "+"
	}

	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "| %*s | %s | %s | %s |\n",
		widths[0], "OFFSET",
		center("OPCODE", widths[1]),
		center("OPERANDS", widths[2]),
		center("INFO", widths[3]))
	fmt.Fprintln(w, sep)
	for _, inst := range instructions {
		operand := ""
		if inst.HasArg {
			operand = fmt.Sprintf("%d", inst.Arg)
		}
		fmt.Fprintf(w, "| %*d | %s | %*s | %-*s |\n",
			widths[0], inst.Offset,
			opcodeColor.Sprintf("%-*s", widths[1], inst.Name),
			widths[2], operand,
			widths[3], inst.Info)
	}
	fmt.Fprintln(w, sep)
}

// Dump disassembles a code object and every nested code object reachable
// from its constant pool, writing each with a header.
func Dump(code *bytecode.Code, w io.Writer) error {
	fmt.Fprintf(w, "Disassembly of %s (file %s, line %d):\n",
		displayName(code), code.Filename, code.FirstLine)
	instructions, err := Disassemble(code)
	if err != nil {
		return err
	}
	Print(instructions, w)

	for _, inst := range instructions {
		if inst.Nested == nil {
			continue
		}
		fmt.Fprintln(w)
		if err := Dump(inst.Nested, w); err != nil {
			return err
		}
	}
	return nil
}

func displayName(code *bytecode.Code) string {
	if code.Name == "" {
		return "<module>"
	}
	return code.Name
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
