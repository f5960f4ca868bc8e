package main

import (
	"encoding/json"
	"fmt"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/dis"
)

// codeDump is the JSON shape of one code object.
type codeDump struct {
	Name           string                         `json:"name"`
	Filename       string                         `json:"filename,omitempty"`
	FirstLine      int                            `json:"first_line,omitempty"`
	Generator      bool                           `json:"generator,omitempty"`
	Coroutine      bool                           `json:"coroutine,omitempty"`
	ArgCount       int                            `json:"arg_count,omitempty"`
	KwOnlyArgCount int                            `json:"kwonly_arg_count,omitempty"`
	Names          []string                       `json:"names,omitempty"`
	VarNames       []string                       `json:"var_names,omitempty"`
	CellVars       []string                       `json:"cell_vars,omitempty"`
	FreeVars       []string                       `json:"free_vars,omitempty"`
	Constants      []string                       `json:"constants,omitempty"`
	MaxStackDepth  int                            `json:"max_stack_depth"`
	Instructions   []instructionDump              `json:"instructions"`
	ExceptionTable []bytecode.ExceptionTableEntry `json:"exception_table,omitempty"`
	Nested         []codeDump                     `json:"nested,omitempty"`
}

type instructionDump struct {
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
	Opcode string `json:"opcode"`
	Arg    *int   `json:"arg,omitempty"`
	Info   string `json:"info,omitempty"`
}

func newDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Dump a compiled code object as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			dump, err := buildDump(code)
			if err != nil {
				return err
			}
			var out []byte
			if viper.GetBool("no-color") || !isTerminalOut() {
				out, err = json.MarshalIndent(dump, "", "  ")
			} else {
				out, err = prettyjson.Marshal(dump)
			}
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}

func buildDump(code *bytecode.Code) (codeDump, error) {
	instructions, err := dis.Disassemble(code)
	if err != nil {
		return codeDump{}, err
	}
	dump := codeDump{
		Name:           code.Name,
		Filename:       code.Filename,
		FirstLine:      code.FirstLine,
		Generator:      code.IsGenerator(),
		Coroutine:      code.IsCoroutine(),
		ArgCount:       code.ArgCount,
		KwOnlyArgCount: code.KwOnlyArgCount,
		Names:          code.Names,
		VarNames:       code.VarNames,
		CellVars:       code.CellVars,
		FreeVars:       code.FreeVars,
		MaxStackDepth:  code.MaxStackDepth,
		ExceptionTable: code.ExceptionTable,
	}
	for _, c := range code.Constants {
		dump.Constants = append(dump.Constants, bytecode.ConstantString(c))
	}
	for _, inst := range instructions {
		id := instructionDump{
			Offset: inst.Offset,
			Line:   inst.Line,
			Opcode: inst.Name,
			Info:   inst.Info,
		}
		if inst.HasArg {
			arg := inst.Arg
			id.Arg = &arg
		}
		dump.Instructions = append(dump.Instructions, id)
		if inst.Nested != nil {
			nested, err := buildDump(inst.Nested)
			if err != nil {
				return codeDump{}, err
			}
			dump.Nested = append(dump.Nested, nested)
		}
	}
	return dump, nil
}
