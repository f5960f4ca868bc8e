package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cloudcmds/serpent/dis"
)

func newDisCommand() *cobra.Command {
	var funcName string

	cmd := &cobra.Command{
		Use:   "dis FILE",
		Short: "Disassemble a compiled code object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := loadCode(args[0])
			if err != nil {
				return err
			}
			if !isTerminalOut() {
				color.NoColor = true
			}
			if funcName != "" {
				nested := findFunction(code, funcName)
				if nested == nil {
					return fmt.Errorf("no function named %q in %s", funcName, args[0])
				}
				instructions, err := dis.Disassemble(nested)
				if err != nil {
					return err
				}
				dis.Print(instructions, os.Stdout)
				return nil
			}
			return dis.Dump(code, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "", "Disassemble only the named function")
	return cmd
}
