package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/cloudcmds/serpent/bytecode"
)

func red(s string) string {
	return color.New(color.FgRed).Sprint(s)
}

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminalOut() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// loadCode reads a marshaled code object from disk.
func loadCode(path string) (*bytecode.Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, nil
}

// findFunction searches the constant pools, depth first, for a nested code
// object with the given name.
func findFunction(code *bytecode.Code, name string) *bytecode.Code {
	for _, c := range code.Constants {
		nested, ok := c.(*bytecode.Code)
		if !ok {
			continue
		}
		if nested.Name == name {
			return nested
		}
		if found := findFunction(nested, name); found != nil {
			return found
		}
	}
	return nil
}
