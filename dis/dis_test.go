package dis

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/compiler"
)

func TestDisassembleAssignment(t *testing.T) {
	color.NoColor = true

	code, err := compiler.Compile(&ast.Module{Body: []ast.Stmt{
		&ast.Assign{
			Targets: []ast.Expr{&ast.Name{ID: "x"}},
			Value:   &ast.Constant{Value: int64(42)},
		},
	}})
	require.NoError(t, err)

	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Len(t, instructions, 4)

	require.Equal(t, "LOAD_CONST", instructions[0].Name)
	require.Equal(t, "42", instructions[0].Info)
	require.Equal(t, "STORE_NAME", instructions[1].Name)
	require.Equal(t, "x", instructions[1].Info)
	require.Equal(t, "LOAD_NONE", instructions[2].Name)
	require.Equal(t, "RETURN_VALUE", instructions[3].Name)

	var buf bytes.Buffer
	Print(instructions, &buf)
	out := buf.String()
	require.Contains(t, out, "OFFSET")
	require.Contains(t, out, "LOAD_CONST")
	require.Contains(t, out, "42")
}

func TestDisassembleJumpAnnotation(t *testing.T) {
	color.NoColor = true

	code, err := compiler.Compile(&ast.Module{Body: []ast.Stmt{
		&ast.While{
			Test: &ast.Constant{Value: true},
			Body: []ast.Stmt{&ast.Pass{}},
		},
	}})
	require.NoError(t, err)

	instructions, err := Disassemble(code)
	require.NoError(t, err)

	var sawJump bool
	for _, inst := range instructions {
		if inst.IsJump {
			sawJump = true
			require.Contains(t, inst.Info, "to ")
		}
	}
	require.True(t, sawJump)
}

func TestDumpIncludesNestedCode(t *testing.T) {
	color.NoColor = true

	code, err := compiler.Compile(&ast.Module{Body: []ast.Stmt{
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.Constant{Value: int64(1)}},
			},
		},
	}}, compiler.WithFilename("main.py"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Dump(code, &buf))
	out := buf.String()
	require.Contains(t, out, "Disassembly of <module>")
	require.Contains(t, out, "Disassembly of f")
	require.Contains(t, out, "MAKE_FUNCTION")
}
