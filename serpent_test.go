package serpent

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/object"
	"github.com/cloudcmds/serpent/vm"
)

// sumModule builds:
//
//	total = 0
//	for i in range(n):
//	    total = total + i
func sumModule() *ast.Module {
	return &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{&ast.Name{ID: "total"}}, Value: &ast.Constant{Value: int64(0)}},
		&ast.For{
			Target: &ast.Name{ID: "i"},
			Iter: &ast.Call{
				Func: &ast.Name{ID: "range"},
				Args: []ast.Expr{&ast.Name{ID: "n"}},
			},
			Body: []ast.Stmt{
				&ast.Assign{
					Targets: []ast.Expr{&ast.Name{ID: "total"}},
					Value: &ast.BinOp{
						Left:  &ast.Name{ID: "total"},
						Op:    "+",
						Right: &ast.Name{ID: "i"},
					},
				},
			},
		},
	}}
}

func TestEval(t *testing.T) {
	var buf bytes.Buffer
	mod := sumModule()
	mod.Body = append(mod.Body, &ast.ExprStmt{Value: &ast.Call{
		Func: &ast.Name{ID: "print"},
		Args: []ast.Expr{&ast.Name{ID: "total"}},
	}})
	_, err := Eval(mod, WithGlobal("n", object.NewInt(5)), WithStdout(&buf))
	require.NoError(t, err)
	require.Equal(t, "10\n", buf.String())
}

func TestCompileMarshalRunRoundTrip(t *testing.T) {
	code, err := Compile(sumModule(), WithFilename("sum.py"))
	require.NoError(t, err)
	require.Equal(t, "sum.py", code.Filename)

	data, err := bytecode.Marshal(code)
	require.NoError(t, err)
	loaded, err := bytecode.Unmarshal(data)
	require.NoError(t, err)

	_, err = Run(loaded, WithGlobal("n", object.NewInt(10)))
	require.NoError(t, err)
}

func TestEvalUncaughtException(t *testing.T) {
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.Raise{Exc: &ast.Call{
			Func: &ast.Name{ID: "ValueError"},
			Args: []ast.Expr{&ast.Constant{Value: "boom"}},
		}},
	}}
	_, err := Eval(mod, WithFilename("err.py"))
	require.Error(t, err)
	var ue *vm.UncaughtError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "ValueError: boom", ue.Exc.Error())
	require.Contains(t, err.Error(), `File "err.py"`)
}

func TestEvalWithStdout(t *testing.T) {
	var buf bytes.Buffer
	mod := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Call{
			Func: &ast.Name{ID: "print"},
			Args: []ast.Expr{&ast.Constant{Value: "hello"}},
		}},
	}}
	_, err := Eval(mod, WithStdout(&buf))
	require.NoError(t, err)
	require.Equal(t, "hello\n", buf.String())
}

func TestEvalWithObserver(t *testing.T) {
	var steps int
	obs := vm.ObserverFuncs{Step: func(e vm.StepEvent) bool {
		steps++
		return true
	}}
	_, err := Eval(sumModule(),
		WithGlobal("n", object.NewInt(3)),
		WithObserver(obs, vm.ObserverConfig{StepMode: vm.StepAll}))
	require.NoError(t, err)
	require.Greater(t, steps, 0)
}
