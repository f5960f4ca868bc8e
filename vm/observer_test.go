package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/vm"
)

func TestObserverCountsSteps(t *testing.T) {
	var steps int
	obs := vm.ObserverFuncs{
		Step: func(e vm.StepEvent) bool {
			steps++
			require.NotEmpty(t, e.OpcodeName)
			return true
		},
	}
	runProgram(t, []vm.Option{
		vm.WithObserver(obs, vm.ObserverConfig{StepMode: vm.StepAll}),
	},
		setVar("x", cint(0)),
		&ast.While{
			Test: &ast.Compare{Left: nm("x"), Ops: []string{"<"}, Comparators: []ast.Expr{cint(3)}},
			Body: []ast.Stmt{
				setVar("x", &ast.BinOp{Left: nm("x"), Op: "+", Right: cint(1)}),
			},
		},
	)
	require.Greater(t, steps, 10)
}

func TestObserverHaltStopsExecution(t *testing.T) {
	var steps int
	obs := vm.ObserverFuncs{
		Step: func(e vm.StepEvent) bool {
			steps++
			return steps < 5
		},
	}
	code := compile(t,
		setVar("x", cint(0)),
		&ast.While{
			Test: &ast.Constant{Value: true},
			Body: []ast.Stmt{
				setVar("x", &ast.BinOp{Left: nm("x"), Op: "+", Right: cint(1)}),
			},
		},
	)
	_, err := vm.New(vm.WithObserver(obs, vm.ObserverConfig{StepMode: vm.StepAll})).Run(code)
	require.ErrorIs(t, err, vm.ErrHalted)
	require.Equal(t, 5, steps)
}

func TestObserverCallAndReturnEvents(t *testing.T) {
	var calls, returns []string
	obs := vm.ObserverFuncs{
		Call: func(e vm.CallEvent) bool {
			calls = append(calls, e.FunctionName)
			return true
		},
		Return: func(e vm.ReturnEvent) bool {
			returns = append(returns, e.FunctionName)
			return true
		},
	}
	runProgram(t, []vm.Option{
		vm.WithObserver(obs, vm.ObserverConfig{
			StepMode:       vm.StepNone,
			ObserveCalls:   true,
			ObserveReturns: true,
		}),
	},
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{&ast.Return{Value: cint(1)}},
		},
		setVar("r", call(nm("f"))),
	)
	require.Equal(t, []string{"f"}, calls)
	require.Equal(t, []string{"f"}, returns)
}

func TestObserverSampledSteps(t *testing.T) {
	var sampled int
	obs := vm.ObserverFuncs{
		Step: func(e vm.StepEvent) bool {
			sampled++
			return true
		},
	}
	var all int
	allObs := vm.ObserverFuncs{
		Step: func(e vm.StepEvent) bool {
			all++
			return true
		},
	}
	body := []ast.Stmt{
		setVar("x", cint(0)),
		&ast.While{
			Test: &ast.Compare{Left: nm("x"), Ops: []string{"<"}, Comparators: []ast.Expr{cint(10)}},
			Body: []ast.Stmt{
				setVar("x", &ast.BinOp{Left: nm("x"), Op: "+", Right: cint(1)}),
			},
		},
	}
	runProgram(t, []vm.Option{
		vm.WithObserver(allObs, vm.ObserverConfig{StepMode: vm.StepAll}),
	}, body...)
	runProgram(t, []vm.Option{
		vm.WithObserver(obs, vm.ObserverConfig{StepMode: vm.StepSampled, SampleInterval: 4}),
	}, body...)
	require.Equal(t, all/4, sampled)
}
