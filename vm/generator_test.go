package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/object"
	"github.com/cloudcmds/serpent/vm"
)

// genDef builds `def name(): <yield statements>`.
func genDef(name string, body ...ast.Stmt) *ast.FunctionDef {
	return &ast.FunctionDef{Name: name, Body: body}
}

func yieldStmt(v ast.Expr) ast.Stmt {
	return exprStmt(&ast.Yield{Value: v})
}

func collectLoop(genCall ast.Expr) []ast.Stmt {
	// out = []
	// for v in <genCall>:
	//     out.append(v)
	return []ast.Stmt{
		setVar("out", &ast.List{}),
		&ast.For{
			Target: nm("v"),
			Iter:   genCall,
			Body:   []ast.Stmt{exprStmt(methodCall(nm("out"), "append", nm("v")))},
		},
	}
}

func TestGeneratorYieldsInOrder(t *testing.T) {
	// def g():
	//     yield 1
	//     yield 2
	body := []ast.Stmt{genDef("g", yieldStmt(cint(1)), yieldStmt(cint(2)))}
	body = append(body, collectLoop(call(nm("g")))...)
	m := runProgram(t, nil, body...)
	require.Equal(t, "[1, 2]", global(t, m, "out").Inspect())
}

func TestGeneratorThreeResumptions(t *testing.T) {
	// it = g()
	// a = next(it)
	// b = next(it)
	// then next(it) raises StopIteration
	m := runProgram(t, nil,
		genDef("g", yieldStmt(cint(1)), yieldStmt(cint(2))),
		setVar("it", call(nm("g"))),
		setVar("a", call(nm("next"), nm("it"))),
		setVar("b", call(nm("next"), nm("it"))),
		&ast.Try{
			Body: []ast.Stmt{exprStmt(call(nm("next"), nm("it")))},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("StopIteration"), Body: []ast.Stmt{setVar("c", cstr("done"))}},
			},
		},
	)
	require.Equal(t, int64(1), intGlobal(t, m, "a"))
	require.Equal(t, int64(2), intGlobal(t, m, "b"))
	require.Equal(t, "done", global(t, m, "c").(*object.String).Value())

	it, ok := global(t, m, "it").(*vm.Generator)
	require.True(t, ok)
	require.Equal(t, vm.FrameReturned, it.Frame().State())
}

func TestGeneratorBodyRunsLazily(t *testing.T) {
	// def g():
	//     log.append("ran")
	//     yield 1
	// it = g()      # nothing runs yet
	// first = next(it)
	m := runProgram(t, nil,
		setVar("log", &ast.List{}),
		genDef("g",
			exprStmt(methodCall(nm("log"), "append", cstr("ran"))),
			yieldStmt(cint(1)),
		),
		setVar("it", call(nm("g"))),
		setVar("before", call(nm("len"), nm("log"))),
		setVar("first", call(nm("next"), nm("it"))),
	)
	require.Equal(t, int64(0), intGlobal(t, m, "before"))
	require.Equal(t, int64(1), intGlobal(t, m, "first"))
	require.Equal(t, `["ran"]`, global(t, m, "log").Inspect())
}

func TestGeneratorSend(t *testing.T) {
	// def g():
	//     x = yield 1
	//     yield x + 1
	// it = g()
	// a = next(it)
	// b = it.send(41)
	m := runProgram(t, nil,
		genDef("g",
			setVar("x", &ast.Yield{Value: cint(1)}),
			yieldStmt(&ast.BinOp{Left: nm("x"), Op: "+", Right: cint(1)}),
		),
		setVar("it", call(nm("g"))),
		setVar("a", call(nm("next"), nm("it"))),
		setVar("b", methodCall(nm("it"), "send", cint(41))),
	)
	require.Equal(t, int64(1), intGlobal(t, m, "a"))
	require.Equal(t, int64(42), intGlobal(t, m, "b"))
}

func TestGeneratorThrowCaughtAtSuspensionPoint(t *testing.T) {
	// def g():
	//     try:
	//         yield 1
	//     except ValueError:
	//         yield 2
	// it = g()
	// a = next(it)
	// b = it.throw(ValueError("x"))
	m := runProgram(t, nil,
		genDef("g",
			&ast.Try{
				Body: []ast.Stmt{yieldStmt(cint(1))},
				Handlers: []*ast.ExceptHandler{
					{Type: nm("ValueError"), Body: []ast.Stmt{yieldStmt(cint(2))}},
				},
			},
		),
		setVar("it", call(nm("g"))),
		setVar("a", call(nm("next"), nm("it"))),
		setVar("b", methodCall(nm("it"), "throw", call(nm("ValueError"), cstr("x")))),
	)
	require.Equal(t, int64(1), intGlobal(t, m, "a"))
	require.Equal(t, int64(2), intGlobal(t, m, "b"))
}

func TestGeneratorThrowUnhandledPropagates(t *testing.T) {
	// it = g(); next(it); it.throw(KeyError("k")) escapes
	m := runProgram(t, nil,
		genDef("g", yieldStmt(cint(1))),
		setVar("it", call(nm("g"))),
		exprStmt(call(nm("next"), nm("it"))),
		&ast.Try{
			Body: []ast.Stmt{exprStmt(methodCall(nm("it"), "throw", call(nm("KeyError"), cstr("k"))))},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("KeyError"), Body: []ast.Stmt{setVar("r", cstr("escaped"))}},
			},
		},
	)
	require.Equal(t, "escaped", global(t, m, "r").(*object.String).Value())
}

func TestGeneratorCloseRunsFinally(t *testing.T) {
	// def g():
	//     try:
	//         yield 1
	//     finally:
	//         log.append("closed")
	// it = g()
	// next(it)
	// it.close()
	m := runProgram(t, nil,
		setVar("log", &ast.List{}),
		genDef("g",
			&ast.Try{
				Body:  []ast.Stmt{yieldStmt(cint(1))},
				Final: []ast.Stmt{exprStmt(methodCall(nm("log"), "append", cstr("closed")))},
			},
		),
		setVar("it", call(nm("g"))),
		exprStmt(call(nm("next"), nm("it"))),
		exprStmt(methodCall(nm("it"), "close")),
	)
	require.Equal(t, `["closed"]`, global(t, m, "log").Inspect())

	it := global(t, m, "it").(*vm.Generator)
	require.NoError(t, it.Close())
}

func TestGeneratorIgnoringCloseIsAnError(t *testing.T) {
	// def g():
	//     while True:
	//         try:
	//             yield 1
	//         except GeneratorExit:
	//             pass          # swallow and keep yielding
	m := runProgram(t, nil,
		genDef("g",
			&ast.While{
				Test: &ast.Constant{Value: true},
				Body: []ast.Stmt{
					&ast.Try{
						Body: []ast.Stmt{yieldStmt(cint(1))},
						Handlers: []*ast.ExceptHandler{
							{Type: nm("GeneratorExit"), Body: []ast.Stmt{&ast.Pass{}}},
						},
					},
				},
			},
		),
		setVar("it", call(nm("g"))),
		exprStmt(call(nm("next"), nm("it"))),
	)
	it := global(t, m, "it").(*vm.Generator)
	err := it.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ignored GeneratorExit")
}

func TestYieldFromDelegation(t *testing.T) {
	// def inner():
	//     yield 1
	//     yield 2
	//     return 3
	// def outer():
	//     r = yield from inner()
	//     yield r
	body := []ast.Stmt{
		genDef("inner",
			yieldStmt(cint(1)),
			yieldStmt(cint(2)),
			&ast.Return{Value: cint(3)},
		),
		genDef("outer",
			setVar("r", &ast.YieldFrom{Value: call(nm("inner"))}),
			yieldStmt(nm("r")),
		),
	}
	body = append(body, collectLoop(call(nm("outer")))...)
	m := runProgram(t, nil, body...)
	require.Equal(t, "[1, 2, 3]", global(t, m, "out").Inspect())
}

func TestYieldFromPlainIterable(t *testing.T) {
	// def g():
	//     yield from [10, 20]
	body := []ast.Stmt{
		genDef("g", exprStmt(&ast.YieldFrom{Value: &ast.List{Elts: []ast.Expr{cint(10), cint(20)}}})),
	}
	body = append(body, collectLoop(call(nm("g")))...)
	m := runProgram(t, nil, body...)
	require.Equal(t, "[10, 20]", global(t, m, "out").Inspect())
}

func TestYieldFromRoutesSendToDelegate(t *testing.T) {
	// def inner():
	//     x = yield 1
	//     yield x
	// def outer():
	//     yield from inner()
	// it = outer()
	// a = next(it)
	// b = it.send(99)
	m := runProgram(t, nil,
		genDef("inner",
			setVar("x", &ast.Yield{Value: cint(1)}),
			yieldStmt(nm("x")),
		),
		genDef("outer", exprStmt(&ast.YieldFrom{Value: call(nm("inner"))})),
		setVar("it", call(nm("outer"))),
		setVar("a", call(nm("next"), nm("it"))),
		setVar("b", methodCall(nm("it"), "send", cint(99))),
	)
	require.Equal(t, int64(1), intGlobal(t, m, "a"))
	require.Equal(t, int64(99), intGlobal(t, m, "b"))
}

func TestYieldFromRoutesThrowToDelegate(t *testing.T) {
	// def inner():
	//     try:
	//         yield 1
	//     except ValueError:
	//         yield 2
	// def outer():
	//     yield from inner()
	// it = outer(); next(it); r = it.throw(ValueError("v"))
	m := runProgram(t, nil,
		genDef("inner",
			&ast.Try{
				Body: []ast.Stmt{yieldStmt(cint(1))},
				Handlers: []*ast.ExceptHandler{
					{Type: nm("ValueError"), Body: []ast.Stmt{yieldStmt(cint(2))}},
				},
			},
		),
		genDef("outer", exprStmt(&ast.YieldFrom{Value: call(nm("inner"))})),
		setVar("it", call(nm("outer"))),
		exprStmt(call(nm("next"), nm("it"))),
		setVar("r", methodCall(nm("it"), "throw", call(nm("ValueError"), cstr("v")))),
	)
	require.Equal(t, int64(2), intGlobal(t, m, "r"))
}

func TestCoroutineAwait(t *testing.T) {
	// async def inner():
	//     return 7
	// async def outer():
	//     v = await inner()
	//     return v + 1
	// Driving the coroutine from the host: one resume runs it to completion.
	m := runProgram(t, nil,
		&ast.FunctionDef{
			Name:    "inner",
			IsAsync: true,
			Body:    []ast.Stmt{&ast.Return{Value: cint(7)}},
		},
		&ast.FunctionDef{
			Name:    "outer",
			IsAsync: true,
			Body: []ast.Stmt{
				setVar("v", &ast.Await{Value: call(nm("inner"))}),
				&ast.Return{Value: &ast.BinOp{Left: nm("v"), Op: "+", Right: cint(1)}},
			},
		},
		setVar("co", call(nm("outer"))),
	)
	co, ok := global(t, m, "co").(*vm.Generator)
	require.True(t, ok)
	require.Equal(t, "coroutine", string(co.Type()))

	v, done, err := co.Resume(object.None)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, int64(8), v.(*object.Int).Value())
}

func TestGeneratorIntrospectionWhileSuspended(t *testing.T) {
	m := runProgram(t, nil,
		genDef("g", yieldStmt(cint(1)), yieldStmt(cint(2))),
		setVar("it", call(nm("g"))),
		exprStmt(call(nm("next"), nm("it"))),
	)
	it := global(t, m, "it").(*vm.Generator)
	require.Equal(t, vm.FrameSuspended, it.Frame().State())
	require.Equal(t, "g", it.Name())
	require.Greater(t, it.Frame().CurrentLine(), -1)
}

func TestResumingRunningFrameFails(t *testing.T) {
	// def g():
	//     yield next(it)   # resume ourselves while running
	// it = g()
	// next(it) must fail with RuntimeError
	m := runProgram(t, nil,
		genDef("g", yieldStmt(call(nm("next"), nm("it")))),
		setVar("it", call(nm("g"))),
		&ast.Try{
			Body: []ast.Stmt{exprStmt(call(nm("next"), nm("it")))},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("RuntimeError"), Body: []ast.Stmt{setVar("r", cstr("blocked"))}},
			},
		},
	)
	require.Equal(t, "blocked", global(t, m, "r").(*object.String).Value())
}
