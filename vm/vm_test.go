package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/compiler"
	"github.com/cloudcmds/serpent/object"
	"github.com/cloudcmds/serpent/vm"
)

func nm(id string) *ast.Name { return &ast.Name{ID: id} }

func cint(v int64) *ast.Constant { return &ast.Constant{Value: v} }

func cstr(v string) *ast.Constant { return &ast.Constant{Value: v} }

func setVar(target string, value ast.Expr) *ast.Assign {
	return &ast.Assign{Targets: []ast.Expr{nm(target)}, Value: value}
}

func call(fn ast.Expr, args ...ast.Expr) *ast.Call {
	return &ast.Call{Func: fn, Args: args}
}

func exprStmt(e ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{Value: e} }

func methodCall(recv ast.Expr, method string, args ...ast.Expr) *ast.Call {
	return call(&ast.Attribute{Value: recv, Attr: method}, args...)
}

func compile(t *testing.T, body ...ast.Stmt) *bytecode.Code {
	t.Helper()
	code, err := compiler.Compile(&ast.Module{Body: body}, compiler.WithFilename("test.py"))
	require.NoError(t, err)
	return code
}

func runProgram(t *testing.T, opts []vm.Option, body ...ast.Stmt) *vm.VirtualMachine {
	t.Helper()
	m := vm.New(opts...)
	_, err := m.Run(compile(t, body...))
	require.NoError(t, err)
	return m
}

func runError(t *testing.T, body ...ast.Stmt) *vm.UncaughtError {
	t.Helper()
	_, err := vm.New().Run(compile(t, body...))
	require.Error(t, err)
	var ue *vm.UncaughtError
	require.ErrorAs(t, err, &ue)
	return ue
}

func global(t *testing.T, m *vm.VirtualMachine, name string) object.Object {
	t.Helper()
	v, ok := m.Globals()[name]
	require.True(t, ok, "global %q is not set", name)
	return v
}

func intGlobal(t *testing.T, m *vm.VirtualMachine, name string) int64 {
	t.Helper()
	v, ok := global(t, m, name).(*object.Int)
	require.True(t, ok, "global %q is not an int", name)
	return v.Value()
}

func TestWhileLoop(t *testing.T) {
	// x = 0
	// while x < 3:
	//     x = x + 1
	m := runProgram(t, nil,
		setVar("x", cint(0)),
		&ast.While{
			Test: &ast.Compare{Left: nm("x"), Ops: []string{"<"}, Comparators: []ast.Expr{cint(3)}},
			Body: []ast.Stmt{
				setVar("x", &ast.BinOp{Left: nm("x"), Op: "+", Right: cint(1)}),
			},
		},
	)
	require.Equal(t, int64(3), intGlobal(t, m, "x"))
}

func TestTryFinallyReturn(t *testing.T) {
	// log = []
	// def f():
	//     try:
	//         return 1
	//     finally:
	//         log.append(2)
	// r = f()
	m := runProgram(t, nil,
		setVar("log", &ast.List{}),
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				&ast.Try{
					Body:  []ast.Stmt{&ast.Return{Value: cint(1)}},
					Final: []ast.Stmt{exprStmt(methodCall(nm("log"), "append", cint(2)))},
				},
			},
		},
		setVar("r", call(nm("f"))),
	)
	require.Equal(t, int64(1), intGlobal(t, m, "r"))
	require.Equal(t, "[2]", global(t, m, "log").Inspect())
}

func TestListComprehension(t *testing.T) {
	// r = [i for i in range(3)]
	m := runProgram(t, nil,
		setVar("r", &ast.ListComp{
			Elt: nm("i"),
			Generators: []ast.Comprehension{
				{Target: nm("i"), Iter: call(nm("range"), cint(3))},
			},
		}),
	)
	require.Equal(t, "[0, 1, 2]", global(t, m, "r").Inspect())
}

func TestForLoopWithBreakAndElse(t *testing.T) {
	// found = -1
	// for i in range(10):
	//     if i == 4:
	//         found = i
	//         break
	// else:
	//     found = -2
	m := runProgram(t, nil,
		setVar("found", cint(-1)),
		&ast.For{
			Target: nm("i"),
			Iter:   call(nm("range"), cint(10)),
			Body: []ast.Stmt{
				&ast.If{
					Test: &ast.Compare{Left: nm("i"), Ops: []string{"=="}, Comparators: []ast.Expr{cint(4)}},
					Body: []ast.Stmt{setVar("found", nm("i")), &ast.Break{}},
				},
			},
			OrElse: []ast.Stmt{setVar("found", cint(-2))},
		},
	)
	require.Equal(t, int64(4), intGlobal(t, m, "found"))
}

func TestForElseRunsWhenNoBreak(t *testing.T) {
	m := runProgram(t, nil,
		setVar("r", cint(0)),
		&ast.For{
			Target: nm("i"),
			Iter:   call(nm("range"), cint(3)),
			Body:   []ast.Stmt{setVar("r", nm("i"))},
			OrElse: []ast.Stmt{setVar("r", cint(99))},
		},
	)
	require.Equal(t, int64(99), intGlobal(t, m, "r"))
}

func TestFunctionDefaultsAndKeywords(t *testing.T) {
	// def f(a, b=10):
	//     return a + b
	// r1 = f(1)
	// r2 = f(1, 2)
	// r3 = f(b=5, a=1)
	body := &ast.FunctionDef{
		Name: "f",
		Params: ast.Parameters{
			Names:    []string{"a", "b"},
			Defaults: []ast.Expr{cint(10)},
		},
		Body: []ast.Stmt{
			&ast.Return{Value: &ast.BinOp{Left: nm("a"), Op: "+", Right: nm("b")}},
		},
	}
	m := runProgram(t, nil,
		body,
		setVar("r1", call(nm("f"), cint(1))),
		setVar("r2", call(nm("f"), cint(1), cint(2))),
		setVar("r3", &ast.Call{Func: nm("f"), Keywords: []ast.Keyword{
			{Name: "b", Value: cint(5)},
			{Name: "a", Value: cint(1)},
		}}),
	)
	require.Equal(t, int64(11), intGlobal(t, m, "r1"))
	require.Equal(t, int64(3), intGlobal(t, m, "r2"))
	require.Equal(t, int64(6), intGlobal(t, m, "r3"))
}

func TestVarArgsAndKwArgs(t *testing.T) {
	// def f(a, *args, **kw):
	//     return (a, args, kw)
	// r = f(1, 2, 3, x=4)
	m := runProgram(t, nil,
		&ast.FunctionDef{
			Name: "f",
			Params: ast.Parameters{
				Names:  []string{"a"},
				Vararg: "args",
				Kwarg:  "kw",
			},
			Body: []ast.Stmt{
				&ast.Return{Value: &ast.Tuple{Elts: []ast.Expr{nm("a"), nm("args"), nm("kw")}}},
			},
		},
		setVar("r", &ast.Call{
			Func:     nm("f"),
			Args:     []ast.Expr{cint(1), cint(2), cint(3)},
			Keywords: []ast.Keyword{{Name: "x", Value: cint(4)}},
		}),
	)
	require.Equal(t, `(1, (2, 3), {"x": 4})`, global(t, m, "r").Inspect())
}

func TestClosureCapture(t *testing.T) {
	// def make(n):
	//     def add(x):
	//         return x + n
	//     return add
	// r = make(10)(5)
	m := runProgram(t, nil,
		&ast.FunctionDef{
			Name:   "make",
			Params: ast.Parameters{Names: []string{"n"}},
			Body: []ast.Stmt{
				&ast.FunctionDef{
					Name:   "add",
					Params: ast.Parameters{Names: []string{"x"}},
					Body: []ast.Stmt{
						&ast.Return{Value: &ast.BinOp{Left: nm("x"), Op: "+", Right: nm("n")}},
					},
				},
				&ast.Return{Value: nm("add")},
			},
		},
		setVar("r", call(call(nm("make"), cint(10)), cint(5))),
	)
	require.Equal(t, int64(15), intGlobal(t, m, "r"))
}

func TestClassDefinitionAndMethods(t *testing.T) {
	// class Counter:
	//     def __init__(self, start):
	//         self.n = start
	//     def bump(self, by):
	//         self.n = self.n + by
	//         return self.n
	// c = Counter(10)
	// r = c.bump(5)
	m := runProgram(t, nil,
		&ast.ClassDef{
			Name: "Counter",
			Body: []ast.Stmt{
				&ast.FunctionDef{
					Name:   "__init__",
					Params: ast.Parameters{Names: []string{"self", "start"}},
					Body: []ast.Stmt{
						&ast.Assign{
							Targets: []ast.Expr{&ast.Attribute{Value: nm("self"), Attr: "n"}},
							Value:   nm("start"),
						},
					},
				},
				&ast.FunctionDef{
					Name:   "bump",
					Params: ast.Parameters{Names: []string{"self", "by"}},
					Body: []ast.Stmt{
						&ast.Assign{
							Targets: []ast.Expr{&ast.Attribute{Value: nm("self"), Attr: "n"}},
							Value:   &ast.BinOp{Left: &ast.Attribute{Value: nm("self"), Attr: "n"}, Op: "+", Right: nm("by")},
						},
						&ast.Return{Value: &ast.Attribute{Value: nm("self"), Attr: "n"}},
					},
				},
			},
		},
		setVar("c", call(nm("Counter"), cint(10))),
		setVar("r", methodCall(nm("c"), "bump", cint(5))),
	)
	require.Equal(t, int64(15), intGlobal(t, m, "r"))
	n, ok := global(t, m, "c").(*object.Instance).GetAttr("n")
	require.True(t, ok)
	require.Equal(t, int64(15), n.(*object.Int).Value())
}

func TestTryExceptMatching(t *testing.T) {
	// try:
	//     raise KeyError("missing")
	// except ValueError:
	//     r = "wrong"
	// except KeyError as e:
	//     r = e.args[0]
	m := runProgram(t, nil,
		&ast.Try{
			Body: []ast.Stmt{
				&ast.Raise{Exc: call(nm("KeyError"), cstr("missing"))},
			},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("ValueError"), Body: []ast.Stmt{setVar("r", cstr("wrong"))}},
				{Type: nm("KeyError"), Name: "e", Body: []ast.Stmt{
					setVar("r", &ast.Subscript{
						Value: &ast.Attribute{Value: nm("e"), Attr: "args"},
						Index: cint(0),
					}),
				}},
			},
		},
	)
	require.Equal(t, "missing", global(t, m, "r").(*object.String).Value())
}

func TestTryElseRunsOnlyWithoutException(t *testing.T) {
	m := runProgram(t, nil,
		setVar("r", cint(0)),
		&ast.Try{
			Body: []ast.Stmt{&ast.Pass{}},
			Handlers: []*ast.ExceptHandler{
				{Body: []ast.Stmt{setVar("r", cint(-1))}},
			},
			OrElse: []ast.Stmt{setVar("r", cint(1))},
		},
	)
	require.Equal(t, int64(1), intGlobal(t, m, "r"))
}

func TestExceptionImplicitContext(t *testing.T) {
	// try:
	//     raise ValueError("first")
	// except ValueError:
	//     try:
	//         raise KeyError("second")
	//     except KeyError as e:
	//         inner = e
	m := runProgram(t, nil,
		&ast.Try{
			Body: []ast.Stmt{&ast.Raise{Exc: call(nm("ValueError"), cstr("first"))}},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("ValueError"), Body: []ast.Stmt{
					&ast.Try{
						Body: []ast.Stmt{&ast.Raise{Exc: call(nm("KeyError"), cstr("second"))}},
						Handlers: []*ast.ExceptHandler{
							{Type: nm("KeyError"), Name: "e", Body: []ast.Stmt{
								setVar("inner", nm("e")),
							}},
						},
					},
				}},
			},
		},
	)
	inner, ok := global(t, m, "inner").(*object.Exception)
	require.True(t, ok)
	require.NotNil(t, inner.Context())
	require.Equal(t, "ValueError: first", inner.Context().Error())
}

func TestRaiseFromSetsCause(t *testing.T) {
	// try:
	//     raise TypeError("new") from ValueError("old")
	// except TypeError as e:
	//     r = e
	m := runProgram(t, nil,
		&ast.Try{
			Body: []ast.Stmt{&ast.Raise{
				Exc:   call(nm("TypeError"), cstr("new")),
				Cause: call(nm("ValueError"), cstr("old")),
			}},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("TypeError"), Name: "e", Body: []ast.Stmt{setVar("r", nm("e"))}},
			},
		},
	)
	exc := global(t, m, "r").(*object.Exception)
	require.NotNil(t, exc.Cause())
	require.Equal(t, "ValueError: old", exc.Cause().Error())
}

func TestUncaughtTracebackOneRecordPerFrame(t *testing.T) {
	// def boom():
	//     raise ValueError("bad")
	// def mid():
	//     boom()
	// mid()
	ue := runError(t,
		&ast.FunctionDef{
			Name: "boom",
			Body: []ast.Stmt{&ast.Raise{Exc: call(nm("ValueError"), cstr("bad"))}},
		},
		&ast.FunctionDef{
			Name: "mid",
			Body: []ast.Stmt{exprStmt(call(nm("boom")))},
		},
		exprStmt(call(nm("mid"))),
	)
	frames := ue.Exc.TracebackFrames()
	require.Len(t, frames, 3)
	require.Equal(t, "boom", frames[0].Function)
	require.Equal(t, "mid", frames[1].Function)
	require.Equal(t, "ValueError: bad", ue.Exc.Error())

	out := ue.Error()
	require.Contains(t, out, "Traceback (most recent call last):")
	// The raise site prints last.
	require.Greater(t, len(out), 0)
	require.Less(t,
		bytes.Index([]byte(out), []byte("in mid")),
		bytes.Index([]byte(out), []byte("in boom")))
}

func TestBareReraiseAddsNoDuplicateRecord(t *testing.T) {
	// def f():
	//     try:
	//         raise ValueError("v")
	//     except ValueError:
	//         raise
	// f()
	ue := runError(t,
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				&ast.Try{
					Body: []ast.Stmt{&ast.Raise{Exc: call(nm("ValueError"), cstr("v"))}},
					Handlers: []*ast.ExceptHandler{
						{Type: nm("ValueError"), Body: []ast.Stmt{&ast.Raise{}}},
					},
				},
			},
		},
		exprStmt(call(nm("f"))),
	)
	// One record for the raise in f, one for the call site in the module.
	require.Len(t, ue.Exc.TracebackFrames(), 2)
}

func TestWithStatementNormalExit(t *testing.T) {
	// class CM:
	//     def __enter__(self):
	//         return 5
	//     def __exit__(self, a, b, c):
	//         log.append("exit")
	//         return False
	// log = []
	// with CM() as v:
	//     r = v
	m := runProgram(t, nil,
		setVar("log", &ast.List{}),
		contextManagerClass("CM", false),
		&ast.With{
			Items: []ast.WithItem{{ContextExpr: call(nm("CM")), Var: nm("v")}},
			Body:  []ast.Stmt{setVar("r", nm("v"))},
		},
	)
	require.Equal(t, int64(5), intGlobal(t, m, "r"))
	require.Equal(t, `["exit"]`, global(t, m, "log").Inspect())
}

func TestWithStatementSuppressesException(t *testing.T) {
	// with CM() as v:
	//     raise ValueError("boom")
	// r = 7
	m := runProgram(t, nil,
		setVar("log", &ast.List{}),
		contextManagerClass("CM", true),
		&ast.With{
			Items: []ast.WithItem{{ContextExpr: call(nm("CM")), Var: nm("v")}},
			Body:  []ast.Stmt{&ast.Raise{Exc: call(nm("ValueError"), cstr("boom"))}},
		},
		setVar("r", cint(7)),
	)
	require.Equal(t, int64(7), intGlobal(t, m, "r"))
	require.Equal(t, `["exit"]`, global(t, m, "log").Inspect())
}

// contextManagerClass builds a class whose __exit__ appends to the global
// log list and reports whether it suppresses exceptions.
func contextManagerClass(name string, suppress bool) *ast.ClassDef {
	return &ast.ClassDef{
		Name: name,
		Body: []ast.Stmt{
			&ast.FunctionDef{
				Name:   "__enter__",
				Params: ast.Parameters{Names: []string{"self"}},
				Body:   []ast.Stmt{&ast.Return{Value: cint(5)}},
			},
			&ast.FunctionDef{
				Name:   "__exit__",
				Params: ast.Parameters{Names: []string{"self", "a", "b", "c"}},
				Body: []ast.Stmt{
					exprStmt(methodCall(nm("log"), "append", cstr("exit"))),
					&ast.Return{Value: &ast.Constant{Value: suppress}},
				},
			},
		},
	}
}

func TestUnpackingAssignment(t *testing.T) {
	// a, b, *rest = [1, 2, 3, 4]
	m := runProgram(t, nil,
		&ast.Assign{
			Targets: []ast.Expr{&ast.Tuple{Elts: []ast.Expr{
				nm("a"), nm("b"), &ast.Starred{Value: nm("rest")},
			}}},
			Value: &ast.List{Elts: []ast.Expr{cint(1), cint(2), cint(3), cint(4)}},
		},
	)
	require.Equal(t, int64(1), intGlobal(t, m, "a"))
	require.Equal(t, int64(2), intGlobal(t, m, "b"))
	require.Equal(t, "[3, 4]", global(t, m, "rest").Inspect())
}

func TestSubscriptAssignmentAndAugAssign(t *testing.T) {
	// d = {"a": 1}
	// d["b"] = 2
	// d["a"] += 10
	// r = d["a"] + d["b"]
	m := runProgram(t, nil,
		setVar("d", &ast.Dict{Keys: []ast.Expr{cstr("a")}, Values: []ast.Expr{cint(1)}}),
		&ast.Assign{
			Targets: []ast.Expr{&ast.Subscript{Value: nm("d"), Index: cstr("b")}},
			Value:   cint(2),
		},
		&ast.AugAssign{
			Target: &ast.Subscript{Value: nm("d"), Index: cstr("a")},
			Op:     "+",
			Value:  cint(10),
		},
		setVar("r", &ast.BinOp{
			Left:  &ast.Subscript{Value: nm("d"), Index: cstr("a")},
			Op:    "+",
			Right: &ast.Subscript{Value: nm("d"), Index: cstr("b")},
		}),
	)
	require.Equal(t, int64(13), intGlobal(t, m, "r"))
}

func TestChainedComparisonAndConditional(t *testing.T) {
	// x = 2
	// ok = 1 < x < 3
	// r = "yes" if ok else "no"
	m := runProgram(t, nil,
		setVar("x", cint(2)),
		setVar("ok", &ast.Compare{
			Left:        cint(1),
			Ops:         []string{"<", "<"},
			Comparators: []ast.Expr{nm("x"), cint(3)},
		}),
		setVar("r", &ast.IfExp{Test: nm("ok"), Body: cstr("yes"), OrElse: cstr("no")}),
	)
	require.Equal(t, object.True, global(t, m, "ok"))
	require.Equal(t, "yes", global(t, m, "r").(*object.String).Value())
}

func TestLambda(t *testing.T) {
	// f = lambda x: x * 2
	// r = f(21)
	m := runProgram(t, nil,
		setVar("f", &ast.Lambda{
			Params: ast.Parameters{Names: []string{"x"}},
			Body:   &ast.BinOp{Left: nm("x"), Op: "*", Right: cint(2)},
		}),
		setVar("r", call(nm("f"), cint(21))),
	)
	require.Equal(t, int64(42), intGlobal(t, m, "r"))
}

func TestAssertFailureRaises(t *testing.T) {
	ue := runError(t,
		&ast.Assert{Test: &ast.Constant{Value: false}, Msg: cstr("nope")},
	)
	require.Equal(t, "AssertionError", ue.Exc.Class().Name())
	require.Contains(t, ue.Exc.Error(), "nope")
}

func TestUnboundLocal(t *testing.T) {
	// def f():
	//     y = x
	//     x = 1
	// f()
	ue := runError(t,
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				setVar("y", nm("x")),
				setVar("x", cint(1)),
			},
		},
		exprStmt(call(nm("f"))),
	)
	require.Equal(t, "UnboundLocalError", ue.Exc.Class().Name())
}

func TestRecursionLimit(t *testing.T) {
	// def f():
	//     return f()
	// try:
	//     f()
	// except RecursionError:
	//     r = "caught"
	m := runProgram(t, []vm.Option{vm.WithRecursionLimit(50)},
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{&ast.Return{Value: call(nm("f"))}},
		},
		&ast.Try{
			Body: []ast.Stmt{exprStmt(call(nm("f")))},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("RecursionError"), Body: []ast.Stmt{setVar("r", cstr("caught"))}},
			},
		},
	)
	require.Equal(t, "caught", global(t, m, "r").(*object.String).Value())
}

func TestImportRegisteredModule(t *testing.T) {
	// import mathx
	// r = mathx.answer
	mod := object.NewModule("mathx", map[string]object.Object{
		"answer": object.NewInt(42),
	})
	m := runProgram(t, []vm.Option{vm.WithModule(mod)},
		&ast.Import{Names: []ast.Alias{{Name: "mathx"}}},
		setVar("r", &ast.Attribute{Value: nm("mathx"), Attr: "answer"}),
	)
	require.Equal(t, int64(42), intGlobal(t, m, "r"))
}

func TestImportMissingModule(t *testing.T) {
	ue := runError(t,
		&ast.Import{Names: []ast.Alias{{Name: "nosuch"}}},
	)
	require.Equal(t, "ModuleNotFoundError", ue.Exc.Class().Name())
}

func TestPrintToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	runProgram(t, []vm.Option{vm.WithStdout(&buf)},
		exprStmt(&ast.Call{
			Func:     nm("print"),
			Args:     []ast.Expr{cint(1), cstr("x")},
			Keywords: []ast.Keyword{{Name: "sep", Value: cstr("-")}},
		}),
	)
	require.Equal(t, "1-x\n", buf.String())
}

func TestFStringConcatenation(t *testing.T) {
	// a = 1
	// r = f"{a}!"
	m := runProgram(t, nil,
		setVar("a", cint(1)),
		setVar("r", &ast.JoinedStr{Values: []ast.Expr{nm("a"), cstr("!")}}),
	)
	require.Equal(t, "1!", global(t, m, "r").(*object.String).Value())
}

func TestGlobalStatement(t *testing.T) {
	// x = 1
	// def f():
	//     global x
	//     x = 2
	// f()
	m := runProgram(t, nil,
		setVar("x", cint(1)),
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				&ast.Global{Names: []string{"x"}},
				setVar("x", cint(2)),
			},
		},
		exprStmt(call(nm("f"))),
	)
	require.Equal(t, int64(2), intGlobal(t, m, "x"))
}

func TestNonlocalStatement(t *testing.T) {
	// def outer():
	//     n = 1
	//     def bump():
	//         nonlocal n
	//         n = n + 1
	//     bump()
	//     return n
	// r = outer()
	m := runProgram(t, nil,
		&ast.FunctionDef{
			Name: "outer",
			Body: []ast.Stmt{
				setVar("n", cint(1)),
				&ast.FunctionDef{
					Name: "bump",
					Body: []ast.Stmt{
						&ast.Nonlocal{Names: []string{"n"}},
						setVar("n", &ast.BinOp{Left: nm("n"), Op: "+", Right: cint(1)}),
					},
				},
				exprStmt(call(nm("bump"))),
				&ast.Return{Value: nm("n")},
			},
		},
		setVar("r", call(nm("outer"))),
	)
	require.Equal(t, int64(2), intGlobal(t, m, "r"))
}

func TestDeleteStatement(t *testing.T) {
	ue := runError(t,
		setVar("x", cint(1)),
		&ast.Delete{Targets: []ast.Expr{nm("x")}},
		setVar("r", nm("x")),
	)
	require.Equal(t, "NameError", ue.Exc.Class().Name())
}

func TestIsinstanceBuiltin(t *testing.T) {
	// r = isinstance(KeyError("k"), LookupError)
	m := runProgram(t, nil,
		setVar("r", call(nm("isinstance"),
			call(nm("KeyError"), cstr("k")), nm("LookupError"))),
	)
	require.Equal(t, object.True, global(t, m, "r"))
}

func TestCallStarArgs(t *testing.T) {
	// def f(a, b, c):
	//     return a * 100 + b * 10 + c
	// args = [1, 2, 3]
	// r = f(*args)
	m := runProgram(t, nil,
		&ast.FunctionDef{
			Name:   "f",
			Params: ast.Parameters{Names: []string{"a", "b", "c"}},
			Body: []ast.Stmt{&ast.Return{Value: &ast.BinOp{
				Left: &ast.BinOp{
					Left:  &ast.BinOp{Left: nm("a"), Op: "*", Right: cint(100)},
					Op:    "+",
					Right: &ast.BinOp{Left: nm("b"), Op: "*", Right: cint(10)},
				},
				Op:    "+",
				Right: nm("c"),
			}}},
		},
		setVar("args", &ast.List{Elts: []ast.Expr{cint(1), cint(2), cint(3)}}),
		setVar("r", call(nm("f"), &ast.Starred{Value: nm("args")})),
	)
	require.Equal(t, int64(123), intGlobal(t, m, "r"))
}

func TestClassInheritance(t *testing.T) {
	// class Base:
	//     def greet(self):
	//         return "base"
	// class Child(Base):
	//     pass
	// r = Child().greet()
	m := runProgram(t, nil,
		&ast.ClassDef{
			Name: "Base",
			Body: []ast.Stmt{
				&ast.FunctionDef{
					Name:   "greet",
					Params: ast.Parameters{Names: []string{"self"}},
					Body:   []ast.Stmt{&ast.Return{Value: cstr("base")}},
				},
			},
		},
		&ast.ClassDef{
			Name:  "Child",
			Bases: []ast.Expr{nm("Base")},
			Body:  []ast.Stmt{&ast.Pass{}},
		},
		setVar("r", methodCall(call(nm("Child")), "greet")),
	)
	require.Equal(t, "base", global(t, m, "r").(*object.String).Value())
}

func TestUserExceptionSubclass(t *testing.T) {
	// class AppError(Exception):
	//     pass
	// try:
	//     raise AppError("oops")
	// except Exception as e:
	//     r = e.args[0]
	m := runProgram(t, nil,
		&ast.ClassDef{
			Name:  "AppError",
			Bases: []ast.Expr{nm("Exception")},
			Body:  []ast.Stmt{&ast.Pass{}},
		},
		&ast.Try{
			Body: []ast.Stmt{&ast.Raise{Exc: call(nm("AppError"), cstr("oops"))}},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("Exception"), Name: "e", Body: []ast.Stmt{
					setVar("r", &ast.Subscript{
						Value: &ast.Attribute{Value: nm("e"), Attr: "args"},
						Index: cint(0),
					}),
				}},
			},
		},
	)
	require.Equal(t, "oops", global(t, m, "r").(*object.String).Value())
}

func TestDivisionByZeroUnwinds(t *testing.T) {
	// try:
	//     r = 1 / 0
	// except ZeroDivisionError:
	//     r = "division"
	m := runProgram(t, nil,
		&ast.Try{
			Body: []ast.Stmt{
				setVar("r", &ast.BinOp{Left: cint(1), Op: "/", Right: cint(0)}),
			},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("ZeroDivisionError"), Body: []ast.Stmt{setVar("r", cstr("division"))}},
			},
		},
	)
	require.Equal(t, "division", global(t, m, "r").(*object.String).Value())
}

func cbool(v bool) *ast.Constant { return &ast.Constant{Value: v} }

func TestBoolOpShortCircuit(t *testing.T) {
	// r = False or 7
	// s = 0 and boom()
	m := runProgram(t, nil,
		setVar("r", &ast.BoolOp{Op: "or", Values: []ast.Expr{cbool(false), cint(7)}}),
		setVar("s", &ast.BoolOp{Op: "and", Values: []ast.Expr{cint(0), call(nm("boom"))}}),
	)
	require.Equal(t, int64(7), intGlobal(t, m, "r"))
	require.Equal(t, int64(0), intGlobal(t, m, "s"))
}

func TestMethodClosureOverFunctionLocal(t *testing.T) {
	// def f():
	//     x = 1
	//     class C:
	//         def m(self):
	//             return x
	//     return C
	// K = f()
	// r = K().m()
	m := runProgram(t, nil,
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{
				setVar("x", cint(1)),
				&ast.ClassDef{
					Name: "C",
					Body: []ast.Stmt{&ast.FunctionDef{
						Name:   "m",
						Params: ast.Parameters{Names: []string{"self"}},
						Body:   []ast.Stmt{&ast.Return{Value: nm("x")}},
					}},
				},
				&ast.Return{Value: nm("C")},
			},
		},
		setVar("K", call(nm("f"))),
		setVar("r", methodCall(call(nm("K")), "m")),
	)
	require.Equal(t, int64(1), intGlobal(t, m, "r"))
}

func TestRaiseAfterBreakPathInsideTryFinally(t *testing.T) {
	// log = []
	// flag = False
	// def f():
	//     while True:
	//         try:
	//             if flag:
	//                 break
	//             raise ValueError("boom")
	//         finally:
	//             log.append(1)
	// try:
	//     f()
	// except ValueError as e:
	//     caught = e.args[0]
	m := runProgram(t, nil,
		setVar("log", &ast.List{}),
		setVar("flag", cbool(false)),
		&ast.FunctionDef{
			Name: "f",
			Body: []ast.Stmt{&ast.While{
				Test: cbool(true),
				Body: []ast.Stmt{&ast.Try{
					Body: []ast.Stmt{
						&ast.If{
							Test: nm("flag"),
							Body: []ast.Stmt{&ast.Break{}},
						},
						&ast.Raise{Exc: call(nm("ValueError"), cstr("boom"))},
					},
					Final: []ast.Stmt{exprStmt(methodCall(nm("log"), "append", cint(1)))},
				}},
			}},
		},
		&ast.Try{
			Body: []ast.Stmt{exprStmt(call(nm("f")))},
			Handlers: []*ast.ExceptHandler{
				{Type: nm("ValueError"), Name: "e", Body: []ast.Stmt{
					setVar("caught", &ast.Subscript{
						Value: &ast.Attribute{Value: nm("e"), Attr: "args"},
						Index: cint(0),
					}),
				}},
			},
		},
	)
	require.Equal(t, "boom", global(t, m, "caught").(*object.String).Value())
	require.Equal(t, "[1]", global(t, m, "log").Inspect())
}

func TestClassMetadataAttributes(t *testing.T) {
	// class C:
	//     """a class"""
	//     pass
	// d = C.__doc__
	// q = C.__qualname__
	// mod = C.__module__
	m := runProgram(t, nil,
		&ast.ClassDef{
			Name: "C",
			Body: []ast.Stmt{
				exprStmt(cstr("a class")),
				&ast.Pass{},
			},
		},
		setVar("d", &ast.Attribute{Value: nm("C"), Attr: "__doc__"}),
		setVar("q", &ast.Attribute{Value: nm("C"), Attr: "__qualname__"}),
		setVar("mod", &ast.Attribute{Value: nm("C"), Attr: "__module__"}),
	)
	require.Equal(t, "a class", global(t, m, "d").(*object.String).Value())
	require.Equal(t, "C", global(t, m, "q").(*object.String).Value())
	require.Equal(t, "__main__", global(t, m, "mod").(*object.String).Value())
}

func TestClassCellBinding(t *testing.T) {
	// class C:
	//     def m(self):
	//         return __class__
	// same = C().m() is C
	m := runProgram(t, nil,
		&ast.ClassDef{
			Name: "C",
			Body: []ast.Stmt{&ast.FunctionDef{
				Name:   "m",
				Params: ast.Parameters{Names: []string{"self"}},
				Body:   []ast.Stmt{&ast.Return{Value: nm("__class__")}},
			}},
		},
		setVar("same", &ast.Compare{
			Left:        methodCall(call(nm("C")), "m"),
			Ops:         []string{"is"},
			Comparators: []ast.Expr{nm("C")},
		}),
	)
	require.Equal(t, object.True, global(t, m, "same"))
}

func TestNotImplementedSingleton(t *testing.T) {
	// x = NotImplemented
	// r = repr(NotImplemented)
	m := runProgram(t, nil,
		setVar("x", nm("NotImplemented")),
		setVar("r", call(nm("repr"), nm("NotImplemented"))),
	)
	require.Same(t, object.NotImplemented, global(t, m, "x"))
	require.Equal(t, "NotImplemented", global(t, m, "r").(*object.String).Value())
	require.True(t, object.NotImplemented.IsTruthy())
}
