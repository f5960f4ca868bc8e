package compiler

import (
	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/errors"
	"github.com/cloudcmds/serpent/op"
	"github.com/cloudcmds/serpent/symtab"
)

var binaryOps = map[string]op.BinaryOpType{
	"+":  op.Add,
	"-":  op.Subtract,
	"*":  op.Multiply,
	"/":  op.Divide,
	"//": op.FloorDiv,
	"%":  op.Modulo,
	"**": op.Power,
	"<<": op.LShift,
	">>": op.RShift,
	"&":  op.BitwiseAnd,
	"|":  op.BitwiseOr,
	"^":  op.BitwiseXor,
	"@":  op.MatrixMul,
}

var compareOps = map[string]op.CompareOpType{
	"<":  op.LessThan,
	"<=": op.LessThanOrEqual,
	"==": op.Equal,
	"!=": op.NotEqual,
	">":  op.GreaterThan,
	">=": op.GreaterThanOrEqual,
}

// expr compiles an expression, leaving its value on top of the stack.
func (c *Compiler) expr(node ast.Expr) error {
	line := int32(node.Pos().Line)
	switch n := node.(type) {
	case *ast.Constant:
		c.compileConstant(line, n.Value)
		return nil
	case *ast.Name:
		c.nameOp(line, n.ID, accLoad)
		return nil
	case *ast.BoolOp:
		return c.compileBoolOp(n)
	case *ast.BinOp:
		return c.compileBinOp(n)
	case *ast.UnaryOp:
		return c.compileUnaryOp(n)
	case *ast.IfExp:
		return c.compileIfExp(n)
	case *ast.Compare:
		return c.compileCompare(n)
	case *ast.Call:
		return c.compileCall(n)
	case *ast.Attribute:
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.LoadAttr, c.unit.nameIndex(c.mangle(n.Attr)))
		return nil
	case *ast.Subscript:
		if err := c.expr(n.Value); err != nil {
			return err
		}
		if err := c.subscriptIndex(n); err != nil {
			return err
		}
		c.unit.emit(line, op.BinarySubscr, 0)
		return nil
	case *ast.List:
		return c.compileSequence(line, n.Elts, op.BuildList)
	case *ast.Tuple:
		return c.compileSequence(line, n.Elts, op.BuildTuple)
	case *ast.Set:
		return c.compileSequence(line, n.Elts, op.BuildSet)
	case *ast.Dict:
		return c.compileDict(n)
	case *ast.JoinedStr:
		for _, v := range n.Values {
			if err := c.expr(v); err != nil {
				return err
			}
		}
		c.unit.emit(line, op.BuildString, len(n.Values))
		return nil
	case *ast.Lambda:
		return c.compileFunction("<lambda>", n, &n.Params, nil, n.Body, false)
	case *ast.ListComp, *ast.SetComp, *ast.DictComp, *ast.GeneratorExp:
		return c.compileComprehension(node)
	case *ast.Yield:
		return c.compileYield(n)
	case *ast.YieldFrom:
		return c.compileYieldFrom(n)
	case *ast.Await:
		return c.compileAwait(n)
	case *ast.Starred:
		return c.errf(errors.InvalidAssignTarget, n.Pos(),
			"starred expression is only valid in calls and displays")
	default:
		return c.errf(errors.InvalidAssignTarget, node.Pos(),
			"cannot compile expression %T", node)
	}
}

func (c *Compiler) compileConstant(line int32, value any) {
	if value == nil {
		c.unit.emit(line, op.LoadNone, 0)
		return
	}
	c.unit.emit(line, op.LoadConst, c.unit.constant(constValue(value)))
}

// constValue maps parser constant representations onto the constant-pool
// representations used by code objects.
func constValue(v any) any {
	if _, ok := v.(ast.EllipsisValue); ok {
		return bytecode.Ellipsis{}
	}
	return v
}

// constTruth statically evaluates the truthiness of a constant value.
func constTruth(v any) (truthy, known bool) {
	switch t := v.(type) {
	case nil:
		return false, true
	case bool:
		return t, true
	case int64:
		return t != 0, true
	case float64:
		return t != 0, true
	case string:
		return t != "", true
	default:
		return false, false
	}
}

// ----------------------------------------------------------------------------
// Operators

func (c *Compiler) compileBinOp(n *ast.BinOp) error {
	binType, ok := binaryOps[n.Op]
	if !ok {
		return c.errf(errors.InvalidAssignTarget, n.Pos(),
			"unknown binary operator %q", n.Op)
	}
	if err := c.expr(n.Left); err != nil {
		return err
	}
	if err := c.expr(n.Right); err != nil {
		return err
	}
	c.unit.emit(int32(n.Pos().Line), op.BinaryOp, int(binType))
	return nil
}

func (c *Compiler) compileUnaryOp(n *ast.UnaryOp) error {
	if err := c.expr(n.Operand); err != nil {
		return err
	}
	line := int32(n.Pos().Line)
	switch n.Op {
	case "-":
		c.unit.emit(line, op.UnaryNegative, 0)
	case "+":
		c.unit.emit(line, op.UnaryPositive, 0)
	case "not":
		c.unit.emit(line, op.UnaryNot, 0)
	case "~":
		c.unit.emit(line, op.UnaryInvert, 0)
	default:
		return c.errf(errors.InvalidAssignTarget, n.Pos(),
			"unknown unary operator %q", n.Op)
	}
	return nil
}

// compileBoolOp compiles `and`/`or` used for its value, short-circuiting
// through JumpIfFalseOrPop or JumpIfTrueOrPop.
func (c *Compiler) compileBoolOp(n *ast.BoolOp) error {
	line := int32(n.Pos().Line)
	jump := op.JumpIfFalseOrPop
	if n.Op == "or" {
		jump = op.JumpIfTrueOrPop
	}
	end := c.unit.newBlock()
	for i, v := range n.Values {
		if err := c.expr(v); err != nil {
			return err
		}
		if i < len(n.Values)-1 {
			c.unit.emitJump(line, jump, end)
		}
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) compileIfExp(n *ast.IfExp) error {
	line := int32(n.Pos().Line)
	elseB := c.unit.newBlock()
	end := c.unit.newBlock()
	if err := c.compileJumpIf(n.Test, false, elseB); err != nil {
		return err
	}
	if err := c.expr(n.Body); err != nil {
		return err
	}
	c.unit.emitJump(line, op.Jump, end)
	c.unit.useBlock(elseB)
	if err := c.expr(n.OrElse); err != nil {
		return err
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) emitCompare(line int32, opStr string, pos ast.Position) error {
	if t, ok := compareOps[opStr]; ok {
		c.unit.emit(line, op.CompareOp, int(t))
		return nil
	}
	switch opStr {
	case "is":
		c.unit.emit(line, op.IsOp, 0)
	case "is not":
		c.unit.emit(line, op.IsOp, 1)
	case "in":
		c.unit.emit(line, op.ContainsOp, 0)
	case "not in":
		c.unit.emit(line, op.ContainsOp, 1)
	default:
		return c.errf(errors.InvalidAssignTarget, pos,
			"unknown comparison operator %q", opStr)
	}
	return nil
}

// compileCompare compiles a comparison chain. Each middle comparand is
// duplicated so it can serve as the left operand of the next comparison; a
// failed middle comparison jumps to a cleanup that discards the leftover
// comparand.
func (c *Compiler) compileCompare(n *ast.Compare) error {
	line := int32(n.Pos().Line)
	if len(n.Ops) != len(n.Comparators) || len(n.Ops) == 0 {
		return c.errf(errors.InvalidAssignTarget, n.Pos(), "malformed comparison")
	}
	if err := c.expr(n.Left); err != nil {
		return err
	}
	if len(n.Ops) == 1 {
		if err := c.expr(n.Comparators[0]); err != nil {
			return err
		}
		return c.emitCompare(line, n.Ops[0], n.Pos())
	}

	cleanup := c.unit.newBlock()
	end := c.unit.newBlock()
	for i, comparator := range n.Comparators {
		if err := c.expr(comparator); err != nil {
			return err
		}
		if i == len(n.Comparators)-1 {
			if err := c.emitCompare(line, n.Ops[i], n.Pos()); err != nil {
				return err
			}
			break
		}
		c.unit.emit(line, op.Copy, 1)
		c.unit.emit(line, op.Swap, 3)
		c.unit.emit(line, op.Swap, 2)
		if err := c.emitCompare(line, n.Ops[i], n.Pos()); err != nil {
			return err
		}
		c.unit.emitJump(line, op.JumpIfFalseOrPop, cleanup)
	}
	c.unit.emitJump(line, op.Jump, end)
	// The false result sits above the duplicated comparand.
	c.unit.useBlock(cleanup)
	c.unit.emit(line, op.Swap, 2)
	c.unit.emit(line, op.PopTop, 0)
	c.unit.useBlock(end)
	return nil
}

// ----------------------------------------------------------------------------
// Conditional jumps

// compileJumpIf compiles e and jumps to target when its truthiness equals
// condition. Boolean operators and `not` compile into jump structure instead
// of producing a value.
func (c *Compiler) compileJumpIf(e ast.Expr, condition bool, target blockLabel) error {
	line := int32(e.Pos().Line)
	switch n := e.(type) {
	case *ast.BoolOp:
		// For `and`, a single false value decides; for `or`, a single true
		// value does.
		decides := n.Op == "or"
		if condition == decides {
			for _, v := range n.Values {
				if err := c.compileJumpIf(v, condition, target); err != nil {
					return err
				}
			}
			return nil
		}
		next := c.unit.newBlock()
		for i, v := range n.Values {
			if i == len(n.Values)-1 {
				if err := c.compileJumpIf(v, condition, target); err != nil {
					return err
				}
				break
			}
			if err := c.compileJumpIf(v, decides, next); err != nil {
				return err
			}
		}
		c.unit.useBlock(next)
		return nil
	case *ast.UnaryOp:
		if n.Op == "not" {
			return c.compileJumpIf(n.Operand, !condition, target)
		}
	case *ast.Constant:
		if truthy, known := constTruth(n.Value); known {
			if truthy == condition {
				c.unit.emitJump(line, op.Jump, target)
				c.unit.useBlock(c.unit.newBlock())
			}
			return nil
		}
	}
	if err := c.expr(e); err != nil {
		return err
	}
	if condition {
		c.unit.emitJump(line, op.PopJumpIfTrue, target)
	} else {
		c.unit.emitJump(line, op.PopJumpIfFalse, target)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Subscripts and slices

// subscriptIndex pushes the index operand of a subscript, building a slice
// object when the index is a slice expression.
func (c *Compiler) subscriptIndex(t *ast.Subscript) error {
	s, ok := t.Index.(*ast.Slice)
	if !ok {
		return c.expr(t.Index)
	}
	line := int32(s.Pos().Line)
	bound := func(e ast.Expr) error {
		if e == nil {
			c.unit.emit(line, op.LoadNone, 0)
			return nil
		}
		return c.expr(e)
	}
	if err := bound(s.Lower); err != nil {
		return err
	}
	if err := bound(s.Upper); err != nil {
		return err
	}
	if s.Step != nil {
		if err := c.expr(s.Step); err != nil {
			return err
		}
		c.unit.emit(line, op.BuildSlice, 3)
	} else {
		c.unit.emit(line, op.BuildSlice, 2)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Displays

// compileSequence compiles a list, tuple, or set display. Displays without
// starred elements build directly; otherwise the elements accumulate into a
// list which converts at the end if needed.
func (c *Compiler) compileSequence(line int32, elts []ast.Expr, build op.Code) error {
	starred := false
	for _, e := range elts {
		if _, ok := e.(*ast.Starred); ok {
			starred = true
			break
		}
	}
	if !starred {
		for _, e := range elts {
			if err := c.expr(e); err != nil {
				return err
			}
		}
		c.unit.emit(line, build, len(elts))
		return nil
	}

	accumulate, extend, add := op.BuildList, op.ListExtend, op.ListAppend
	if build == op.BuildSet {
		accumulate, extend, add = op.BuildSet, op.SetUpdate, op.SetAdd
	}
	c.unit.emit(line, accumulate, 0)
	for _, e := range elts {
		if star, ok := e.(*ast.Starred); ok {
			if err := c.expr(star.Value); err != nil {
				return err
			}
			c.unit.emit(line, extend, 1)
			continue
		}
		if err := c.expr(e); err != nil {
			return err
		}
		c.unit.emit(line, add, 1)
	}
	if build == op.BuildTuple {
		c.unit.emit(line, op.ListToTuple, 0)
	}
	return nil
}

func (c *Compiler) compileDict(n *ast.Dict) error {
	line := int32(n.Pos().Line)
	splat := false
	for _, k := range n.Keys {
		if k == nil {
			splat = true
			break
		}
	}
	if !splat {
		for i := range n.Keys {
			if err := c.expr(n.Keys[i]); err != nil {
				return err
			}
			if err := c.expr(n.Values[i]); err != nil {
				return err
			}
		}
		c.unit.emit(line, op.BuildMap, len(n.Keys))
		return nil
	}
	c.unit.emit(line, op.BuildMap, 0)
	for i := range n.Keys {
		if n.Keys[i] == nil {
			if err := c.expr(n.Values[i]); err != nil {
				return err
			}
			c.unit.emit(line, op.DictMerge, 1)
			continue
		}
		if err := c.expr(n.Keys[i]); err != nil {
			return err
		}
		if err := c.expr(n.Values[i]); err != nil {
			return err
		}
		c.unit.emit(line, op.MapAdd, 1)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Calls

func (c *Compiler) compileCall(n *ast.Call) error {
	starred := false
	for _, a := range n.Args {
		if _, ok := a.(*ast.Starred); ok {
			starred = true
			break
		}
	}
	kwSplat := false
	for _, kw := range n.Keywords {
		if kw.Name == "" {
			kwSplat = true
			break
		}
	}
	if starred || kwSplat {
		return c.compileCallEx(n)
	}

	line := int32(n.Pos().Line)
	if attr, ok := n.Func.(*ast.Attribute); ok {
		// Attribute calls resolve callable and receiver in one step, which
		// avoids materializing a bound method object.
		if err := c.expr(attr.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.LoadMethod, c.unit.nameIndex(c.mangle(attr.Attr)))
	} else {
		if err := c.expr(n.Func); err != nil {
			return err
		}
		c.unit.emit(line, op.PushNil, 0)
	}
	for _, a := range n.Args {
		if err := c.expr(a); err != nil {
			return err
		}
	}
	if len(n.Keywords) == 0 {
		c.unit.emit(line, op.Call, len(n.Args))
		return nil
	}
	names := make(bytecode.Tuple, len(n.Keywords))
	for i, kw := range n.Keywords {
		names[i] = kw.Name
		if err := c.expr(kw.Value); err != nil {
			return err
		}
	}
	c.unit.emit(line, op.LoadConst, c.unit.constant(names))
	c.unit.emit(line, op.CallKw, len(n.Args)+len(n.Keywords))
	return nil
}

// compileCallEx compiles a call with iterable or mapping unpacking. The
// positional arguments collapse into one tuple and the keyword arguments,
// when present, into one dict.
func (c *Compiler) compileCallEx(n *ast.Call) error {
	line := int32(n.Pos().Line)
	if err := c.expr(n.Func); err != nil {
		return err
	}
	c.unit.emit(line, op.PushNil, 0)

	c.unit.emit(line, op.BuildList, 0)
	for _, a := range n.Args {
		if star, ok := a.(*ast.Starred); ok {
			if err := c.expr(star.Value); err != nil {
				return err
			}
			c.unit.emit(line, op.ListExtend, 1)
			continue
		}
		if err := c.expr(a); err != nil {
			return err
		}
		c.unit.emit(line, op.ListAppend, 1)
	}
	c.unit.emit(line, op.ListToTuple, 0)

	flags := 0
	if len(n.Keywords) > 0 {
		flags = 1
		c.unit.emit(line, op.BuildMap, 0)
		for _, kw := range n.Keywords {
			if kw.Name == "" {
				if err := c.expr(kw.Value); err != nil {
					return err
				}
				c.unit.emit(line, op.DictMerge, 1)
				continue
			}
			c.unit.emit(line, op.LoadConst, c.unit.constant(kw.Name))
			if err := c.expr(kw.Value); err != nil {
				return err
			}
			c.unit.emit(line, op.MapAdd, 1)
		}
	}
	c.unit.emit(line, op.CallEx, flags)
	return nil
}

// ----------------------------------------------------------------------------
// Functions and classes

func (c *Compiler) compileFunctionDef(n *ast.FunctionDef) error {
	if err := c.compileFunction(n.Name, n, &n.Params, n.Body, nil, n.IsAsync); err != nil {
		return err
	}
	return c.storeName(int32(n.Pos().Line), n.Name, n.Pos())
}

// compileFunction compiles a function, method, or lambda body into a code
// object and emits the MakeFunction sequence that binds defaults and closure
// cells. The function object is left on the stack.
func (c *Compiler) compileFunction(name string, node ast.Node, params *ast.Parameters,
	body []ast.Stmt, lambdaBody ast.Expr, isAsync bool) error {

	pos := node.Pos()
	line := int32(pos.Line)
	mask := 0
	if len(params.Defaults) > 0 {
		for _, d := range params.Defaults {
			if err := c.expr(d); err != nil {
				return err
			}
		}
		c.unit.emit(line, op.BuildTuple, len(params.Defaults))
		mask |= makeFuncDefaults
	}
	kwDefaults := 0
	for i, d := range params.KwDefaults {
		if d == nil {
			continue
		}
		c.unit.emit(line, op.LoadConst, c.unit.constant(c.mangle(params.KwOnly[i])))
		if err := c.expr(d); err != nil {
			return err
		}
		kwDefaults++
	}
	if kwDefaults > 0 {
		c.unit.emit(line, op.BuildMap, kwDefaults)
		mask |= makeFuncKwDefaults
	}

	u := c.enterUnit(name, pos.Line, node)
	u.flags = bytecode.FlagOptimized | bytecode.FlagNewLocals
	if params.Vararg != "" {
		u.flags |= bytecode.FlagVarArgs
	}
	if params.Kwarg != "" {
		u.flags |= bytecode.FlagVarKeywords
	}
	scope := c.scope()
	if scope.IsGenerator {
		u.flags |= bytecode.FlagGenerator
	}
	if isAsync {
		u.flags |= bytecode.FlagCoroutine
	}
	u.argCount = len(params.Names)
	u.posOnly = params.PosOnlyCount
	u.kwOnly = len(params.KwOnly)

	var err error
	if lambdaBody != nil {
		if err = c.expr(lambdaBody); err == nil {
			c.unit.emit(line, op.ReturnValue, 0)
		}
	} else {
		if err = c.stmts(body); err == nil {
			c.finishUnit(line)
		}
	}
	if err != nil {
		return err
	}
	code := c.exitUnit()

	mask |= c.emitClosure(line, code)
	c.unit.emit(line, op.LoadConst, c.unit.constant(code))
	c.unit.emit(line, op.MakeFunction, mask)
	return nil
}

func (c *Compiler) compileClassDef(n *ast.ClassDef) error {
	line := int32(n.Pos().Line)
	c.unit.emit(line, op.LoadBuildClass, 0)
	c.unit.emit(line, op.PushNil, 0)

	prevClass := c.className
	c.className = n.Name
	u := c.enterUnit(n.Name, n.Pos().Line, n)
	u.argCount = 0
	c.unit.emit(line, op.LoadName, c.unit.nameIndex("__name__"))
	c.unit.emit(line, op.StoreName, c.unit.nameIndex("__module__"))
	c.unit.emit(line, op.LoadConst, c.unit.constant(u.qualname))
	c.unit.emit(line, op.StoreName, c.unit.nameIndex("__qualname__"))
	body := n.Body
	if doc, ok := docstring(n.Body); ok {
		c.unit.emit(line, op.LoadConst, c.unit.constant(doc))
		c.unit.emit(line, op.StoreName, c.unit.nameIndex("__doc__"))
		body = n.Body[1:]
	}
	if err := c.stmts(body); err != nil {
		return err
	}
	c.finishUnit(line)
	code := c.exitUnit()
	c.className = prevClass

	mask := c.emitClosure(line, code)
	c.unit.emit(line, op.LoadConst, c.unit.constant(code))
	c.unit.emit(line, op.MakeFunction, mask)
	c.unit.emit(line, op.LoadConst, c.unit.constant(n.Name))
	for _, base := range n.Bases {
		if err := c.expr(base); err != nil {
			return err
		}
	}
	c.unit.emit(line, op.Call, 2+len(n.Bases))
	return c.storeName(line, n.Name, n.Pos())
}

// docstring returns the leading string-literal statement of a body, if any.
func docstring(body []ast.Stmt) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	es, ok := body[0].(*ast.ExprStmt)
	if !ok {
		return "", false
	}
	cst, ok := es.Value.(*ast.Constant)
	if !ok {
		return "", false
	}
	s, ok := cst.Value.(string)
	return s, ok
}

// ----------------------------------------------------------------------------
// Comprehensions

// compileComprehension compiles a comprehension as an immediately invoked
// function. The outermost iterable evaluates eagerly in the enclosing scope
// and passes in as the sole argument; nested iterables evaluate lazily inside
// the new scope.
func (c *Compiler) compileComprehension(node ast.Expr) error {
	var (
		name string
		gens []ast.Comprehension
	)
	switch n := node.(type) {
	case *ast.ListComp:
		name, gens = "<listcomp>", n.Generators
	case *ast.SetComp:
		name, gens = "<setcomp>", n.Generators
	case *ast.DictComp:
		name, gens = "<dictcomp>", n.Generators
	case *ast.GeneratorExp:
		name, gens = "<genexpr>", n.Generators
	}
	pos := node.Pos()
	line := int32(pos.Line)
	if len(gens) == 0 {
		return c.errf(errors.InvalidAssignTarget, pos, "comprehension has no generators")
	}
	if err := c.expr(gens[0].Iter); err != nil {
		return err
	}
	c.unit.emit(line, op.GetIter, 0)

	u := c.enterUnit(name, pos.Line, node)
	u.flags = bytecode.FlagOptimized | bytecode.FlagNewLocals
	u.argCount = 1
	switch node.(type) {
	case *ast.ListComp:
		c.unit.emit(line, op.BuildList, 0)
	case *ast.SetComp:
		c.unit.emit(line, op.BuildSet, 0)
	case *ast.DictComp:
		c.unit.emit(line, op.BuildMap, 0)
	case *ast.GeneratorExp:
		u.flags |= bytecode.FlagGenerator
	}
	if err := c.comprehensionLoop(node, gens, 0); err != nil {
		return err
	}
	if _, isGen := node.(*ast.GeneratorExp); isGen {
		c.unit.emit(line, op.LoadNone, 0)
	}
	c.unit.emit(line, op.ReturnValue, 0)
	code := c.exitUnit()

	mask := c.emitClosure(line, code)
	c.unit.emit(line, op.LoadConst, c.unit.constant(code))
	c.unit.emit(line, op.MakeFunction, mask)
	// Rearrange [iterable fn] into the [fn receiver arg] call layout.
	c.unit.emit(line, op.Swap, 2)
	c.unit.emit(line, op.PushNil, 0)
	c.unit.emit(line, op.Swap, 2)
	c.unit.emit(line, op.Call, 1)
	return nil
}

// comprehensionLoop emits the iteration nest. Level i keeps i+1 iterators on
// the stack above the accumulating collection, so element appends address the
// collection at depth i+2.
func (c *Compiler) comprehensionLoop(node ast.Expr, gens []ast.Comprehension, i int) error {
	gen := gens[i]
	line := int32(gen.Target.Pos().Line)
	if i == 0 {
		c.unit.emit(line, op.LoadFast, c.unit.varIndex(".0"))
	} else {
		if err := c.expr(gen.Iter); err != nil {
			return err
		}
		c.unit.emit(line, op.GetIter, 0)
	}
	start := c.unit.newBlock()
	done := c.unit.newBlock()
	c.unit.useBlock(start)
	c.unit.emitJump(line, op.ForIter, done)
	if err := c.storeTarget(gen.Target); err != nil {
		return err
	}
	for _, cond := range gen.Ifs {
		if err := c.compileJumpIf(cond, false, start); err != nil {
			return err
		}
	}
	if i+1 < len(gens) {
		if err := c.comprehensionLoop(node, gens, i+1); err != nil {
			return err
		}
	} else if err := c.comprehensionElement(node, i+2); err != nil {
		return err
	}
	c.unit.emitJump(line, op.Jump, start)
	c.unit.useBlock(done)
	return nil
}

func (c *Compiler) comprehensionElement(node ast.Expr, depth int) error {
	switch n := node.(type) {
	case *ast.ListComp:
		if err := c.expr(n.Elt); err != nil {
			return err
		}
		c.unit.emit(int32(n.Elt.Pos().Line), op.ListAppend, depth)
	case *ast.SetComp:
		if err := c.expr(n.Elt); err != nil {
			return err
		}
		c.unit.emit(int32(n.Elt.Pos().Line), op.SetAdd, depth)
	case *ast.DictComp:
		if err := c.expr(n.Key); err != nil {
			return err
		}
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.unit.emit(int32(n.Key.Pos().Line), op.MapAdd, depth)
	case *ast.GeneratorExp:
		if err := c.expr(n.Elt); err != nil {
			return err
		}
		line := int32(n.Elt.Pos().Line)
		c.unit.emit(line, op.Yield, op.YieldPlain)
		c.unit.emit(line, op.PopTop, 0)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Suspension points

func (c *Compiler) compileYield(n *ast.Yield) error {
	line := int32(n.Pos().Line)
	scope := c.scope()
	if scope.Type != symtab.FunctionScope {
		return c.errf(errors.InvalidYield, n.Pos(), "yield outside function")
	}
	if scope.IsAsync {
		return c.errf(errors.InvalidYield, n.Pos(),
			"async generators are not supported")
	}
	if n.Value != nil {
		if err := c.expr(n.Value); err != nil {
			return err
		}
	} else {
		c.unit.emit(line, op.LoadNone, 0)
	}
	c.unit.emit(line, op.Yield, op.YieldPlain)
	return nil
}

func (c *Compiler) compileYieldFrom(n *ast.YieldFrom) error {
	line := int32(n.Pos().Line)
	scope := c.scope()
	if scope.Type != symtab.FunctionScope {
		return c.errf(errors.InvalidYield, n.Pos(), "yield outside function")
	}
	if scope.IsAsync {
		return c.err(errors.AsyncYieldFrom, n.Pos())
	}
	if err := c.expr(n.Value); err != nil {
		return err
	}
	c.unit.emit(line, op.GetIter, 0)
	c.unit.emit(line, op.Yield, op.YieldDelegated)
	return nil
}

func (c *Compiler) compileAwait(n *ast.Await) error {
	line := int32(n.Pos().Line)
	scope := c.scope()
	if scope.Type != symtab.FunctionScope || !scope.IsAsync {
		return c.errf(errors.InvalidAwait, n.Pos(), "await outside async function")
	}
	if err := c.expr(n.Value); err != nil {
		return err
	}
	c.unit.emit(line, op.GetAwaitable, 0)
	c.unit.emit(line, op.Yield, op.YieldDelegated)
	return nil
}
