package compiler

import (
	"strings"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/errors"
	"github.com/cloudcmds/serpent/op"
	"github.com/cloudcmds/serpent/symtab"
)

// fblockKind classifies the syntactic constructs a break, continue, or
// return statement must unwind through.
type fblockKind int

const (
	fbWhileLoop fblockKind = iota
	fbForLoop
	fbFinallyTry
	fbHandler
)

type fblock struct {
	kind           fblockKind
	continueTarget blockLabel
	breakTarget    blockLabel

	// finalBody and handler describe a try-finally: the body is inlined on
	// early exits, and the handler range is reopened afterward. setupAt is
	// the original marker, whose entry depth reopened ranges share.
	finalBody []ast.Stmt
	handler   blockLabel
	push      bool
	setupAt   markerPos
}

func (c *Compiler) pushFblock(fb fblock) {
	c.unit.fblocks = append(c.unit.fblocks, fb)
}

func (c *Compiler) popFblock() {
	c.unit.fblocks = c.unit.fblocks[:len(c.unit.fblocks)-1]
}

func (c *Compiler) stmts(list []ast.Stmt) error {
	for _, s := range list {
		if err := c.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) stmt(node ast.Stmt) error {
	// Statements after a terminator are unreachable but still compile.
	if c.unit.currentClosed() {
		c.unit.useBlock(c.unit.newBlock())
	}
	line := int32(node.Pos().Line)
	switch n := node.(type) {
	case *ast.ExprStmt:
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.PopTop, 0)
		return nil
	case *ast.Assign:
		return c.compileAssign(n)
	case *ast.AugAssign:
		return c.compileAugAssign(n)
	case *ast.AnnAssign:
		return c.compileAnnAssign(n)
	case *ast.Delete:
		for _, t := range n.Targets {
			if err := c.deleteTarget(t); err != nil {
				return err
			}
		}
		return nil
	case *ast.If:
		return c.compileIf(n)
	case *ast.While:
		return c.compileWhile(n)
	case *ast.For:
		return c.compileFor(n)
	case *ast.Break:
		return c.compileBreak(n)
	case *ast.Continue:
		return c.compileContinue(n)
	case *ast.Return:
		return c.compileReturn(n)
	case *ast.Pass:
		return nil
	case *ast.FunctionDef:
		return c.compileFunctionDef(n)
	case *ast.ClassDef:
		return c.compileClassDef(n)
	case *ast.Raise:
		return c.compileRaise(n)
	case *ast.Try:
		return c.compileTry(n)
	case *ast.Assert:
		return c.compileAssert(n)
	case *ast.With:
		return c.compileWith(n, 0)
	case *ast.Import:
		return c.compileImport(n)
	case *ast.ImportFrom:
		return c.compileImportFrom(n)
	case *ast.Global, *ast.Nonlocal:
		// Declarations were consumed by the resolver.
		return nil
	case *ast.Match:
		return c.err(errors.MatchNotImplemented, n.Pos())
	default:
		return c.errf(errors.MatchNotImplemented, node.Pos(),
			"cannot compile statement %T", node)
	}
}

// ----------------------------------------------------------------------------
// Assignment

func (c *Compiler) compileAssign(n *ast.Assign) error {
	line := int32(n.Pos().Line)
	if err := c.expr(n.Value); err != nil {
		return err
	}
	for i, target := range n.Targets {
		if i < len(n.Targets)-1 {
			c.unit.emit(line, op.Copy, 1)
		}
		if err := c.storeTarget(target); err != nil {
			return err
		}
	}
	return nil
}

// storeTarget consumes the value on top of the stack into the target.
func (c *Compiler) storeTarget(target ast.Expr) error {
	line := int32(target.Pos().Line)
	switch t := target.(type) {
	case *ast.Name:
		return c.storeName(line, t.ID, t.Pos())
	case *ast.Starred:
		return c.errf(errors.InvalidAssignTarget, t.Pos(),
			"starred assignment target must be in a list or tuple")
	case *ast.Tuple:
		return c.storeUnpack(line, t.Pos(), t.Elts)
	case *ast.List:
		return c.storeUnpack(line, t.Pos(), t.Elts)
	case *ast.Attribute:
		if err := c.expr(t.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.StoreAttr, c.unit.nameIndex(c.mangle(t.Attr)))
		return nil
	case *ast.Subscript:
		if err := c.expr(t.Value); err != nil {
			return err
		}
		if err := c.subscriptIndex(t); err != nil {
			return err
		}
		c.unit.emit(line, op.StoreSubscr, 0)
		return nil
	default:
		return c.errf(errors.InvalidAssignTarget, target.Pos(),
			"cannot assign to %T", target)
	}
}

func (c *Compiler) storeName(line int32, name string, pos ast.Position) error {
	if reservedNames[name] {
		return c.errf(errors.InvalidAssignTarget, pos, "cannot assign to %s", name)
	}
	c.nameOp(line, name, accStore)
	return nil
}

func (c *Compiler) storeUnpack(line int32, pos ast.Position, elts []ast.Expr) error {
	starred := -1
	for i, e := range elts {
		if _, ok := e.(*ast.Starred); ok {
			if starred >= 0 {
				return c.err(errors.MultipleStarredTargets, pos)
			}
			starred = i
		}
	}
	if starred < 0 {
		c.unit.emit(line, op.UnpackSequence, len(elts))
	} else {
		before := starred
		after := len(elts) - starred - 1
		if before > maxUnpackCount || after > maxUnpackCount {
			return c.errf(errors.TooManyStarredValues, pos,
				"too many expressions in star-unpacking assignment (limit %d)",
				maxUnpackCount)
		}
		c.unit.emit(line, op.UnpackEx, before|after<<8)
	}
	for _, e := range elts {
		target := e
		if s, ok := e.(*ast.Starred); ok {
			target = s.Value
		}
		if err := c.storeTarget(target); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileAugAssign(n *ast.AugAssign) error {
	line := int32(n.Pos().Line)
	binType, ok := binaryOps[n.Op]
	if !ok {
		return c.errf(errors.InvalidAssignTarget, n.Pos(),
			"unknown augmented operator %q", n.Op)
	}
	switch t := n.Target.(type) {
	case *ast.Name:
		c.nameOp(line, t.ID, accLoad)
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.BinaryOp, int(binType))
		return c.storeName(line, t.ID, t.Pos())
	case *ast.Attribute:
		if err := c.expr(t.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.Copy, 1)
		c.unit.emit(line, op.LoadAttr, c.unit.nameIndex(c.mangle(t.Attr)))
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.BinaryOp, int(binType))
		// Stack is [obj result]; StoreAttr wants [value obj].
		c.unit.emit(line, op.Swap, 2)
		c.unit.emit(line, op.StoreAttr, c.unit.nameIndex(c.mangle(t.Attr)))
		return nil
	case *ast.Subscript:
		if err := c.expr(t.Value); err != nil {
			return err
		}
		if err := c.subscriptIndex(t); err != nil {
			return err
		}
		c.unit.emit(line, op.Copy, 2)
		c.unit.emit(line, op.Copy, 2)
		c.unit.emit(line, op.BinarySubscr, 0)
		if err := c.expr(n.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.BinaryOp, int(binType))
		// Stack is [obj index result]; StoreSubscr wants [value obj index].
		c.unit.emit(line, op.Swap, 3)
		c.unit.emit(line, op.Swap, 2)
		c.unit.emit(line, op.StoreSubscr, 0)
		return nil
	default:
		return c.errf(errors.InvalidAssignTarget, n.Pos(),
			"cannot augment-assign to %T", n.Target)
	}
}

func (c *Compiler) compileAnnAssign(n *ast.AnnAssign) error {
	line := int32(n.Pos().Line)
	if n.Value != nil {
		if err := c.expr(n.Value); err != nil {
			return err
		}
		if err := c.storeTarget(n.Target); err != nil {
			return err
		}
	}
	name, isName := n.Target.(*ast.Name)
	if !isName || c.optimized() {
		// Annotations on locals and complex targets evaluate for effect
		// only.
		if err := c.expr(n.Annotation); err != nil {
			return err
		}
		c.unit.emit(line, op.PopTop, 0)
		return nil
	}
	if !c.unit.annotationsReady {
		c.unit.emit(line, op.SetupAnnotations, 0)
		c.unit.annotationsReady = true
	}
	if err := c.expr(n.Annotation); err != nil {
		return err
	}
	c.unit.emit(line, op.LoadName, c.unit.nameIndex("__annotations__"))
	c.unit.emit(line, op.LoadConst, c.unit.constant(c.mangle(name.ID)))
	c.unit.emit(line, op.StoreSubscr, 0)
	return nil
}

func (c *Compiler) deleteTarget(target ast.Expr) error {
	line := int32(target.Pos().Line)
	switch t := target.(type) {
	case *ast.Name:
		c.nameOp(line, t.ID, accDelete)
		return nil
	case *ast.Attribute:
		if err := c.expr(t.Value); err != nil {
			return err
		}
		c.unit.emit(line, op.DeleteAttr, c.unit.nameIndex(c.mangle(t.Attr)))
		return nil
	case *ast.Subscript:
		if err := c.expr(t.Value); err != nil {
			return err
		}
		if err := c.subscriptIndex(t); err != nil {
			return err
		}
		c.unit.emit(line, op.DeleteSubscr, 0)
		return nil
	case *ast.Tuple:
		for _, e := range t.Elts {
			if err := c.deleteTarget(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return c.errf(errors.InvalidAssignTarget, target.Pos(),
			"cannot delete %T", target)
	}
}

// ----------------------------------------------------------------------------
// Control flow

func (c *Compiler) compileIf(n *ast.If) error {
	end := c.unit.newBlock()
	elseB := end
	if len(n.OrElse) > 0 {
		elseB = c.unit.newBlock()
	}
	if err := c.compileJumpIf(n.Test, false, elseB); err != nil {
		return err
	}
	if err := c.stmts(n.Body); err != nil {
		return err
	}
	if len(n.OrElse) > 0 {
		if !c.unit.currentClosed() {
			c.unit.emitJump(int32(n.Pos().Line), op.Jump, end)
		}
		c.unit.useBlock(elseB)
		if err := c.stmts(n.OrElse); err != nil {
			return err
		}
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) compileWhile(n *ast.While) error {
	line := int32(n.Pos().Line)
	start := c.unit.newBlock()
	end := c.unit.newBlock()
	elseB := end
	if len(n.OrElse) > 0 {
		elseB = c.unit.newBlock()
	}
	c.unit.useBlock(start)
	if err := c.compileJumpIf(n.Test, false, elseB); err != nil {
		return err
	}
	c.pushFblock(fblock{kind: fbWhileLoop, continueTarget: start, breakTarget: end})
	err := c.stmts(n.Body)
	c.popFblock()
	if err != nil {
		return err
	}
	if !c.unit.currentClosed() {
		c.unit.emitJump(line, op.Jump, start)
	}
	if len(n.OrElse) > 0 {
		c.unit.useBlock(elseB)
		if err := c.stmts(n.OrElse); err != nil {
			return err
		}
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) compileFor(n *ast.For) error {
	line := int32(n.Pos().Line)
	if err := c.expr(n.Iter); err != nil {
		return err
	}
	c.unit.emit(line, op.GetIter, 0)

	start := c.unit.newBlock()
	end := c.unit.newBlock()
	elseB := end
	if len(n.OrElse) > 0 {
		elseB = c.unit.newBlock()
	}
	c.unit.useBlock(start)
	c.unit.emitJump(line, op.ForIter, elseB)
	if err := c.storeTarget(n.Target); err != nil {
		return err
	}
	c.pushFblock(fblock{kind: fbForLoop, continueTarget: start, breakTarget: end})
	err := c.stmts(n.Body)
	c.popFblock()
	if err != nil {
		return err
	}
	if !c.unit.currentClosed() {
		c.unit.emitJump(line, op.Jump, start)
	}
	if len(n.OrElse) > 0 {
		c.unit.useBlock(elseB)
		if err := c.stmts(n.OrElse); err != nil {
			return err
		}
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) compileBreak(n *ast.Break) error {
	line := int32(n.Pos().Line)
	fbs := c.unit.fblocks
	var reopen []fblock
	for i := len(fbs) - 1; i >= 0; i-- {
		fb := fbs[i]
		switch fb.kind {
		case fbFinallyTry:
			c.unit.markPop(line)
			if err := c.inlineFinally(fb, i); err != nil {
				return err
			}
			reopen = append(reopen, fb)
		case fbHandler:
			c.unit.emit(line, op.PopExcInfo, 0)
		case fbForLoop:
			c.unit.emit(line, op.PopTop, 0)
			c.unit.emitJump(line, op.Jump, fb.breakTarget)
			c.reopenMarkers(line, reopen)
			return nil
		case fbWhileLoop:
			c.unit.emitJump(line, op.Jump, fb.breakTarget)
			c.reopenMarkers(line, reopen)
			return nil
		}
	}
	return c.err(errors.InvalidBreak, n.Pos())
}

func (c *Compiler) compileContinue(n *ast.Continue) error {
	line := int32(n.Pos().Line)
	fbs := c.unit.fblocks
	var reopen []fblock
	for i := len(fbs) - 1; i >= 0; i-- {
		fb := fbs[i]
		switch fb.kind {
		case fbFinallyTry:
			c.unit.markPop(line)
			if err := c.inlineFinally(fb, i); err != nil {
				return err
			}
			reopen = append(reopen, fb)
		case fbHandler:
			c.unit.emit(line, op.PopExcInfo, 0)
		case fbForLoop, fbWhileLoop:
			c.unit.emitJump(line, op.Jump, fb.continueTarget)
			c.reopenMarkers(line, reopen)
			return nil
		}
	}
	return c.err(errors.InvalidContinue, n.Pos())
}

func (c *Compiler) compileReturn(n *ast.Return) error {
	line := int32(n.Pos().Line)
	if c.scope().Type != symtab.FunctionScope {
		return c.err(errors.InvalidReturn, n.Pos())
	}
	if n.Value != nil {
		if err := c.expr(n.Value); err != nil {
			return err
		}
	} else {
		c.unit.emit(line, op.LoadNone, 0)
	}
	fbs := c.unit.fblocks
	var reopen []fblock
	for i := len(fbs) - 1; i >= 0; i-- {
		fb := fbs[i]
		switch fb.kind {
		case fbFinallyTry:
			c.unit.markPop(line)
			if err := c.inlineFinally(fb, i); err != nil {
				return err
			}
			reopen = append(reopen, fb)
		case fbHandler:
			// The saved exception sits beneath the return value.
			c.unit.emit(line, op.Swap, 2)
			c.unit.emit(line, op.PopExcInfo, 0)
		case fbForLoop:
			c.unit.emit(line, op.Swap, 2)
			c.unit.emit(line, op.PopTop, 0)
		case fbWhileLoop:
		}
	}
	c.unit.emit(line, op.ReturnValue, 0)
	c.reopenMarkers(line, reopen)
	return nil
}

// inlineFinally compiles a copy of a finally body on an early-exit path.
// Outer fblocks stay visible; the ones at or above the try are hidden so the
// copy cannot unwind through constructs it already left.
func (c *Compiler) inlineFinally(fb fblock, upto int) error {
	saved := c.unit.fblocks
	c.unit.fblocks = saved[:upto]
	err := c.stmts(fb.finalBody)
	c.unit.fblocks = saved
	return err
}

// reopenMarkers restores handler ranges that were closed along an early-exit
// path, so the code after the exit remains protected.
func (c *Compiler) reopenMarkers(line int32, popped []fblock) {
	if len(popped) == 0 {
		return
	}
	c.unit.useBlock(c.unit.newBlock())
	for i := len(popped) - 1; i >= 0; i-- {
		c.unit.markReopen(line, popped[i])
	}
}

// ----------------------------------------------------------------------------
// Exceptions

func (c *Compiler) compileRaise(n *ast.Raise) error {
	line := int32(n.Pos().Line)
	switch {
	case n.Exc == nil:
		c.unit.emit(line, op.Raise, op.RaiseBare)
	case n.Cause == nil:
		if err := c.expr(n.Exc); err != nil {
			return err
		}
		c.unit.emit(line, op.Raise, op.RaiseExc)
	default:
		if err := c.expr(n.Exc); err != nil {
			return err
		}
		if err := c.expr(n.Cause); err != nil {
			return err
		}
		c.unit.emit(line, op.Raise, op.RaiseCause)
	}
	return nil
}

func (c *Compiler) compileTry(n *ast.Try) error {
	if len(n.Final) > 0 {
		return c.tryFinally(n, func() error {
			if len(n.Handlers) > 0 {
				return c.tryExcept(n)
			}
			return c.stmts(n.Body)
		})
	}
	return c.tryExcept(n)
}

func (c *Compiler) tryFinally(n *ast.Try, body func() error) error {
	line := int32(n.Pos().Line)
	finallyB := c.unit.newBlock()
	end := c.unit.newBlock()

	setupAt := c.unit.markSetup(line, finallyB, false)
	c.pushFblock(fblock{
		kind:      fbFinallyTry,
		finalBody: n.Final,
		handler:   finallyB,
		setupAt:   setupAt,
	})
	err := body()
	c.popFblock()
	if err != nil {
		return err
	}
	if c.unit.currentClosed() {
		c.unit.useBlock(c.unit.newBlock())
	}
	c.unit.markPop(line)
	if err := c.stmts(n.Final); err != nil {
		return err
	}
	if !c.unit.currentClosed() {
		c.unit.emitJump(line, op.Jump, end)
	}

	// Exception path: the unwinder pushed the exception.
	c.unit.useBlock(finallyB)
	c.unit.emit(line, op.PushExcInfo, 0)
	if err := c.stmts(n.Final); err != nil {
		return err
	}
	if !c.unit.currentClosed() {
		c.unit.emit(line, op.Reraise, op.ReraisePlain)
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) tryExcept(n *ast.Try) error {
	line := int32(n.Pos().Line)
	handlerB := c.unit.newBlock()
	end := c.unit.newBlock()

	c.unit.markSetup(line, handlerB, false)
	if err := c.stmts(n.Body); err != nil {
		return err
	}
	if c.unit.currentClosed() {
		c.unit.useBlock(c.unit.newBlock())
	}
	c.unit.markPop(line)
	// The else clause runs after a successful body, unprotected.
	if err := c.stmts(n.OrElse); err != nil {
		return err
	}
	if !c.unit.currentClosed() {
		c.unit.emitJump(line, op.Jump, end)
	}

	c.unit.useBlock(handlerB)
	c.unit.emit(line, op.PushExcInfo, 0)
	for _, h := range n.Handlers {
		hline := int32(h.Pos().Line)
		var next blockLabel = noBlock
		if h.Type != nil {
			next = c.unit.newBlock()
			if err := c.expr(h.Type); err != nil {
				return err
			}
			c.unit.emit(hline, op.CheckExcMatch, 0)
			c.unit.emitJump(hline, op.PopJumpIfFalse, next)
		}
		if h.Name != "" {
			if err := c.storeName(hline, h.Name, h.Pos()); err != nil {
				return err
			}
		} else {
			c.unit.emit(hline, op.PopTop, 0)
		}
		c.pushFblock(fblock{kind: fbHandler})
		err := c.stmts(h.Body)
		c.popFblock()
		if err != nil {
			return err
		}
		if !c.unit.currentClosed() {
			c.unit.emit(hline, op.PopExcInfo, 0)
			if h.Name != "" {
				// Unbind the name to break the frame/exception cycle.
				c.unit.emit(hline, op.LoadNone, 0)
				if err := c.storeName(hline, h.Name, h.Pos()); err != nil {
					return err
				}
				c.nameOp(hline, h.Name, accDelete)
			}
			c.unit.emitJump(hline, op.Jump, end)
		}
		if next != noBlock {
			c.unit.useBlock(next)
		}
	}
	// No handler matched: re-raise without a fresh traceback record.
	if !c.unit.currentClosed() {
		c.unit.emit(line, op.Reraise, op.ReraisePlain)
	}
	c.unit.useBlock(end)
	return nil
}

func (c *Compiler) compileAssert(n *ast.Assert) error {
	line := int32(n.Pos().Line)
	end := c.unit.newBlock()
	if err := c.compileJumpIf(n.Test, true, end); err != nil {
		return err
	}
	c.loadSynthetic(line, "AssertionError")
	c.unit.emit(line, op.PushNil, 0)
	argc := 0
	if n.Msg != nil {
		if err := c.expr(n.Msg); err != nil {
			return err
		}
		argc = 1
	}
	c.unit.emit(line, op.Call, argc)
	c.unit.emit(line, op.Raise, op.RaiseExc)
	c.unit.useBlock(end)
	return nil
}

// ----------------------------------------------------------------------------
// With

func (c *Compiler) compileWith(n *ast.With, index int) error {
	line := int32(n.Pos().Line)
	if n.IsAsync && !c.scope().IsAsync {
		return c.errf(errors.InvalidAwait, n.Pos(),
			"'async with' outside async function")
	}
	item := n.Items[index]
	if err := c.expr(item.ContextExpr); err != nil {
		return err
	}
	c.unit.emit(line, op.BeforeWith, 0)
	if n.IsAsync {
		c.unit.emit(line, op.GetAwaitable, 0)
		c.unit.emit(line, op.Yield, op.YieldDelegated)
	}
	if item.Var != nil {
		if err := c.storeTarget(item.Var); err != nil {
			return err
		}
	} else {
		c.unit.emit(line, op.PopTop, 0)
	}

	handlerB := c.unit.newBlock()
	end := c.unit.newBlock()
	c.unit.markSetup(line, handlerB, false)
	var err error
	if index+1 < len(n.Items) {
		err = c.compileWith(n, index+1)
	} else {
		err = c.stmts(n.Body)
	}
	if err != nil {
		return err
	}
	if c.unit.currentClosed() {
		c.unit.useBlock(c.unit.newBlock())
	}
	c.unit.markPop(line)

	// Normal exit: call exit(None, None, None) and discard the result.
	c.unit.emit(line, op.PushNil, 0)
	c.unit.emit(line, op.LoadNone, 0)
	c.unit.emit(line, op.LoadNone, 0)
	c.unit.emit(line, op.LoadNone, 0)
	c.unit.emit(line, op.Call, 3)
	if n.IsAsync {
		c.unit.emit(line, op.GetAwaitable, 0)
		c.unit.emit(line, op.Yield, op.YieldDelegated)
	}
	c.unit.emit(line, op.PopTop, 0)
	c.unit.emitJump(line, op.Jump, end)

	// Exception exit: the exit callable decides whether to suppress.
	c.unit.useBlock(handlerB)
	c.unit.emit(line, op.PushExcInfo, 0)
	c.unit.emit(line, op.WithExceptStart, 0)
	if n.IsAsync {
		c.unit.emit(line, op.GetAwaitable, 0)
		c.unit.emit(line, op.Yield, op.YieldDelegated)
	}
	suppress := c.unit.newBlock()
	c.unit.emitJump(line, op.PopJumpIfTrue, suppress)
	c.unit.emit(line, op.Reraise, op.ReraisePlain)
	c.unit.useBlock(suppress)
	c.unit.emit(line, op.PopTop, 0) // exception
	c.unit.emit(line, op.PopExcInfo, 0)
	c.unit.emit(line, op.PopTop, 0) // exit callable
	c.unit.useBlock(end)
	return nil
}

// ----------------------------------------------------------------------------
// Imports

func (c *Compiler) compileImport(n *ast.Import) error {
	line := int32(n.Pos().Line)
	for _, alias := range n.Names {
		c.unit.emit(line, op.LoadConst, c.unit.constant(int64(0)))
		c.unit.emit(line, op.LoadConst, c.unit.constant(nil))
		c.unit.emit(line, op.ImportName, c.unit.nameIndex(alias.Name))
		bind := alias.AsName
		if bind == "" {
			// `import a.b` binds "a" to the top-level module.
			if dot := strings.IndexByte(alias.Name, '.'); dot >= 0 {
				top := alias.Name[:dot]
				c.unit.emit(line, op.PopTop, 0)
				c.unit.emit(line, op.LoadConst, c.unit.constant(int64(0)))
				c.unit.emit(line, op.LoadConst, c.unit.constant(nil))
				c.unit.emit(line, op.ImportName, c.unit.nameIndex(top))
				bind = top
			} else {
				bind = alias.Name
			}
		}
		if err := c.storeName(line, bind, n.Pos()); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileImportFrom(n *ast.ImportFrom) error {
	line := int32(n.Pos().Line)
	if n.Module == "__future__" {
		return c.compileFutureImport(n)
	}
	names := make(bytecode.Tuple, len(n.Names))
	for i, alias := range n.Names {
		names[i] = alias.Name
	}
	c.unit.emit(line, op.LoadConst, c.unit.constant(int64(n.Level)))
	c.unit.emit(line, op.LoadConst, c.unit.constant(names))
	c.unit.emit(line, op.ImportName, c.unit.nameIndex(n.Module))
	for _, alias := range n.Names {
		if alias.Name == "*" {
			if c.scope().Type != symtab.ModuleScope {
				return c.err(errors.StarImportInFunction, n.Pos())
			}
			c.unit.emit(line, op.ImportStar, 0)
			return nil
		}
		c.unit.emit(line, op.ImportFrom, c.unit.nameIndex(alias.Name))
		bind := alias.AsName
		if bind == "" {
			bind = alias.Name
		}
		if err := c.storeName(line, bind, n.Pos()); err != nil {
			return err
		}
	}
	c.unit.emit(line, op.PopTop, 0)
	return nil
}

// compileFutureImport validates a __future__ import. Recognized features are
// compile-time only, so no code is emitted.
func (c *Compiler) compileFutureImport(n *ast.ImportFrom) error {
	if !c.futureAllowed {
		return c.err(errors.InvalidFuturePlacement, n.Pos())
	}
	for _, alias := range n.Names {
		if !knownFutureFeatures[alias.Name] {
			e := errors.Newf(errors.UnknownFutureFeature, c.loc(n.Pos()),
				"future feature %s is not defined", alias.Name)
			e.Suggestions = errors.SuggestSimilar(alias.Name, futureFeatureNames())
			return e
		}
	}
	return nil
}
