// Package vm executes compiled code objects on a frame-based stack machine.
//
// Each activation runs in a Frame holding its own value stack, fast locals,
// and cell array. Ordinary calls recurse through the Go call stack; generator
// and coroutine frames are heap-resident and resume across call boundaries.
// Guest failures travel as *object.Exception values through the exception
// table unwind path; structural faults (stack underflow, bad bytecode) panic.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/object"
	"github.com/cloudcmds/serpent/op"
)

// DefaultRecursionLimit bounds native recursion through nested calls.
const DefaultRecursionLimit = 1000

// ErrHalted is returned when an observer callback stops execution.
var ErrHalted = errors.New("vm: execution halted by observer")

// UncaughtError wraps a guest exception that escaped the outermost frame.
type UncaughtError struct {
	Exc *object.Exception
}

func (e *UncaughtError) Error() string {
	return e.Exc.FormatTraceback()
}

func (e *UncaughtError) Unwrap() error { return e.Exc }

// VirtualMachine executes code objects. A VirtualMachine is single-threaded:
// one Run or resume at a time.
type VirtualMachine struct {
	globals  map[string]object.Object
	builtins map[string]object.Object
	importer Importer
	stdout   io.Writer

	observer  Observer
	obsConfig ObserverConfig
	stepCount int
	lastLine  int

	// currentExc is the exception being handled, maintained by the
	// PushExcInfo/PopExcInfo pair. It seeds implicit exception context and
	// serves bare re-raise.
	currentExc *object.Exception

	depth          int
	recursionLimit int

	main *Frame
}

// New creates a VirtualMachine configured by the given options.
func New(opts ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		globals:        map[string]object.Object{},
		stdout:         os.Stdout,
		recursionLimit: DefaultRecursionLimit,
		importer:       NewModuleRegistry(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.builtins = vm.defaultBuiltins()
	return vm
}

// Globals returns the module-level namespace of the last Run.
func (vm *VirtualMachine) Globals() map[string]object.Object { return vm.globals }

// MainFrame returns the module frame of the last Run, for introspection.
func (vm *VirtualMachine) MainFrame() *Frame { return vm.main }

// Run executes a compiled module and returns the value of its final
// ReturnValue instruction. An uncaught guest exception is returned as
// *UncaughtError.
func (vm *VirtualMachine) Run(code *bytecode.Code) (object.Object, error) {
	if _, ok := vm.globals["__name__"]; !ok {
		vm.globals["__name__"] = object.NewString("__main__")
	}
	f := newFrame(code, nil, vm.globals, vm.globals)
	vm.main = f
	f.mu.Lock()
	defer f.mu.Unlock()
	value, done, err := vm.eval(f, nil, nil)
	if err != nil {
		if exc, ok := err.(*object.Exception); ok {
			return nil, &UncaughtError{Exc: exc}
		}
		return nil, err
	}
	if !done {
		panic("vm: module frame yielded")
	}
	return value, nil
}

// resumeFrame drives a frame until it yields, returns, or raises. sent is
// pushed as the value of the suspension-point yield expression; throw, if
// non-nil, is raised there instead.
func (vm *VirtualMachine) resumeFrame(f *Frame, sent object.Object, throw *object.Exception) (object.Object, bool, error) {
	if !f.mu.TryLock() {
		return nil, false, object.NewRuntimeError("frame is already executing")
	}
	defer f.mu.Unlock()
	switch f.state {
	case FrameReturned, FrameRaised:
		if throw != nil {
			return nil, false, throw
		}
		return object.None, true, nil
	case FrameRunning:
		return nil, false, object.NewRuntimeError("frame is already executing")
	}
	return vm.eval(f, sent, throw)
}

// eval is the interpreter loop. It returns (value, done, err): done false
// means the frame suspended at a yield and value is the yielded value.
func (vm *VirtualMachine) eval(f *Frame, sent object.Object, throw *object.Exception) (object.Object, bool, error) {
	units := f.code.Units

	// pending is the exception currently unwinding in this frame. fresh
	// raises record a traceback entry and pick up implicit context;
	// re-raises do neither.
	var pending *object.Exception
	fresh := true
	// opOffset is the offset of the faulting instruction for handler lookup.
	opOffset := 0

	if f.state == FrameSuspended {
		if delegate, ok := f.delegating(); ok {
			v, done, ret, err := vm.pullDelegate(delegate, sent, throw)
			switch {
			case err != nil:
				pending = object.AsException(err)
				opOffset = f.ip - 1
			case !done:
				return v, false, nil
			default:
				f.pop()
				f.push(ret)
			}
		} else if throw != nil {
			pending = throw
			opOffset = f.ip - 1
		} else {
			if sent == nil {
				sent = object.None
			}
			f.push(sent)
		}
	} else if throw != nil {
		pending = throw
		opOffset = 0
	}
	f.state = FrameRunning

	ext := 0
	for {
		if pending != nil {
			if fresh {
				if vm.currentExc != nil && vm.currentExc != pending {
					pending.SetContext(vm.currentExc)
				}
				pending.AddTraceback(f.code.Filename, f.code.LineFor(opOffset), f.functionName())
			}
			if h, ok := f.code.FindExceptionHandler(opOffset); ok {
				f.truncate(int(h.Depth))
				if h.PushOffset {
					f.push(object.NewInt(int64(opOffset)))
				}
				f.push(pending)
				f.ip = int(h.Target)
				pending = nil
				fresh = true
				ext = 0
				continue
			}
			f.state = FrameRaised
			return nil, true, pending
		}

		if f.ip >= len(units) {
			panic(fmt.Sprintf("vm: instruction pointer %d out of range in %s", f.ip, f.code.Name))
		}
		u := units[f.ip]
		opOffset = f.ip
		f.ip++

		if u.Op == op.ExtendedArg {
			ext = ext<<8 | int(u.Arg)
			continue
		}
		arg := ext<<8 | int(u.Arg)
		ext = 0

		if vm.observer != nil {
			if !vm.observeStep(f, opOffset, u.Op) {
				f.state = FrameRaised
				return nil, true, ErrHalted
			}
		}

		var err error
		reraise := false

		switch u.Op {
		case op.Nop:

		case op.PopTop:
			f.pop()
		case op.Copy:
			f.push(f.peek(arg - 1))
		case op.Swap:
			f.stack[f.sp-1], f.stack[f.sp-arg] = f.stack[f.sp-arg], f.stack[f.sp-1]
		case op.PushNil:
			f.push(nil)
		case op.LoadNone:
			f.push(object.None)

		case op.LoadConst:
			f.push(vm.constObject(f.code.Constants[arg]))
		case op.LoadFast:
			v := f.locals[arg]
			if v == nil {
				err = object.NewUnboundLocalError(
					"local variable '%s' referenced before assignment", f.code.VarNames[arg])
				break
			}
			f.push(v)
		case op.StoreFast:
			f.locals[arg] = f.popValue()
		case op.DeleteFast:
			if f.locals[arg] == nil {
				err = object.NewUnboundLocalError(
					"local variable '%s' referenced before assignment", f.code.VarNames[arg])
				break
			}
			f.locals[arg] = nil

		case op.LoadGlobal:
			name := f.code.Names[arg]
			v, ok := f.globals[name]
			if !ok {
				v, ok = vm.builtins[name]
			}
			if !ok {
				err = object.NewNameError("name '%s' is not defined", name)
				break
			}
			f.push(v)
		case op.StoreGlobal:
			f.globals[f.code.Names[arg]] = f.popValue()
		case op.DeleteGlobal:
			name := f.code.Names[arg]
			if _, ok := f.globals[name]; !ok {
				err = object.NewNameError("name '%s' is not defined", name)
				break
			}
			delete(f.globals, name)

		case op.LoadName:
			name := f.code.Names[arg]
			v, ok := f.names[name]
			if !ok {
				v, ok = f.globals[name]
			}
			if !ok {
				v, ok = vm.builtins[name]
			}
			if !ok {
				err = object.NewNameError("name '%s' is not defined", name)
				break
			}
			f.push(v)
		case op.StoreName:
			f.names[f.code.Names[arg]] = f.popValue()
		case op.DeleteName:
			name := f.code.Names[arg]
			if _, ok := f.names[name]; !ok {
				err = object.NewNameError("name '%s' is not defined", name)
				break
			}
			delete(f.names, name)

		case op.LoadDeref:
			v, ok := f.cells[arg].Get()
			if !ok {
				err = object.NewNameError(
					"free variable '%s' referenced before assignment", f.cellName(arg))
				break
			}
			f.push(v)
		case op.StoreDeref:
			f.cells[arg].Set(f.popValue())
		case op.DeleteDeref:
			if _, ok := f.cells[arg].Get(); !ok {
				err = object.NewNameError(
					"free variable '%s' referenced before assignment", f.cellName(arg))
				break
			}
			f.cells[arg].Clear()
		case op.LoadClosure:
			f.push(f.cells[arg])

		case op.LoadAttr:
			obj := f.popValue()
			v, ok := obj.GetAttr(f.code.Names[arg])
			if !ok {
				err = object.NewAttributeError(
					"'%s' object has no attribute '%s'", obj.Type(), f.code.Names[arg])
				break
			}
			f.push(v)
		case op.StoreAttr:
			obj := f.popValue()
			value := f.popValue()
			err = obj.SetAttr(f.code.Names[arg], value)
		case op.DeleteAttr:
			obj := f.popValue()
			err = deleteAttr(obj, f.code.Names[arg])
		case op.LoadMethod:
			obj := f.popValue()
			v, ok := obj.GetAttr(f.code.Names[arg])
			if !ok {
				err = object.NewAttributeError(
					"'%s' object has no attribute '%s'", obj.Type(), f.code.Names[arg])
				break
			}
			if bm, isBound := v.(*object.BoundMethod); isBound {
				f.push(bm.Function())
				f.push(bm.Receiver())
			} else {
				f.push(v)
				f.push(nil)
			}

		case op.BinaryOp:
			right := f.popValue()
			left := f.popValue()
			var v object.Object
			v, err = object.BinaryOp(op.BinaryOpType(arg), left, right)
			if err == nil {
				f.push(v)
			}
		case op.CompareOp:
			right := f.popValue()
			left := f.popValue()
			var v object.Object
			v, err = object.Compare(op.CompareOpType(arg), left, right)
			if err == nil {
				f.push(v)
			}
		case op.ContainsOp:
			container := f.popValue()
			item := f.popValue()
			found, cerr := object.Contains(container, item)
			if cerr != nil {
				err = cerr
				break
			}
			if arg == 1 {
				found = !found
			}
			f.push(object.NewBool(found))
		case op.IsOp:
			right := f.popValue()
			left := f.popValue()
			same := left == right
			if arg == 1 {
				same = !same
			}
			f.push(object.NewBool(same))
		case op.UnaryNot:
			f.push(object.NewBool(!f.popValue().IsTruthy()))
		case op.UnaryNegative, op.UnaryPositive, op.UnaryInvert:
			var v object.Object
			v, err = object.UnaryOp(u.Op, f.popValue())
			if err == nil {
				f.push(v)
			}

		case op.Jump:
			f.ip = arg
		case op.PopJumpIfFalse:
			if !f.popValue().IsTruthy() {
				f.ip = arg
			}
		case op.PopJumpIfTrue:
			if f.popValue().IsTruthy() {
				f.ip = arg
			}
		case op.PopJumpIfNone:
			if f.popValue() == object.Object(object.None) {
				f.ip = arg
			}
		case op.PopJumpIfNotNone:
			if f.popValue() != object.Object(object.None) {
				f.ip = arg
			}
		case op.JumpIfFalseOrPop:
			if !f.peek(0).IsTruthy() {
				f.ip = arg
			} else {
				f.pop()
			}
		case op.JumpIfTrueOrPop:
			if f.peek(0).IsTruthy() {
				f.ip = arg
			} else {
				f.pop()
			}

		case op.BuildTuple:
			f.push(object.NewTuple(f.popN(arg)))
		case op.BuildList:
			f.push(object.NewList(f.popN(arg)))
		case op.BuildSet:
			items := f.popN(arg)
			s := object.NewSet()
			for _, item := range items {
				if err = s.Add(item); err != nil {
					break
				}
			}
			if err == nil {
				f.push(s)
			}
		case op.BuildMap:
			items := f.popN(arg * 2)
			d := object.NewDict()
			for i := 0; i < len(items); i += 2 {
				if err = d.Set(items[i], items[i+1]); err != nil {
					break
				}
			}
			if err == nil {
				f.push(d)
			}
		case op.BuildString:
			parts := f.popN(arg)
			var b strings.Builder
			for _, p := range parts {
				b.WriteString(object.AsString(p))
			}
			f.push(object.NewString(b.String()))
		case op.BuildSlice:
			step := object.Object(object.None)
			if arg == 3 {
				step = f.popValue()
			}
			stop := f.popValue()
			start := f.popValue()
			f.push(object.NewSlice(start, stop, step))

		case op.ListAppend:
			v := f.popValue()
			f.peek(arg - 1).(*object.List).Append(v)
		case op.SetAdd:
			v := f.popValue()
			err = f.peek(arg - 1).(*object.Set).Add(v)
		case op.MapAdd:
			v := f.popValue()
			k := f.popValue()
			err = f.peek(arg - 1).(*object.Dict).Set(k, v)
		case op.ListExtend:
			iterable := f.popValue()
			items, cerr := object.Collect(iterable)
			if cerr != nil {
				err = cerr
				break
			}
			f.peek(arg - 1).(*object.List).Extend(items)
		case op.SetUpdate:
			iterable := f.popValue()
			err = f.peek(arg - 1).(*object.Set).Update(iterable)
		case op.DictMerge:
			operand := f.popValue()
			src, ok := operand.(*object.Dict)
			if !ok {
				err = object.NewTypeError("argument must be a mapping, not %s", operand.Type())
				break
			}
			err = f.peek(arg - 1).(*object.Dict).Merge(src)
		case op.ListToTuple:
			list := f.popValue().(*object.List)
			f.push(object.NewTuple(append([]object.Object(nil), list.Items()...)))

		case op.BinarySubscr:
			index := f.popValue()
			container := f.popValue()
			var v object.Object
			v, err = object.GetItem(container, index)
			if err == nil {
				f.push(v)
			}
		case op.StoreSubscr:
			index := f.popValue()
			container := f.popValue()
			value := f.popValue()
			err = object.SetItem(container, index, value)
		case op.DeleteSubscr:
			index := f.popValue()
			container := f.popValue()
			err = object.DelItem(container, index)

		case op.UnpackSequence:
			items, uerr := object.Collect(f.popValue())
			if uerr != nil {
				err = uerr
				break
			}
			switch {
			case len(items) < arg:
				err = object.NewValueError(
					"not enough values to unpack (expected %d, got %d)", arg, len(items))
			case len(items) > arg:
				err = object.NewValueError("too many values to unpack (expected %d)", arg)
			default:
				for i := len(items) - 1; i >= 0; i-- {
					f.push(items[i])
				}
			}
		case op.UnpackEx:
			before := arg & 0xff
			after := arg >> 8
			items, uerr := object.Collect(f.popValue())
			if uerr != nil {
				err = uerr
				break
			}
			if len(items) < before+after {
				err = object.NewValueError(
					"not enough values to unpack (expected at least %d, got %d)",
					before+after, len(items))
				break
			}
			for i := len(items) - 1; i >= len(items)-after; i-- {
				f.push(items[i])
			}
			star := items[before : len(items)-after]
			f.push(object.NewList(append([]object.Object(nil), star...)))
			for i := before - 1; i >= 0; i-- {
				f.push(items[i])
			}

		case op.GetIter:
			obj := f.popValue()
			if g, ok := obj.(*Generator); ok {
				if g.IsCoroutine() {
					err = object.NewTypeError("'coroutine' object is not iterable")
					break
				}
				f.push(g)
				break
			}
			var it object.Iterator
			it, err = object.GetIter(obj)
			if err == nil {
				f.push(it)
			}
		case op.ForIter:
			v, ok, ferr := vm.iterNext(f.peek(0))
			if ferr != nil {
				err = ferr
				break
			}
			if !ok {
				f.pop()
				f.ip = arg
			} else {
				f.push(v)
			}

		case op.Call:
			args := f.popN(arg)
			recv := f.pop()
			callable := f.pop()
			if recv != nil {
				args = append([]object.Object{recv}, args...)
			}
			var v object.Object
			v, err = vm.callObject(callable, args, nil)
			if err == nil {
				f.push(v)
			}
		case op.CallKw:
			names := f.popValue().(*object.Tuple)
			values := f.popN(arg)
			recv := f.pop()
			callable := f.pop()
			nkw := len(names.Items())
			kwargs := make(map[string]object.Object, nkw)
			for i, nameObj := range names.Items() {
				kwargs[nameObj.(*object.String).Value()] = values[len(values)-nkw+i]
			}
			args := values[:len(values)-nkw]
			if recv != nil {
				args = append([]object.Object{recv}, args...)
			}
			var v object.Object
			v, err = vm.callObject(callable, args, kwargs)
			if err == nil {
				f.push(v)
			}
		case op.CallEx:
			var kwargs map[string]object.Object
			if arg&1 != 0 {
				kwDict := f.popValue().(*object.Dict)
				kwargs = make(map[string]object.Object, kwDict.Len())
				for _, k := range kwDict.Keys() {
					s, ok := k.(*object.String)
					if !ok {
						err = object.NewTypeError("keywords must be strings")
						break
					}
					v, _ := kwDict.Lookup(k)
					kwargs[s.Value()] = v
				}
				if err != nil {
					break
				}
			}
			posTuple := f.popValue().(*object.Tuple)
			recv := f.pop()
			callable := f.pop()
			args := append([]object.Object(nil), posTuple.Items()...)
			if recv != nil {
				args = append([]object.Object{recv}, args...)
			}
			var v object.Object
			v, err = vm.callObject(callable, args, kwargs)
			if err == nil {
				f.push(v)
			}
		case op.ReturnValue:
			v := f.popValue()
			f.state = FrameReturned
			return v, true, nil

		case op.MakeFunction:
			code := f.popValue().(*object.Code)
			fn := object.NewFunction(code.Value(), f.globals)
			if arg&4 != 0 {
				cellTuple := f.popValue().(*object.Tuple)
				cells := make([]*object.Cell, len(cellTuple.Items()))
				for i, c := range cellTuple.Items() {
					cells[i] = c.(*object.Cell)
				}
				fn.SetClosure(cells)
			}
			if arg&2 != 0 {
				kwDict := f.popValue().(*object.Dict)
				kwDefaults := make(map[string]object.Object, kwDict.Len())
				for _, k := range kwDict.Keys() {
					v, _ := kwDict.Lookup(k)
					kwDefaults[k.(*object.String).Value()] = v
				}
				fn.SetKwDefaults(kwDefaults)
			}
			if arg&1 != 0 {
				defaults := f.popValue().(*object.Tuple)
				fn.SetDefaults(append([]object.Object(nil), defaults.Items()...))
			}
			f.push(fn)
		case op.LoadBuildClass:
			f.push(vm.builtins["__build_class__"])

		case op.SetupExcept, op.PopBlock:
			panic("vm: pseudo instruction reached the interpreter")

		case op.Raise:
			switch arg {
			case op.RaiseBare:
				if vm.currentExc == nil {
					err = object.NewRuntimeError("No active exception to re-raise")
					break
				}
				err = vm.currentExc
				reraise = true
			case op.RaiseExc:
				var exc *object.Exception
				exc, err = excFromOperand(f.popValue())
				if err == nil {
					err = exc
				}
			case op.RaiseCause:
				causeOperand := f.popValue()
				excOperand := f.popValue()
				var exc *object.Exception
				exc, err = excFromOperand(excOperand)
				if err != nil {
					break
				}
				if causeOperand != object.Object(object.None) {
					var cause *object.Exception
					cause, err = excFromOperand(causeOperand)
					if err != nil {
						break
					}
					exc.SetCause(cause)
				}
				err = exc
			}
		case op.Reraise:
			if arg == op.ReraiseWithOffset {
				exc := f.popValue().(*object.Exception)
				offset := f.popValue().(*object.Int)
				opOffset = int(offset.Value())
				err = exc
				reraise = true
				break
			}
			err = f.popValue().(*object.Exception)
			reraise = true

		case op.PushExcInfo:
			exc := f.popValue().(*object.Exception)
			if vm.currentExc != nil {
				f.push(vm.currentExc)
			} else {
				f.push(object.None)
			}
			f.push(exc)
			vm.currentExc = exc
		case op.PopExcInfo:
			prev := f.popValue()
			if prev == object.Object(object.None) {
				vm.currentExc = nil
			} else {
				vm.currentExc = prev.(*object.Exception)
			}
		case op.CheckExcMatch:
			classOperand := f.popValue()
			exc := f.peek(0).(*object.Exception)
			var match bool
			match, err = excMatches(exc, classOperand)
			if err == nil {
				f.push(object.NewBool(match))
			}

		case op.BeforeWith:
			cm := f.popValue()
			exit, enter, werr := contextMethods(cm)
			if werr != nil {
				err = werr
				break
			}
			f.push(exit)
			var entered object.Object
			entered, err = vm.callObject(enter, nil, nil)
			if err == nil {
				f.push(entered)
			}
		case op.WithExceptStart:
			exc := f.peek(0).(*object.Exception)
			exit := f.peek(2)
			var v object.Object
			v, err = vm.callObject(exit, []object.Object{exc.Class(), exc, object.None}, nil)
			if err == nil {
				f.push(v)
			}

		case op.Yield:
			if arg == op.YieldDelegated {
				v, done, ret, derr := vm.pullDelegate(f.peek(0), object.None, nil)
				switch {
				case derr != nil:
					err = derr
				case !done:
					f.state = FrameSuspended
					return v, false, nil
				default:
					f.pop()
					f.push(ret)
				}
				break
			}
			v := f.popValue()
			f.state = FrameSuspended
			return v, false, nil
		case op.GetAwaitable:
			obj := f.peek(0)
			g, ok := obj.(*Generator)
			if !ok || !g.IsCoroutine() {
				err = object.NewTypeError(
					"object %s can't be used in 'await' expression", obj.Type())
			}

		case op.MatchSequence:
			_, isList := f.peek(0).(*object.List)
			_, isTuple := f.peek(0).(*object.Tuple)
			f.push(object.NewBool(isList || isTuple))
		case op.MatchMapping:
			_, isDict := f.peek(0).(*object.Dict)
			f.push(object.NewBool(isDict))
		case op.MatchKeys:
			keys := f.peek(0).(*object.Tuple)
			subject := f.peek(1).(*object.Dict)
			values := make([]object.Object, 0, len(keys.Items()))
			matched := true
			for _, k := range keys.Items() {
				v, ok := subject.Lookup(k)
				if !ok {
					matched = false
					break
				}
				values = append(values, v)
			}
			if matched {
				f.push(object.NewTuple(values))
			} else {
				f.push(object.None)
			}
		case op.MatchClass:
			kwNames := f.popValue().(*object.Tuple)
			class, isClass := f.popValue().(*object.Class)
			subject := f.popValue()
			if !isClass {
				err = object.NewTypeError("called match pattern must be a type")
				break
			}
			f.push(matchClass(subject, class, arg, kwNames))

		case op.ImportName:
			name := f.code.Names[arg]
			f.popValue() // fromlist
			f.popValue() // level
			var mod *object.Module
			mod, err = vm.importer.Import(name)
			if err == nil {
				f.push(mod)
			}
		case op.ImportFrom:
			mod := f.peek(0).(*object.Module)
			name := f.code.Names[arg]
			v, ok := mod.GetAttr(name)
			if !ok {
				err = object.NewImportError(
					"cannot import name '%s' from '%s'", name, mod.Name())
				break
			}
			f.push(v)
		case op.ImportStar:
			mod := f.popValue().(*object.Module)
			for name, v := range mod.Globals() {
				if !strings.HasPrefix(name, "_") {
					f.names[name] = v
				}
			}

		case op.SetupAnnotations:
			if _, ok := f.names["__annotations__"]; !ok {
				f.names["__annotations__"] = object.NewDict()
			}

		case op.Send, op.CleanupThrow:
			panic(fmt.Sprintf("vm: unsupported opcode %s", op.GetInfo(u.Op).Name))
		default:
			panic(fmt.Sprintf("vm: invalid opcode %d at offset %d in %s", u.Op, opOffset, f.code.Name))
		}

		if err != nil {
			if errors.Is(err, ErrHalted) {
				f.state = FrameRaised
				return nil, true, err
			}
			pending = object.AsException(err)
			fresh = !reraise
		}
	}
}

// delegating reports whether a suspended frame is paused inside a
// delegation: the previous unit is a delegated Yield and the delegate is on
// top of the stack.
func (f *Frame) delegating() (object.Object, bool) {
	if f.ip == 0 || f.sp == 0 {
		return nil, false
	}
	prev := f.code.Units[f.ip-1]
	if prev.Op == op.Yield && prev.Arg == op.YieldDelegated {
		return f.peek(0), true
	}
	return nil, false
}

// pullDelegate advances a yield-from/await delegate. done false means the
// delegate yielded val; done true means it finished and ret is the result
// pushed as the value of the delegation expression.
func (vm *VirtualMachine) pullDelegate(delegate, sent object.Object, throw *object.Exception) (val object.Object, done bool, ret object.Object, err error) {
	if g, ok := delegate.(*Generator); ok {
		var v object.Object
		var fin bool
		if throw != nil {
			v, fin, err = g.Throw(throw)
		} else {
			v, fin, err = g.Resume(sent)
		}
		if err != nil {
			return nil, false, nil, err
		}
		if fin {
			return nil, true, v, nil
		}
		return v, false, nil, nil
	}
	if throw != nil {
		// Plain iterators have no throw method; raise locally.
		return nil, false, nil, throw
	}
	it, ok := delegate.(object.Iterator)
	if !ok {
		panic("vm: delegation target is not iterable")
	}
	v, more := it.Next()
	if !more {
		return nil, true, object.None, nil
	}
	return v, false, nil, nil
}

// iterNext pulls the next value from an iterator on the stack, routing
// generator resumption through the interpreter.
func (vm *VirtualMachine) iterNext(obj object.Object) (object.Object, bool, error) {
	if g, ok := obj.(*Generator); ok {
		v, done, err := g.Resume(object.None)
		if err != nil {
			return nil, false, err
		}
		if done {
			return nil, false, nil
		}
		return v, true, nil
	}
	it, ok := obj.(object.Iterator)
	if !ok {
		panic("vm: ForIter operand is not an iterator")
	}
	v, more := it.Next()
	return v, more, nil
}

// callObject dispatches a call to any callable object.
func (vm *VirtualMachine) callObject(callable object.Object, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	switch c := callable.(type) {
	case *object.Builtin:
		return c.Call(args, kwargs)
	case *object.Function:
		return vm.callFunction(c, args, kwargs)
	case *object.BoundMethod:
		return vm.callFunction(c.Function(), append([]object.Object{c.Receiver()}, args...), kwargs)
	case *object.Class:
		return vm.instantiate(c, args, kwargs)
	case *object.Instance:
		if call, ok := c.GetAttr("__call__"); ok {
			return vm.callObject(call, args, kwargs)
		}
	case nil:
		panic("vm: call through nil stack slot")
	}
	return nil, object.NewTypeError("'%s' object is not callable", callable.Type())
}

// callFunction binds arguments into a fresh frame and runs it, or returns a
// generator/coroutine without running when the code is marked as such.
func (vm *VirtualMachine) callFunction(fn *object.Function, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if vm.depth >= vm.recursionLimit {
		return nil, object.NewRecursionError("maximum recursion depth exceeded")
	}
	code := fn.Code()
	f := newFrame(code, fn, fn.Globals(), nil)
	if err := bindArgs(fn, f, args, kwargs); err != nil {
		return nil, err
	}
	f.initCells(fn.Closure())

	if code.IsGenerator() || code.IsCoroutine() {
		return newGenerator(vm, f), nil
	}

	if vm.observer != nil && vm.obsConfig.ObserveCalls {
		if !vm.observer.OnCall(CallEvent{FunctionName: fn.Name(), Depth: vm.depth + 1}) {
			return nil, ErrHalted
		}
	}
	vm.depth++
	f.mu.Lock()
	value, done, err := vm.eval(f, nil, nil)
	f.mu.Unlock()
	vm.depth--
	if err != nil {
		return nil, err
	}
	if !done {
		panic("vm: non-generator frame yielded")
	}
	if vm.observer != nil && vm.obsConfig.ObserveReturns {
		if !vm.observer.OnReturn(ReturnEvent{FunctionName: fn.Name(), Depth: vm.depth + 1}) {
			return nil, ErrHalted
		}
	}
	return value, nil
}

// instantiate creates an instance of a class. Exception classes produce
// exception values directly; other classes run __init__ when defined.
func (vm *VirtualMachine) instantiate(class *object.Class, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if class.IsExceptionClass() {
		return object.NewException(class, args...), nil
	}
	inst := object.NewInstance(class)
	if init, ok := class.Resolve("__init__"); ok {
		initFn, isFn := init.(*object.Function)
		if !isFn {
			return nil, object.NewTypeError("__init__ must be a function")
		}
		if _, err := vm.callFunction(initFn, append([]object.Object{inst}, args...), kwargs); err != nil {
			return nil, err
		}
	} else if len(args) > 0 || len(kwargs) > 0 {
		return nil, object.NewTypeError("%s() takes no arguments", class.Name())
	}
	return inst, nil
}

// bindArgs fills a frame's fast locals from call arguments, applying
// defaults, keyword-only defaults, *args, and **kwargs.
func bindArgs(fn *object.Function, f *Frame, args []object.Object, kwargs map[string]object.Object) error {
	code := fn.Code()
	name := fn.Name()
	nPos := code.ArgCount
	nKwOnly := code.KwOnlyArgCount

	varArgsIdx, kwArgsIdx := -1, -1
	idx := nPos + nKwOnly
	if code.Flags&bytecode.FlagVarArgs != 0 {
		varArgsIdx = idx
		idx++
	}
	if code.Flags&bytecode.FlagVarKeywords != 0 {
		kwArgsIdx = idx
	}

	n := len(args)
	if n > nPos {
		if varArgsIdx < 0 {
			return object.NewTypeError(
				"%s() takes %d positional arguments but %d were given", name, nPos, len(args))
		}
		n = nPos
	}
	for i := 0; i < n; i++ {
		f.locals[i] = args[i]
	}
	if varArgsIdx >= 0 {
		f.locals[varArgsIdx] = object.NewTuple(append([]object.Object(nil), args[n:]...))
	}

	var extra *object.Dict
	if kwArgsIdx >= 0 {
		extra = object.NewDict()
	}
	for kwName, v := range kwargs {
		slot := -1
		for i := code.PosOnlyArgCount; i < nPos+nKwOnly; i++ {
			if code.VarNames[i] == kwName {
				slot = i
				break
			}
		}
		switch {
		case slot >= 0:
			if f.locals[slot] != nil {
				return object.NewTypeError(
					"%s() got multiple values for argument '%s'", name, kwName)
			}
			f.locals[slot] = v
		case extra != nil:
			if err := extra.Set(object.NewString(kwName), v); err != nil {
				return err
			}
		default:
			return object.NewTypeError(
				"%s() got an unexpected keyword argument '%s'", name, kwName)
		}
	}
	if kwArgsIdx >= 0 {
		f.locals[kwArgsIdx] = extra
	}

	defaults := fn.Defaults()
	firstDefault := nPos - len(defaults)
	for i := 0; i < nPos; i++ {
		if f.locals[i] != nil {
			continue
		}
		if i >= firstDefault {
			f.locals[i] = defaults[i-firstDefault]
			continue
		}
		return object.NewTypeError(
			"%s() missing required positional argument: '%s'", name, code.VarNames[i])
	}
	kwDefaults := fn.KwDefaults()
	for i := nPos; i < nPos+nKwOnly; i++ {
		if f.locals[i] != nil {
			continue
		}
		if d, ok := kwDefaults[code.VarNames[i]]; ok {
			f.locals[i] = d
			continue
		}
		return object.NewTypeError(
			"%s() missing required keyword-only argument: '%s'", name, code.VarNames[i])
	}
	return nil
}

// constObject converts a constant-pool value into a runtime object.
func (vm *VirtualMachine) constObject(c any) object.Object {
	switch v := c.(type) {
	case nil:
		return object.None
	case bool:
		return object.NewBool(v)
	case int64:
		return object.NewInt(v)
	case float64:
		return object.NewFloat(v)
	case complex128:
		return object.NewComplex(v)
	case string:
		return object.NewString(v)
	case []byte:
		return object.NewBytes(v)
	case bytecode.Ellipsis:
		return object.Ellipsis
	case bytecode.Tuple:
		items := make([]object.Object, len(v))
		for i, elt := range v {
			items[i] = vm.constObject(elt)
		}
		return object.NewTuple(items)
	case *bytecode.Code:
		return object.NewCode(v)
	}
	panic(fmt.Sprintf("vm: invalid constant %T", c))
}

// excMatches implements the except-clause guard test. The operand must be
// an exception class or a tuple of exception classes.
func excMatches(exc *object.Exception, operand object.Object) (bool, error) {
	switch o := operand.(type) {
	case *object.Class:
		if !o.IsExceptionClass() {
			return false, object.NewTypeError(
				"catching classes that do not inherit from BaseException is not allowed")
		}
		return exc.IsInstanceOf(o), nil
	case *object.Tuple:
		for _, item := range o.Items() {
			match, err := excMatches(exc, item)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
		return false, nil
	}
	return false, object.NewTypeError(
		"catching classes that do not inherit from BaseException is not allowed")
}

// contextMethods resolves the exit and enter callables of a context
// manager, preferring the synchronous protocol.
func contextMethods(cm object.Object) (exit, enter object.Object, err error) {
	exit, ok := cm.GetAttr("__exit__")
	if !ok {
		exit, ok = cm.GetAttr("__aexit__")
	}
	if !ok {
		return nil, nil, object.NewTypeError(
			"'%s' object does not support the context manager protocol", cm.Type())
	}
	enter, ok = cm.GetAttr("__enter__")
	if !ok {
		enter, ok = cm.GetAttr("__aenter__")
	}
	if !ok {
		return nil, nil, object.NewTypeError(
			"'%s' object does not support the context manager protocol", cm.Type())
	}
	return exit, enter, nil
}

// deleteAttr removes an instance or module attribute.
func deleteAttr(obj object.Object, name string) error {
	switch o := obj.(type) {
	case *object.Instance:
		if err := o.Attrs().Delete(object.NewString(name)); err != nil {
			return object.NewAttributeError("'%s' object has no attribute '%s'", o.Type(), name)
		}
		return nil
	case *object.Module:
		if _, ok := o.Globals()[name]; !ok {
			return object.NewAttributeError("module '%s' has no attribute '%s'", o.Name(), name)
		}
		delete(o.Globals(), name)
		return nil
	}
	return object.NewTypeError("cannot delete attributes of '%s' objects", obj.Type())
}

// matchClass tests a subject against a class pattern, extracting argCount
// positional attributes named by the class's __match_args__ plus any
// keyword attributes. A failed match pushes None rather than raising.
func matchClass(subject object.Object, class *object.Class, argCount int, kwNames *object.Tuple) object.Object {
	inst, ok := subject.(*object.Instance)
	if !ok || !inst.Class().IsSubclassOf(class) {
		return object.None
	}
	var out []object.Object
	if argCount > 0 {
		matchArgs, ok := class.Resolve("__match_args__")
		if !ok {
			return object.None
		}
		namesTuple, ok := matchArgs.(*object.Tuple)
		if !ok || len(namesTuple.Items()) < argCount {
			return object.None
		}
		for i := 0; i < argCount; i++ {
			name, ok := namesTuple.Items()[i].(*object.String)
			if !ok {
				return object.None
			}
			v, ok := inst.GetAttr(name.Value())
			if !ok {
				return object.None
			}
			out = append(out, v)
		}
	}
	for _, kw := range kwNames.Items() {
		name, ok := kw.(*object.String)
		if !ok {
			return object.None
		}
		v, ok := inst.GetAttr(name.Value())
		if !ok {
			return object.None
		}
		out = append(out, v)
	}
	return object.NewTuple(out)
}

// observeStep fires the per-instruction observer callback per its config.
func (vm *VirtualMachine) observeStep(f *Frame, ip int, opcode op.Code) bool {
	switch vm.obsConfig.StepMode {
	case StepNone:
		return true
	case StepSampled:
		vm.stepCount++
		if vm.stepCount%vm.obsConfig.SampleInterval != 0 {
			return true
		}
	case StepOnLine:
		line := f.code.LineFor(ip)
		if line == vm.lastLine {
			return true
		}
		vm.lastLine = line
	}
	return vm.observer.OnStep(StepEvent{
		IP:         ip,
		Opcode:     opcode,
		OpcodeName: op.GetInfo(opcode).Name,
		Line:       f.code.LineFor(ip),
		StackDepth: f.sp,
		FrameDepth: vm.depth,
	})
}
