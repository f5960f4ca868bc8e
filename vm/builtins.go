package vm

import (
	"fmt"
	"sort"

	"github.com/cloudcmds/serpent/object"
)

// defaultBuiltins builds the builtin namespace. Functions that need to run
// guest code close over the machine.
func (vm *VirtualMachine) defaultBuiltins() map[string]object.Object {
	b := map[string]object.Object{
		"None":           object.None,
		"True":           object.True,
		"False":          object.False,
		"Ellipsis":       object.Ellipsis,
		"NotImplemented": object.NotImplemented,

		"len":   object.NewBuiltin("len", builtinLen),
		"range": object.NewBuiltin("range", builtinRange),
		"repr":  object.NewBuiltin("repr", builtinRepr),
		"str":   object.NewBuiltin("str", builtinStr),
		"bool":  object.NewBuiltin("bool", builtinBool),
		"abs":   object.NewBuiltin("abs", builtinAbs),
		"hash":  object.NewBuiltin("hash", builtinHash),

		"print":           object.NewBuiltin("print", vm.builtinPrint),
		"iter":            object.NewBuiltin("iter", vm.builtinIter),
		"next":            object.NewBuiltin("next", vm.builtinNext),
		"isinstance":      object.NewBuiltin("isinstance", builtinIsinstance),
		"issubclass":      object.NewBuiltin("issubclass", builtinIssubclass),
		"__build_class__": object.NewBuiltin("__build_class__", vm.buildClass),
	}
	for name, class := range object.ExceptionClasses {
		b[name] = class
	}
	return b
}

func builtinLen(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewTypeError("len() takes exactly one argument (%d given)", len(args))
	}
	n, err := object.Len(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewInt(n), nil
}

func builtinRange(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	vals := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(*object.Int)
		if !ok {
			return nil, object.NewTypeError(
				"'%s' object cannot be interpreted as an integer", a.Type())
		}
		vals[i] = n.Value()
	}
	switch len(args) {
	case 1:
		return object.NewRange(0, vals[0], 1)
	case 2:
		return object.NewRange(vals[0], vals[1], 1)
	case 3:
		return object.NewRange(vals[0], vals[1], vals[2])
	}
	return nil, object.NewTypeError("range expected 1 to 3 arguments, got %d", len(args))
}

func builtinRepr(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewTypeError("repr() takes exactly one argument (%d given)", len(args))
	}
	return object.NewString(args[0].Inspect()), nil
}

func builtinStr(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	switch len(args) {
	case 0:
		return object.NewString(""), nil
	case 1:
		return object.NewString(object.AsString(args[0])), nil
	}
	return nil, object.NewTypeError("str() takes at most 1 argument (%d given)", len(args))
}

func builtinBool(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	switch len(args) {
	case 0:
		return object.False, nil
	case 1:
		return object.NewBool(args[0].IsTruthy()), nil
	}
	return nil, object.NewTypeError("bool() takes at most 1 argument (%d given)", len(args))
}

func builtinAbs(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewTypeError("abs() takes exactly one argument (%d given)", len(args))
	}
	switch v := args[0].(type) {
	case *object.Int:
		if v.Value() < 0 {
			return object.NewInt(-v.Value()), nil
		}
		return v, nil
	case *object.Bool:
		if v.Value() {
			return object.NewInt(1), nil
		}
		return object.NewInt(0), nil
	case *object.Float:
		if v.Value() < 0 {
			return object.NewFloat(-v.Value()), nil
		}
		return v, nil
	}
	return nil, object.NewTypeError("bad operand type for abs(): '%s'", args[0].Type())
}

func builtinHash(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewTypeError("hash() takes exactly one argument (%d given)", len(args))
	}
	key, err := object.Hash(args[0])
	if err != nil {
		return nil, err
	}
	return object.NewInt(key.Int), nil
}

func (vm *VirtualMachine) builtinPrint(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	sep := " "
	end := "\n"
	if v, ok := kwargs["sep"]; ok {
		s, ok := v.(*object.String)
		if !ok {
			return nil, object.NewTypeError("sep must be None or a string, not %s", v.Type())
		}
		sep = s.Value()
	}
	if v, ok := kwargs["end"]; ok {
		s, ok := v.(*object.String)
		if !ok {
			return nil, object.NewTypeError("end must be None or a string, not %s", v.Type())
		}
		end = s.Value()
	}
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(vm.stdout, sep)
		}
		fmt.Fprint(vm.stdout, object.AsString(a))
	}
	fmt.Fprint(vm.stdout, end)
	return object.None, nil
}

func (vm *VirtualMachine) builtinIter(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, object.NewTypeError("iter() takes exactly one argument (%d given)", len(args))
	}
	if g, ok := args[0].(*Generator); ok {
		if g.IsCoroutine() {
			return nil, object.NewTypeError("'coroutine' object is not iterable")
		}
		return g, nil
	}
	it, err := object.GetIter(args[0])
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (vm *VirtualMachine) builtinNext(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, object.NewTypeError("next expected at least 1 argument, got %d", len(args))
	}
	v, ok, err := vm.iterNext(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, object.NewStopIteration()
	}
	return v, nil
}

func builtinIsinstance(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, object.NewTypeError("isinstance expected 2 arguments, got %d", len(args))
	}
	ok, err := isInstance(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return object.NewBool(ok), nil
}

func isInstance(obj, classinfo object.Object) (bool, error) {
	switch c := classinfo.(type) {
	case *object.Class:
		switch o := obj.(type) {
		case *object.Instance:
			return o.Class().IsSubclassOf(c), nil
		case *object.Exception:
			return o.IsInstanceOf(c), nil
		}
		return false, nil
	case *object.Tuple:
		for _, item := range c.Items() {
			ok, err := isInstance(obj, item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, object.NewTypeError(
		"isinstance() arg 2 must be a type or tuple of types")
}

func builtinIssubclass(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) != 2 {
		return nil, object.NewTypeError("issubclass expected 2 arguments, got %d", len(args))
	}
	sub, ok := args[0].(*object.Class)
	if !ok {
		return nil, object.NewTypeError("issubclass() arg 1 must be a class")
	}
	switch c := args[1].(type) {
	case *object.Class:
		return object.NewBool(sub.IsSubclassOf(c)), nil
	case *object.Tuple:
		for _, item := range c.Items() {
			parent, ok := item.(*object.Class)
			if !ok {
				return nil, object.NewTypeError(
					"issubclass() arg 2 must be a class or tuple of classes")
			}
			if sub.IsSubclassOf(parent) {
				return object.True, nil
			}
		}
		return object.False, nil
	}
	return nil, object.NewTypeError("issubclass() arg 2 must be a class or tuple of classes")
}

// buildClass runs a class body in a fresh namespace and assembles the class
// from what it defines. Called by the LoadBuildClass protocol with the body
// function, the class name, and any base classes.
func (vm *VirtualMachine) buildClass(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if len(args) < 2 {
		return nil, object.NewTypeError("__build_class__: not enough arguments")
	}
	bodyFn, ok := args[0].(*object.Function)
	if !ok {
		return nil, object.NewTypeError("__build_class__: func must be a function")
	}
	nameObj, ok := args[1].(*object.String)
	if !ok {
		return nil, object.NewTypeError("__build_class__: name is not a string")
	}
	bases := make([]*object.Class, 0, len(args)-2)
	for _, base := range args[2:] {
		b, ok := base.(*object.Class)
		if !ok {
			return nil, object.NewTypeError("base must be a class, not '%s'", base.Type())
		}
		bases = append(bases, b)
	}

	ns := map[string]object.Object{}
	f := newFrame(bodyFn.Code(), bodyFn, bodyFn.Globals(), ns)
	f.initCells(bodyFn.Closure())
	if vm.depth >= vm.recursionLimit {
		return nil, object.NewRecursionError("maximum recursion depth exceeded")
	}
	vm.depth++
	f.mu.Lock()
	_, _, err := vm.eval(f, nil, nil)
	f.mu.Unlock()
	vm.depth--
	if err != nil {
		return nil, err
	}

	dict := object.NewDict()
	for _, name := range sortedKeys(ns) {
		if err := dict.Set(object.NewString(name), ns[name]); err != nil {
			return nil, err
		}
	}
	class := object.NewClass(nameObj.Value(), bases, dict)
	// Methods that reference the class implicitly captured its cell while
	// the body ran; it becomes bound only now.
	for i, name := range bodyFn.Code().CellVars {
		if name == "__class__" {
			f.cells[i].Set(class)
		}
	}
	return class, nil
}

func sortedKeys(m map[string]object.Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
