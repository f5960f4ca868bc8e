package vm

import (
	"fmt"

	"github.com/cloudcmds/serpent/object"
)

// Generator owns a suspended frame. The same type backs coroutines; the
// distinction is the code flag, which changes how the value may be consumed
// (iterated versus awaited).
type Generator struct {
	frame *Frame
	vm    *VirtualMachine
	name  string

	// err remembers a failure surfaced through the error-less Iterator
	// interface, so hosts iterating directly can retrieve it.
	err error
}

func newGenerator(vm *VirtualMachine, frame *Frame) *Generator {
	return &Generator{vm: vm, frame: frame, name: frame.code.Name}
}

// Name returns the name of the generator's function.
func (g *Generator) Name() string { return g.name }

// Frame exposes the underlying frame for introspection.
func (g *Generator) Frame() *Frame { return g.frame }

// IsCoroutine reports whether this value came from an async function.
func (g *Generator) IsCoroutine() bool { return g.frame.code.IsCoroutine() }

func (g *Generator) Type() object.Type {
	if g.IsCoroutine() {
		return "coroutine"
	}
	return "generator"
}

func (g *Generator) Inspect() string {
	if g.IsCoroutine() {
		return fmt.Sprintf("<coroutine object %s>", g.name)
	}
	return fmt.Sprintf("<generator object %s>", g.name)
}

func (g *Generator) Interface() any { return g }

func (g *Generator) Equals(other object.Object) bool { return g == other }

func (g *Generator) IsTruthy() bool { return true }

func (g *Generator) SetAttr(name string, value object.Object) error {
	return object.NewAttributeError("%s has no attribute %q", g.Type(), name)
}

func (g *Generator) GetAttr(name string) (object.Object, bool) {
	switch name {
	case "send":
		return object.NewBuiltin("generator.send", func(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			if len(args) != 1 {
				return nil, object.NewTypeError("send() takes exactly one argument (%d given)", len(args))
			}
			v, done, err := g.Resume(args[0])
			if err != nil {
				return nil, err
			}
			if done {
				return nil, object.NewStopIteration(v)
			}
			return v, nil
		}), true
	case "throw":
		return object.NewBuiltin("generator.throw", func(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			if len(args) != 1 {
				return nil, object.NewTypeError("throw() takes exactly one argument (%d given)", len(args))
			}
			exc, err := excFromOperand(args[0])
			if err != nil {
				return nil, err
			}
			v, done, err := g.Throw(exc)
			if err != nil {
				return nil, err
			}
			if done {
				return nil, object.NewStopIteration(v)
			}
			return v, nil
		}), true
	case "close":
		return object.NewBuiltin("generator.close", func(args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			if err := g.Close(); err != nil {
				return nil, err
			}
			return object.None, nil
		}), true
	}
	return nil, false
}

// Resume advances the generator, sending a value in at the suspension
// point. done reports frame completion; the value is then the return value.
func (g *Generator) Resume(sent object.Object) (object.Object, bool, error) {
	return g.vm.resumeFrame(g.frame, sent, nil)
}

// Throw raises an exception at the current suspension point. If the frame
// is delegating, the exception routes into the delegate first.
func (g *Generator) Throw(exc *object.Exception) (object.Object, bool, error) {
	return g.vm.resumeFrame(g.frame, nil, exc)
}

// Close raises GeneratorExit at the suspension point. A generator that
// swallows the exception and yields again is an error; one that returns or
// lets GeneratorExit escape closes cleanly.
func (g *Generator) Close() error {
	switch g.frame.State() {
	case FrameReturned, FrameRaised, FrameFresh:
		g.frame.state = FrameReturned
		return nil
	}
	_, done, err := g.Throw(object.NewGeneratorExit())
	if err != nil {
		if exc, ok := err.(*object.Exception); ok && exc.IsInstanceOf(object.GeneratorExitClass) {
			return nil
		}
		return err
	}
	if !done {
		return object.NewRuntimeError("generator ignored GeneratorExit")
	}
	return nil
}

// Next implements object.Iterator. Errors other than StopIteration are
// remembered and reported by Err.
func (g *Generator) Next() (object.Object, bool) {
	v, done, err := g.Resume(object.None)
	if err != nil {
		if exc, ok := err.(*object.Exception); !ok || !exc.IsInstanceOf(object.StopIterationClass) {
			g.err = err
		}
		return nil, false
	}
	if done {
		return nil, false
	}
	return v, true
}

// Err returns the error that terminated direct iteration, if any.
func (g *Generator) Err() error { return g.err }

// excFromOperand coerces a raise operand (exception instance or exception
// class) into an exception value.
func excFromOperand(obj object.Object) (*object.Exception, error) {
	switch o := obj.(type) {
	case *object.Exception:
		return o, nil
	case *object.Class:
		if o.IsExceptionClass() {
			return object.NewException(o), nil
		}
	}
	return nil, object.NewTypeError("exceptions must derive from BaseException")
}
