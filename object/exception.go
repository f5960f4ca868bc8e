package object

import (
	"fmt"
	"strings"
)

// Traceback is one frame of the raise path. Records accumulate as the
// exception propagates outward, so the raise site comes first.
type Traceback struct {
	Filename string
	Line     int
	Function string
}

// Exception is a raised guest error. It implements the Go error interface so
// it can flow through ordinary error returns until a handler catches it.
type Exception struct {
	base
	class     *Class
	args      []Object
	traceback []Traceback
	cause     *Exception
	context   *Exception
}

// NewException constructs an exception instance of the given class.
func NewException(class *Class, args ...Object) *Exception {
	return &Exception{class: class, args: args}
}

func (e *Exception) Class() *Class { return e.class }

func (e *Exception) Args() []Object { return e.args }

func (e *Exception) Type() Type { return Type(e.class.Name()) }

func (e *Exception) Inspect() string {
	if len(e.args) == 1 {
		return fmt.Sprintf("%s(%s)", e.class.Name(), e.args[0].Inspect())
	}
	parts := make([]string, len(e.args))
	for i, a := range e.args {
		parts[i] = a.Inspect()
	}
	return fmt.Sprintf("%s(%s)", e.class.Name(), strings.Join(parts, ", "))
}

func (e *Exception) Interface() any { return e }

func (e *Exception) Equals(other Object) bool { return e == other }

// Error renders the conventional "Class: message" form.
func (e *Exception) Error() string {
	msg := e.Message()
	if msg == "" {
		return e.class.Name()
	}
	return e.class.Name() + ": " + msg
}

// Message returns the string form of the exception arguments.
func (e *Exception) Message() string {
	switch len(e.args) {
	case 0:
		return ""
	case 1:
		if s, ok := e.args[0].(*String); ok {
			return s.Value()
		}
		return e.args[0].Inspect()
	default:
		parts := make([]string, len(e.args))
		for i, a := range e.args {
			parts[i] = a.Inspect()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
}

func (e *Exception) GetAttr(name string) (Object, bool) {
	switch name {
	case "args":
		return NewTuple(e.args), true
	case "__cause__":
		if e.cause == nil {
			return None, true
		}
		return e.cause, true
	case "__context__":
		if e.context == nil {
			return None, true
		}
		return e.context, true
	}
	return nil, false
}

// IsInstanceOf reports whether the exception's class is the given class or a
// subclass of it.
func (e *Exception) IsInstanceOf(class *Class) bool {
	return e.class.IsSubclassOf(class)
}

// SetCause records an explicit `raise ... from cause`.
func (e *Exception) SetCause(cause *Exception) { e.cause = cause }

func (e *Exception) Cause() *Exception { return e.cause }

// SetContext records the exception that was active when this one was raised.
// The first recorded context wins; self-reference is ignored.
func (e *Exception) SetContext(context *Exception) {
	if e.context == nil && context != e {
		e.context = context
	}
}

func (e *Exception) Context() *Exception { return e.context }

// AddTraceback appends one frame to the raise path.
func (e *Exception) AddTraceback(filename string, line int, function string) {
	e.traceback = append(e.traceback, Traceback{
		Filename: filename,
		Line:     line,
		Function: function,
	})
}

func (e *Exception) TracebackFrames() []Traceback { return e.traceback }

// FormatTraceback renders the raise path plus the final error line, the way
// an uncaught exception prints.
func (e *Exception) FormatTraceback() string {
	var b strings.Builder
	if len(e.traceback) > 0 {
		b.WriteString("Traceback (most recent call last):\n")
		// Records accumulate innermost-first during unwinding; print the
		// outermost caller first so the raise site appears last.
		for i := len(e.traceback) - 1; i >= 0; i-- {
			tb := e.traceback[i]
			fmt.Fprintf(&b, "  File %q, line %d, in %s\n", tb.Filename, tb.Line, tb.Function)
		}
	}
	b.WriteString(e.Error())
	return b.String()
}

// Builtin exception classes. The hierarchy is fixed at startup; user-defined
// classes may subclass any of them.
var (
	BaseExceptionClass       = newExceptionClass("BaseException", nil)
	ExceptionClass           = newExceptionClass("Exception", BaseExceptionClass)
	ArithmeticErrorClass     = newExceptionClass("ArithmeticError", ExceptionClass)
	ZeroDivisionErrorClass   = newExceptionClass("ZeroDivisionError", ArithmeticErrorClass)
	OverflowErrorClass       = newExceptionClass("OverflowError", ArithmeticErrorClass)
	LookupErrorClass         = newExceptionClass("LookupError", ExceptionClass)
	IndexErrorClass          = newExceptionClass("IndexError", LookupErrorClass)
	KeyErrorClass            = newExceptionClass("KeyError", LookupErrorClass)
	TypeErrorClass           = newExceptionClass("TypeError", ExceptionClass)
	ValueErrorClass          = newExceptionClass("ValueError", ExceptionClass)
	NameErrorClass           = newExceptionClass("NameError", ExceptionClass)
	UnboundLocalErrorClass   = newExceptionClass("UnboundLocalError", NameErrorClass)
	AttributeErrorClass      = newExceptionClass("AttributeError", ExceptionClass)
	RuntimeErrorClass        = newExceptionClass("RuntimeError", ExceptionClass)
	NotImplementedErrorClass = newExceptionClass("NotImplementedError", RuntimeErrorClass)
	RecursionErrorClass      = newExceptionClass("RecursionError", RuntimeErrorClass)
	StopIterationClass       = newExceptionClass("StopIteration", ExceptionClass)
	StopAsyncIterationClass  = newExceptionClass("StopAsyncIteration", ExceptionClass)
	GeneratorExitClass       = newExceptionClass("GeneratorExit", BaseExceptionClass)
	KeyboardInterruptClass   = newExceptionClass("KeyboardInterrupt", BaseExceptionClass)
	AssertionErrorClass      = newExceptionClass("AssertionError", ExceptionClass)
	ImportErrorClass         = newExceptionClass("ImportError", ExceptionClass)
	ModuleNotFoundErrorClass = newExceptionClass("ModuleNotFoundError", ImportErrorClass)
	OSErrorClass             = newExceptionClass("OSError", ExceptionClass)
	UnicodeErrorClass        = newExceptionClass("UnicodeError", ValueErrorClass)
)

// ExceptionClasses maps builtin exception names to their classes, in the form
// the VM installs into the builtins namespace.
var ExceptionClasses = map[string]*Class{}

func newExceptionClass(name string, parent *Class) *Class {
	var bases []*Class
	if parent != nil {
		bases = []*Class{parent}
	}
	c := NewClass(name, bases, NewDict())
	ExceptionClasses[name] = c
	return c
}

func newError(class *Class, format string, args ...any) *Exception {
	return NewException(class, NewString(fmt.Sprintf(format, args...)))
}

func NewTypeError(format string, args ...any) *Exception {
	return newError(TypeErrorClass, format, args...)
}

func NewValueError(format string, args ...any) *Exception {
	return newError(ValueErrorClass, format, args...)
}

func NewKeyError(format string, args ...any) *Exception {
	return newError(KeyErrorClass, format, args...)
}

func NewIndexError(format string, args ...any) *Exception {
	return newError(IndexErrorClass, format, args...)
}

func NewAttributeError(format string, args ...any) *Exception {
	return newError(AttributeErrorClass, format, args...)
}

func NewNameError(format string, args ...any) *Exception {
	return newError(NameErrorClass, format, args...)
}

func NewUnboundLocalError(format string, args ...any) *Exception {
	return newError(UnboundLocalErrorClass, format, args...)
}

func NewZeroDivisionError(format string, args ...any) *Exception {
	return newError(ZeroDivisionErrorClass, format, args...)
}

func NewOverflowError(format string, args ...any) *Exception {
	return newError(OverflowErrorClass, format, args...)
}

func NewRuntimeError(format string, args ...any) *Exception {
	return newError(RuntimeErrorClass, format, args...)
}

func NewNotImplementedError(format string, args ...any) *Exception {
	return newError(NotImplementedErrorClass, format, args...)
}

func NewRecursionError(format string, args ...any) *Exception {
	return newError(RecursionErrorClass, format, args...)
}

func NewStopIteration(args ...Object) *Exception {
	return NewException(StopIterationClass, args...)
}

func NewGeneratorExit() *Exception {
	return NewException(GeneratorExitClass)
}

func NewAssertionError(args ...Object) *Exception {
	return NewException(AssertionErrorClass, args...)
}

func NewImportError(format string, args ...any) *Exception {
	return newError(ImportErrorClass, format, args...)
}

func NewModuleNotFoundError(format string, args ...any) *Exception {
	return newError(ModuleNotFoundErrorClass, format, args...)
}

// AsException coerces an error to an Exception, wrapping foreign Go errors
// as RuntimeError.
func AsException(err error) *Exception {
	if exc, ok := err.(*Exception); ok {
		return exc
	}
	return NewRuntimeError("%s", err.Error())
}
