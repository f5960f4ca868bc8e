package object

import "fmt"

// BuiltinFunc is the signature of a Go function exposed to guest code.
// Errors are usually *Exception so handlers can catch them.
type BuiltinFunc func(args []Object, kwargs map[string]Object) (Object, error)

// Builtin wraps a Go function as a callable object.
type Builtin struct {
	base
	name string
	fn   BuiltinFunc
}

// NewBuiltin returns a named builtin function object.
func NewBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{name: name, fn: fn}
}

func (b *Builtin) Name() string { return b.name }

// Call invokes the wrapped Go function.
func (b *Builtin) Call(args []Object, kwargs map[string]Object) (Object, error) {
	return b.fn(args, kwargs)
}

func (b *Builtin) Type() Type { return BUILTIN }

func (b *Builtin) Inspect() string {
	return fmt.Sprintf("<built-in function %s>", b.name)
}

func (b *Builtin) Interface() any { return b.fn }

func (b *Builtin) Equals(other Object) bool { return b == other }
