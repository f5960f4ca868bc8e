// Package object defines the runtime value types manipulated by the Serpent
// virtual machine.
//
// Host code usually type-asserts an object.Object to a concrete type such as
// *object.Int or *object.List:
//
//	switch obj := obj.(type) {
//	case *object.Int:
//		// use obj.Value()
//	case *object.List:
//		// use obj.Items()
//	}
//
// All values are reference types from the guest program's point of view; the
// Go garbage collector stands in for the original reference counting.
package object

import "sort"

// Type of an object as a string. For instances the type is the class name.
type Type string

// Type constants
const (
	BOOL            Type = "bool"
	BOUND_METHOD    Type = "bound_method"
	BUILTIN         Type = "builtin_function_or_method"
	BYTES           Type = "bytes"
	CELL            Type = "cell"
	CLASS           Type = "type"
	CODE            Type = "code"
	COMPLEX         Type = "complex"
	DICT            Type = "dict"
	ELLIPSIS        Type = "ellipsis"
	EXCEPTION       Type = "exception"
	FLOAT           Type = "float"
	FUNCTION        Type = "function"
	INSTANCE        Type = "instance"
	INT             Type = "int"
	ITERATOR        Type = "iterator"
	LIST            Type = "list"
	MODULE          Type = "module"
	NONE            Type = "NoneType"
	NOT_IMPLEMENTED Type = "NotImplementedType"
	RANGE           Type = "range"
	SET             Type = "set"
	SLICE           Type = "slice"
	STRING          Type = "str"
	TUPLE           Type = "tuple"
)

// Object is the interface implemented by every Serpent runtime value.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns the repr-style string form of the object.
	Inspect() string

	// Interface converts the object to a native Go value.
	Interface() any

	// Equals reports guest-language equality with another object.
	Equals(other Object) bool

	// IsTruthy reports whether the object counts as true in a condition.
	IsTruthy() bool

	// GetAttr returns the attribute with the given name.
	GetAttr(name string) (Object, bool)

	// SetAttr sets the attribute with the given name.
	SetAttr(name string, value Object) error
}

// base supplies the default attribute behavior for types without attributes.
type base struct{}

func (base) GetAttr(name string) (Object, bool) { return nil, false }

func (base) SetAttr(name string, value Object) error {
	return NewAttributeError("object has no attribute %q", name)
}

func (base) IsTruthy() bool { return true }

// Iterator produces a sequence of objects. Next returns false once the
// sequence is exhausted.
type Iterator interface {
	Object
	Next() (Object, bool)
}

// HashKey identifies a hashable object as a dict key or set member. Values
// that compare equal share a hash key, so 1, 1.0, and True collide the way
// the guest language requires.
type HashKey struct {
	Type Type
	Int  int64
	Str  string
}

// Hashable is implemented by objects usable as dict keys and set members.
type Hashable interface {
	Object
	HashKey() HashKey
}

// Keys returns the keys of an object map as a sorted slice of strings.
func Keys(m map[string]Object) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
