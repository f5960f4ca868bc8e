package object

import "fmt"

// Class is a guest-language class: a name, base classes, and a namespace of
// methods and class attributes. Method resolution walks bases depth-first in
// declaration order.
type Class struct {
	base
	name  string
	bases []*Class
	dict  *Dict
}

// NewClass constructs a class. A nil dict gets an empty namespace.
func NewClass(name string, bases []*Class, dict *Dict) *Class {
	if dict == nil {
		dict = NewDict()
	}
	return &Class{name: name, bases: bases, dict: dict}
}

func (c *Class) Name() string { return c.name }

func (c *Class) Bases() []*Class { return c.bases }

func (c *Class) Dict() *Dict { return c.dict }

func (c *Class) Type() Type { return CLASS }

func (c *Class) Inspect() string { return fmt.Sprintf("<class '%s'>", c.name) }

func (c *Class) Interface() any { return c }

func (c *Class) Equals(other Object) bool { return c == other }

// Resolve looks the name up on the class and its bases, depth-first.
func (c *Class) Resolve(name string) (Object, bool) {
	if v, ok := c.dict.Lookup(NewString(name)); ok {
		return v, true
	}
	for _, b := range c.bases {
		if v, ok := b.Resolve(name); ok {
			return v, true
		}
	}
	return nil, false
}

func (c *Class) GetAttr(name string) (Object, bool) {
	switch name {
	case "__name__":
		return NewString(c.name), true
	case "__bases__":
		bases := make([]Object, len(c.bases))
		for i, b := range c.bases {
			bases[i] = b
		}
		return NewTuple(bases), true
	}
	return c.Resolve(name)
}

func (c *Class) SetAttr(name string, value Object) error {
	return c.dict.Set(NewString(name), value)
}

// IsSubclassOf walks the base graph, counting a class as its own subclass.
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == other {
		return true
	}
	for _, b := range c.bases {
		if b.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

// IsExceptionClass reports whether instances of this class may be raised.
func (c *Class) IsExceptionClass() bool {
	return c.IsSubclassOf(BaseExceptionClass)
}

// Instance is an object created by calling a class. Attribute lookup checks
// the instance namespace first, then the class; functions found on the class
// bind as methods.
type Instance struct {
	base
	class *Class
	attrs *Dict
}

// NewInstance constructs an instance of the given class with an empty
// attribute namespace.
func NewInstance(class *Class) *Instance {
	return &Instance{class: class, attrs: NewDict()}
}

func (i *Instance) Class() *Class { return i.class }

func (i *Instance) Attrs() *Dict { return i.attrs }

func (i *Instance) Type() Type { return Type(i.class.name) }

func (i *Instance) Inspect() string {
	return fmt.Sprintf("<%s object>", i.class.name)
}

func (i *Instance) Interface() any { return i }

func (i *Instance) Equals(other Object) bool { return i == other }

func (i *Instance) GetAttr(name string) (Object, bool) {
	if v, ok := i.attrs.Lookup(NewString(name)); ok {
		return v, true
	}
	if name == "__class__" {
		return i.class, true
	}
	v, ok := i.class.Resolve(name)
	if !ok {
		return nil, false
	}
	switch fn := v.(type) {
	case *Function:
		return NewBoundMethod(fn, i), true
	case *Builtin:
		return fn, true
	}
	return v, true
}

func (i *Instance) SetAttr(name string, value Object) error {
	return i.attrs.Set(NewString(name), value)
}
