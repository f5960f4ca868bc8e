package object

import "strings"

// dictEntry keeps the original key object so iteration and Inspect can
// render it even though lookup goes through HashKey.
type dictEntry struct {
	key   Object
	value Object
}

type Dict struct {
	base
	entries map[HashKey]dictEntry
	order   []HashKey
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{entries: map[HashKey]dictEntry{}}
}

func (d *Dict) Type() Type { return DICT }

func (d *Dict) Inspect() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range d.order {
		if i > 0 {
			b.WriteString(", ")
		}
		e := d.entries[k]
		b.WriteString(e.key.Inspect())
		b.WriteString(": ")
		b.WriteString(e.value.Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

func (d *Dict) Interface() any {
	out := make(map[string]any, len(d.entries))
	for _, k := range d.order {
		e := d.entries[k]
		out[e.key.Inspect()] = e.value.Interface()
	}
	return out
}

func (d *Dict) IsTruthy() bool { return len(d.entries) > 0 }

func (d *Dict) Equals(other Object) bool {
	o, ok := other.(*Dict)
	if !ok || len(o.entries) != len(d.entries) {
		return false
	}
	for k, e := range d.entries {
		oe, found := o.entries[k]
		if !found || !e.value.Equals(oe.value) {
			return false
		}
	}
	return true
}

func (d *Dict) Len() int64 { return int64(len(d.entries)) }

// Set inserts or replaces the entry for key. Insertion order is preserved;
// replacing a value keeps the key's original position.
func (d *Dict) Set(key, value Object) error {
	hk, err := Hash(key)
	if err != nil {
		return err
	}
	if _, exists := d.entries[hk]; !exists {
		d.order = append(d.order, hk)
	}
	d.entries[hk] = dictEntry{key: key, value: value}
	return nil
}

// Get returns the value for key, or a KeyError if absent or unhashable.
func (d *Dict) Get(key Object) (Object, error) {
	hk, err := Hash(key)
	if err != nil {
		return nil, err
	}
	e, ok := d.entries[hk]
	if !ok {
		return nil, NewKeyError("%s", key.Inspect())
	}
	return e.value, nil
}

// Lookup is Get without the KeyError, for membership-style checks.
func (d *Dict) Lookup(key Object) (Object, bool) {
	hk, err := Hash(key)
	if err != nil {
		return nil, false
	}
	e, ok := d.entries[hk]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Delete removes the entry for key, returning a KeyError if absent.
func (d *Dict) Delete(key Object) error {
	hk, err := Hash(key)
	if err != nil {
		return err
	}
	if _, ok := d.entries[hk]; !ok {
		return NewKeyError("%s", key.Inspect())
	}
	delete(d.entries, hk)
	for i, k := range d.order {
		if k == hk {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// Keys returns the key objects in insertion order.
func (d *Dict) Keys() []Object {
	out := make([]Object, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.entries[k].key)
	}
	return out
}

// Values returns the values in insertion order.
func (d *Dict) Values() []Object {
	out := make([]Object, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.entries[k].value)
	}
	return out
}

// Merge copies every entry of other into d, replacing duplicates.
func (d *Dict) Merge(other *Dict) error {
	for _, k := range other.order {
		e := other.entries[k]
		if err := d.Set(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dict) GetAttr(name string) (Object, bool) {
	switch name {
	case "get":
		return NewBuiltin("dict.get", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, NewTypeError("dict.get() takes 1 or 2 arguments (%d given)", len(args))
			}
			if v, ok := d.Lookup(args[0]); ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return None, nil
		}), true
	case "keys":
		return NewBuiltin("dict.keys", func(args []Object, kwargs map[string]Object) (Object, error) {
			return NewList(d.Keys()), nil
		}), true
	case "values":
		return NewBuiltin("dict.values", func(args []Object, kwargs map[string]Object) (Object, error) {
			return NewList(d.Values()), nil
		}), true
	case "items":
		return NewBuiltin("dict.items", func(args []Object, kwargs map[string]Object) (Object, error) {
			out := make([]Object, 0, len(d.order))
			for _, k := range d.order {
				e := d.entries[k]
				out = append(out, NewTuple([]Object{e.key, e.value}))
			}
			return NewList(out), nil
		}), true
	case "pop":
		return NewBuiltin("dict.pop", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, NewTypeError("dict.pop() takes 1 or 2 arguments (%d given)", len(args))
			}
			if v, ok := d.Lookup(args[0]); ok {
				if err := d.Delete(args[0]); err != nil {
					return nil, err
				}
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, NewKeyError("%s", args[0].Inspect())
		}), true
	case "update":
		return NewBuiltin("dict.update", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("dict.update() takes exactly one argument (%d given)", len(args))
			}
			o, ok := args[0].(*Dict)
			if !ok {
				return nil, NewTypeError("dict.update() argument must be dict, not %s", args[0].Type())
			}
			return None, d.Merge(o)
		}), true
	case "clear":
		return NewBuiltin("dict.clear", func(args []Object, kwargs map[string]Object) (Object, error) {
			d.entries = map[HashKey]dictEntry{}
			d.order = nil
			return None, nil
		}), true
	case "setdefault":
		return NewBuiltin("dict.setdefault", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, NewTypeError("dict.setdefault() takes 1 or 2 arguments (%d given)", len(args))
			}
			if v, ok := d.Lookup(args[0]); ok {
				return v, nil
			}
			def := Object(None)
			if len(args) == 2 {
				def = args[1]
			}
			if err := d.Set(args[0], def); err != nil {
				return nil, err
			}
			return def, nil
		}), true
	}
	return nil, false
}
