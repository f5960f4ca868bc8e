package object

import "strings"

type Tuple struct {
	base
	items []Object
}

// NewTuple returns a Tuple wrapping the given items. The slice is not copied.
func NewTuple(items []Object) *Tuple {
	return &Tuple{items: items}
}

func (t *Tuple) Items() []Object { return t.items }

func (t *Tuple) Type() Type { return TUPLE }

func (t *Tuple) Inspect() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, item := range t.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.Inspect())
	}
	if len(t.items) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String()
}

func (t *Tuple) Interface() any {
	out := make([]any, len(t.items))
	for i, item := range t.items {
		out[i] = item.Interface()
	}
	return out
}

func (t *Tuple) IsTruthy() bool { return len(t.items) > 0 }

func (t *Tuple) Equals(other Object) bool {
	o, ok := other.(*Tuple)
	if !ok || len(o.items) != len(t.items) {
		return false
	}
	for i, item := range t.items {
		if !item.Equals(o.items[i]) {
			return false
		}
	}
	return true
}

// HashKey combines the element keys. Tuples containing unhashable
// elements are themselves unhashable; callers check via Hash().
func (t *Tuple) HashKey() HashKey {
	var h int64 = 0x345678
	for _, item := range t.items {
		hashable, ok := item.(Hashable)
		if !ok {
			// Hash() reports the error; an unhashable element
			// degrades to a zero key here.
			return HashKey{Type: TUPLE}
		}
		k := hashable.HashKey()
		h = h*1000003 ^ k.Int
		for _, c := range k.Str {
			h = h*31 + int64(c)
		}
	}
	return HashKey{Type: TUPLE, Int: h}
}

func (t *Tuple) Len() int64 { return int64(len(t.items)) }
