package object

import "strings"

type Set struct {
	base
	entries map[HashKey]Object
	order   []HashKey
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{entries: map[HashKey]Object{}}
}

func (s *Set) Type() Type { return SET }

func (s *Set) Inspect() string {
	if len(s.entries) == 0 {
		return "set()"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.entries[k].Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

func (s *Set) Interface() any {
	out := make([]any, 0, len(s.entries))
	for _, k := range s.order {
		out = append(out, s.entries[k].Interface())
	}
	return out
}

func (s *Set) IsTruthy() bool { return len(s.entries) > 0 }

func (s *Set) Equals(other Object) bool {
	o, ok := other.(*Set)
	if !ok || len(o.entries) != len(s.entries) {
		return false
	}
	for k := range s.entries {
		if _, found := o.entries[k]; !found {
			return false
		}
	}
	return true
}

func (s *Set) Len() int64 { return int64(len(s.entries)) }

// Add inserts item, returning an error only for unhashable items.
func (s *Set) Add(item Object) error {
	hk, err := Hash(item)
	if err != nil {
		return err
	}
	if _, exists := s.entries[hk]; !exists {
		s.order = append(s.order, hk)
		s.entries[hk] = item
	}
	return nil
}

// Contains reports membership. Unhashable items are never members.
func (s *Set) Contains(item Object) (bool, error) {
	hk, err := Hash(item)
	if err != nil {
		return false, err
	}
	_, ok := s.entries[hk]
	return ok, nil
}

// Items returns the members in insertion order.
func (s *Set) Items() []Object {
	out := make([]Object, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.entries[k])
	}
	return out
}

// Update adds every element of the iterable to the set.
func (s *Set) Update(iterable Object) error {
	items, err := Collect(iterable)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.Add(item); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) GetAttr(name string) (Object, bool) {
	switch name {
	case "add":
		return NewBuiltin("set.add", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("set.add() takes exactly one argument (%d given)", len(args))
			}
			return None, s.Add(args[0])
		}), true
	case "remove":
		return NewBuiltin("set.remove", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("set.remove() takes exactly one argument (%d given)", len(args))
			}
			hk, err := Hash(args[0])
			if err != nil {
				return nil, err
			}
			if _, ok := s.entries[hk]; !ok {
				return nil, NewKeyError("%s", args[0].Inspect())
			}
			delete(s.entries, hk)
			for i, k := range s.order {
				if k == hk {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
			return None, nil
		}), true
	case "discard":
		return NewBuiltin("set.discard", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("set.discard() takes exactly one argument (%d given)", len(args))
			}
			hk, err := Hash(args[0])
			if err != nil {
				return nil, err
			}
			if _, ok := s.entries[hk]; ok {
				delete(s.entries, hk)
				for i, k := range s.order {
					if k == hk {
						s.order = append(s.order[:i], s.order[i+1:]...)
						break
					}
				}
			}
			return None, nil
		}), true
	case "update":
		return NewBuiltin("set.update", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("set.update() takes exactly one argument (%d given)", len(args))
			}
			return None, s.Update(args[0])
		}), true
	case "clear":
		return NewBuiltin("set.clear", func(args []Object, kwargs map[string]Object) (Object, error) {
			s.entries = map[HashKey]Object{}
			s.order = nil
			return None, nil
		}), true
	}
	return nil, false
}
