package object

import "strings"

type List struct {
	base
	items []Object
}

// NewList returns a List wrapping the given items. The slice is not copied.
func NewList(items []Object) *List {
	return &List{items: items}
}

func (l *List) Items() []Object { return l.items }

func (l *List) Type() Type { return LIST }

func (l *List) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}

func (l *List) Interface() any {
	out := make([]any, len(l.items))
	for i, item := range l.items {
		out[i] = item.Interface()
	}
	return out
}

func (l *List) IsTruthy() bool { return len(l.items) > 0 }

func (l *List) Equals(other Object) bool {
	o, ok := other.(*List)
	if !ok || len(o.items) != len(l.items) {
		return false
	}
	for i, item := range l.items {
		if !item.Equals(o.items[i]) {
			return false
		}
	}
	return true
}

func (l *List) Len() int64 { return int64(len(l.items)) }

func (l *List) Append(item Object) {
	l.items = append(l.items, item)
}

func (l *List) Extend(items []Object) {
	l.items = append(l.items, items...)
}

func (l *List) GetAttr(name string) (Object, bool) {
	switch name {
	case "append":
		return NewBuiltin("list.append", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("list.append() takes exactly one argument (%d given)", len(args))
			}
			l.Append(args[0])
			return None, nil
		}), true
	case "extend":
		return NewBuiltin("list.extend", func(args []Object, kwargs map[string]Object) (Object, error) {
			if len(args) != 1 {
				return nil, NewTypeError("list.extend() takes exactly one argument (%d given)", len(args))
			}
			items, err := Collect(args[0])
			if err != nil {
				return nil, err
			}
			l.Extend(items)
			return None, nil
		}), true
	case "pop":
		return NewBuiltin("list.pop", l.pop), true
	case "insert":
		return NewBuiltin("list.insert", l.insert), true
	case "remove":
		return NewBuiltin("list.remove", l.remove), true
	case "index":
		return NewBuiltin("list.index", l.index), true
	case "count":
		return NewBuiltin("list.count", l.count), true
	case "clear":
		return NewBuiltin("list.clear", func(args []Object, kwargs map[string]Object) (Object, error) {
			l.items = l.items[:0]
			return None, nil
		}), true
	case "reverse":
		return NewBuiltin("list.reverse", func(args []Object, kwargs map[string]Object) (Object, error) {
			for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
				l.items[i], l.items[j] = l.items[j], l.items[i]
			}
			return None, nil
		}), true
	}
	return nil, false
}

func (l *List) pop(args []Object, kwargs map[string]Object) (Object, error) {
	idx := int64(len(l.items) - 1)
	if len(args) > 1 {
		return nil, NewTypeError("list.pop() takes at most 1 argument (%d given)", len(args))
	}
	if len(args) == 1 {
		i, ok := args[0].(*Int)
		if !ok {
			return nil, NewTypeError("list.pop() argument must be int, not %s", args[0].Type())
		}
		idx = i.value
	}
	if idx < 0 {
		idx += int64(len(l.items))
	}
	if idx < 0 || idx >= int64(len(l.items)) {
		return nil, NewIndexError("pop index out of range")
	}
	item := l.items[idx]
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return item, nil
}

func (l *List) insert(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) != 2 {
		return nil, NewTypeError("list.insert() takes exactly 2 arguments (%d given)", len(args))
	}
	i, ok := args[0].(*Int)
	if !ok {
		return nil, NewTypeError("list.insert() first argument must be int, not %s", args[0].Type())
	}
	idx := i.value
	if idx < 0 {
		idx += int64(len(l.items))
		if idx < 0 {
			idx = 0
		}
	}
	if idx > int64(len(l.items)) {
		idx = int64(len(l.items))
	}
	l.items = append(l.items, nil)
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = args[1]
	return None, nil
}

func (l *List) remove(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) != 1 {
		return nil, NewTypeError("list.remove() takes exactly one argument (%d given)", len(args))
	}
	for i, item := range l.items {
		if item.Equals(args[0]) {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return None, nil
		}
	}
	return nil, NewValueError("list.remove(x): x not in list")
}

func (l *List) index(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) != 1 {
		return nil, NewTypeError("list.index() takes exactly one argument (%d given)", len(args))
	}
	for i, item := range l.items {
		if item.Equals(args[0]) {
			return NewInt(int64(i)), nil
		}
	}
	return nil, NewValueError("%s is not in list", args[0].Inspect())
}

func (l *List) count(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) != 1 {
		return nil, NewTypeError("list.count() takes exactly one argument (%d given)", len(args))
	}
	var n int64
	for _, item := range l.items {
		if item.Equals(args[0]) {
			n++
		}
	}
	return NewInt(n), nil
}
