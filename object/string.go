package object

import (
	"fmt"
	"strings"
)

type String struct {
	base
	value string
}

// NewString returns a String with the given value.
func NewString(value string) *String {
	return &String{value: value}
}

func (s *String) Value() string { return s.value }

func (s *String) Type() Type { return STRING }

func (s *String) Inspect() string { return fmt.Sprintf("%q", s.value) }

func (s *String) Interface() any { return s.value }

func (s *String) IsTruthy() bool { return s.value != "" }

func (s *String) Equals(other Object) bool {
	o, ok := other.(*String)
	return ok && o.value == s.value
}

func (s *String) HashKey() HashKey {
	return HashKey{Type: STRING, Str: s.value}
}

func (s *String) GetAttr(name string) (Object, bool) {
	switch name {
	case "upper":
		return s.method(name, func() Object {
			return NewString(strings.ToUpper(s.value))
		}), true
	case "lower":
		return s.method(name, func() Object {
			return NewString(strings.ToLower(s.value))
		}), true
	case "strip":
		return s.method(name, func() Object {
			return NewString(strings.TrimSpace(s.value))
		}), true
	}
	switch name {
	case "split":
		return NewBuiltin("str.split", s.split), true
	case "join":
		return NewBuiltin("str.join", s.join), true
	case "startswith":
		return NewBuiltin("str.startswith", s.startsWith), true
	case "endswith":
		return NewBuiltin("str.endswith", s.endsWith), true
	case "replace":
		return NewBuiltin("str.replace", s.replace), true
	case "find":
		return NewBuiltin("str.find", s.find), true
	}
	return nil, false
}

// method wraps a no-argument string transformation as a builtin.
func (s *String) method(name string, fn func() Object) *Builtin {
	return NewBuiltin("str."+name, func(args []Object, kwargs map[string]Object) (Object, error) {
		if len(args) != 0 {
			return nil, NewTypeError("str.%s() takes no arguments (%d given)", name, len(args))
		}
		return fn(), nil
	})
}

func (s *String) split(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) > 1 {
		return nil, NewTypeError("str.split() takes at most 1 argument (%d given)", len(args))
	}
	var parts []string
	if len(args) == 0 {
		parts = strings.Fields(s.value)
	} else {
		sep, ok := args[0].(*String)
		if !ok {
			return nil, NewTypeError("must be str, not %s", args[0].Type())
		}
		parts = strings.Split(s.value, sep.value)
	}
	items := make([]Object, len(parts))
	for i, p := range parts {
		items[i] = NewString(p)
	}
	return NewList(items), nil
}

func (s *String) join(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) != 1 {
		return nil, NewTypeError("str.join() takes exactly one argument (%d given)", len(args))
	}
	iter, err := GetIter(args[0])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	first := true
	for {
		item, ok := iter.Next()
		if !ok {
			break
		}
		str, isStr := item.(*String)
		if !isStr {
			return nil, NewTypeError("sequence item: expected str, got %s", item.Type())
		}
		if !first {
			b.WriteString(s.value)
		}
		b.WriteString(str.value)
		first = false
	}
	return NewString(b.String()), nil
}

func (s *String) startsWith(args []Object, kwargs map[string]Object) (Object, error) {
	prefix, err := oneStringArg("str.startswith", args)
	if err != nil {
		return nil, err
	}
	return NewBool(strings.HasPrefix(s.value, prefix)), nil
}

func (s *String) endsWith(args []Object, kwargs map[string]Object) (Object, error) {
	suffix, err := oneStringArg("str.endswith", args)
	if err != nil {
		return nil, err
	}
	return NewBool(strings.HasSuffix(s.value, suffix)), nil
}

func (s *String) replace(args []Object, kwargs map[string]Object) (Object, error) {
	if len(args) != 2 {
		return nil, NewTypeError("str.replace() takes exactly 2 arguments (%d given)", len(args))
	}
	old, ok1 := args[0].(*String)
	new_, ok2 := args[1].(*String)
	if !ok1 || !ok2 {
		return nil, NewTypeError("str.replace() arguments must be str")
	}
	return NewString(strings.ReplaceAll(s.value, old.value, new_.value)), nil
}

func (s *String) find(args []Object, kwargs map[string]Object) (Object, error) {
	sub, err := oneStringArg("str.find", args)
	if err != nil {
		return nil, err
	}
	// Byte offset; the runtime treats strings as byte sequences for
	// indexing purposes.
	return NewInt(int64(strings.Index(s.value, sub))), nil
}

func oneStringArg(name string, args []Object) (string, error) {
	if len(args) != 1 {
		return "", NewTypeError("%s() takes exactly one argument (%d given)", name, len(args))
	}
	str, ok := args[0].(*String)
	if !ok {
		return "", NewTypeError("%s() argument must be str, not %s", name, args[0].Type())
	}
	return str.value, nil
}

// Runes returns the string as a slice of single-character strings.
func (s *String) Runes() []Object {
	runes := []rune(s.value)
	out := make([]Object, len(runes))
	for i, r := range runes {
		out[i] = NewString(string(r))
	}
	return out
}

func (s *String) Len() int64 { return int64(len([]rune(s.value))) }
