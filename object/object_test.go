package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumericEquality(t *testing.T) {
	require.True(t, NewInt(1).Equals(NewFloat(1.0)))
	require.True(t, NewFloat(1.0).Equals(NewInt(1)))
	require.True(t, True.Equals(NewInt(1)))
	require.True(t, NewInt(0).Equals(False))
	require.True(t, NewComplex(2).Equals(NewInt(2)))
	require.False(t, NewInt(1).Equals(NewInt(2)))
	require.False(t, NewInt(1).Equals(NewString("1")))
}

func TestHashKeyFolding(t *testing.T) {
	require.Equal(t, NewInt(1).HashKey(), NewFloat(1.0).HashKey())
	require.Equal(t, NewInt(1).HashKey(), True.HashKey())
	require.Equal(t, NewInt(0).HashKey(), False.HashKey())
	require.NotEqual(t, NewFloat(1.5).HashKey(), NewInt(1).HashKey())
	require.Equal(t, NewFloat(2.0).HashKey(), NewComplex(2).HashKey())
}

func TestDictNumericKeyCollision(t *testing.T) {
	d := NewDict()
	require.NoError(t, d.Set(NewInt(1), NewString("int")))
	require.NoError(t, d.Set(NewFloat(1.0), NewString("float")))
	require.NoError(t, d.Set(True, NewString("bool")))

	require.Equal(t, int64(1), d.Len())
	v, err := d.Get(NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "bool", v.(*String).Value())
}

func TestDictOrderAndDelete(t *testing.T) {
	d := NewDict()
	require.NoError(t, d.Set(NewString("a"), NewInt(1)))
	require.NoError(t, d.Set(NewString("b"), NewInt(2)))
	require.NoError(t, d.Set(NewString("c"), NewInt(3)))
	require.NoError(t, d.Set(NewString("b"), NewInt(20)))

	keys := d.Keys()
	require.Len(t, keys, 3)
	require.Equal(t, "a", keys[0].(*String).Value())
	require.Equal(t, "b", keys[1].(*String).Value())
	require.Equal(t, "c", keys[2].(*String).Value())

	require.NoError(t, d.Delete(NewString("b")))
	require.Equal(t, int64(2), d.Len())

	err := d.Delete(NewString("b"))
	require.Error(t, err)
	exc, ok := err.(*Exception)
	require.True(t, ok)
	require.Equal(t, "KeyError", exc.Class().Name())
}

func TestDictUnhashableKey(t *testing.T) {
	d := NewDict()
	err := d.Set(NewList(nil), NewInt(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unhashable type: 'list'")
}

func TestSetMembership(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(NewInt(1)))
	require.NoError(t, s.Add(NewFloat(1.0)))
	require.NoError(t, s.Add(NewString("x")))
	require.Equal(t, int64(2), s.Len())

	ok, err := s.Contains(True)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTupleAsDictKey(t *testing.T) {
	d := NewDict()
	key := NewTuple([]Object{NewInt(1), NewString("a")})
	require.NoError(t, d.Set(key, NewInt(42)))

	same := NewTuple([]Object{NewInt(1), NewString("a")})
	v, err := d.Get(same)
	require.NoError(t, err)
	require.Equal(t, int64(42), v.(*Int).Value())

	bad := NewTuple([]Object{NewList(nil)})
	_, err = Hash(bad)
	require.Error(t, err)
}

func TestExceptionHierarchy(t *testing.T) {
	require.True(t, KeyErrorClass.IsSubclassOf(LookupErrorClass))
	require.True(t, KeyErrorClass.IsSubclassOf(ExceptionClass))
	require.True(t, KeyErrorClass.IsSubclassOf(BaseExceptionClass))
	require.False(t, KeyErrorClass.IsSubclassOf(TypeErrorClass))
	require.True(t, GeneratorExitClass.IsSubclassOf(BaseExceptionClass))
	require.False(t, GeneratorExitClass.IsSubclassOf(ExceptionClass))

	exc := NewKeyError("missing")
	require.True(t, exc.IsInstanceOf(LookupErrorClass))
	require.Equal(t, "KeyError: missing", exc.Error())
}

func TestExceptionContextAndCause(t *testing.T) {
	first := NewValueError("first")
	second := NewTypeError("second")
	second.SetContext(first)
	second.SetContext(NewRuntimeError("late"))
	require.Equal(t, first, second.Context())

	second.SetCause(first)
	require.Equal(t, first, second.Cause())

	args, ok := second.GetAttr("__cause__")
	require.True(t, ok)
	require.Equal(t, first, args)
}

func TestExceptionTraceback(t *testing.T) {
	exc := NewValueError("boom")
	exc.AddTraceback("main.py", 3, "inner")
	exc.AddTraceback("main.py", 10, "<module>")
	out := exc.FormatTraceback()
	require.Contains(t, out, "Traceback (most recent call last):")
	require.Contains(t, out, `File "main.py", line 3, in inner`)
	require.Contains(t, out, "ValueError: boom")
}

func TestClassResolution(t *testing.T) {
	animal := NewClass("Animal", nil, nil)
	require.NoError(t, animal.SetAttr("kind", NewString("animal")))
	dog := NewClass("Dog", []*Class{animal}, nil)

	v, ok := dog.Resolve("kind")
	require.True(t, ok)
	require.Equal(t, "animal", v.(*String).Value())
	require.True(t, dog.IsSubclassOf(animal))
	require.False(t, animal.IsSubclassOf(dog))
}

func TestInstanceAttributes(t *testing.T) {
	cls := NewClass("Point", nil, nil)
	inst := NewInstance(cls)
	require.NoError(t, inst.SetAttr("x", NewInt(3)))

	v, ok := inst.GetAttr("x")
	require.True(t, ok)
	require.Equal(t, int64(3), v.(*Int).Value())

	c, ok := inst.GetAttr("__class__")
	require.True(t, ok)
	require.Equal(t, cls, c)

	_, ok = inst.GetAttr("missing")
	require.False(t, ok)
}

func TestListMethods(t *testing.T) {
	l := NewList([]Object{NewInt(1), NewInt(2)})

	appendFn, ok := l.GetAttr("append")
	require.True(t, ok)
	_, err := appendFn.(*Builtin).Call([]Object{NewInt(3)}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), l.Len())

	popFn, _ := l.GetAttr("pop")
	v, err := popFn.(*Builtin).Call(nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), v.(*Int).Value())

	_, err = popFn.(*Builtin).Call([]Object{NewInt(10)}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "IndexError")
}

func TestStringMethods(t *testing.T) {
	s := NewString("Hello, World")

	upper, ok := s.GetAttr("upper")
	require.True(t, ok)
	v, err := upper.(*Builtin).Call(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "HELLO, WORLD", v.(*String).Value())

	split, _ := s.GetAttr("split")
	v, err = split.(*Builtin).Call([]Object{NewString(", ")}, nil)
	require.NoError(t, err)
	parts := v.(*List).Items()
	require.Len(t, parts, 2)
	require.Equal(t, "World", parts[1].(*String).Value())

	join, _ := NewString("-").GetAttr("join")
	v, err = join.(*Builtin).Call([]Object{v}, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello-World", v.(*String).Value())
}

func TestRange(t *testing.T) {
	r, err := NewRange(0, 10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(4), r.Len())

	items, err := Collect(r)
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Equal(t, int64(9), items[3].(*Int).Value())

	down, err := NewRange(5, 0, -2)
	require.NoError(t, err)
	require.Equal(t, int64(3), down.Len())

	_, err = NewRange(0, 1, 0)
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	require.Equal(t, "1.0", NewFloat(1).Inspect())
	require.Equal(t, "(1,)", NewTuple([]Object{NewInt(1)}).Inspect())
	require.Equal(t, "set()", NewSet().Inspect())
	require.Equal(t, `{"a": 1}`, NewDictFrom(t).Inspect())
	require.Equal(t, "[1, [2]]",
		NewList([]Object{NewInt(1), NewList([]Object{NewInt(2)})}).Inspect())
}

// NewDictFrom builds {"a": 1} for Inspect tests.
func NewDictFrom(t *testing.T) *Dict {
	d := NewDict()
	require.NoError(t, d.Set(NewString("a"), NewInt(1)))
	return d
}
