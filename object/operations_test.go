package object

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/op"
)

func binOp(t *testing.T, opType op.BinaryOpType, a, b Object) Object {
	t.Helper()
	v, err := BinaryOp(opType, a, b)
	require.NoError(t, err)
	return v
}

func TestArithmeticPromotion(t *testing.T) {
	require.Equal(t, int64(7), binOp(t, op.Add, NewInt(3), NewInt(4)).(*Int).Value())
	require.Equal(t, 7.5, binOp(t, op.Add, NewInt(3), NewFloat(4.5)).(*Float).Value())
	require.Equal(t, complex(5, 1), binOp(t, op.Add, NewInt(3), NewComplex(2+1i)).(*Complex).Value())
	require.Equal(t, int64(3), binOp(t, op.Add, True, NewInt(2)).(*Int).Value())
}

func TestTrueDivisionAlwaysFloat(t *testing.T) {
	v := binOp(t, op.Divide, NewInt(7), NewInt(2))
	require.Equal(t, 3.5, v.(*Float).Value())

	_, err := BinaryOp(op.Divide, NewInt(1), NewInt(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ZeroDivisionError")
}

func TestFloorDivAndModuloFollowDivisorSign(t *testing.T) {
	require.Equal(t, int64(-4), binOp(t, op.FloorDiv, NewInt(-7), NewInt(2)).(*Int).Value())
	require.Equal(t, int64(1), binOp(t, op.Modulo, NewInt(-7), NewInt(2)).(*Int).Value())
	require.Equal(t, int64(-1), binOp(t, op.Modulo, NewInt(7), NewInt(-2)).(*Int).Value())
	require.Equal(t, 1.5, binOp(t, op.Modulo, NewFloat(-6.5), NewFloat(2)).(*Float).Value())
}

func TestPower(t *testing.T) {
	require.Equal(t, int64(1024), binOp(t, op.Power, NewInt(2), NewInt(10)).(*Int).Value())
	require.Equal(t, 0.25, binOp(t, op.Power, NewInt(2), NewInt(-2)).(*Float).Value())
}

func TestSequenceConcatAndRepeat(t *testing.T) {
	v := binOp(t, op.Add, NewString("ab"), NewString("cd"))
	require.Equal(t, "abcd", v.(*String).Value())

	v = binOp(t, op.Multiply, NewString("ab"), NewInt(3))
	require.Equal(t, "ababab", v.(*String).Value())

	v = binOp(t, op.Multiply, NewInt(2), NewList([]Object{NewInt(1)}))
	require.Len(t, v.(*List).Items(), 2)

	_, err := BinaryOp(op.Add, NewString("a"), NewInt(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "can only concatenate str")
}

func TestSetAlgebra(t *testing.T) {
	a := NewSet()
	require.NoError(t, a.Update(NewList([]Object{NewInt(1), NewInt(2), NewInt(3)})))
	b := NewSet()
	require.NoError(t, b.Update(NewList([]Object{NewInt(2), NewInt(3), NewInt(4)})))

	union := binOp(t, op.BitwiseOr, a, b).(*Set)
	require.Equal(t, int64(4), union.Len())

	inter := binOp(t, op.BitwiseAnd, a, b).(*Set)
	require.Equal(t, int64(2), inter.Len())

	diff := binOp(t, op.Subtract, a, b).(*Set)
	require.Equal(t, int64(1), diff.Len())

	sym := binOp(t, op.BitwiseXor, a, b).(*Set)
	require.Equal(t, int64(2), sym.Len())
}

func TestStringFormatting(t *testing.T) {
	v := binOp(t, op.Modulo, NewString("%s is %d"),
		NewTuple([]Object{NewString("x"), NewInt(5)}))
	require.Equal(t, "x is 5", v.(*String).Value())

	_, err := BinaryOp(op.Modulo, NewString("%s %s"), NewString("one"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not enough arguments")
}

func TestCompareOrdering(t *testing.T) {
	v, err := Compare(op.LessThan, NewInt(1), NewFloat(1.5))
	require.NoError(t, err)
	require.Equal(t, True, v)

	v, err = Compare(op.GreaterThanOrEqual, NewString("b"), NewString("a"))
	require.NoError(t, err)
	require.Equal(t, True, v)

	v, err = Compare(op.LessThan,
		NewList([]Object{NewInt(1), NewInt(2)}),
		NewList([]Object{NewInt(1), NewInt(3)}))
	require.NoError(t, err)
	require.Equal(t, True, v)

	_, err = Compare(op.LessThan, NewInt(1), NewString("a"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not supported between instances")

	_, err = Compare(op.LessThan, NewComplex(1), NewComplex(2))
	require.Error(t, err)
}

func TestCompareEqualityNeverFails(t *testing.T) {
	v, err := Compare(op.Equal, NewInt(1), NewString("a"))
	require.NoError(t, err)
	require.Equal(t, False, v)

	v, err = Compare(op.NotEqual, NewInt(1), NewFloat(1.0))
	require.NoError(t, err)
	require.Equal(t, False, v)
}

func TestContains(t *testing.T) {
	ok, err := Contains(NewString("hello"), NewString("ell"))
	require.NoError(t, err)
	require.True(t, ok)

	d := NewDict()
	require.NoError(t, d.Set(NewString("k"), NewInt(1)))
	ok, err = Contains(d, NewString("k"))
	require.NoError(t, err)
	require.True(t, ok)

	r, _ := NewRange(0, 10, 2)
	ok, err = Contains(r, NewInt(4))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = Contains(r, NewInt(5))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = Contains(NewInt(5), NewInt(1))
	require.Error(t, err)
}

func TestGetItem(t *testing.T) {
	l := NewList([]Object{NewInt(10), NewInt(20), NewInt(30)})

	v, err := GetItem(l, NewInt(-1))
	require.NoError(t, err)
	require.Equal(t, int64(30), v.(*Int).Value())

	_, err = GetItem(l, NewInt(3))
	require.Error(t, err)
	require.Contains(t, err.Error(), "IndexError")

	v, err = GetItem(NewString("héllo"), NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "é", v.(*String).Value())

	v, err = GetItem(NewBytes([]byte{1, 2, 3}), NewInt(0))
	require.NoError(t, err)
	require.Equal(t, int64(1), v.(*Int).Value())

	_, err = GetItem(NewInt(1), NewInt(0))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not subscriptable")
}

func TestSlicing(t *testing.T) {
	l := NewList([]Object{NewInt(0), NewInt(1), NewInt(2), NewInt(3), NewInt(4)})

	v, err := GetItem(l, NewSlice(NewInt(1), NewInt(4), None))
	require.NoError(t, err)
	require.Equal(t, "[1, 2, 3]", v.Inspect())

	v, err = GetItem(l, NewSlice(None, None, NewInt(-1)))
	require.NoError(t, err)
	require.Equal(t, "[4, 3, 2, 1, 0]", v.Inspect())

	v, err = GetItem(NewString("abcdef"), NewSlice(NewInt(-4), NewInt(100), NewInt(2)))
	require.NoError(t, err)
	require.Equal(t, "ce", v.(*String).Value())

	_, err = GetItem(l, NewSlice(None, None, NewInt(0)))
	require.Error(t, err)
	require.Contains(t, err.Error(), "slice step cannot be zero")
}

func TestSetItemAndDelItem(t *testing.T) {
	l := NewList([]Object{NewInt(1), NewInt(2), NewInt(3)})
	require.NoError(t, SetItem(l, NewInt(0), NewInt(9)))
	require.Equal(t, "[9, 2, 3]", l.Inspect())

	require.NoError(t, SetItem(l, NewSlice(NewInt(1), NewInt(3), None),
		NewList([]Object{NewInt(7)})))
	require.Equal(t, "[9, 7]", l.Inspect())

	require.NoError(t, DelItem(l, NewInt(0)))
	require.Equal(t, "[7]", l.Inspect())

	require.Error(t, SetItem(NewTuple(nil), NewInt(0), NewInt(1)))
}

func TestUnaryOps(t *testing.T) {
	v, err := UnaryOp(op.UnaryNegative, NewInt(5))
	require.NoError(t, err)
	require.Equal(t, int64(-5), v.(*Int).Value())

	v, err = UnaryOp(op.UnaryInvert, NewInt(0))
	require.NoError(t, err)
	require.Equal(t, int64(-1), v.(*Int).Value())

	_, err = UnaryOp(op.UnaryInvert, NewFloat(1.5))
	require.Error(t, err)

	_, err = UnaryOp(op.UnaryNegative, NewString("x"))
	require.Error(t, err)
}

func TestBitwiseRequiresInts(t *testing.T) {
	require.Equal(t, int64(6), binOp(t, op.BitwiseXor, NewInt(5), NewInt(3)).(*Int).Value())
	require.Equal(t, int64(20), binOp(t, op.LShift, NewInt(5), NewInt(2)).(*Int).Value())

	_, err := BinaryOp(op.BitwiseAnd, NewFloat(1), NewInt(1))
	require.Error(t, err)
}
