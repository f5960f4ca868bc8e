package object

import (
	"math"
	"strconv"
	"strings"
)

type Float struct {
	base
	value float64
}

// NewFloat returns a Float with the given value.
func NewFloat(value float64) *Float {
	return &Float{value: value}
}

func (f *Float) Value() float64 { return f.value }

func (f *Float) Type() Type { return FLOAT }

func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.value, 'g', -1, 64)
	// Distinguish floats from ints in output: 1.0 renders with the point.
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

func (f *Float) Interface() any { return f.value }

func (f *Float) IsTruthy() bool { return f.value != 0 }

func (f *Float) Equals(other Object) bool {
	if n, ok := asNumber(other); ok {
		return numbersEqual(floatNumber(f.value), n)
	}
	return false
}

// HashKey folds integral floats into the integer keyspace, matching
// 1 == 1.0 as dict keys.
func (f *Float) HashKey() HashKey {
	if f.value == math.Trunc(f.value) && !math.IsInf(f.value, 0) {
		return HashKey{Type: INT, Int: int64(f.value)}
	}
	return HashKey{Type: FLOAT, Int: int64(math.Float64bits(f.value))}
}
