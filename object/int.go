package object

import "strconv"

type Int struct {
	base
	value int64
}

// NewInt returns an Int with the given value.
func NewInt(value int64) *Int {
	return &Int{value: value}
}

func (i *Int) Value() int64 { return i.value }

func (i *Int) Type() Type { return INT }

func (i *Int) Inspect() string { return strconv.FormatInt(i.value, 10) }

func (i *Int) Interface() any { return i.value }

func (i *Int) IsTruthy() bool { return i.value != 0 }

func (i *Int) Equals(other Object) bool {
	if n, ok := asNumber(other); ok {
		return numbersEqual(intNumber(i.value), n)
	}
	return false
}

func (i *Int) HashKey() HashKey {
	return HashKey{Type: INT, Int: i.value}
}
