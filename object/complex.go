package object

import (
	"fmt"
	"math"
	"strconv"
)

type Complex struct {
	base
	value complex128
}

// NewComplex returns a Complex with the given value.
func NewComplex(value complex128) *Complex {
	return &Complex{value: value}
}

func (c *Complex) Value() complex128 { return c.value }

func (c *Complex) Type() Type { return COMPLEX }

func (c *Complex) Inspect() string {
	re, im := real(c.value), imag(c.value)
	if re == 0 {
		return formatImag(im) + "j"
	}
	sign := "+"
	if math.Signbit(im) {
		sign = "-"
		im = -im
	}
	return fmt.Sprintf("(%s%s%sj)", formatImag(re), sign, formatImag(im))
}

func formatImag(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (c *Complex) Interface() any { return c.value }

func (c *Complex) IsTruthy() bool { return c.value != 0 }

func (c *Complex) Equals(other Object) bool {
	if n, ok := asNumber(other); ok {
		return numbersEqual(complexNumber(c.value), n)
	}
	return false
}

func (c *Complex) HashKey() HashKey {
	if imag(c.value) == 0 {
		return NewFloat(real(c.value)).HashKey()
	}
	return HashKey{
		Type: COMPLEX,
		Int: int64(math.Float64bits(real(c.value))) ^
			int64(math.Float64bits(imag(c.value))),
	}
}
