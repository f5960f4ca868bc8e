package object

// number is the common form used to compare and combine the numeric tower.
// Booleans participate as 0 and 1.
type number struct {
	kind numKind
	i    int64
	f    float64
	c    complex128
}

type numKind int

const (
	numInt numKind = iota
	numFloat
	numComplex
)

func intNumber(v int64) number     { return number{kind: numInt, i: v} }
func floatNumber(v float64) number { return number{kind: numFloat, f: v} }
func complexNumber(v complex128) number {
	return number{kind: numComplex, c: v}
}

// asNumber extracts the numeric value of an object, if it has one.
func asNumber(obj Object) (number, bool) {
	switch o := obj.(type) {
	case *Bool:
		return intNumber(o.asInt()), true
	case *Int:
		return intNumber(o.value), true
	case *Float:
		return floatNumber(o.value), true
	case *Complex:
		return complexNumber(o.value), true
	}
	return number{}, false
}

// widen promotes both numbers to the wider of the two kinds.
func widen(a, b number) (number, number) {
	kind := a.kind
	if b.kind > kind {
		kind = b.kind
	}
	return a.as(kind), b.as(kind)
}

func (n number) as(kind numKind) number {
	if n.kind == kind {
		return n
	}
	switch kind {
	case numFloat:
		return floatNumber(float64(n.i))
	case numComplex:
		switch n.kind {
		case numInt:
			return complexNumber(complex(float64(n.i), 0))
		case numFloat:
			return complexNumber(complex(n.f, 0))
		}
	}
	return n
}

func numbersEqual(a, b number) bool {
	a, b = widen(a, b)
	switch a.kind {
	case numInt:
		return a.i == b.i
	case numFloat:
		return a.f == b.f
	default:
		return a.c == b.c
	}
}

// numbersCompare orders two real numbers: -1, 0, or 1. Complex numbers are
// unordered and must be rejected before this call.
func numbersCompare(a, b number) int {
	a, b = widen(a, b)
	switch a.kind {
	case numInt:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
	case numFloat:
		switch {
		case a.f < b.f:
			return -1
		case a.f > b.f:
			return 1
		}
	}
	return 0
}

// object converts a number back into a runtime value.
func (n number) object() Object {
	switch n.kind {
	case numInt:
		return NewInt(n.i)
	case numFloat:
		return NewFloat(n.f)
	default:
		return NewComplex(n.c)
	}
}
