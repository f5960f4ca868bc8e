package object

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/cloudcmds/serpent/op"
)

// BinaryOp applies a binary operator to two operands, with numeric promotion
// across the int/float/complex tower. Unsupported pairings return TypeError.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			return numericBinaryOp(opType, an, bn)
		}
	}
	switch opType {
	case op.Add:
		return addObjects(a, b)
	case op.Multiply:
		return multiplyObjects(a, b)
	case op.BitwiseOr:
		switch x := a.(type) {
		case *Set:
			if y, ok := b.(*Set); ok {
				return setUnion(x, y)
			}
		case *Dict:
			if y, ok := b.(*Dict); ok {
				merged := NewDict()
				if err := merged.Merge(x); err != nil {
					return nil, err
				}
				if err := merged.Merge(y); err != nil {
					return nil, err
				}
				return merged, nil
			}
		}
	case op.BitwiseAnd:
		if x, ok := a.(*Set); ok {
			if y, ok := b.(*Set); ok {
				return setIntersection(x, y)
			}
		}
	case op.Subtract:
		if x, ok := a.(*Set); ok {
			if y, ok := b.(*Set); ok {
				return setDifference(x, y)
			}
		}
	case op.BitwiseXor:
		if x, ok := a.(*Set); ok {
			if y, ok := b.(*Set); ok {
				return setSymmetricDifference(x, y)
			}
		}
	case op.Modulo:
		if x, ok := a.(*String); ok {
			return formatString(x, b)
		}
	}
	return nil, NewTypeError("unsupported operand type(s) for %s: '%s' and '%s'",
		opType, a.Type(), b.Type())
}

func numericBinaryOp(opType op.BinaryOpType, a, b number) (Object, error) {
	a, b = widen(a, b)
	switch opType {
	case op.Add:
		switch a.kind {
		case numInt:
			return NewInt(a.i + b.i), nil
		case numFloat:
			return NewFloat(a.f + b.f), nil
		default:
			return NewComplex(a.c + b.c), nil
		}
	case op.Subtract:
		switch a.kind {
		case numInt:
			return NewInt(a.i - b.i), nil
		case numFloat:
			return NewFloat(a.f - b.f), nil
		default:
			return NewComplex(a.c - b.c), nil
		}
	case op.Multiply:
		switch a.kind {
		case numInt:
			return NewInt(a.i * b.i), nil
		case numFloat:
			return NewFloat(a.f * b.f), nil
		default:
			return NewComplex(a.c * b.c), nil
		}
	case op.Divide:
		switch a.kind {
		case numInt:
			if b.i == 0 {
				return nil, NewZeroDivisionError("division by zero")
			}
			return NewFloat(float64(a.i) / float64(b.i)), nil
		case numFloat:
			if b.f == 0 {
				return nil, NewZeroDivisionError("float division by zero")
			}
			return NewFloat(a.f / b.f), nil
		default:
			if b.c == 0 {
				return nil, NewZeroDivisionError("complex division by zero")
			}
			return NewComplex(a.c / b.c), nil
		}
	case op.FloorDiv:
		switch a.kind {
		case numInt:
			if b.i == 0 {
				return nil, NewZeroDivisionError("integer division or modulo by zero")
			}
			return NewInt(floorDivInt(a.i, b.i)), nil
		case numFloat:
			if b.f == 0 {
				return nil, NewZeroDivisionError("float floor division by zero")
			}
			return NewFloat(math.Floor(a.f / b.f)), nil
		default:
			return nil, NewTypeError("can't take floor of complex number")
		}
	case op.Modulo:
		switch a.kind {
		case numInt:
			if b.i == 0 {
				return nil, NewZeroDivisionError("integer division or modulo by zero")
			}
			return NewInt(moduloInt(a.i, b.i)), nil
		case numFloat:
			if b.f == 0 {
				return nil, NewZeroDivisionError("float modulo")
			}
			return NewFloat(moduloFloat(a.f, b.f)), nil
		default:
			return nil, NewTypeError("can't mod complex numbers")
		}
	case op.Power:
		switch a.kind {
		case numInt:
			// Negative exponents leave the integers.
			if b.i < 0 {
				return NewFloat(math.Pow(float64(a.i), float64(b.i))), nil
			}
			return NewInt(powInt(a.i, b.i)), nil
		case numFloat:
			return NewFloat(math.Pow(a.f, b.f)), nil
		default:
			return NewComplex(cmplx.Pow(a.c, b.c)), nil
		}
	case op.LShift, op.RShift, op.BitwiseAnd, op.BitwiseOr, op.BitwiseXor:
		if a.kind != numInt {
			return nil, NewTypeError("unsupported operand type(s) for %s", opType)
		}
		return intBitwiseOp(opType, a.i, b.i)
	case op.MatrixMul:
		return nil, NewTypeError("unsupported operand type(s) for @")
	}
	return nil, NewTypeError("unsupported operand type(s) for %s", opType)
}

// floorDivInt rounds the quotient toward negative infinity.
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// moduloInt gives a result whose sign follows the divisor.
func moduloInt(a, b int64) int64 {
	r := a % b
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

func moduloFloat(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && ((r < 0) != (b < 0)) {
		r += b
	}
	return r
}

func powInt(base, exp int64) int64 {
	var result int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func intBitwiseOp(opType op.BinaryOpType, a, b int64) (Object, error) {
	switch opType {
	case op.LShift:
		if b < 0 {
			return nil, NewValueError("negative shift count")
		}
		return NewInt(a << uint64(b)), nil
	case op.RShift:
		if b < 0 {
			return nil, NewValueError("negative shift count")
		}
		if b >= 64 {
			if a < 0 {
				return NewInt(-1), nil
			}
			return NewInt(0), nil
		}
		return NewInt(a >> uint64(b)), nil
	case op.BitwiseAnd:
		return NewInt(a & b), nil
	case op.BitwiseOr:
		return NewInt(a | b), nil
	case op.BitwiseXor:
		return NewInt(a ^ b), nil
	}
	return nil, NewTypeError("unsupported operand type(s) for %s", opType)
}

func addObjects(a, b Object) (Object, error) {
	switch x := a.(type) {
	case *String:
		if y, ok := b.(*String); ok {
			return NewString(x.value + y.value), nil
		}
		return nil, NewTypeError(`can only concatenate str (not "%s") to str`, b.Type())
	case *Bytes:
		if y, ok := b.(*Bytes); ok {
			out := make([]byte, 0, len(x.value)+len(y.value))
			out = append(out, x.value...)
			out = append(out, y.value...)
			return NewBytes(out), nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			out := make([]Object, 0, len(x.items)+len(y.items))
			out = append(out, x.items...)
			out = append(out, y.items...)
			return NewList(out), nil
		}
		return nil, NewTypeError(`can only concatenate list (not "%s") to list`, b.Type())
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			out := make([]Object, 0, len(x.items)+len(y.items))
			out = append(out, x.items...)
			out = append(out, y.items...)
			return NewTuple(out), nil
		}
	}
	return nil, NewTypeError("unsupported operand type(s) for +: '%s' and '%s'",
		a.Type(), b.Type())
}

func multiplyObjects(a, b Object) (Object, error) {
	// Normalize to sequence * int.
	if _, ok := asNumber(a); ok {
		a, b = b, a
	}
	count, ok := b.(*Int)
	if !ok {
		return nil, NewTypeError("unsupported operand type(s) for *: '%s' and '%s'",
			a.Type(), b.Type())
	}
	n := count.value
	if n < 0 {
		n = 0
	}
	switch x := a.(type) {
	case *String:
		return NewString(strings.Repeat(x.value, int(n))), nil
	case *Bytes:
		out := make([]byte, 0, int64(len(x.value))*n)
		for i := int64(0); i < n; i++ {
			out = append(out, x.value...)
		}
		return NewBytes(out), nil
	case *List:
		out := make([]Object, 0, int64(len(x.items))*n)
		for i := int64(0); i < n; i++ {
			out = append(out, x.items...)
		}
		return NewList(out), nil
	case *Tuple:
		out := make([]Object, 0, int64(len(x.items))*n)
		for i := int64(0); i < n; i++ {
			out = append(out, x.items...)
		}
		return NewTuple(out), nil
	}
	return nil, NewTypeError("unsupported operand type(s) for *: '%s' and '%s'",
		a.Type(), b.Type())
}

// formatString implements printf-style interpolation with %s, %r, and %d.
func formatString(format *String, operand Object) (Object, error) {
	values := []Object{operand}
	if t, ok := operand.(*Tuple); ok {
		values = t.items
	}
	var b strings.Builder
	src := format.value
	vi := 0
	for i := 0; i < len(src); i++ {
		if src[i] != '%' || i+1 >= len(src) {
			b.WriteByte(src[i])
			continue
		}
		i++
		verb := src[i]
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if vi >= len(values) {
			return nil, NewTypeError("not enough arguments for format string")
		}
		v := values[vi]
		vi++
		switch verb {
		case 's':
			b.WriteString(AsString(v))
		case 'r':
			b.WriteString(v.Inspect())
		case 'd':
			n, ok := asNumber(v)
			if !ok || n.kind == numComplex {
				return nil, NewTypeError("%%d format: a real number is required, not %s", v.Type())
			}
			b.WriteString(n.as(numInt).object().Inspect())
		default:
			return nil, NewValueError("unsupported format character %q", verb)
		}
	}
	if vi < len(values) {
		return nil, NewTypeError("not all arguments converted during string formatting")
	}
	return NewString(b.String()), nil
}

func setUnion(a, b *Set) (Object, error) {
	out := NewSet()
	for _, item := range a.Items() {
		if err := out.Add(item); err != nil {
			return nil, err
		}
	}
	for _, item := range b.Items() {
		if err := out.Add(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func setIntersection(a, b *Set) (Object, error) {
	out := NewSet()
	for _, item := range a.Items() {
		ok, err := b.Contains(item)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := out.Add(item); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func setDifference(a, b *Set) (Object, error) {
	out := NewSet()
	for _, item := range a.Items() {
		ok, err := b.Contains(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := out.Add(item); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func setSymmetricDifference(a, b *Set) (Object, error) {
	out := NewSet()
	for _, item := range a.Items() {
		ok, err := b.Contains(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := out.Add(item); err != nil {
				return nil, err
			}
		}
	}
	for _, item := range b.Items() {
		ok, err := a.Contains(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := out.Add(item); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Compare applies an ordering or equality operator. Equality never fails;
// ordering unsupported pairings return TypeError.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}
	c, err := orderObjects(a, b)
	if err != nil {
		return nil, err
	}
	switch opType {
	case op.LessThan:
		return NewBool(c < 0), nil
	case op.LessThanOrEqual:
		return NewBool(c <= 0), nil
	case op.GreaterThan:
		return NewBool(c > 0), nil
	case op.GreaterThanOrEqual:
		return NewBool(c >= 0), nil
	}
	return nil, NewTypeError("unsupported comparison: %s", opType)
}

func orderObjects(a, b Object) (int, error) {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			if an.kind == numComplex || bn.kind == numComplex {
				return 0, NewTypeError("'<' not supported between instances of '%s' and '%s'",
					a.Type(), b.Type())
			}
			return numbersCompare(an, bn), nil
		}
	}
	switch x := a.(type) {
	case *String:
		if y, ok := b.(*String); ok {
			return strings.Compare(x.value, y.value), nil
		}
	case *Bytes:
		if y, ok := b.(*Bytes); ok {
			return strings.Compare(string(x.value), string(y.value)), nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return orderSequences(x.items, y.items)
		}
	case *Tuple:
		if y, ok := b.(*Tuple); ok {
			return orderSequences(x.items, y.items)
		}
	}
	return 0, NewTypeError("'<' not supported between instances of '%s' and '%s'",
		a.Type(), b.Type())
}

// orderSequences compares element by element, then by length.
func orderSequences(a, b []Object) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Equals(b[i]) {
			continue
		}
		return orderObjects(a[i], b[i])
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}

// Contains reports whether item is a member of container, per the `in`
// operator. Strings test substring containment.
func Contains(container, item Object) (bool, error) {
	switch c := container.(type) {
	case *String:
		s, ok := item.(*String)
		if !ok {
			return false, NewTypeError("'in <string>' requires string as left operand, not %s", item.Type())
		}
		return strings.Contains(c.value, s.value), nil
	case *Bytes:
		s, ok := item.(*Bytes)
		if !ok {
			return false, NewTypeError("a bytes-like object is required, not '%s'", item.Type())
		}
		return strings.Contains(string(c.value), string(s.value)), nil
	case *Dict:
		_, found := c.Lookup(item)
		return found, nil
	case *Set:
		return c.Contains(item)
	case *List:
		for _, member := range c.items {
			if member.Equals(item) {
				return true, nil
			}
		}
		return false, nil
	case *Tuple:
		for _, member := range c.items {
			if member.Equals(item) {
				return true, nil
			}
		}
		return false, nil
	case *Range:
		n, ok := asNumber(item)
		if !ok || n.kind != numInt {
			return false, nil
		}
		v := n.i
		if c.step > 0 {
			return v >= c.start && v < c.stop && (v-c.start)%c.step == 0, nil
		}
		return v <= c.start && v > c.stop && (c.start-v)%(-c.step) == 0, nil
	}
	iter, err := GetIter(container)
	if err != nil {
		return false, NewTypeError("argument of type '%s' is not iterable", container.Type())
	}
	for {
		member, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if member.Equals(item) {
			return true, nil
		}
	}
}

// UnaryOp applies -, +, or ~ to an operand.
func UnaryOp(opcode op.Code, obj Object) (Object, error) {
	n, ok := asNumber(obj)
	if !ok {
		return nil, NewTypeError("bad operand type for unary operator: '%s'", obj.Type())
	}
	switch opcode {
	case op.UnaryNegative:
		switch n.kind {
		case numInt:
			return NewInt(-n.i), nil
		case numFloat:
			return NewFloat(-n.f), nil
		default:
			return NewComplex(-n.c), nil
		}
	case op.UnaryPositive:
		return n.object(), nil
	case op.UnaryInvert:
		if n.kind != numInt {
			return nil, NewTypeError("bad operand type for unary ~: '%s'", obj.Type())
		}
		return NewInt(^n.i), nil
	}
	return nil, NewTypeError("unsupported unary operator")
}

// Hash returns the hash key of an object, or TypeError for unhashable types.
func Hash(obj Object) (HashKey, error) {
	switch obj.(type) {
	case *List, *Dict, *Set:
		return HashKey{}, NewTypeError("unhashable type: '%s'", obj.Type())
	}
	h, ok := obj.(Hashable)
	if !ok {
		return HashKey{}, NewTypeError("unhashable type: '%s'", obj.Type())
	}
	if t, isTuple := obj.(*Tuple); isTuple {
		for _, item := range t.items {
			if _, err := Hash(item); err != nil {
				return HashKey{}, NewTypeError("unhashable type: '%s'", item.Type())
			}
		}
	}
	return h.HashKey(), nil
}

// Len returns the length of a sized object, or TypeError.
func Len(obj Object) (int64, error) {
	switch o := obj.(type) {
	case *String:
		return o.Len(), nil
	case *Bytes:
		return o.Len(), nil
	case *List:
		return o.Len(), nil
	case *Tuple:
		return o.Len(), nil
	case *Dict:
		return o.Len(), nil
	case *Set:
		return o.Len(), nil
	case *Range:
		return o.Len(), nil
	}
	return 0, NewTypeError("object of type '%s' has no len()", obj.Type())
}

// resolveIndex normalizes a possibly negative index against length,
// returning IndexError when out of range.
func resolveIndex(index Object, length int64, kind string) (int64, error) {
	n, ok := asNumber(index)
	if !ok || n.kind != numInt {
		return 0, NewTypeError("%s indices must be integers, not %s", kind, index.Type())
	}
	i := n.i
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, NewIndexError("%s index out of range", kind)
	}
	return i, nil
}

// GetItem implements subscript loads for every indexable type.
func GetItem(container, index Object) (Object, error) {
	if slice, ok := index.(*Slice); ok {
		return getSlice(container, slice)
	}
	switch c := container.(type) {
	case *List:
		i, err := resolveIndex(index, c.Len(), "list")
		if err != nil {
			return nil, err
		}
		return c.items[i], nil
	case *Tuple:
		i, err := resolveIndex(index, c.Len(), "tuple")
		if err != nil {
			return nil, err
		}
		return c.items[i], nil
	case *String:
		runes := []rune(c.value)
		i, err := resolveIndex(index, int64(len(runes)), "string")
		if err != nil {
			return nil, err
		}
		return NewString(string(runes[i])), nil
	case *Bytes:
		i, err := resolveIndex(index, c.Len(), "bytes")
		if err != nil {
			return nil, err
		}
		return NewInt(int64(c.value[i])), nil
	case *Dict:
		return c.Get(index)
	case *Range:
		i, err := resolveIndex(index, c.Len(), "range")
		if err != nil {
			return nil, err
		}
		return NewInt(c.At(i)), nil
	}
	return nil, NewTypeError("'%s' object is not subscriptable", container.Type())
}

func getSlice(container Object, slice *Slice) (Object, error) {
	switch c := container.(type) {
	case *List:
		idx, err := SliceIndices(slice, c.Len())
		if err != nil {
			return nil, err
		}
		out := make([]Object, len(idx))
		for i, j := range idx {
			out[i] = c.items[j]
		}
		return NewList(out), nil
	case *Tuple:
		idx, err := SliceIndices(slice, c.Len())
		if err != nil {
			return nil, err
		}
		out := make([]Object, len(idx))
		for i, j := range idx {
			out[i] = c.items[j]
		}
		return NewTuple(out), nil
	case *String:
		runes := []rune(c.value)
		idx, err := SliceIndices(slice, int64(len(runes)))
		if err != nil {
			return nil, err
		}
		out := make([]rune, len(idx))
		for i, j := range idx {
			out[i] = runes[j]
		}
		return NewString(string(out)), nil
	case *Bytes:
		idx, err := SliceIndices(slice, c.Len())
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(idx))
		for i, j := range idx {
			out[i] = c.value[j]
		}
		return NewBytes(out), nil
	}
	return nil, NewTypeError("'%s' object is not subscriptable", container.Type())
}

// SetItem implements subscript stores.
func SetItem(container, index, value Object) error {
	if slice, ok := index.(*Slice); ok {
		return setSlice(container, slice, value)
	}
	switch c := container.(type) {
	case *List:
		i, err := resolveIndex(index, c.Len(), "list assignment")
		if err != nil {
			return err
		}
		c.items[i] = value
		return nil
	case *Dict:
		return c.Set(index, value)
	}
	return ErrNotItemAssignable(container)
}

// ErrNotItemAssignable is the TypeError for stores into non-containers.
func ErrNotItemAssignable(container Object) error {
	return NewTypeError("'%s' object does not support item assignment", container.Type())
}

func setSlice(container Object, slice *Slice, value Object) error {
	list, ok := container.(*List)
	if !ok {
		return ErrNotItemAssignable(container)
	}
	items, err := Collect(value)
	if err != nil {
		return err
	}
	start, stop, step, err := ResolveSlice(slice, list.Len())
	if err != nil {
		return err
	}
	if step == 1 {
		if stop < start {
			stop = start
		}
		out := make([]Object, 0, int64(len(list.items))-(stop-start)+int64(len(items)))
		out = append(out, list.items[:start]...)
		out = append(out, items...)
		out = append(out, list.items[stop:]...)
		list.items = out
		return nil
	}
	idx, err := SliceIndices(slice, list.Len())
	if err != nil {
		return err
	}
	if len(idx) != len(items) {
		return NewValueError("attempt to assign sequence of size %d to extended slice of size %d",
			len(items), len(idx))
	}
	for i, j := range idx {
		list.items[j] = items[i]
	}
	return nil
}

// DelItem implements subscript deletes.
func DelItem(container, index Object) error {
	if slice, ok := index.(*Slice); ok {
		list, ok := container.(*List)
		if !ok {
			return NewTypeError("'%s' object does not support item deletion", container.Type())
		}
		idx, err := SliceIndices(slice, list.Len())
		if err != nil {
			return err
		}
		keep := make([]Object, 0, len(list.items)-len(idx))
		drop := make(map[int64]bool, len(idx))
		for _, j := range idx {
			drop[j] = true
		}
		for i, item := range list.items {
			if !drop[int64(i)] {
				keep = append(keep, item)
			}
		}
		list.items = keep
		return nil
	}
	switch c := container.(type) {
	case *List:
		i, err := resolveIndex(index, c.Len(), "list assignment")
		if err != nil {
			return err
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
		return nil
	case *Dict:
		return c.Delete(index)
	}
	return NewTypeError("'%s' object does not support item deletion", container.Type())
}

// AsString renders the str() form: strings verbatim, everything else via
// Inspect.
func AsString(obj Object) string {
	if s, ok := obj.(*String); ok {
		return s.value
	}
	if e, ok := obj.(*Exception); ok {
		return e.Message()
	}
	return obj.Inspect()
}
