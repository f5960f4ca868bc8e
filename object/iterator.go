package object

// sliceIterator walks a snapshot of items. Lists snapshot at iteration start,
// so mutating a list while looping over it does not disturb the loop.
type sliceIterator struct {
	base
	items []Object
	pos   int
}

// NewSliceIterator returns an iterator over the given items.
func NewSliceIterator(items []Object) Iterator {
	return &sliceIterator{items: items}
}

func (it *sliceIterator) Type() Type { return ITERATOR }

func (it *sliceIterator) Inspect() string { return "<iterator>" }

func (it *sliceIterator) Interface() any { return it }

func (it *sliceIterator) Equals(other Object) bool { return it == other }

func (it *sliceIterator) Next() (Object, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	item := it.items[it.pos]
	it.pos++
	return item, true
}

// GetIter returns an iterator over the object, or a TypeError if the object
// is not iterable.
func GetIter(obj Object) (Iterator, error) {
	switch o := obj.(type) {
	case Iterator:
		return o, nil
	case *List:
		return NewSliceIterator(append([]Object(nil), o.items...)), nil
	case *Tuple:
		return NewSliceIterator(o.items), nil
	case *String:
		return NewSliceIterator(o.Runes()), nil
	case *Bytes:
		items := make([]Object, len(o.value))
		for i, b := range o.value {
			items[i] = NewInt(int64(b))
		}
		return NewSliceIterator(items), nil
	case *Dict:
		return NewSliceIterator(o.Keys()), nil
	case *Set:
		return NewSliceIterator(o.Items()), nil
	case *Range:
		return o.Iter(), nil
	}
	return nil, NewTypeError("'%s' object is not iterable", obj.Type())
}

// Collect drains an iterable into a slice.
func Collect(obj Object) ([]Object, error) {
	iter, err := GetIter(obj)
	if err != nil {
		return nil, err
	}
	var out []Object
	for {
		item, ok := iter.Next()
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}
