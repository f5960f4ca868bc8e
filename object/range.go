package object

import "fmt"

// Range is the lazy integer sequence produced by range(). Step is never zero.
type Range struct {
	base
	start int64
	stop  int64
	step  int64
}

// NewRange constructs a range. A zero step is a ValueError.
func NewRange(start, stop, step int64) (*Range, error) {
	if step == 0 {
		return nil, NewValueError("range() arg 3 must not be zero")
	}
	return &Range{start: start, stop: stop, step: step}, nil
}

func (r *Range) Start() int64 { return r.start }

func (r *Range) Stop() int64 { return r.stop }

func (r *Range) Step() int64 { return r.step }

func (r *Range) Type() Type { return RANGE }

func (r *Range) Inspect() string {
	if r.step == 1 {
		return fmt.Sprintf("range(%d, %d)", r.start, r.stop)
	}
	return fmt.Sprintf("range(%d, %d, %d)", r.start, r.stop, r.step)
}

func (r *Range) Interface() any { return r }

func (r *Range) IsTruthy() bool { return r.Len() > 0 }

func (r *Range) Equals(other Object) bool {
	o, ok := other.(*Range)
	return ok && o.start == r.start && o.stop == r.stop && o.step == r.step
}

// Len returns the number of elements the range produces.
func (r *Range) Len() int64 {
	if r.step > 0 {
		if r.stop <= r.start {
			return 0
		}
		return (r.stop - r.start + r.step - 1) / r.step
	}
	if r.stop >= r.start {
		return 0
	}
	return (r.start - r.stop - r.step - 1) / -r.step
}

// At returns the element at index i without bounds checking; callers check
// against Len.
func (r *Range) At(i int64) int64 {
	return r.start + i*r.step
}

// Iter returns an iterator over the range.
func (r *Range) Iter() Iterator {
	return &rangeIterator{r: r}
}

type rangeIterator struct {
	base
	r   *Range
	pos int64
}

func (it *rangeIterator) Type() Type { return ITERATOR }

func (it *rangeIterator) Inspect() string { return "<range_iterator>" }

func (it *rangeIterator) Interface() any { return it }

func (it *rangeIterator) Equals(other Object) bool { return it == other }

func (it *rangeIterator) Next() (Object, bool) {
	if it.pos >= it.r.Len() {
		return nil, false
	}
	v := it.r.At(it.pos)
	it.pos++
	return NewInt(v), true
}
