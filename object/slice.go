package object

import "strings"

// Slice is the value of a `start:stop:step` subscript. Unfilled components
// hold None.
type Slice struct {
	base
	start Object
	stop  Object
	step  Object
}

// NewSlice constructs a slice from its components. Pass None for omitted
// parts.
func NewSlice(start, stop, step Object) *Slice {
	return &Slice{start: start, stop: stop, step: step}
}

func (s *Slice) Start() Object { return s.start }

func (s *Slice) Stop() Object { return s.stop }

func (s *Slice) Step() Object { return s.step }

func (s *Slice) Type() Type { return SLICE }

func (s *Slice) Inspect() string {
	var b strings.Builder
	b.WriteString("slice(")
	b.WriteString(s.start.Inspect())
	b.WriteString(", ")
	b.WriteString(s.stop.Inspect())
	b.WriteString(", ")
	b.WriteString(s.step.Inspect())
	b.WriteByte(')')
	return b.String()
}

func (s *Slice) Interface() any { return s }

func (s *Slice) Equals(other Object) bool {
	o, ok := other.(*Slice)
	return ok && s.start.Equals(o.start) && s.stop.Equals(o.stop) && s.step.Equals(o.step)
}

// ResolveSlice clamps the slice against a sequence of the given length and
// returns concrete start, stop, and step values ready for iteration. Step
// zero is a ValueError.
func ResolveSlice(s *Slice, length int64) (start, stop, step int64, err error) {
	step = 1
	if s.step != None {
		i, ok := s.step.(*Int)
		if !ok {
			return 0, 0, 0, NewTypeError("slice indices must be integers or None, not %s", s.step.Type())
		}
		step = i.value
		if step == 0 {
			return 0, 0, 0, NewValueError("slice step cannot be zero")
		}
	}
	if step > 0 {
		start, stop = 0, length
	} else {
		start, stop = length-1, -1
	}
	clamp := func(v int64, low, high int64) int64 {
		if v < 0 {
			v += length
		}
		if v < low {
			return low
		}
		if v > high {
			return high
		}
		return v
	}
	if s.start != None {
		i, ok := s.start.(*Int)
		if !ok {
			return 0, 0, 0, NewTypeError("slice indices must be integers or None, not %s", s.start.Type())
		}
		if step > 0 {
			start = clamp(i.value, 0, length)
		} else {
			start = clamp(i.value, -1, length-1)
		}
	}
	if s.stop != None {
		i, ok := s.stop.(*Int)
		if !ok {
			return 0, 0, 0, NewTypeError("slice indices must be integers or None, not %s", s.stop.Type())
		}
		if step > 0 {
			stop = clamp(i.value, 0, length)
		} else {
			stop = clamp(i.value, -1, length-1)
		}
	}
	return start, stop, step, nil
}

// SliceIndices materializes the element indices selected by the slice.
func SliceIndices(s *Slice, length int64) ([]int64, error) {
	start, stop, step, err := ResolveSlice(s, length)
	if err != nil {
		return nil, err
	}
	var out []int64
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	return out, nil
}
