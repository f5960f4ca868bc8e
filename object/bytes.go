package object

import (
	"bytes"
	"fmt"
)

type Bytes struct {
	base
	value []byte
}

// NewBytes returns a Bytes wrapping the given value. The slice is not copied.
func NewBytes(value []byte) *Bytes {
	return &Bytes{value: value}
}

func (b *Bytes) Value() []byte { return b.value }

func (b *Bytes) Type() Type { return BYTES }

func (b *Bytes) Inspect() string { return fmt.Sprintf("b%q", string(b.value)) }

func (b *Bytes) Interface() any { return b.value }

func (b *Bytes) IsTruthy() bool { return len(b.value) > 0 }

func (b *Bytes) Equals(other Object) bool {
	o, ok := other.(*Bytes)
	return ok && bytes.Equal(o.value, b.value)
}

func (b *Bytes) HashKey() HashKey {
	return HashKey{Type: BYTES, Str: string(b.value)}
}

func (b *Bytes) Len() int64 { return int64(len(b.value)) }
