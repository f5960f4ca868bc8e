package object

import (
	"fmt"

	"github.com/cloudcmds/serpent/bytecode"
)

// Code wraps a compiled code unit so it can travel through the value stack as
// a constant. MakeFunction consumes it.
type Code struct {
	base
	value *bytecode.Code
}

// NewCode wraps a bytecode unit as an object.
func NewCode(value *bytecode.Code) *Code {
	return &Code{value: value}
}

func (c *Code) Value() *bytecode.Code { return c.value }

func (c *Code) Type() Type { return CODE }

func (c *Code) Inspect() string {
	return fmt.Sprintf("<code object %s>", c.value.Name)
}

func (c *Code) Interface() any { return c.value }

func (c *Code) Equals(other Object) bool {
	o, ok := other.(*Code)
	return ok && o.value == c.value
}
