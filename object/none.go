package object

// None is the singleton null value.
var None = &NoneType{}

// Ellipsis is the singleton `...` value.
var Ellipsis = &EllipsisType{}

type NoneType struct {
	base
}

func (n *NoneType) Type() Type { return NONE }

func (n *NoneType) Inspect() string { return "None" }

func (n *NoneType) Interface() any { return nil }

func (n *NoneType) Equals(other Object) bool { return other == None }

func (n *NoneType) IsTruthy() bool { return false }

func (n *NoneType) HashKey() HashKey { return HashKey{Type: NONE} }

// NotImplemented is the singleton a binary operation returns to signal that
// it does not support its operands.
var NotImplemented = &NotImplementedType{}

type NotImplementedType struct {
	base
}

func (n *NotImplementedType) Type() Type { return NOT_IMPLEMENTED }

func (n *NotImplementedType) Inspect() string { return "NotImplemented" }

func (n *NotImplementedType) Interface() any { return struct{}{} }

func (n *NotImplementedType) Equals(other Object) bool { return other == NotImplemented }

func (n *NotImplementedType) HashKey() HashKey { return HashKey{Type: NOT_IMPLEMENTED} }

type EllipsisType struct {
	base
}

func (e *EllipsisType) Type() Type { return ELLIPSIS }

func (e *EllipsisType) Inspect() string { return "Ellipsis" }

func (e *EllipsisType) Interface() any { return struct{}{} }

func (e *EllipsisType) Equals(other Object) bool { return other == Ellipsis }

func (e *EllipsisType) HashKey() HashKey { return HashKey{Type: ELLIPSIS} }
