package object

import (
	"fmt"

	"github.com/cloudcmds/serpent/bytecode"
)

// Function is a guest function: compiled code plus the environment captured
// at definition time. MakeFunction builds one; Call executes it in a frame.
type Function struct {
	base
	name       string
	code       *bytecode.Code
	globals    map[string]Object
	defaults   []Object
	kwDefaults map[string]Object
	closure    []*Cell
}

// NewFunction constructs a function around compiled code and the globals of
// the defining module.
func NewFunction(code *bytecode.Code, globals map[string]Object) *Function {
	return &Function{name: code.Name, code: code, globals: globals}
}

func (f *Function) Name() string { return f.name }

func (f *Function) Code() *bytecode.Code { return f.code }

func (f *Function) Globals() map[string]Object { return f.globals }

func (f *Function) Defaults() []Object { return f.defaults }

func (f *Function) KwDefaults() map[string]Object { return f.kwDefaults }

func (f *Function) Closure() []*Cell { return f.closure }

func (f *Function) SetDefaults(defaults []Object) { f.defaults = defaults }

func (f *Function) SetKwDefaults(kw map[string]Object) { f.kwDefaults = kw }

func (f *Function) SetClosure(closure []*Cell) { f.closure = closure }

func (f *Function) Type() Type { return FUNCTION }

func (f *Function) Inspect() string {
	return fmt.Sprintf("<function %s>", f.name)
}

func (f *Function) Interface() any { return f }

func (f *Function) Equals(other Object) bool { return f == other }

func (f *Function) GetAttr(name string) (Object, bool) {
	switch name {
	case "__name__":
		return NewString(f.name), true
	}
	return nil, false
}

// BoundMethod pairs a function with the instance it was looked up on. Calling
// it prepends the receiver to the arguments.
type BoundMethod struct {
	base
	fn       *Function
	receiver Object
}

func NewBoundMethod(fn *Function, receiver Object) *BoundMethod {
	return &BoundMethod{fn: fn, receiver: receiver}
}

func (m *BoundMethod) Function() *Function { return m.fn }

func (m *BoundMethod) Receiver() Object { return m.receiver }

func (m *BoundMethod) Type() Type { return BOUND_METHOD }

func (m *BoundMethod) Inspect() string {
	return fmt.Sprintf("<bound method %s of %s>", m.fn.name, m.receiver.Inspect())
}

func (m *BoundMethod) Interface() any { return m }

func (m *BoundMethod) Equals(other Object) bool {
	o, ok := other.(*BoundMethod)
	return ok && o.fn == m.fn && o.receiver == m.receiver
}
