package object

import "fmt"

// Module is an imported guest module: a name plus its global namespace.
type Module struct {
	base
	name    string
	globals map[string]Object
}

// NewModule constructs a module around a namespace. A nil namespace gets an
// empty map.
func NewModule(name string, globals map[string]Object) *Module {
	if globals == nil {
		globals = map[string]Object{}
	}
	return &Module{name: name, globals: globals}
}

func (m *Module) Name() string { return m.name }

func (m *Module) Globals() map[string]Object { return m.globals }

func (m *Module) Type() Type { return MODULE }

func (m *Module) Inspect() string { return fmt.Sprintf("<module '%s'>", m.name) }

func (m *Module) Interface() any { return m }

func (m *Module) Equals(other Object) bool { return m == other }

func (m *Module) GetAttr(name string) (Object, bool) {
	if name == "__name__" {
		return NewString(m.name), true
	}
	v, ok := m.globals[name]
	return v, ok
}

func (m *Module) SetAttr(name string, value Object) error {
	m.globals[name] = value
	return nil
}
