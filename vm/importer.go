package vm

import "github.com/cloudcmds/serpent/object"

// Importer resolves module names for the import instructions.
type Importer interface {
	Import(name string) (*object.Module, error)
}

// ModuleRegistry is the default Importer: a fixed table of host-provided
// modules.
type ModuleRegistry struct {
	modules map[string]*object.Module
}

// NewModuleRegistry creates an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: map[string]*object.Module{}}
}

// Register makes a module importable by its name.
func (r *ModuleRegistry) Register(mod *object.Module) {
	r.modules[mod.Name()] = mod
}

// Import implements Importer.
func (r *ModuleRegistry) Import(name string) (*object.Module, error) {
	mod, ok := r.modules[name]
	if !ok {
		return nil, object.NewModuleNotFoundError("no module named '%s'", name)
	}
	return mod, nil
}
