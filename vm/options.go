package vm

import (
	"io"

	"github.com/cloudcmds/serpent/object"
)

// Option configures a VirtualMachine.
type Option func(*VirtualMachine)

// WithGlobals seeds the module-level namespace before execution.
func WithGlobals(globals map[string]object.Object) Option {
	return func(vm *VirtualMachine) {
		for k, v := range globals {
			vm.globals[k] = v
		}
	}
}

// WithStdout redirects print output.
func WithStdout(w io.Writer) Option {
	return func(vm *VirtualMachine) { vm.stdout = w }
}

// WithObserver installs an execution observer.
func WithObserver(obs Observer, cfg ObserverConfig) Option {
	return func(vm *VirtualMachine) {
		vm.observer = obs
		vm.obsConfig = cfg
		if vm.obsConfig.StepMode == StepSampled && vm.obsConfig.SampleInterval < 1 {
			vm.obsConfig.SampleInterval = 1
		}
	}
}

// WithImporter replaces the module importer.
func WithImporter(imp Importer) Option {
	return func(vm *VirtualMachine) { vm.importer = imp }
}

// WithModule registers an importable module. Implies the default registry
// importer unless one was installed already.
func WithModule(mod *object.Module) Option {
	return func(vm *VirtualMachine) {
		reg, ok := vm.importer.(*ModuleRegistry)
		if !ok {
			reg = NewModuleRegistry()
			vm.importer = reg
		}
		reg.Register(mod)
	}
}

// WithRecursionLimit overrides the native recursion depth bound.
func WithRecursionLimit(limit int) Option {
	return func(vm *VirtualMachine) {
		if limit > 0 {
			vm.recursionLimit = limit
		}
	}
}
