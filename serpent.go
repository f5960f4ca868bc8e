// Package serpent compiles and executes programs for a small dynamic
// language. The syntax tree defined in ast is lowered by the compiler into
// immutable bytecode code objects, which the frame-based vm executes.
//
// This package is the convenience surface: Compile lowers a module, Run
// executes a compiled code object, and Eval does both.
package serpent

import (
	"io"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/compiler"
	"github.com/cloudcmds/serpent/object"
	"github.com/cloudcmds/serpent/vm"
)

// Option configures a compilation or execution.
type Option func(*options)

type options struct {
	filename       string
	globals        map[string]object.Object
	stdout         io.Writer
	observer       vm.Observer
	observerConfig vm.ObserverConfig
	importer       vm.Importer
	modules        []*object.Module
	recursionLimit int
}

func collectOptions(opts ...Option) *options {
	o := &options{globals: map[string]object.Object{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) compilerOpts() []compiler.Option {
	var out []compiler.Option
	if o.filename != "" {
		out = append(out, compiler.WithFilename(o.filename))
	}
	return out
}

func (o *options) vmOpts() []vm.Option {
	var out []vm.Option
	if len(o.globals) > 0 {
		out = append(out, vm.WithGlobals(o.globals))
	}
	if o.stdout != nil {
		out = append(out, vm.WithStdout(o.stdout))
	}
	if o.observer != nil {
		out = append(out, vm.WithObserver(o.observer, o.observerConfig))
	}
	if o.importer != nil {
		out = append(out, vm.WithImporter(o.importer))
	}
	for _, mod := range o.modules {
		out = append(out, vm.WithModule(mod))
	}
	if o.recursionLimit > 0 {
		out = append(out, vm.WithRecursionLimit(o.recursionLimit))
	}
	return out
}

// WithFilename sets the filename recorded in compiled code, which appears in
// tracebacks and disassembly.
func WithFilename(filename string) Option {
	return func(o *options) { o.filename = filename }
}

// WithGlobals provides values that are visible as module-level globals. The
// option is additive; the last value supplied for a name wins.
func WithGlobals(globals map[string]object.Object) Option {
	return func(o *options) {
		for k, v := range globals {
			o.globals[k] = v
		}
	}
}

// WithGlobal provides a single named global value.
func WithGlobal(name string, value object.Object) Option {
	return func(o *options) { o.globals[name] = value }
}

// WithStdout redirects print output.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithObserver installs an execution observer on the machine.
func WithObserver(obs vm.Observer, cfg vm.ObserverConfig) Option {
	return func(o *options) {
		o.observer = obs
		o.observerConfig = cfg
	}
}

// WithImporter supplies the module importer used by import statements.
func WithImporter(imp vm.Importer) Option {
	return func(o *options) { o.importer = imp }
}

// WithModule registers a host-provided importable module.
func WithModule(mod *object.Module) Option {
	return func(o *options) { o.modules = append(o.modules, mod) }
}

// WithRecursionLimit bounds call depth.
func WithRecursionLimit(limit int) Option {
	return func(o *options) { o.recursionLimit = limit }
}

// Compile lowers a module to a code object.
func Compile(mod *ast.Module, opts ...Option) (*bytecode.Code, error) {
	o := collectOptions(opts...)
	return compiler.Compile(mod, o.compilerOpts()...)
}

// Run executes a compiled code object on a fresh machine and returns the
// module's result value. An uncaught guest exception is returned as
// *vm.UncaughtError.
func Run(code *bytecode.Code, opts ...Option) (object.Object, error) {
	o := collectOptions(opts...)
	return vm.New(o.vmOpts()...).Run(code)
}

// Eval compiles and runs a module.
func Eval(mod *ast.Module, opts ...Option) (object.Object, error) {
	o := collectOptions(opts...)
	code, err := compiler.Compile(mod, o.compilerOpts()...)
	if err != nil {
		return nil, err
	}
	return vm.New(o.vmOpts()...).Run(code)
}
