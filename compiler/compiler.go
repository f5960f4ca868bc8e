// Package compiler lowers a syntax tree into code objects: a recursive walk
// over the statements of each scope emits instructions into a basic-block
// graph, which assembles into a flat instruction sequence with an exception
// table once the scope is complete.
package compiler

import (
	"sort"
	"strings"

	"github.com/cloudcmds/serpent/ast"
	"github.com/cloudcmds/serpent/bytecode"
	"github.com/cloudcmds/serpent/errors"
	"github.com/cloudcmds/serpent/op"
	"github.com/cloudcmds/serpent/symtab"
)

// MakeFunction operand bits, indicating what sits on the stack beneath the
// code object.
const (
	makeFuncDefaults   = 1
	makeFuncKwDefaults = 2
	makeFuncClosure    = 4
)

// maxUnpackCount bounds each side of a star-unpacking target; the counts
// share one instruction operand byte each.
const maxUnpackCount = 255

// reservedNames cannot be assignment targets.
var reservedNames = map[string]bool{
	"None":      true,
	"True":      true,
	"False":     true,
	"__debug__": true,
}

// futureFeatureNames returns the recognized future features, sorted, as
// suggestion candidates for a misspelled import.
func futureFeatureNames() []string {
	names := make([]string, 0, len(knownFutureFeatures))
	for name := range knownFutureFeatures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// knownFutureFeatures are accepted in `from __future__ import` statements.
var knownFutureFeatures = map[string]bool{
	"absolute_import": true,
	"annotations":     true,
	"division":        true,
	"generator_stop":  true,
	"nested_scopes":   true,
	"print_function":  true,
	"with_statement":  true,
}

// Compiler lowers one module. The zero value is not usable; construct one
// through Compile.
type Compiler struct {
	filename    string
	sourceLines []string
	table       *symtab.Table
	cursor      *symtab.Cursor
	unit        *unit

	// className is the nearest enclosing class, for private-name mangling.
	className string

	// futureAllowed is true while __future__ imports may still appear.
	futureAllowed bool
}

// Option configures the compiler.
type Option func(*Compiler)

// WithFilename sets the filename recorded in code objects and errors.
func WithFilename(name string) Option {
	return func(c *Compiler) { c.filename = name }
}

// WithSource provides the program source so errors can show the offending
// line.
func WithSource(source string) Option {
	return func(c *Compiler) { c.sourceLines = strings.Split(source, "\n") }
}

// Compile resolves names and lowers the module to a code object.
func Compile(mod *ast.Module, opts ...Option) (*bytecode.Code, error) {
	c := &Compiler{filename: "<input>", futureAllowed: true}
	for _, opt := range opts {
		opt(c)
	}
	table, err := symtab.Build(mod)
	if err != nil {
		return nil, err
	}
	c.table = table
	c.cursor = table.Cursor()

	c.unit = newUnit("<module>", c.filename, 1, c.cursor.Current(), nil)
	c.unit.declareCells()

	if err := c.moduleBody(mod.Body); err != nil {
		return nil, err
	}
	c.finishUnit(1)
	return c.unit.assemble(), nil
}

func (c *Compiler) moduleBody(body []ast.Stmt) error {
	for i, stmt := range body {
		if !isFuturePreamble(stmt, i) {
			c.futureAllowed = false
		}
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// isFuturePreamble reports whether a statement may precede __future__
// imports: only a leading docstring and other future imports qualify.
func isFuturePreamble(stmt ast.Stmt, index int) bool {
	switch n := stmt.(type) {
	case *ast.ExprStmt:
		if index != 0 {
			return false
		}
		cst, ok := n.Value.(*ast.Constant)
		if !ok {
			return false
		}
		_, isStr := cst.Value.(string)
		return isStr
	case *ast.ImportFrom:
		return n.Module == "__future__"
	default:
		return false
	}
}

// finishUnit terminates the current unit with an implicit `return None` if
// control can fall off the end.
func (c *Compiler) finishUnit(line int32) {
	if !c.unit.currentClosed() {
		c.unit.emit(line, op.LoadNone, 0)
		c.unit.emit(line, op.ReturnValue, 0)
	}
}

func (c *Compiler) scope() *symtab.Scope {
	return c.cursor.Current()
}

// optimized reports whether the current scope keeps locals in the fast-local
// array rather than a namespace.
func (c *Compiler) optimized() bool {
	t := c.scope().Type
	return t == symtab.FunctionScope || t == symtab.ComprehensionScope
}

func (c *Compiler) mangle(name string) string {
	return symtab.Mangle(c.className, name)
}

func (c *Compiler) loc(pos ast.Position) errors.SourceLocation {
	loc := errors.SourceLocation{
		Filename: c.filename,
		Line:     pos.Line,
		Column:   pos.Column,
	}
	if pos.Line >= 1 && pos.Line <= len(c.sourceLines) {
		loc.Source = c.sourceLines[pos.Line-1]
	}
	return loc
}

func (c *Compiler) err(code errors.ErrorCode, pos ast.Position) error {
	return errors.New(code, c.loc(pos))
}

func (c *Compiler) errf(code errors.ErrorCode, pos ast.Position, format string, args ...any) error {
	return errors.Newf(code, c.loc(pos), format, args...)
}

// ----------------------------------------------------------------------------
// Name access

type access int

const (
	accLoad access = iota
	accStore
	accDelete
)

// nameOp emits the load, store, or delete matching a name's resolved scope
// kind. Names the resolver could not classify fall back to a by-name
// namespace lookup.
func (c *Compiler) nameOp(line int32, name string, acc access) {
	name = c.mangle(name)
	var kind symtab.Kind
	if sym, ok := c.scope().Lookup(name); ok {
		kind = sym.Kind
	}

	var fast, global, byName, deref op.Code
	switch acc {
	case accLoad:
		fast, global, byName, deref = op.LoadFast, op.LoadGlobal, op.LoadName, op.LoadDeref
	case accStore:
		fast, global, byName, deref = op.StoreFast, op.StoreGlobal, op.StoreName, op.StoreDeref
	case accDelete:
		fast, global, byName, deref = op.DeleteFast, op.DeleteGlobal, op.DeleteName, op.DeleteDeref
	}

	u := c.unit
	switch kind {
	case symtab.Local:
		if c.optimized() {
			u.emit(line, fast, u.varIndex(name))
		} else {
			u.emit(line, byName, u.nameIndex(name))
		}
	case symtab.GlobalExplicit:
		u.emit(line, global, u.nameIndex(name))
	case symtab.GlobalImplicit:
		if c.optimized() {
			u.emit(line, global, u.nameIndex(name))
		} else {
			u.emit(line, byName, u.nameIndex(name))
		}
	case symtab.Free, symtab.Cell:
		u.emit(line, deref, u.cellIndex(name))
	default:
		u.emit(line, byName, u.nameIndex(name))
	}
}

// loadSynthetic loads a name the resolver never saw, such as a builtin
// referenced by generated code.
func (c *Compiler) loadSynthetic(line int32, name string) {
	if c.optimized() {
		c.unit.emit(line, op.LoadGlobal, c.unit.nameIndex(name))
	} else {
		c.unit.emit(line, op.LoadName, c.unit.nameIndex(name))
	}
}

// ----------------------------------------------------------------------------
// Scope transitions

// enterUnit descends into the scope opened by node and starts a fresh unit.
func (c *Compiler) enterUnit(name string, line int, node ast.Node) *unit {
	scope := c.cursor.Enter(node)
	u := newUnit(name, c.filename, line, scope, c.unit)
	c.unit = u
	u.declareCells()
	for _, p := range scope.Params {
		u.varIndex(p)
	}
	for _, local := range scope.SymbolsOfKind(symtab.Local) {
		u.varIndex(local)
	}
	return u
}

// exitUnit assembles the current unit and returns to the parent scope.
func (c *Compiler) exitUnit() *bytecode.Code {
	code := c.unit.assemble()
	c.unit = c.unit.parent
	c.cursor.Leave()
	return code
}

// emitClosure pushes the closure tuple for a just-compiled code object, if
// it has free variables, and returns the matching MakeFunction mask bit.
func (c *Compiler) emitClosure(line int32, code *bytecode.Code) int {
	if len(code.FreeVars) == 0 {
		return 0
	}
	for _, name := range code.FreeVars {
		c.unit.emit(line, op.LoadClosure, c.unit.cellIndex(name))
	}
	c.unit.emit(line, op.BuildTuple, len(code.FreeVars))
	return makeFuncClosure
}
