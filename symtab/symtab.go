// Package symtab builds the scope table consumed by the compiler.
//
// A Build pass walks the syntax tree and records, for every scope, which
// names are bound, referenced, or declared global/nonlocal. An analyze pass
// then classifies each name with a Kind. Scopes are recorded in descent
// order, which lets the compiler consume the table with a Cursor in the same
// stack discipline as its own recursive walk.
package symtab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudcmds/serpent/ast"
)

// Kind classifies how a name resolves within a scope.
type Kind int

const (
	// Unknown names could not be resolved statically; they compile to a
	// by-name namespace lookup at runtime.
	Unknown Kind = iota

	// Local names are bound within the scope itself.
	Local

	// GlobalExplicit names carry a `global` declaration.
	GlobalExplicit

	// GlobalImplicit names are referenced but never bound in any enclosing
	// function scope, so they resolve in the module namespace (or builtins).
	GlobalImplicit

	// Free names are bound in an enclosing function scope and reach this
	// scope through a closure cell.
	Free

	// Cell names are locals captured by at least one nested scope.
	Cell
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case GlobalExplicit:
		return "global-explicit"
	case GlobalImplicit:
		return "global-implicit"
	case Free:
		return "free"
	case Cell:
		return "cell"
	default:
		return "unknown"
	}
}

// ScopeType identifies what kind of syntactic construct owns a scope.
type ScopeType int

const (
	ModuleScope ScopeType = iota
	FunctionScope
	ClassScope
	ComprehensionScope
)

func (t ScopeType) String() string {
	switch t {
	case ModuleScope:
		return "module"
	case FunctionScope:
		return "function"
	case ClassScope:
		return "class"
	case ComprehensionScope:
		return "comprehension"
	default:
		return "invalid"
	}
}

// Symbol is one resolved name within a scope.
type Symbol struct {
	Name    string
	Kind    Kind
	IsParam bool
}

// Scope holds the resolved symbols for one lexical scope. Children appear in
// source descent order.
type Scope struct {
	Type     ScopeType
	Name     string
	Pos      ast.Position
	Children []*Scope

	// Node is the syntax node that opened the scope (function, class,
	// lambda, or comprehension), nil for the module scope. The compiler
	// descends by node identity, which lets it revisit a scope when it
	// compiles the same statements more than once.
	Node ast.Node

	// Params lists parameter names in declaration order, mangled. For
	// comprehension scopes this is the single implicit ".0" parameter.
	Params []string

	IsGenerator bool
	IsAsync     bool

	symbols map[string]*symbolEntry
}

// Lookup returns the symbol for a (mangled) name.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	e, ok := s.symbols[name]
	if !ok {
		return Symbol{}, false
	}
	return Symbol{Name: name, Kind: e.kind, IsParam: e.isParam()}, true
}

// Names returns all symbol names in the scope, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SymbolsOfKind returns the sorted names having the given kind.
func (s *Scope) SymbolsOfKind(kind Kind) []string {
	var names []string
	for name, e := range s.symbols {
		if e.kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FreeNames returns the sorted names that reach this scope through closure
// cells: symbols of kind Free, plus class-scope locals that nested functions
// capture from an enclosing function.
func (s *Scope) FreeNames() []string {
	var names []string
	for name, e := range s.symbols {
		if e.kind == Free || e.classFree {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Table is the result of resolving a module.
type Table struct {
	Root *Scope
}

// Cursor tracks the compiler's position in the scope tree as it descends
// into functions, classes, and comprehensions.
type Cursor struct {
	stack []*Scope
}

// Cursor returns a cursor positioned at the root scope.
func (t *Table) Cursor() *Cursor {
	return &Cursor{stack: []*Scope{t.Root}}
}

// Current returns the scope the cursor is positioned at.
func (c *Cursor) Current() *Scope {
	return c.stack[len(c.stack)-1]
}

// Enter descends into the child scope opened by the given syntax node.
// Asking for a node that opened no scope is a defect in the caller's walk
// and panics.
func (c *Cursor) Enter(node ast.Node) *Scope {
	current := c.Current()
	for _, child := range current.Children {
		if child.Node == node {
			c.stack = append(c.stack, child)
			return child
		}
	}
	panic(fmt.Sprintf("symtab: scope %q has no child for %T node",
		current.Name, node))
}

// Leave returns to the parent scope.
func (c *Cursor) Leave() {
	if len(c.stack) == 1 {
		panic("symtab: cannot leave the root scope")
	}
	c.stack = c.stack[:len(c.stack)-1]
}

// Mangle rewrites a class-private name (leading "__", no trailing "__") to
// its class-qualified form, e.g. __x in class Foo becomes _Foo__x. Names are
// returned unchanged outside a class or when not private.
func Mangle(className, name string) string {
	if className == "" {
		return name
	}
	if !strings.HasPrefix(name, "__") || strings.HasSuffix(name, "__") {
		return name
	}
	if strings.Contains(name, ".") {
		return name
	}
	return "_" + strings.TrimLeft(className, "_") + name
}
