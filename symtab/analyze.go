package symtab

import "fmt"

// analyze assigns a Kind to every symbol. The enclosing slice holds the
// chain of scopes from outermost to innermost. Class scopes participate in
// the chain so free variables can thread through them, but their locals are
// invisible to nested scopes; a class body is only a carrier for cells its
// nested functions capture from an enclosing function.
func analyze(s *Scope, enclosing []*Scope) error {
	for _, name := range s.Names() {
		e := s.symbols[name]
		switch {
		case e.declGlobal:
			e.kind = GlobalExplicit
		case e.declNonlocal:
			idx := findBinding(enclosing, name)
			if idx < 0 {
				return fmt.Errorf("%s: no binding for nonlocal %q found", s.Pos, name)
			}
			captureBinding(enclosing, idx, name)
			e.kind = Free
		case e.bound:
			e.kind = Local
		case e.referenced:
			idx := findBinding(enclosing, name)
			switch {
			case idx >= 0 && s.Type != ModuleScope:
				captureBinding(enclosing, idx, name)
				e.kind = Free
			case s.Type == ClassScope:
				// Class bodies resolve unbound names dynamically; these
				// compile to a by-name namespace lookup.
				e.kind = Unknown
			default:
				e.kind = GlobalImplicit
			}
		default:
			e.kind = Unknown
		}
	}

	childChain := enclosing
	if s.Type != ModuleScope {
		childChain = make([]*Scope, len(enclosing), len(enclosing)+1)
		copy(childChain, enclosing)
		childChain = append(childChain, s)
	}
	for _, child := range s.Children {
		if err := analyze(child, childChain); err != nil {
			return err
		}
	}
	return nil
}

// findBinding returns the index of the innermost enclosing scope that binds
// the name, or -1. Scopes where the name is itself declared nonlocal pass
// the search through to their own binding scope. Class scopes never bind
// names for nested scopes, with one exception: "__class__" is implicitly
// bound by every class body, which is what gives methods access to the
// class cell.
func findBinding(enclosing []*Scope, name string) int {
	for i := len(enclosing) - 1; i >= 0; i-- {
		sc := enclosing[i]
		if sc.Type == ClassScope {
			if name == classCellName {
				e, ok := sc.symbols[name]
				if !ok {
					e = &symbolEntry{}
					sc.symbols[name] = e
				}
				e.bound = true
				return i
			}
			continue
		}
		e, ok := sc.symbols[name]
		if !ok {
			continue
		}
		if e.declGlobal || e.declNonlocal {
			continue
		}
		if e.bound {
			return i
		}
	}
	return -1
}

// classCellName is the implicit binding every class body provides to its
// methods, filled with the class object once the class is assembled.
const classCellName = "__class__"

// captureBinding upgrades the binding scope's symbol to a cell and threads
// the name as free through any scopes between the binding and the capturing
// scope, so closure chains materialize a cell at every level. Class scopes
// along the way carry the name in their free table even when they also bind
// it locally.
func captureBinding(enclosing []*Scope, idx int, name string) {
	enclosing[idx].symbols[name].kind = Cell
	for _, mid := range enclosing[idx+1:] {
		e, ok := mid.symbols[name]
		if !ok {
			e = &symbolEntry{referenced: true}
			mid.symbols[name] = e
		}
		switch {
		case !e.bound && !e.declGlobal:
			e.kind = Free
		case mid.Type == ClassScope:
			e.classFree = true
		}
	}
}
