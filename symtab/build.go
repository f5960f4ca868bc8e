package symtab

import (
	"fmt"

	"github.com/cloudcmds/serpent/ast"
)

// symbolEntry accumulates def/use information during the build pass. The
// analyze pass turns the flags into a Kind.
type symbolEntry struct {
	kind         Kind
	bound        bool // parameter, assignment target, def/class, import
	referenced   bool
	param        bool
	declGlobal   bool
	declNonlocal bool

	// classFree marks a class-scope symbol that nested functions capture
	// from an enclosing function while the class also binds it locally.
	// The name keeps its Local kind but still occupies a free slot.
	classFree bool
}

func (e *symbolEntry) isParam() bool { return e.param }

// Build resolves all names in a module and returns the scope table.
func Build(mod *ast.Module) (*Table, error) {
	b := &builder{}
	root := b.newScope(ModuleScope, "<module>", mod.Pos(), mod)
	b.push(root)
	for _, stmt := range mod.Body {
		if err := b.stmt(stmt); err != nil {
			return nil, err
		}
	}
	b.pop()
	if err := analyze(root, nil); err != nil {
		return nil, err
	}
	return &Table{Root: root}, nil
}

type builder struct {
	stack []*Scope

	// className is the nearest enclosing class, used for private-name
	// mangling. It persists into nested function scopes.
	className string
}

func (b *builder) newScope(t ScopeType, name string, pos ast.Position, node ast.Node) *Scope {
	return &Scope{
		Type:    t,
		Name:    name,
		Pos:     pos,
		Node:    node,
		symbols: map[string]*symbolEntry{},
	}
}

func (b *builder) push(s *Scope) {
	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		top.Children = append(top.Children, s)
	}
	b.stack = append(b.stack, s)
}

func (b *builder) pop() {
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *builder) current() *Scope {
	return b.stack[len(b.stack)-1]
}

func (b *builder) entry(name string) *symbolEntry {
	s := b.current()
	e, ok := s.symbols[name]
	if !ok {
		e = &symbolEntry{}
		s.symbols[name] = e
	}
	return e
}

func (b *builder) mangle(name string) string {
	return Mangle(b.className, name)
}

func (b *builder) bind(name string, pos ast.Position) error {
	name = b.mangle(name)
	e := b.entry(name)
	if e.declGlobal {
		// Assignment to a declared global binds in the module namespace.
		e.referenced = true
		return nil
	}
	e.bound = true
	return nil
}

func (b *builder) use(name string) {
	e := b.entry(b.mangle(name))
	e.referenced = true
}

func (b *builder) bindParam(name string, pos ast.Position) error {
	name = b.mangle(name)
	e := b.entry(name)
	if e.param {
		return fmt.Errorf("%s: duplicate parameter %q", pos, name)
	}
	e.bound = true
	e.param = true
	b.current().Params = append(b.current().Params, name)
	return nil
}

// ----------------------------------------------------------------------------
// Statements

func (b *builder) stmt(node ast.Stmt) error {
	switch n := node.(type) {
	case *ast.FunctionDef:
		return b.functionDef(n)
	case *ast.ClassDef:
		return b.classDef(n)
	case *ast.Return:
		return b.exprOpt(n.Value)
	case *ast.Delete:
		for _, t := range n.Targets {
			if err := b.target(t); err != nil {
				return err
			}
		}
		return nil
	case *ast.Assign:
		if err := b.expr(n.Value); err != nil {
			return err
		}
		for _, t := range n.Targets {
			if err := b.target(t); err != nil {
				return err
			}
		}
		return nil
	case *ast.AugAssign:
		// The target of an augmented assignment is both read and written.
		if name, ok := n.Target.(*ast.Name); ok {
			b.use(name.ID)
		}
		if err := b.expr(n.Value); err != nil {
			return err
		}
		return b.target(n.Target)
	case *ast.AnnAssign:
		if err := b.expr(n.Annotation); err != nil {
			return err
		}
		if err := b.exprOpt(n.Value); err != nil {
			return err
		}
		if n.Value != nil {
			return b.target(n.Target)
		}
		// A bare annotation still declares the name local.
		if name, ok := n.Target.(*ast.Name); ok {
			return b.bind(name.ID, n.Pos())
		}
		return b.target(n.Target)
	case *ast.For:
		if err := b.expr(n.Iter); err != nil {
			return err
		}
		if err := b.target(n.Target); err != nil {
			return err
		}
		if err := b.stmts(n.Body); err != nil {
			return err
		}
		return b.stmts(n.OrElse)
	case *ast.While:
		if err := b.expr(n.Test); err != nil {
			return err
		}
		if err := b.stmts(n.Body); err != nil {
			return err
		}
		return b.stmts(n.OrElse)
	case *ast.If:
		if err := b.expr(n.Test); err != nil {
			return err
		}
		if err := b.stmts(n.Body); err != nil {
			return err
		}
		return b.stmts(n.OrElse)
	case *ast.With:
		for _, item := range n.Items {
			if err := b.expr(item.ContextExpr); err != nil {
				return err
			}
			if item.Var != nil {
				if err := b.target(item.Var); err != nil {
					return err
				}
			}
		}
		return b.stmts(n.Body)
	case *ast.Match:
		// Patterns bind no names here; the compiler rejects match
		// statements before code generation.
		if err := b.expr(n.Subject); err != nil {
			return err
		}
		for _, c := range n.Cases {
			if err := b.stmts(c.Body); err != nil {
				return err
			}
		}
		return nil
	case *ast.Raise:
		if err := b.exprOpt(n.Exc); err != nil {
			return err
		}
		return b.exprOpt(n.Cause)
	case *ast.Try:
		if err := b.stmts(n.Body); err != nil {
			return err
		}
		for _, h := range n.Handlers {
			if err := b.exprOpt(h.Type); err != nil {
				return err
			}
			if h.Name != "" {
				if err := b.bind(h.Name, h.Pos()); err != nil {
					return err
				}
			}
			if err := b.stmts(h.Body); err != nil {
				return err
			}
		}
		if err := b.stmts(n.OrElse); err != nil {
			return err
		}
		return b.stmts(n.Final)
	case *ast.Assert:
		if err := b.expr(n.Test); err != nil {
			return err
		}
		return b.exprOpt(n.Msg)
	case *ast.Import:
		for _, alias := range n.Names {
			if err := b.bind(importedName(alias), n.Pos()); err != nil {
				return err
			}
		}
		return nil
	case *ast.ImportFrom:
		for _, alias := range n.Names {
			if alias.Name == "*" {
				continue
			}
			if err := b.bind(importedName(alias), n.Pos()); err != nil {
				return err
			}
		}
		return nil
	case *ast.Global:
		for _, name := range n.Names {
			name = b.mangle(name)
			e := b.entry(name)
			if e.param {
				return fmt.Errorf("%s: name %q is parameter and global", n.Pos(), name)
			}
			if e.declNonlocal {
				return fmt.Errorf("%s: name %q is nonlocal and global", n.Pos(), name)
			}
			e.declGlobal = true
		}
		return nil
	case *ast.Nonlocal:
		if b.current().Type == ModuleScope {
			return fmt.Errorf("%s: nonlocal declaration not allowed at module level", n.Pos())
		}
		for _, name := range n.Names {
			name = b.mangle(name)
			e := b.entry(name)
			if e.param {
				return fmt.Errorf("%s: name %q is parameter and nonlocal", n.Pos(), name)
			}
			if e.declGlobal {
				return fmt.Errorf("%s: name %q is nonlocal and global", n.Pos(), name)
			}
			e.declNonlocal = true
		}
		return nil
	case *ast.ExprStmt:
		return b.expr(n.Value)
	case *ast.Pass, *ast.Break, *ast.Continue:
		return nil
	default:
		return fmt.Errorf("%s: unsupported statement %T", node.Pos(), node)
	}
}

func (b *builder) stmts(list []ast.Stmt) error {
	for _, s := range list {
		if err := b.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func importedName(alias ast.Alias) string {
	if alias.AsName != "" {
		return alias.AsName
	}
	// `import a.b` binds "a" in the importing scope.
	name := alias.Name
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

func (b *builder) functionDef(n *ast.FunctionDef) error {
	// Defaults and annotations evaluate in the defining scope.
	if err := b.params(&n.Params); err != nil {
		return err
	}
	if err := b.bind(n.Name, n.Pos()); err != nil {
		return err
	}
	scope := b.newScope(FunctionScope, n.Name, n.Pos(), n)
	scope.IsAsync = n.IsAsync
	b.push(scope)
	if err := b.bindParams(&n.Params, n.Pos()); err != nil {
		return err
	}
	if err := b.stmts(n.Body); err != nil {
		return err
	}
	scope.IsGenerator = b.hasYield(n.Body)
	b.pop()
	return nil
}

func (b *builder) classDef(n *ast.ClassDef) error {
	for _, base := range n.Bases {
		if err := b.expr(base); err != nil {
			return err
		}
	}
	if err := b.bind(n.Name, n.Pos()); err != nil {
		return err
	}
	prevClass := b.className
	b.className = n.Name
	scope := b.newScope(ClassScope, n.Name, n.Pos(), n)
	b.push(scope)
	err := b.stmts(n.Body)
	b.pop()
	b.className = prevClass
	return err
}

// params records the default-value expressions, evaluated in the enclosing
// scope before the new scope opens.
func (b *builder) params(p *ast.Parameters) error {
	for _, d := range p.Defaults {
		if err := b.expr(d); err != nil {
			return err
		}
	}
	for _, d := range p.KwDefaults {
		if d != nil {
			if err := b.expr(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) bindParams(p *ast.Parameters, pos ast.Position) error {
	for _, name := range p.Names {
		if err := b.bindParam(name, pos); err != nil {
			return err
		}
	}
	for _, name := range p.KwOnly {
		if err := b.bindParam(name, pos); err != nil {
			return err
		}
	}
	if p.Vararg != "" {
		if err := b.bindParam(p.Vararg, pos); err != nil {
			return err
		}
	}
	if p.Kwarg != "" {
		if err := b.bindParam(p.Kwarg, pos); err != nil {
			return err
		}
	}
	return nil
}

// hasYield reports whether the statement list contains a yield outside any
// nested function, lambda, or comprehension.
func (b *builder) hasYield(body []ast.Stmt) bool {
	found := false
	var visitExpr func(ast.Expr)
	var visitStmt func(ast.Stmt)
	visitExpr = func(e ast.Expr) {
		if e == nil || found {
			return
		}
		switch n := e.(type) {
		case *ast.Yield, *ast.YieldFrom:
			found = true
		case *ast.BoolOp:
			for _, v := range n.Values {
				visitExpr(v)
			}
		case *ast.BinOp:
			visitExpr(n.Left)
			visitExpr(n.Right)
		case *ast.UnaryOp:
			visitExpr(n.Operand)
		case *ast.IfExp:
			visitExpr(n.Test)
			visitExpr(n.Body)
			visitExpr(n.OrElse)
		case *ast.Dict:
			for i := range n.Keys {
				visitExpr(n.Keys[i])
				visitExpr(n.Values[i])
			}
		case *ast.Set:
			for _, v := range n.Elts {
				visitExpr(v)
			}
		case *ast.Await:
			visitExpr(n.Value)
		case *ast.Compare:
			visitExpr(n.Left)
			for _, v := range n.Comparators {
				visitExpr(v)
			}
		case *ast.Call:
			visitExpr(n.Func)
			for _, a := range n.Args {
				visitExpr(a)
			}
			for _, kw := range n.Keywords {
				visitExpr(kw.Value)
			}
		case *ast.JoinedStr:
			for _, v := range n.Values {
				visitExpr(v)
			}
		case *ast.Attribute:
			visitExpr(n.Value)
		case *ast.Subscript:
			visitExpr(n.Value)
			visitExpr(n.Index)
		case *ast.Slice:
			visitExpr(n.Lower)
			visitExpr(n.Upper)
			visitExpr(n.Step)
		case *ast.Starred:
			visitExpr(n.Value)
		case *ast.List:
			for _, v := range n.Elts {
				visitExpr(v)
			}
		case *ast.Tuple:
			for _, v := range n.Elts {
				visitExpr(v)
			}
		}
	}
	visitStmt = func(s ast.Stmt) {
		if found {
			return
		}
		switch n := s.(type) {
		case *ast.FunctionDef, *ast.ClassDef:
			// New scope: yields inside do not mark this one.
		case *ast.Return:
			visitExpr(n.Value)
		case *ast.Delete:
			for _, t := range n.Targets {
				visitExpr(t)
			}
		case *ast.Assign:
			visitExpr(n.Value)
			for _, t := range n.Targets {
				visitExpr(t)
			}
		case *ast.AugAssign:
			visitExpr(n.Value)
		case *ast.AnnAssign:
			visitExpr(n.Value)
		case *ast.For:
			visitExpr(n.Iter)
			for _, st := range n.Body {
				visitStmt(st)
			}
			for _, st := range n.OrElse {
				visitStmt(st)
			}
		case *ast.While:
			visitExpr(n.Test)
			for _, st := range n.Body {
				visitStmt(st)
			}
			for _, st := range n.OrElse {
				visitStmt(st)
			}
		case *ast.If:
			visitExpr(n.Test)
			for _, st := range n.Body {
				visitStmt(st)
			}
			for _, st := range n.OrElse {
				visitStmt(st)
			}
		case *ast.With:
			for _, item := range n.Items {
				visitExpr(item.ContextExpr)
			}
			for _, st := range n.Body {
				visitStmt(st)
			}
		case *ast.Raise:
			visitExpr(n.Exc)
			visitExpr(n.Cause)
		case *ast.Try:
			for _, st := range n.Body {
				visitStmt(st)
			}
			for _, h := range n.Handlers {
				for _, st := range h.Body {
					visitStmt(st)
				}
			}
			for _, st := range n.OrElse {
				visitStmt(st)
			}
			for _, st := range n.Final {
				visitStmt(st)
			}
		case *ast.Assert:
			visitExpr(n.Test)
			visitExpr(n.Msg)
		case *ast.ExprStmt:
			visitExpr(n.Value)
		}
	}
	for _, s := range body {
		visitStmt(s)
	}
	return found
}

// ----------------------------------------------------------------------------
// Expressions

func (b *builder) expr(node ast.Expr) error {
	switch n := node.(type) {
	case *ast.BoolOp:
		for _, v := range n.Values {
			if err := b.expr(v); err != nil {
				return err
			}
		}
		return nil
	case *ast.BinOp:
		if err := b.expr(n.Left); err != nil {
			return err
		}
		return b.expr(n.Right)
	case *ast.UnaryOp:
		return b.expr(n.Operand)
	case *ast.Lambda:
		if err := b.params(&n.Params); err != nil {
			return err
		}
		scope := b.newScope(FunctionScope, "<lambda>", n.Pos(), n)
		b.push(scope)
		if err := b.bindParams(&n.Params, n.Pos()); err != nil {
			return err
		}
		err := b.expr(n.Body)
		b.pop()
		return err
	case *ast.IfExp:
		if err := b.expr(n.Test); err != nil {
			return err
		}
		if err := b.expr(n.Body); err != nil {
			return err
		}
		return b.expr(n.OrElse)
	case *ast.Dict:
		for i := range n.Keys {
			if err := b.exprOpt(n.Keys[i]); err != nil {
				return err
			}
			if err := b.expr(n.Values[i]); err != nil {
				return err
			}
		}
		return nil
	case *ast.Set:
		return b.exprs(n.Elts)
	case *ast.ListComp:
		return b.comprehension("<listcomp>", n, n.Generators, false, n.Elt)
	case *ast.SetComp:
		return b.comprehension("<setcomp>", n, n.Generators, false, n.Elt)
	case *ast.DictComp:
		return b.comprehension("<dictcomp>", n, n.Generators, false, n.Key, n.Value)
	case *ast.GeneratorExp:
		return b.comprehension("<genexpr>", n, n.Generators, true, n.Elt)
	case *ast.Await:
		return b.expr(n.Value)
	case *ast.Yield:
		return b.exprOpt(n.Value)
	case *ast.YieldFrom:
		return b.expr(n.Value)
	case *ast.Compare:
		if err := b.expr(n.Left); err != nil {
			return err
		}
		return b.exprs(n.Comparators)
	case *ast.Call:
		if err := b.expr(n.Func); err != nil {
			return err
		}
		if err := b.exprs(n.Args); err != nil {
			return err
		}
		for _, kw := range n.Keywords {
			if err := b.expr(kw.Value); err != nil {
				return err
			}
		}
		return nil
	case *ast.Constant:
		return nil
	case *ast.JoinedStr:
		return b.exprs(n.Values)
	case *ast.Attribute:
		return b.expr(n.Value)
	case *ast.Subscript:
		if err := b.expr(n.Value); err != nil {
			return err
		}
		return b.expr(n.Index)
	case *ast.Slice:
		if err := b.exprOpt(n.Lower); err != nil {
			return err
		}
		if err := b.exprOpt(n.Upper); err != nil {
			return err
		}
		return b.exprOpt(n.Step)
	case *ast.Starred:
		return b.expr(n.Value)
	case *ast.Name:
		b.use(n.ID)
		return nil
	case *ast.List:
		return b.exprs(n.Elts)
	case *ast.Tuple:
		return b.exprs(n.Elts)
	default:
		return fmt.Errorf("%s: unsupported expression %T", node.Pos(), node)
	}
}

func (b *builder) exprs(list []ast.Expr) error {
	for _, e := range list {
		if err := b.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) exprOpt(e ast.Expr) error {
	if e == nil {
		return nil
	}
	return b.expr(e)
}

// comprehension opens a synthetic function scope. The outermost iterable is
// evaluated in the enclosing scope and passed in as the implicit ".0"
// parameter; everything else evaluates inside the new scope.
func (b *builder) comprehension(name string, node ast.Expr, gens []ast.Comprehension, isGen bool, elts ...ast.Expr) error {
	pos := node.Pos()
	if len(gens) == 0 {
		return fmt.Errorf("%s: comprehension has no generators", pos)
	}
	if err := b.expr(gens[0].Iter); err != nil {
		return err
	}
	scope := b.newScope(ComprehensionScope, name, pos, node)
	scope.IsGenerator = isGen
	b.push(scope)
	defer b.pop()
	if err := b.bindParam(".0", pos); err != nil {
		return err
	}
	for i, gen := range gens {
		if i > 0 {
			if err := b.expr(gen.Iter); err != nil {
				return err
			}
		}
		if err := b.target(gen.Target); err != nil {
			return err
		}
		for _, cond := range gen.Ifs {
			if err := b.expr(cond); err != nil {
				return err
			}
		}
	}
	for _, e := range elts {
		if err := b.expr(e); err != nil {
			return err
		}
	}
	return nil
}

// target records the bindings produced by an assignment target.
func (b *builder) target(node ast.Expr) error {
	switch n := node.(type) {
	case *ast.Name:
		return b.bind(n.ID, n.Pos())
	case *ast.Tuple:
		for _, e := range n.Elts {
			if err := b.target(e); err != nil {
				return err
			}
		}
		return nil
	case *ast.List:
		for _, e := range n.Elts {
			if err := b.target(e); err != nil {
				return err
			}
		}
		return nil
	case *ast.Starred:
		return b.target(n.Value)
	case *ast.Attribute:
		return b.expr(n.Value)
	case *ast.Subscript:
		if err := b.expr(n.Value); err != nil {
			return err
		}
		return b.expr(n.Index)
	default:
		return fmt.Errorf("%s: invalid assignment target %T", node.Pos(), node)
	}
}
