// Package ast defines the syntax tree consumed by the Serpent compiler.
//
// Parsing is not part of this repository: a front end produces these nodes
// and hands them to compiler.Compile along with the scope table built by the
// symtab package. Node positions are 1-based line and column numbers.
package ast

import "fmt"

// Position identifies a location in the source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by all syntax tree nodes.
type Node interface {
	Pos() Position
}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Ellipsis is the constant value of an `...` literal.
type EllipsisValue struct{}

// position is embedded by all nodes.
type position struct {
	Position Position
}

func (p position) Pos() Position { return p.Position }

// At is a convenience for building nodes with a position.
func At(line, column int) position {
	return position{Position: Position{Line: line, Column: column}}
}

// ----------------------------------------------------------------------------
// Statements

// Module is the root node for one compilation unit.
type Module struct {
	position
	Body []Stmt
}

// Parameters describes a callable's parameter list. Names holds the
// positional parameter names in order; the final len(Defaults) of them have
// default values. PosOnlyCount of the leading Names are positional-only.
type Parameters struct {
	Names        []string
	PosOnlyCount int
	Defaults     []Expr
	KwOnly       []string
	KwDefaults   []Expr // parallel to KwOnly; nil entries mean required
	Vararg       string // "*args" name, or ""
	Kwarg        string // "**kwargs" name, or ""
}

// NumParams returns the total number of named parameters, including the
// vararg and kwarg slots.
func (p *Parameters) NumParams() int {
	n := len(p.Names) + len(p.KwOnly)
	if p.Vararg != "" {
		n++
	}
	if p.Kwarg != "" {
		n++
	}
	return n
}

// FunctionDef is a function definition statement.
type FunctionDef struct {
	position
	Name    string
	Params  Parameters
	Body    []Stmt
	IsAsync bool
}

// ClassDef is a class definition statement.
type ClassDef struct {
	position
	Name  string
	Bases []Expr
	Body  []Stmt
}

// Return is a return statement.
type Return struct {
	position
	Value Expr // may be nil
}

// Delete is a del statement.
type Delete struct {
	position
	Targets []Expr
}

// Assign is an assignment statement; multiple targets chain (a = b = v).
type Assign struct {
	position
	Targets []Expr
	Value   Expr
}

// AugAssign is an augmented assignment such as `x += 1`. Op is the operator
// without the trailing "=".
type AugAssign struct {
	position
	Target Expr
	Op     string
	Value  Expr
}

// AnnAssign is an annotated assignment such as `x: int = 1`.
type AnnAssign struct {
	position
	Target     Expr
	Annotation Expr
	Value      Expr // may be nil
}

// For is a for loop with an optional else clause.
type For struct {
	position
	Target Expr
	Iter   Expr
	Body   []Stmt
	OrElse []Stmt
}

// While is a while loop with an optional else clause.
type While struct {
	position
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// If is a conditional statement.
type If struct {
	position
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// WithItem is one context manager in a with statement.
type WithItem struct {
	ContextExpr Expr
	Var         Expr // assignment target, or nil
}

// With is a with statement; async with suspends at enter and exit.
type With struct {
	position
	Items   []WithItem
	Body    []Stmt
	IsAsync bool
}

// MatchCase is one case in a match statement. The pattern is kept opaque:
// the compiler rejects match statements as unsupported.
type MatchCase struct {
	Pattern Expr
	Guard   Expr
	Body    []Stmt
}

// Match is a structural pattern matching statement.
type Match struct {
	position
	Subject Expr
	Cases   []MatchCase
}

// Raise is a raise statement. With no Exc it re-raises the active exception.
type Raise struct {
	position
	Exc   Expr // may be nil
	Cause Expr // may be nil
}

// ExceptHandler is one except clause.
type ExceptHandler struct {
	position
	Type Expr   // guard type; nil for a bare except
	Name string // bound name, or ""
	Body []Stmt
}

// Try is a try statement with optional handlers, else, and finally parts.
type Try struct {
	position
	Body     []Stmt
	Handlers []*ExceptHandler
	OrElse   []Stmt
	Final    []Stmt
}

// Assert is an assert statement.
type Assert struct {
	position
	Test Expr
	Msg  Expr // may be nil
}

// Alias is one name in an import statement.
type Alias struct {
	Name   string
	AsName string // "" if not aliased
}

// Import is an `import a.b as c` statement.
type Import struct {
	position
	Names []Alias
}

// ImportFrom is a `from mod import x` statement. A single alias named "*"
// denotes a star import. Level counts leading dots for relative imports.
type ImportFrom struct {
	position
	Module string
	Names  []Alias
	Level  int
}

// Global is a `global x, y` declaration.
type Global struct {
	position
	Names []string
}

// Nonlocal is a `nonlocal x, y` declaration.
type Nonlocal struct {
	position
	Names []string
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	position
	Value Expr
}

// Pass is a pass statement.
type Pass struct{ position }

// Break is a break statement.
type Break struct{ position }

// Continue is a continue statement.
type Continue struct{ position }

func (*Module) stmtNode()        {}
func (*FunctionDef) stmtNode()   {}
func (*ClassDef) stmtNode()      {}
func (*Return) stmtNode()        {}
func (*Delete) stmtNode()        {}
func (*Assign) stmtNode()        {}
func (*AugAssign) stmtNode()     {}
func (*AnnAssign) stmtNode()     {}
func (*For) stmtNode()           {}
func (*While) stmtNode()         {}
func (*If) stmtNode()            {}
func (*With) stmtNode()          {}
func (*Match) stmtNode()         {}
func (*Raise) stmtNode()         {}
func (*Try) stmtNode()           {}
func (*Assert) stmtNode()        {}
func (*Import) stmtNode()        {}
func (*ImportFrom) stmtNode()    {}
func (*Global) stmtNode()        {}
func (*Nonlocal) stmtNode()      {}
func (*ExprStmt) stmtNode()      {}
func (*Pass) stmtNode()          {}
func (*Break) stmtNode()         {}
func (*Continue) stmtNode()      {}
func (*ExceptHandler) stmtNode() {}

// ----------------------------------------------------------------------------
// Expressions

// BoolOp is a short-circuiting `and` / `or` chain with two or more values.
type BoolOp struct {
	position
	Op     string // "and" or "or"
	Values []Expr
}

// BinOp is a binary arithmetic or bitwise operation.
type BinOp struct {
	position
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp is a unary operation: "-", "+", "~" or "not".
type UnaryOp struct {
	position
	Op      string
	Operand Expr
}

// Lambda is an anonymous function whose body is a single expression.
type Lambda struct {
	position
	Params Parameters
	Body   Expr
}

// IfExp is a conditional expression `a if t else b`.
type IfExp struct {
	position
	Test   Expr
	Body   Expr
	OrElse Expr
}

// Dict is a dict display. Keys and Values are parallel.
type Dict struct {
	position
	Keys   []Expr
	Values []Expr
}

// Set is a set display.
type Set struct {
	position
	Elts []Expr
}

// Comprehension is one `for ... in ... [if ...]` clause of a comprehension.
type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// ListComp is a list comprehension.
type ListComp struct {
	position
	Elt        Expr
	Generators []Comprehension
}

// SetComp is a set comprehension.
type SetComp struct {
	position
	Elt        Expr
	Generators []Comprehension
}

// DictComp is a dict comprehension.
type DictComp struct {
	position
	Key        Expr
	Value      Expr
	Generators []Comprehension
}

// GeneratorExp is a generator expression.
type GeneratorExp struct {
	position
	Elt        Expr
	Generators []Comprehension
}

// Await suspends a coroutine until the awaitable completes.
type Await struct {
	position
	Value Expr
}

// Yield suspends a generator, producing Value (or None).
type Yield struct {
	position
	Value Expr // may be nil
}

// YieldFrom delegates to a sub-iterator.
type YieldFrom struct {
	position
	Value Expr
}

// Compare is a comparison chain: Left Ops[0] Comparators[0] Ops[1] ...
// Ops entries are "<", "<=", "==", "!=", ">", ">=", "is", "is not",
// "in" and "not in".
type Compare struct {
	position
	Left        Expr
	Ops         []string
	Comparators []Expr
}

// Keyword is one `name=value` argument in a call.
type Keyword struct {
	Name  string
	Value Expr
}

// Call is a call expression.
type Call struct {
	position
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Constant is a literal value: int64, float64, complex128, string, []byte,
// bool, nil (None) or EllipsisValue.
type Constant struct {
	position
	Value any
}

// JoinedStr is an f-string: a concatenation of string constants and
// formatted expressions.
type JoinedStr struct {
	position
	Values []Expr
}

// Attribute is an attribute access `value.attr`.
type Attribute struct {
	position
	Value Expr
	Attr  string
}

// Subscript is a subscript access `value[index]`.
type Subscript struct {
	position
	Value Expr
	Index Expr
}

// Slice is a slice index `lower:upper:step`; any part may be nil.
type Slice struct {
	position
	Lower Expr
	Upper Expr
	Step  Expr
}

// Starred is a `*target` in an unpacking assignment.
type Starred struct {
	position
	Value Expr
}

// Name is an identifier reference.
type Name struct {
	position
	ID string
}

// List is a list display.
type List struct {
	position
	Elts []Expr
}

// Tuple is a tuple display.
type Tuple struct {
	position
	Elts []Expr
}

func (*BoolOp) exprNode()       {}
func (*BinOp) exprNode()        {}
func (*UnaryOp) exprNode()      {}
func (*Lambda) exprNode()       {}
func (*IfExp) exprNode()        {}
func (*Dict) exprNode()         {}
func (*Set) exprNode()          {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*DictComp) exprNode()     {}
func (*GeneratorExp) exprNode() {}
func (*Await) exprNode()        {}
func (*Yield) exprNode()        {}
func (*YieldFrom) exprNode()    {}
func (*Compare) exprNode()      {}
func (*Call) exprNode()         {}
func (*Constant) exprNode()     {}
func (*JoinedStr) exprNode()    {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*Slice) exprNode()        {}
func (*Starred) exprNode()      {}
func (*Name) exprNode()         {}
func (*List) exprNode()         {}
func (*Tuple) exprNode()        {}
