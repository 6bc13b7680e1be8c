// statements.go contains all statement AST nodes. A statement node does
// not itself produce a value on the stack (though it may compile to
// expression code whose value is immediately discarded).

package ast

// VarDecl is a `let`/`const` declaration. TypeAnn is retained only for
// diagnostics; nocta has no static type checking.
type VarDecl struct {
	Pos
	Name    string
	TypeAnn string
	Value   Expression
	IsConst bool
}

func (n VarDecl) Accept(v StmtVisitor) any { return v.VisitVarDecl(n) }

// Assignment assigns Value to Target, which must be an Identifier or an
// Index expression (enforced by the parser).
type Assignment struct {
	Pos
	Target Expression
	Value  Expression
}

func (n Assignment) Accept(v StmtVisitor) any { return v.VisitAssignment(n) }

// IfStmt models `if cond then ... [elif cond then ...]* [else ...] end`.
type IfStmt struct {
	Pos
	Condition Expression
	Then      []Stmt
	Elifs     []ElifClause
	Else      []Stmt
}

// ElifClause is one `elif condition then body` arm, in source order.
type ElifClause struct {
	Condition Expression
	Body      []Stmt
}

func (n IfStmt) Accept(v StmtVisitor) any { return v.VisitIfStmt(n) }

// WhileStmt models `while cond do ... end`.
type WhileStmt struct {
	Pos
	Condition Expression
	Body      []Stmt
}

func (n WhileStmt) Accept(v StmtVisitor) any { return v.VisitWhileStmt(n) }

// ForStmt models `for x in iterable do ... end`.
type ForStmt struct {
	Pos
	VarName  string
	Iterable Expression
	Body     []Stmt
}

func (n ForStmt) Accept(v StmtVisitor) any { return v.VisitForStmt(n) }

// ReturnStmt models `return [expr]`.
type ReturnStmt struct {
	Pos
	Value Expression // nil if no value given
}

func (n ReturnStmt) Accept(v StmtVisitor) any { return v.VisitReturnStmt(n) }

// ExprStmt is an expression evaluated for its side effect; its value is
// discarded.
type ExprStmt struct {
	Pos
	Expression Expression
}

func (n ExprStmt) Accept(v StmtVisitor) any { return v.VisitExprStmt(n) }

// Param is a single function parameter; TypeAnn is required by the
// grammar but otherwise unused.
type Param struct {
	Name    string
	TypeAnn string
}

// FnDecl is a top-level function declaration.
type FnDecl struct {
	Pos
	Name       string
	Params     []Param
	ReturnAnn  string
	Body       []Stmt
}

func (n FnDecl) Accept(v StmtVisitor) any { return v.VisitFnDecl(n) }

// Program is the root AST node: the full sequence of top-level
// statements in a source file.
type Program struct {
	Statements []Stmt
}
