// expressions.go contains all expression AST nodes. An expression node
// always evaluates to a value.

package ast

import "nocta/token"

// IntLiteral is a decoded signed integer literal.
type IntLiteral struct {
	Pos
	Value int64
}

func (n IntLiteral) Accept(v ExpressionVisitor) any { return v.VisitIntLiteral(n) }

// FloatLiteral is a decoded 64-bit float literal.
type FloatLiteral struct {
	Pos
	Value float64
}

func (n FloatLiteral) Accept(v ExpressionVisitor) any { return v.VisitFloatLiteral(n) }

// StringLiteral is a decoded (escapes already resolved) string literal.
type StringLiteral struct {
	Pos
	Value string
}

func (n StringLiteral) Accept(v ExpressionVisitor) any { return v.VisitStringLiteral(n) }

// BoolLiteral is the `true`/`false` literal.
type BoolLiteral struct {
	Pos
	Value bool
}

func (n BoolLiteral) Accept(v ExpressionVisitor) any { return v.VisitBoolLiteral(n) }

// Identifier names a variable or function being referenced.
type Identifier struct {
	Pos
	Name string
}

func (n Identifier) Accept(v ExpressionVisitor) any { return v.VisitIdentifier(n) }

// Binary is a binary operator expression, e.g. "a + b".
type Binary struct {
	Pos
	Op    token.TokenType
	Left  Expression
	Right Expression
}

func (n Binary) Accept(v ExpressionVisitor) any { return v.VisitBinary(n) }

// Unary is a prefix operator expression, e.g. "-x" or "not x".
type Unary struct {
	Pos
	Op      token.TokenType
	Operand Expression
}

func (n Unary) Accept(v ExpressionVisitor) any { return v.VisitUnary(n) }

// Call is a function call expression, e.g. "f(a, b)".
type Call struct {
	Pos
	Callee Expression
	Args   []Expression
}

func (n Call) Accept(v ExpressionVisitor) any { return v.VisitCall(n) }

// Index is an array indexing expression, e.g. "a[i]".
type Index struct {
	Pos
	Object Expression
	Idx    Expression
}

func (n Index) Accept(v ExpressionVisitor) any { return v.VisitIndex(n) }

// ArrayLiteral is an array literal, e.g. "[1, 2, 3]".
type ArrayLiteral struct {
	Pos
	Elements []Expression
}

func (n ArrayLiteral) Accept(v ExpressionVisitor) any { return v.VisitArrayLiteral(n) }

// Range is the "a..b" form that appears as the iterable of a for-loop.
type Range struct {
	Pos
	Start Expression
	End   Expression
}

func (n Range) Accept(v ExpressionVisitor) any { return v.VisitRange(n) }
