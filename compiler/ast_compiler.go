package compiler

// This file implements the ASTCompiler, which compiles the abstract
// syntax tree (AST) directly to bytecode.

import (
	"fmt"
	"os"

	"nocta/ast"
	"nocta/bytecode"
	"nocta/token"
)

// Local represents a function-local variable binding. Slots are
// assigned sequentially by declaration order and, unlike a lexically
// block-scoped design, are never reclaimed mid-function: a local slot
// addresses the same stack position for the entire lifetime of the
// active frame.
type Local struct {
	name string
	slot int
}

// ASTCompiler is a visitor that compiles AST nodes directly to
// bytecode. It implements both ast.ExpressionVisitor and
// ast.StmtVisitor to traverse and compile the tree; every Visit method
// emits into the compiler's current chunk rather than returning a
// value, since the "result" of compiling a node is its bytecode.
type ASTCompiler struct {
	chunk *bytecode.Chunk

	// isFunctionScope is false while compiling the top-level program,
	// true while compiling the body of a function declaration. It
	// governs whether let/const variables bind as locals (function
	// scope) or globals (top level); for-loop variables always bind as
	// globals.
	isFunctionScope bool

	locals []Local

	// iterCounter generates a fresh synthetic global name per for-loop,
	// so nested loops never alias each other's iterator storage.
	iterCounter int
}

// NewASTCompiler creates a new AST-to-bytecode compiler for top-level
// source.
func NewASTCompiler() *ASTCompiler {
	return &ASTCompiler{}
}

// CompileAST compiles a full statement sequence into a Chunk. Function
// declarations are collected and compiled first (each into its own
// child chunk, stored as a constant and bound under its name), then the
// remaining top-level statements are compiled in order, and a final
// HALT is appended.
//
// Panics raised anywhere in the compiler are recovered here and
// returned as the error: a panic value that is already an error (such
// as a SemanticError or DeveloperError) is returned as is, and any
// other value is wrapped in a DeveloperError; this
// mirrors the panic/recover discipline used throughout the rest of the
// pipeline so nested emission helpers don't need to thread error
// returns through every call.
func (c *ASTCompiler) CompileAST(statements []ast.Stmt) (chunk *bytecode.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
			} else {
				err = DeveloperError{Message: fmt.Sprintf("%v", r)}
			}
			chunk = nil
		}
	}()

	c.chunk = bytecode.New()

	var rest []ast.Stmt
	for _, stmt := range statements {
		if fn, ok := stmt.(ast.FnDecl); ok {
			c.compileFnDecl(fn)
		} else {
			rest = append(rest, stmt)
		}
	}
	for _, stmt := range rest {
		c.compileStmt(stmt)
	}
	c.chunk.Emit(bytecode.OP_HALT, 0)
	return c.chunk, nil
}

func (c *ASTCompiler) compileStmt(s ast.Stmt) {
	s.Accept(c)
}

func (c *ASTCompiler) compileExpr(e ast.Expression) {
	e.Accept(c)
}

func (c *ASTCompiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}

func (c *ASTCompiler) emitJump(op bytecode.Opcode, line int32) int {
	c.chunk.Emit(op, line)
	return c.chunk.EmitUint16(0xFFFF, line)
}

func (c *ASTCompiler) patchJump(operandOffset int) {
	target := uint16(c.chunk.CurrentOffset())
	c.chunk.PatchUint16(operandOffset, target)
}

func (c *ASTCompiler) emitJumpTo(op bytecode.Opcode, target uint16, line int32) {
	c.chunk.Emit(op, line)
	c.chunk.EmitUint16(target, line)
}

// compileFnDecl compiles a function declaration into its own chunk
// (using a fresh child ASTCompiler so its locals never interact with
// the declaring scope's), stores the resulting CompiledFunction as a
// constant in the enclosing chunk, and emits the store under its name
// at the point of declaration.
func (c *ASTCompiler) compileFnDecl(fn ast.FnDecl) {
	child := &ASTCompiler{isFunctionScope: true, chunk: bytecode.New()}
	for i, p := range fn.Params {
		child.locals = append(child.locals, Local{name: p.Name, slot: i})
	}
	for _, s := range fn.Body {
		child.compileStmt(s)
	}
	// Safety net: a function whose control flow falls off the end
	// without an explicit return produces null.
	child.chunk.Emit(bytecode.OP_NULL, fn.Line)
	child.chunk.Emit(bytecode.OP_RET, fn.Line)

	compiledFn := &bytecode.CompiledFunction{
		Name:        fn.Name,
		Arity:       len(fn.Params),
		Chunk:       child.chunk,
		LocalsCount: len(child.locals),
	}

	fnIdx := c.chunk.AddConstant(compiledFn)
	c.chunk.Emit(bytecode.OP_CONST, fn.Line)
	c.chunk.EmitUint16(fnIdx, fn.Line)

	nameIdx := c.chunk.AddConstant(fn.Name)
	c.chunk.Emit(bytecode.OP_STORE_GLOBAL, fn.Line)
	c.chunk.EmitUint16(nameIdx, fn.Line)
	c.chunk.Emit(bytecode.OP_POP, fn.Line)
}

// ---- statements ----

func (c *ASTCompiler) VisitVarDecl(n ast.VarDecl) any {
	c.compileExpr(n.Value)
	if c.isFunctionScope {
		slot := len(c.locals)
		c.locals = append(c.locals, Local{name: n.Name, slot: slot})
		// The initializer's value is already sitting at this slot by
		// virtue of stack position; no store instruction is needed.
		return nil
	}
	nameIdx := c.chunk.AddConstant(n.Name)
	c.chunk.Emit(bytecode.OP_STORE_GLOBAL, n.Line)
	c.chunk.EmitUint16(nameIdx, n.Line)
	c.chunk.Emit(bytecode.OP_POP, n.Line)
	return nil
}

func (c *ASTCompiler) VisitAssignment(n ast.Assignment) any {
	switch target := n.Target.(type) {
	case ast.Identifier:
		c.compileExpr(n.Value)
		if slot, ok := c.resolveLocal(target.Name); ok {
			c.chunk.Emit(bytecode.OP_STORE, n.Line)
			c.chunk.EmitUint16(uint16(slot), n.Line)
		} else {
			nameIdx := c.chunk.AddConstant(target.Name)
			c.chunk.Emit(bytecode.OP_STORE_GLOBAL, n.Line)
			c.chunk.EmitUint16(nameIdx, n.Line)
		}
		c.chunk.Emit(bytecode.OP_POP, n.Line)
	case ast.Index:
		c.compileExpr(n.Value)
		c.compileExpr(target.Object)
		c.compileExpr(target.Idx)
		c.chunk.Emit(bytecode.OP_INDEX_SET, n.Line)
		c.chunk.Emit(bytecode.OP_POP, n.Line)
	default:
		panic(DeveloperError{Message: "assignment target is neither an identifier nor an index expression"})
	}
	return nil
}

// VisitIfStmt lowers if/elif/else with the symmetric-POP jump pattern:
// JMP_IF_FALSE peeks rather than pops its condition, so both the
// fall-through and taken paths must independently discard it.
func (c *ASTCompiler) VisitIfStmt(n ast.IfStmt) any {
	var exitJumps []int

	c.compileExpr(n.Condition)
	falseJump := c.emitJump(bytecode.OP_JMP_IF_FALSE, n.Line)
	c.chunk.Emit(bytecode.OP_POP, n.Line)
	for _, s := range n.Then {
		c.compileStmt(s)
	}
	exitJumps = append(exitJumps, c.emitJump(bytecode.OP_JMP, n.Line))
	c.patchJump(falseJump)
	c.chunk.Emit(bytecode.OP_POP, n.Line)

	for _, clause := range n.Elifs {
		c.compileExpr(clause.Condition)
		elifFalseJump := c.emitJump(bytecode.OP_JMP_IF_FALSE, n.Line)
		c.chunk.Emit(bytecode.OP_POP, n.Line)
		for _, s := range clause.Body {
			c.compileStmt(s)
		}
		exitJumps = append(exitJumps, c.emitJump(bytecode.OP_JMP, n.Line))
		c.patchJump(elifFalseJump)
		c.chunk.Emit(bytecode.OP_POP, n.Line)
	}

	for _, s := range n.Else {
		c.compileStmt(s)
	}

	for _, j := range exitJumps {
		c.patchJump(j)
	}
	return nil
}

func (c *ASTCompiler) VisitWhileStmt(n ast.WhileStmt) any {
	loopStart := uint16(c.chunk.CurrentOffset())
	c.compileExpr(n.Condition)
	exitJump := c.emitJump(bytecode.OP_JMP_IF_FALSE, n.Line)
	c.chunk.Emit(bytecode.OP_POP, n.Line)
	for _, s := range n.Body {
		c.compileStmt(s)
	}
	c.emitJumpTo(bytecode.OP_JMP, loopStart, n.Line)
	c.patchJump(exitJump)
	c.chunk.Emit(bytecode.OP_POP, n.Line)
	return nil
}

// VisitForStmt lowers `for x in iterable do ... end`.
//
// The iterable is converted to an iterator once, stored into a fresh
// synthetic global (preserving "fresh storage per loop, no aliasing
// between nested loops"), then immediately loaded back onto the stack
// exactly once before the loop starts. The back-edge targets the
// ITER_NEXT instruction itself rather than a reload of the global, so
// the already-resident iterator is re-peeked every iteration instead of
// being duplicated: it is pushed once and popped exactly once, on exit.
//
// The loop variable always binds as a global, in function scope or not,
// exactly as the original compiler's compile_for does: the iterator
// itself occupies a real stack slot once reloaded (it has to, for
// ITER_NEXT to peek it), and that slot isn't tracked in c.locals, so
// handing the loop variable a local slot would number it straight into
// the iterator's own position and STORE would clobber the iterator in
// place. Routing the loop variable through STORE_GLOBAL/LOAD_GLOBAL
// like the iterator sidesteps that collision entirely.
func (c *ASTCompiler) VisitForStmt(n ast.ForStmt) any {
	c.compileExpr(n.Iterable)
	c.chunk.Emit(bytecode.OP_ITER, n.Line)

	syntheticName := fmt.Sprintf("__iter_%d__", c.iterCounter)
	c.iterCounter++
	iterNameIdx := c.chunk.AddConstant(syntheticName)
	c.chunk.Emit(bytecode.OP_STORE_GLOBAL, n.Line)
	c.chunk.EmitUint16(iterNameIdx, n.Line)
	c.chunk.Emit(bytecode.OP_POP, n.Line)
	c.chunk.Emit(bytecode.OP_LOAD_GLOBAL, n.Line)
	c.chunk.EmitUint16(iterNameIdx, n.Line)

	loopStart := uint16(c.chunk.CurrentOffset())
	exitJump := c.emitJump(bytecode.OP_ITER_NEXT, n.Line)

	varNameIdx := c.chunk.AddConstant(n.VarName)
	c.chunk.Emit(bytecode.OP_STORE_GLOBAL, n.Line)
	c.chunk.EmitUint16(varNameIdx, n.Line)
	c.chunk.Emit(bytecode.OP_POP, n.Line)

	for _, s := range n.Body {
		c.compileStmt(s)
	}
	c.emitJumpTo(bytecode.OP_JMP, loopStart, n.Line)
	c.patchJump(exitJump)
	// No trailing POP: ITER_NEXT's exit path already popped the
	// iterator exactly once.
	return nil
}

func (c *ASTCompiler) VisitReturnStmt(n ast.ReturnStmt) any {
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.chunk.Emit(bytecode.OP_NULL, n.Line)
	}
	c.chunk.Emit(bytecode.OP_RET, n.Line)
	return nil
}

func (c *ASTCompiler) VisitExprStmt(n ast.ExprStmt) any {
	c.compileExpr(n.Expression)
	c.chunk.Emit(bytecode.OP_POP, n.Line)
	return nil
}

func (c *ASTCompiler) VisitFnDecl(n ast.FnDecl) any {
	// Reached only for a function declared somewhere other than the
	// top level (e.g. nested in a block); nocta has no closures, so
	// this still compiles the same way as the top-level pre-pass.
	c.compileFnDecl(n)
	return nil
}

// ---- expressions ----

func (c *ASTCompiler) VisitIntLiteral(n ast.IntLiteral) any {
	idx := c.chunk.AddConstant(n.Value)
	c.chunk.Emit(bytecode.OP_CONST, n.Line)
	c.chunk.EmitUint16(idx, n.Line)
	return nil
}

func (c *ASTCompiler) VisitFloatLiteral(n ast.FloatLiteral) any {
	idx := c.chunk.AddConstant(n.Value)
	c.chunk.Emit(bytecode.OP_CONST, n.Line)
	c.chunk.EmitUint16(idx, n.Line)
	return nil
}

func (c *ASTCompiler) VisitStringLiteral(n ast.StringLiteral) any {
	idx := c.chunk.AddConstant(n.Value)
	c.chunk.Emit(bytecode.OP_CONST, n.Line)
	c.chunk.EmitUint16(idx, n.Line)
	return nil
}

func (c *ASTCompiler) VisitBoolLiteral(n ast.BoolLiteral) any {
	if n.Value {
		c.chunk.Emit(bytecode.OP_TRUE, n.Line)
	} else {
		c.chunk.Emit(bytecode.OP_FALSE, n.Line)
	}
	return nil
}

func (c *ASTCompiler) VisitIdentifier(n ast.Identifier) any {
	if slot, ok := c.resolveLocal(n.Name); ok {
		c.chunk.Emit(bytecode.OP_LOAD, n.Line)
		c.chunk.EmitUint16(uint16(slot), n.Line)
		return nil
	}
	idx := c.chunk.AddConstant(n.Name)
	c.chunk.Emit(bytecode.OP_LOAD_GLOBAL, n.Line)
	c.chunk.EmitUint16(idx, n.Line)
	return nil
}

var binOpMap = map[token.TokenType]bytecode.Opcode{
	token.ADD:          bytecode.OP_ADD,
	token.SUB:          bytecode.OP_SUB,
	token.MULT:         bytecode.OP_MUL,
	token.DIV:          bytecode.OP_DIV,
	token.MOD:          bytecode.OP_MOD,
	token.EQUAL_EQUAL:  bytecode.OP_EQ,
	token.NOT_EQUAL:    bytecode.OP_NEQ,
	token.LESS:         bytecode.OP_LT,
	token.LARGER:       bytecode.OP_GT,
	token.LESS_EQUAL:   bytecode.OP_LTE,
	token.LARGER_EQUAL: bytecode.OP_GTE,
	token.BAND:         bytecode.OP_BAND,
	token.BOR:          bytecode.OP_BOR,
	token.BXOR:         bytecode.OP_BXOR,
	token.SHL:          bytecode.OP_SHL,
	token.SHR:          bytecode.OP_SHR,
}

// VisitBinary lowers and/or via short-circuit jumps (yielding the
// operand that decided the result, never a forced boolean) and every
// other binary operator via its direct opcode from binOpMap.
func (c *ASTCompiler) VisitBinary(n ast.Binary) any {
	switch n.Op {
	case token.AND:
		c.compileExpr(n.Left)
		endJump := c.emitJump(bytecode.OP_JMP_IF_FALSE, n.Line)
		c.chunk.Emit(bytecode.OP_POP, n.Line)
		c.compileExpr(n.Right)
		c.patchJump(endJump)
		return nil
	case token.OR:
		c.compileExpr(n.Left)
		endJump := c.emitJump(bytecode.OP_JMP_IF_TRUE, n.Line)
		c.chunk.Emit(bytecode.OP_POP, n.Line)
		c.compileExpr(n.Right)
		c.patchJump(endJump)
		return nil
	}

	op, ok := binOpMap[n.Op]
	if !ok {
		panic(DeveloperError{Message: fmt.Sprintf("unhandled binary operator %q", n.Op)})
	}
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	c.chunk.Emit(op, n.Line)
	return nil
}

func (c *ASTCompiler) VisitUnary(n ast.Unary) any {
	c.compileExpr(n.Operand)
	switch n.Op {
	case token.SUB:
		c.chunk.Emit(bytecode.OP_NEG, n.Line)
	case token.NOT:
		c.chunk.Emit(bytecode.OP_NOT, n.Line)
	default:
		panic(DeveloperError{Message: fmt.Sprintf("unhandled unary operator %q", n.Op)})
	}
	return nil
}

var builtinArity = map[string]int{
	"len": 1, "push": 2, "pop": 1, "time": 0, "input": 0,
}

// VisitCall recognizes the fixed built-in set by name at the call site
// and lowers each to its dedicated opcode; any other callee compiles to
// the generic push-callee/push-args/CALL sequence.
func (c *ASTCompiler) VisitCall(n ast.Call) any {
	if ident, ok := n.Callee.(ast.Identifier); ok {
		switch ident.Name {
		case "print":
			for _, arg := range n.Args {
				c.compileExpr(arg)
				c.chunk.Emit(bytecode.OP_PRINT, n.Line)
			}
			c.chunk.Emit(bytecode.OP_NULL, n.Line)
			return nil
		case "len":
			c.requireArity(n, ident.Name)
			c.compileExpr(n.Args[0])
			c.chunk.Emit(bytecode.OP_LEN, n.Line)
			return nil
		case "push":
			c.requireArity(n, ident.Name)
			c.compileExpr(n.Args[0])
			c.compileExpr(n.Args[1])
			c.chunk.Emit(bytecode.OP_PUSH, n.Line)
			return nil
		case "pop":
			c.requireArity(n, ident.Name)
			c.compileExpr(n.Args[0])
			c.chunk.Emit(bytecode.OP_POP_ARRAY, n.Line)
			return nil
		case "time":
			c.requireArity(n, ident.Name)
			c.chunk.Emit(bytecode.OP_TIME, n.Line)
			return nil
		case "input":
			c.requireArity(n, ident.Name)
			c.chunk.Emit(bytecode.OP_INPUT, n.Line)
			return nil
		}
	}

	c.compileExpr(n.Callee)
	for _, arg := range n.Args {
		c.compileExpr(arg)
	}
	c.chunk.Emit(bytecode.OP_CALL, n.Line)
	c.chunk.EmitUint16(uint16(len(n.Args)), n.Line)
	return nil
}

func (c *ASTCompiler) requireArity(n ast.Call, name string) {
	want := builtinArity[name]
	if len(n.Args) != want {
		panic(SemanticError{Message: fmt.Sprintf("%s() takes %d argument(s), got %d", name, want, len(n.Args))})
	}
}

func (c *ASTCompiler) VisitIndex(n ast.Index) any {
	c.compileExpr(n.Object)
	c.compileExpr(n.Idx)
	c.chunk.Emit(bytecode.OP_INDEX, n.Line)
	return nil
}

func (c *ASTCompiler) VisitArrayLiteral(n ast.ArrayLiteral) any {
	for _, el := range n.Elements {
		c.compileExpr(el)
	}
	c.chunk.Emit(bytecode.OP_ARRAY, n.Line)
	c.chunk.EmitUint16(uint16(len(n.Elements)), n.Line)
	return nil
}

// VisitRange lowers the standalone form of "a..b" as a call to the
// globally pre-registered __range__ builtin, which the VM builds into a
// RangeIterator. In practice this node only ever appears as a for
// loop's iterable, but compiling it generically keeps the visitor total
// over the grammar.
func (c *ASTCompiler) VisitRange(n ast.Range) any {
	idx := c.chunk.AddConstant("__range__")
	c.chunk.Emit(bytecode.OP_LOAD_GLOBAL, n.Line)
	c.chunk.EmitUint16(idx, n.Line)
	c.compileExpr(n.Start)
	c.compileExpr(n.End)
	c.chunk.Emit(bytecode.OP_CALL, n.Line)
	c.chunk.EmitUint16(2, n.Line)
	return nil
}

// DumpBytecode writes the raw instruction stream of the most recently
// compiled chunk to baseName+".nic". Used by the emit command.
func (c *ASTCompiler) DumpBytecode(baseName string) error {
	if c.chunk == nil {
		return DeveloperError{Message: "DumpBytecode called before CompileAST"}
	}
	path := baseName + ".nic"
	return os.WriteFile(path, c.chunk.Code, 0o644)
}

// DiassembleBytecode renders the most recently compiled chunk as a
// human-readable listing. When writeToFile is true and baseName is
// non-empty, the listing is also written to baseName+".dnic".
func (c *ASTCompiler) DiassembleBytecode(writeToFile bool, baseName string) (string, error) {
	if c.chunk == nil {
		return "", DeveloperError{Message: "DiassembleBytecode called before CompileAST"}
	}
	listing := bytecode.Disassemble(c.chunk, "program")
	if writeToFile && baseName != "" {
		if err := os.WriteFile(baseName+".dnic", []byte(listing), 0o644); err != nil {
			return "", err
		}
	}
	return listing, nil
}
