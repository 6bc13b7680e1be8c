package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nocta/ast"
	"nocta/lexer"
	"nocta/token"
)

func parse(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	tokens := lexer.New(source).Scan()
	p := Make(tokens)
	stmts, errs := p.Parse()
	require.Empty(t, errs)
	return stmts
}

func TestParseVarDecl(t *testing.T) {
	stmts := parse(t, "let x = 1")
	require.Len(t, stmts, 1)
	decl, ok := stmts[0].(ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.False(t, decl.IsConst)
}

func TestParseConstDecl(t *testing.T) {
	stmts := parse(t, "const PI = 3")
	decl, ok := stmts[0].(ast.VarDecl)
	require.True(t, ok)
	assert.True(t, decl.IsConst)
}

func TestBinaryPrecedenceMultiplyBindsTighterThanAdd(t *testing.T) {
	stmts := parse(t, "1 + 2 * 3")
	exprStmt := stmts[0].(ast.ExprStmt)
	top := exprStmt.Expression.(ast.Binary)
	assert.Equal(t, token.ADD, top.Op)
	rhs := top.Right.(ast.Binary)
	assert.Equal(t, token.MULT, rhs.Op)
}

func TestUnaryBindsTighterThanBinary(t *testing.T) {
	stmts := parse(t, "-1 + 2")
	exprStmt := stmts[0].(ast.ExprStmt)
	top := exprStmt.Expression.(ast.Binary)
	_, ok := top.Left.(ast.Unary)
	assert.True(t, ok)
}

func TestForStmtWithRangeProducesRangeIterable(t *testing.T) {
	stmts := parse(t, `
for i in 0..10 do
  let x = i
end
`)
	forStmt := stmts[0].(ast.ForStmt)
	assert.Equal(t, "i", forStmt.VarName)
	_, ok := forStmt.Iterable.(ast.Range)
	assert.True(t, ok)
}

func TestForStmtOverArrayIterable(t *testing.T) {
	stmts := parse(t, `
for x in [1, 2, 3] do
  print(x)
end
`)
	forStmt := stmts[0].(ast.ForStmt)
	_, ok := forStmt.Iterable.(ast.ArrayLiteral)
	assert.True(t, ok)
}

func TestIfElifElseChain(t *testing.T) {
	stmts := parse(t, `
if a then
  let x = 1
elif b then
  let x = 2
else
  let x = 3
end
`)
	ifStmt := stmts[0].(ast.IfStmt)
	require.NotNil(t, ifStmt.Else)
}

func TestFnDeclParsesParamsAndReturnAnnotation(t *testing.T) {
	stmts := parse(t, `
fn add(a: int, b: int) -> int
  return a + b
end
`)
	fn := stmts[0].(ast.FnDecl)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
}

func TestAssignmentToIndexTarget(t *testing.T) {
	stmts := parse(t, "a[0] = 1")
	assign := stmts[0].(ast.Assignment)
	_, ok := assign.Target.(ast.Index)
	assert.True(t, ok)
}

func TestInvalidAssignmentTargetIsSyntaxError(t *testing.T) {
	tokens := lexer.New("1 + 1 = 2").Scan()
	p := Make(tokens)
	_, errs := p.Parse()
	require.NotEmpty(t, errs)
	_, ok := errs[0].(SyntaxError)
	assert.True(t, ok)
}

func TestMissingEndIsSyntaxError(t *testing.T) {
	tokens := lexer.New("if true then\n  let x = 1\n").Scan()
	p := Make(tokens)
	_, errs := p.Parse()
	assert.NotEmpty(t, errs)
}

func TestParserRecoversAfterErrorAndReportsSubsequentStatements(t *testing.T) {
	tokens := lexer.New("1 + 1 = 2\nlet y = 2\n").Scan()
	p := Make(tokens)
	stmts, errs := p.Parse()
	assert.NotEmpty(t, errs)
	// synchronize should let the parser recover and still see `let y = 2`.
	found := false
	for _, s := range stmts {
		if decl, ok := s.(ast.VarDecl); ok && decl.Name == "y" {
			found = true
		}
	}
	assert.True(t, found)
}
