package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nocta/bytecode"
	"nocta/compiler"
	"nocta/lexer"
	"nocta/parser"
)

// run compiles and executes source on a fresh VM, returning the
// top-level RET value (nil for ordinary programs) and any error.
func run(t *testing.T, source string) (any, error) {
	t.Helper()
	tokens := lexer.New(source).Scan()
	p := parser.Make(tokens)
	stmts, errs := p.Parse()
	require.Empty(t, errs)
	astCompiler := compiler.NewASTCompiler()
	chunk, err := astCompiler.CompileAST(stmts)
	require.NoError(t, err)
	return New().Run(chunk)
}

func TestConstAndArithmetic(t *testing.T) {
	chunk := bytecode.New()
	aIdx := chunk.AddConstant(int64(5))
	bIdx := chunk.AddConstant(int64(1))
	chunk.Emit(bytecode.OP_CONST, 1)
	chunk.EmitUint16(aIdx, 1)
	chunk.Emit(bytecode.OP_CONST, 1)
	chunk.EmitUint16(bIdx, 1)
	chunk.Emit(bytecode.OP_ADD, 1)
	chunk.Emit(bytecode.OP_RET, 1)

	result, err := New().Run(chunk)
	require.NoError(t, err)
	assert.Equal(t, int64(6), result)
}

func TestHaltReturnsTopOfStackWhenNonEmpty(t *testing.T) {
	chunk := bytecode.New()
	idx := chunk.AddConstant(int64(42))
	chunk.Emit(bytecode.OP_CONST, 1)
	chunk.EmitUint16(idx, 1)
	chunk.Emit(bytecode.OP_HALT, 1)

	result, err := New().Run(chunk)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
}

func TestHaltReturnsNullOnEmptyStack(t *testing.T) {
	chunk := bytecode.New()
	chunk.Emit(bytecode.OP_HALT, 1)

	result, err := New().Run(chunk)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestIntDivisionTruncatesTowardZero(t *testing.T) {
	result, err := run(t, "return -7 / 2")
	require.NoError(t, err)
	assert.Equal(t, int64(-3), result)
}

func TestGlobalsAndAssignment(t *testing.T) {
	result, err := run(t, `
let x = 10
x = x + 5
return x
`)
	require.NoError(t, err)
	assert.Equal(t, int64(15), result)
}

func TestIfElifElse(t *testing.T) {
	src := `
fn classify(n: int) -> string
  if n > 0 then
    return "positive"
  elif n < 0 then
    return "negative"
  else
    return "zero"
  end
end
return classify(-3)
`
	result, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, "negative", result)
}

func TestWhileLoop(t *testing.T) {
	result, err := run(t, `
let i = 0
let total = 0
while i < 5 do
  total = total + i
  i = i + 1
end
return total
`)
	require.NoError(t, err)
	assert.Equal(t, int64(10), result)
}

func TestForLoopOverRange(t *testing.T) {
	result, err := run(t, `
let total = 0
for i in 0..5 do
  total = total + i
end
return total
`)
	require.NoError(t, err)
	assert.Equal(t, int64(10), result)
}

func TestForLoopOverArray(t *testing.T) {
	result, err := run(t, `
let total = 0
for x in [10, 20, 30] do
  total = total + x
end
return total
`)
	require.NoError(t, err)
	assert.Equal(t, int64(60), result)
}

func TestNestedForLoopsDoNotAlias(t *testing.T) {
	result, err := run(t, `
let total = 0
for i in 0..3 do
  for j in 0..3 do
    total = total + 1
  end
end
return total
`)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result)
}

func TestForLoopOverRangeInsideFunction(t *testing.T) {
	src := `
fn sumUpTo(n: int) -> int
  let total = 0
  for i in 0..n do
    total = total + i
  end
  return total
end
return sumUpTo(5) + sumUpTo(3)
`
	result, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, int64(13), result)
}

func TestForLoopOverArrayInsideFunction(t *testing.T) {
	src := `
fn sumAll(xs: array) -> int
  let total = 0
  for x in xs do
    total = total + x
  end
  return total
end
return sumAll([10, 20, 30])
`
	result, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, int64(60), result)
}

func TestNestedForLoopsInsideFunctionDoNotAlias(t *testing.T) {
	src := `
fn count() -> int
  let total = 0
  for i in 0..3 do
    for j in 0..3 do
      total = total + 1
    end
  end
  return total
end
return count() + count()
`
	result, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, int64(18), result)
}

func TestForLoopInsideFunctionLeavesStackBalanced(t *testing.T) {
	src := `
fn loopThenAdd(n: int) -> int
  for i in 0..n do
    let unused = i * 2
  end
  let a = 1
  let b = 2
  return a + b
end
return loopThenAdd(4)
`
	result, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result)
}

func TestFunctionCallAndRecursion(t *testing.T) {
	src := `
fn fact(n: int) -> int
  if n <= 1 then
    return 1
  end
  return n * fact(n - 1)
end
return fact(5)
`
	result, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, int64(120), result)
}

func TestArrayIndexAndAssignment(t *testing.T) {
	result, err := run(t, `
let a = [1, 2, 3]
a[1] = 99
return a[1]
`)
	require.NoError(t, err)
	assert.Equal(t, int64(99), result)
}

func TestShortCircuitAnd(t *testing.T) {
	result, err := run(t, "return false and (1 / 0 == 0)")
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestShortCircuitOr(t *testing.T) {
	result, err := run(t, "return true or (1 / 0 == 0)")
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, "return 1 / 0")
	require.Error(t, err)
	var rtErr RuntimeError
	require.ErrorAs(t, err, &rtErr)
}

func TestOutOfRangeIndexIsRuntimeError(t *testing.T) {
	_, err := run(t, `
let a = [1, 2]
return a[5]
`)
	require.Error(t, err)
}

func TestDeepRecursionIsStackOverflowError(t *testing.T) {
	tokens := lexer.New(`
fn recurse(n: int) -> int
  return recurse(n + 1)
end
return recurse(0)
`).Scan()
	p := parser.Make(tokens)
	stmts, errs := p.Parse()
	require.Empty(t, errs)
	astCompiler := compiler.NewASTCompiler()
	chunk, err := astCompiler.CompileAST(stmts)
	require.NoError(t, err)

	machine := New()
	machine.SetLimits(65536, 64)
	_, err = machine.Run(chunk)
	require.Error(t, err)
	var overflow StackOverflowError
	require.ErrorAs(t, err, &overflow)
}

func TestCallValueInvokesCompiledFunction(t *testing.T) {
	tokens := lexer.New(`
fn double(n: int) -> int
  return n * 2
end
return double
`).Scan()
	p := parser.Make(tokens)
	stmts, errs := p.Parse()
	require.Empty(t, errs)
	astCompiler := compiler.NewASTCompiler()
	chunk, err := astCompiler.CompileAST(stmts)
	require.NoError(t, err)

	machine := New()
	fnValue, err := machine.Run(chunk)
	require.NoError(t, err)

	result, err := machine.CallValue(fnValue, []any{int64(21)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
}

func TestShortCircuitYieldsDecidingOperandNotBool(t *testing.T) {
	result, err := run(t, "return 0 or 7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), result)

	result, err = run(t, "return 1 and 2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result)
}

func TestShortCircuitAndSkipsUndefinedRightOperand(t *testing.T) {
	result, err := run(t, "return 0 and undefined_name")
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)
}

func TestBuiltinLenPushPop(t *testing.T) {
	result, err := run(t, `
let a = [1, 2]
push(a, 3)
pop(a)
return len(a)
`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result)
}
