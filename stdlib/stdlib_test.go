package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nocta/compiler"
	"nocta/lexer"
	"nocta/parser"
	"nocta/vm"
)

// compileAndRegister compiles source, registers the full stdlib
// (including the higher-order functions) on a fresh VM, runs it, and
// returns both the VM and the top-level return value.
func compileAndRegister(t *testing.T, source string) (*vm.VM, any) {
	t.Helper()
	tokens := lexer.New(source).Scan()
	p := parser.Make(tokens)
	stmts, errs := p.Parse()
	require.Empty(t, errs)
	astCompiler := compiler.NewASTCompiler()
	chunk, err := astCompiler.CompileAST(stmts)
	require.NoError(t, err)

	machine := vm.New()
	Register(machine)
	result, err := machine.Run(chunk)
	require.NoError(t, err)
	return machine, result
}

func TestMathFunctions(t *testing.T) {
	lib := All()

	abs := lib["abs"].(vm.HostCallable)
	v, err := abs([]any{int64(-5)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	sqrt := lib["sqrt"].(vm.HostCallable)
	v, err = sqrt([]any{int64(16)})
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestStringFunctions(t *testing.T) {
	upper := funcs["upper"]
	v, err := upper([]any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "HI", v)

	contains := funcs["contains"]
	v, err = contains([]any{"hello world", "wor"})
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestArrayFunctions(t *testing.T) {
	arr := []any{int64(3), int64(1), int64(2)}
	sorted, err := funcs["sort"]([]any{&arr})
	require.NoError(t, err)
	out := sorted.(*[]any)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, *out)

	sum, err := funcs["sum"]([]any{&arr})
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum)
}

func TestIndexOfMissingReturnsNegativeOne(t *testing.T) {
	arr := []any{int64(1), int64(2)}
	v, err := funcs["index_of"]([]any{&arr, int64(9)})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)
}

func TestTypeOf(t *testing.T) {
	v, err := funcs["type_of"]([]any{int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "int", v)

	v, err = funcs["type_of"]([]any{"s"})
	require.NoError(t, err)
	assert.Equal(t, "string", v)
}

func TestArityErrors(t *testing.T) {
	_, err := funcs["abs"]([]any{int64(1), int64(2)})
	assert.Error(t, err)
}

func TestMapTransformsViaNoctaFunction(t *testing.T) {
	machine, result := compileAndRegister(t, `
fn double(n: int) -> int
  return n * 2
end
fn is_even(n: int) -> bool
  return n % 2 == 0
end
return double
`)

	mapped, err := machine.CallValue(result, []any{int64(21)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), mapped)

	mapFn := higherOrderFuncs(machine)["map"]
	arr := []any{int64(1), int64(2), int64(3)}
	out, err := mapFn([]any{&arr, result})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(4), int64(6)}, *out.(*[]any))
}

func TestRangeAndFlatten(t *testing.T) {
	v, err := funcs["range"]([]any{int64(1), int64(5)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4)}, *v.(*[]any))

	nested := []any{&[]any{int64(1), int64(2)}, int64(3)}
	flat, err := funcs["flatten"]([]any{&nested})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, *flat.(*[]any))
}
