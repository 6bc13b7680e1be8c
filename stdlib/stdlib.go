// Package stdlib implements nocta's standard library: the set of
// host-callables available to every script beyond the small built-in
// opcode set (print/len/push/pop/time/input). Unlike the built-ins,
// these are ordinary global HostCallable values, registered into a
// VM's globals by the embedding CLI before Run.
package stdlib

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"nocta/vm"
)

// All returns the name -> value map of stdlib entries that need no VM
// re-entry (everything except the higher-order array functions, which
// Register adds separately since they must call back into a specific
// VM instance to invoke a nocta function value). PI and E are plain
// float64 constants rather than HostCallables.
func All() map[string]any {
	lib := map[string]any{
		"PI": math.Pi,
		"E":  math.E,
	}
	for name, fn := range funcs {
		lib[name] = fn
	}
	return lib
}

// Register copies every stdlib entry into the given VM, including the
// higher-order array functions (`filter`/`map`/`reduce`/`find`/
// `sort_by`) that re-enter machine to invoke a nocta function value
// passed as an argument.
func Register(machine *vm.VM) {
	for name, value := range All() {
		machine.SetGlobal(name, value)
	}
	for name, fn := range higherOrderFuncs(machine) {
		machine.SetGlobal(name, fn)
	}
}

var funcs = map[string]vm.HostCallable{
	"abs":            absFn,
	"min":            minFn,
	"max":            maxFn,
	"floor":          floorFn,
	"ceil":           ceilFn,
	"round":          roundFn,
	"sqrt":           sqrtFn,
	"pow":            powFn,
	"log":            logFn,
	"log10":          log10Fn,
	"sin":            sinFn,
	"cos":            cosFn,
	"tan":            tanFn,
	"str":            strFn,
	"int":            intFn,
	"float":          floatFn,
	"split":          splitFn,
	"join":           joinFn,
	"upper":          upperFn,
	"lower":          lowerFn,
	"strip":          stripFn,
	"replace":        replaceFn,
	"contains":       containsFn,
	"starts_with":    startsWithFn,
	"ends_with":      endsWithFn,
	"char_at":        charAtFn,
	"char_code":      charCodeFn,
	"from_char_code": fromCharCodeFn,
	"reverse":        reverseFn,
	"sort":           sortFn,
	"sum":            sumFn,
	"index_of":       indexOfFn,
	"slice":          sliceFn,
	"concat":         concatFn,
	"range":          rangeFn,
	"flatten":        flattenFn,
	"unique":         uniqueFn,
	"zip":            zipFn,
	"random":         randomFn,
	"random_int":     randomIntFn,
	"type_of":        typeOfFn,
	"is_int":         isIntFn,
	"is_float":       isFloatFn,
	"is_string":      isStringFn,
	"is_array":       isArrayFn,
	"is_bool":        isBoolFn,
	"read_file":      readFileFn,
	"write_file":     writeFileFn,
	"read_lines":     readLinesFn,
}

func arity(args []any, n int, name string) error {
	if len(args) != n {
		return fmt.Errorf("%s() takes %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asArray(v any) (*[]any, bool) {
	a, ok := v.(*[]any)
	return a, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func absFn(args []any) (any, error) {
	if err := arity(args, 1, "abs"); err != nil {
		return nil, err
	}
	switch n := args[0].(type) {
	case int64:
		if n < 0 {
			return -n, nil
		}
		return n, nil
	case float64:
		return math.Abs(n), nil
	}
	return nil, fmt.Errorf("abs() requires a number")
}

func minFn(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("min() requires at least 1 argument")
	}
	items := args
	if len(args) == 1 {
		if a, ok := asArray(args[0]); ok {
			items = *a
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("min() of an empty array")
	}
	best := items[0]
	bestF, _ := asFloat(best)
	for _, v := range items[1:] {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("min() requires numbers")
		}
		if f < bestF {
			best, bestF = v, f
		}
	}
	return best, nil
}

func maxFn(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("max() requires at least 1 argument")
	}
	items := args
	if len(args) == 1 {
		if a, ok := asArray(args[0]); ok {
			items = *a
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("max() of an empty array")
	}
	best := items[0]
	bestF, _ := asFloat(best)
	for _, v := range items[1:] {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("max() requires numbers")
		}
		if f > bestF {
			best, bestF = v, f
		}
	}
	return best, nil
}

func floorFn(args []any) (any, error) {
	if err := arity(args, 1, "floor"); err != nil {
		return nil, err
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("floor() requires a number")
	}
	return int64(math.Floor(f)), nil
}

func ceilFn(args []any) (any, error) {
	if err := arity(args, 1, "ceil"); err != nil {
		return nil, err
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("ceil() requires a number")
	}
	return int64(math.Ceil(f)), nil
}

func roundFn(args []any) (any, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, fmt.Errorf("round() takes 1 or 2 arguments, got %d", len(args))
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("round() requires a number")
	}
	digits := int64(0)
	if len(args) == 2 {
		d, ok := args[1].(int64)
		if !ok {
			return nil, fmt.Errorf("round() digits must be an integer")
		}
		digits = d
	}
	scale := math.Pow(10, float64(digits))
	rounded := math.Round(f*scale) / scale
	if digits == 0 {
		return int64(rounded), nil
	}
	return rounded, nil
}

func sqrtFn(args []any) (any, error) {
	if err := arity(args, 1, "sqrt"); err != nil {
		return nil, err
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("sqrt() requires a number")
	}
	return math.Sqrt(f), nil
}

func powFn(args []any) (any, error) {
	if err := arity(args, 2, "pow"); err != nil {
		return nil, err
	}
	base, ok1 := asFloat(args[0])
	exp, ok2 := asFloat(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("pow() requires numbers")
	}
	_, baseIsInt := args[0].(int64)
	_, expIsInt := args[1].(int64)
	if baseIsInt && expIsInt && exp >= 0 {
		return int64(math.Pow(base, exp)), nil
	}
	return math.Pow(base, exp), nil
}

func strFn(args []any) (any, error) {
	if err := arity(args, 1, "str"); err != nil {
		return nil, err
	}
	return fmt.Sprintf("%v", args[0]), nil
}

func intFn(args []any) (any, error) {
	if err := arity(args, 1, "int"); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return nil, fmt.Errorf("cannot convert %q to int", v)
		}
		return n, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("cannot convert value to int")
}

func floatFn(args []any) (any, error) {
	if err := arity(args, 1, "float"); err != nil {
		return nil, err
	}
	if f, ok := asFloat(args[0]); ok {
		return f, nil
	}
	if s, ok := args[0].(string); ok {
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
			return nil, fmt.Errorf("cannot convert %q to float", s)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert value to float")
}

func splitFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("split() takes 2 arguments, got %d", len(args))
	}
	s, ok1 := asString(args[0])
	sep, ok2 := asString(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("split() requires strings")
	}
	parts := strings.Split(s, sep)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return &out, nil
}

func joinFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("join() takes 2 arguments, got %d", len(args))
	}
	arr, ok1 := asArray(args[0])
	sep, ok2 := asString(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("join() requires an array and a string")
	}
	parts := make([]string, len(*arr))
	for i, v := range *arr {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, sep), nil
}

func upperFn(args []any) (any, error) {
	s, err := requireString(args, "upper")
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func lowerFn(args []any) (any, error) {
	s, err := requireString(args, "lower")
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func stripFn(args []any) (any, error) {
	s, err := requireString(args, "strip")
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s), nil
}

func requireString(args []any, name string) (string, error) {
	if err := arity(args, 1, name); err != nil {
		return "", err
	}
	s, ok := asString(args[0])
	if !ok {
		return "", fmt.Errorf("%s() requires a string", name)
	}
	return s, nil
}

func replaceFn(args []any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("replace() takes 3 arguments, got %d", len(args))
	}
	s, ok1 := asString(args[0])
	old, ok2 := asString(args[1])
	new, ok3 := asString(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("replace() requires strings")
	}
	return strings.ReplaceAll(s, old, new), nil
}

func containsFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("contains() takes 2 arguments, got %d", len(args))
	}
	s, ok1 := asString(args[0])
	sub, ok2 := asString(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("contains() requires strings")
	}
	return strings.Contains(s, sub), nil
}

func startsWithFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("starts_with() takes 2 arguments, got %d", len(args))
	}
	s, ok1 := asString(args[0])
	prefix, ok2 := asString(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("starts_with() requires strings")
	}
	return strings.HasPrefix(s, prefix), nil
}

func endsWithFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ends_with() takes 2 arguments, got %d", len(args))
	}
	s, ok1 := asString(args[0])
	suffix, ok2 := asString(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("ends_with() requires strings")
	}
	return strings.HasSuffix(s, suffix), nil
}

func reverseFn(args []any) (any, error) {
	if err := arity(args, 1, "reverse"); err != nil {
		return nil, err
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("reverse() requires an array")
	}
	out := make([]any, len(*arr))
	for i, v := range *arr {
		out[len(*arr)-1-i] = v
	}
	return &out, nil
}

func sortFn(args []any) (any, error) {
	if err := arity(args, 1, "sort"); err != nil {
		return nil, err
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("sort() requires an array")
	}
	out := append([]any(nil), (*arr)...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		fi, ok1 := asFloat(out[i])
		fj, ok2 := asFloat(out[j])
		if ok1 && ok2 {
			return fi < fj
		}
		si, ok1 := out[i].(string)
		sj, ok2 := out[j].(string)
		if ok1 && ok2 {
			return si < sj
		}
		sortErr = fmt.Errorf("sort() requires a homogeneous array of numbers or strings")
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &out, nil
}

func sumFn(args []any) (any, error) {
	if err := arity(args, 1, "sum"); err != nil {
		return nil, err
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("sum() requires an array")
	}
	var total float64
	allInt := true
	for _, v := range *arr {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("sum() requires an array of numbers")
		}
		if _, isInt := v.(int64); !isInt {
			allInt = false
		}
		total += f
	}
	if allInt {
		return int64(total), nil
	}
	return total, nil
}

func indexOfFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("index_of() takes 2 arguments, got %d", len(args))
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("index_of() requires an array")
	}
	for i, v := range *arr {
		if v == args[1] {
			return int64(i), nil
		}
	}
	return int64(-1), nil
}

func sliceFn(args []any) (any, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fmt.Errorf("slice() takes 2 or 3 arguments, got %d", len(args))
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("slice() requires an array")
	}
	start, ok := args[1].(int64)
	if !ok {
		return nil, fmt.Errorf("slice() start must be an integer")
	}
	end := int64(len(*arr))
	if len(args) == 3 {
		e, ok := args[2].(int64)
		if !ok {
			return nil, fmt.Errorf("slice() end must be an integer")
		}
		end = e
	}
	if start < 0 || end > int64(len(*arr)) || start > end {
		return nil, fmt.Errorf("slice() range out of bounds")
	}
	out := append([]any(nil), (*arr)[start:end]...)
	return &out, nil
}

func concatFn(args []any) (any, error) {
	var out []any
	for _, a := range args {
		arr, ok := asArray(a)
		if !ok {
			return nil, fmt.Errorf("concat() requires arrays")
		}
		out = append(out, (*arr)...)
	}
	return &out, nil
}

func randomFn(args []any) (any, error) {
	if err := arity(args, 0, "random"); err != nil {
		return nil, err
	}
	return rand.Float64(), nil
}

func randomIntFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("random_int() takes 2 arguments, got %d", len(args))
	}
	lo, ok1 := args[0].(int64)
	hi, ok2 := args[1].(int64)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("random_int() requires integers")
	}
	if hi < lo {
		return nil, fmt.Errorf("random_int() requires max >= min")
	}
	return lo + rand.Int63n(hi-lo+1), nil
}

func typeOfFn(args []any) (any, error) {
	if err := arity(args, 1, "type_of"); err != nil {
		return nil, err
	}
	switch args[0].(type) {
	case nil:
		return "null", nil
	case bool:
		return "bool", nil
	case int64:
		return "int", nil
	case float64:
		return "float", nil
	case string:
		return "string", nil
	case *[]any:
		return "array", nil
	default:
		return "fn", nil
	}
}

func isIntFn(args []any) (any, error) {
	if err := arity(args, 1, "is_int"); err != nil {
		return nil, err
	}
	_, ok := args[0].(int64)
	return ok, nil
}

func isFloatFn(args []any) (any, error) {
	if err := arity(args, 1, "is_float"); err != nil {
		return nil, err
	}
	_, ok := args[0].(float64)
	return ok, nil
}

func isStringFn(args []any) (any, error) {
	if err := arity(args, 1, "is_string"); err != nil {
		return nil, err
	}
	_, ok := args[0].(string)
	return ok, nil
}

func isArrayFn(args []any) (any, error) {
	if err := arity(args, 1, "is_array"); err != nil {
		return nil, err
	}
	_, ok := args[0].(*[]any)
	return ok, nil
}

func isBoolFn(args []any) (any, error) {
	if err := arity(args, 1, "is_bool"); err != nil {
		return nil, err
	}
	_, ok := args[0].(bool)
	return ok, nil
}

func readFileFn(args []any) (any, error) {
	path, err := requireString(args, "read_file")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func writeFileFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("write_file() takes 2 arguments, got %d", len(args))
	}
	path, ok1 := asString(args[0])
	content, ok2 := asString(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("write_file() requires strings")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func readLinesFn(args []any) (any, error) {
	path, err := requireString(args, "read_lines")
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		out = append(out, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &out, nil
}

func logFn(args []any) (any, error) {
	f, err := requireFloat(args, "log")
	if err != nil {
		return nil, err
	}
	return math.Log(f), nil
}

func log10Fn(args []any) (any, error) {
	f, err := requireFloat(args, "log10")
	if err != nil {
		return nil, err
	}
	return math.Log10(f), nil
}

func sinFn(args []any) (any, error) {
	f, err := requireFloat(args, "sin")
	if err != nil {
		return nil, err
	}
	return math.Sin(f), nil
}

func cosFn(args []any) (any, error) {
	f, err := requireFloat(args, "cos")
	if err != nil {
		return nil, err
	}
	return math.Cos(f), nil
}

func tanFn(args []any) (any, error) {
	f, err := requireFloat(args, "tan")
	if err != nil {
		return nil, err
	}
	return math.Tan(f), nil
}

func requireFloat(args []any, name string) (float64, error) {
	if err := arity(args, 1, name); err != nil {
		return 0, err
	}
	f, ok := asFloat(args[0])
	if !ok {
		return 0, fmt.Errorf("%s() requires a number", name)
	}
	return f, nil
}

func charAtFn(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("char_at() takes 2 arguments, got %d", len(args))
	}
	s, ok1 := asString(args[0])
	idx, ok2 := args[1].(int64)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("char_at() requires a string and an integer")
	}
	runes := []rune(s)
	if idx < 0 || int(idx) >= len(runes) {
		return nil, fmt.Errorf("char_at() index %d out of range (length %d)", idx, len(runes))
	}
	return string(runes[idx]), nil
}

func charCodeFn(args []any) (any, error) {
	s, err := requireString(args, "char_code")
	if err != nil {
		return nil, err
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return nil, fmt.Errorf("char_code() requires a non-empty string")
	}
	return int64(r), nil
}

func fromCharCodeFn(args []any) (any, error) {
	if err := arity(args, 1, "from_char_code"); err != nil {
		return nil, err
	}
	code, ok := args[0].(int64)
	if !ok {
		return nil, fmt.Errorf("from_char_code() requires an integer")
	}
	return string(rune(code)), nil
}

func rangeFn(args []any) (any, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, fmt.Errorf("range() takes 1 to 3 arguments, got %d", len(args))
	}
	ints := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, fmt.Errorf("range() requires integers")
		}
		ints[i] = n
	}
	start, end, step := int64(0), ints[0], int64(1)
	if len(args) >= 2 {
		start, end = ints[0], ints[1]
	}
	if len(args) == 3 {
		step = ints[2]
	}
	if step == 0 {
		return nil, fmt.Errorf("range() step must not be zero")
	}
	var out []any
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, i)
		}
	}
	return &out, nil
}

func flattenFn(args []any) (any, error) {
	if err := arity(args, 1, "flatten"); err != nil {
		return nil, err
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("flatten() requires an array")
	}
	var out []any
	for _, v := range *arr {
		if inner, ok := asArray(v); ok {
			out = append(out, *inner...)
		} else {
			out = append(out, v)
		}
	}
	return &out, nil
}

func uniqueFn(args []any) (any, error) {
	if err := arity(args, 1, "unique"); err != nil {
		return nil, err
	}
	arr, ok := asArray(args[0])
	if !ok {
		return nil, fmt.Errorf("unique() requires an array")
	}
	var out []any
	for _, v := range *arr {
		seen := false
		for _, existing := range out {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return &out, nil
}

func zipFn(args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("zip() requires at least 1 argument")
	}
	arrays := make([][]any, len(args))
	shortest := -1
	for i, a := range args {
		arr, ok := asArray(a)
		if !ok {
			return nil, fmt.Errorf("zip() requires arrays")
		}
		arrays[i] = *arr
		if shortest == -1 || len(*arr) < shortest {
			shortest = len(*arr)
		}
	}
	out := make([]any, shortest)
	for i := 0; i < shortest; i++ {
		tuple := make([]any, len(arrays))
		for j, arr := range arrays {
			tuple[j] = arr[i]
		}
		out[i] = &tuple
	}
	return &out, nil
}

// higherOrderFuncs returns the array functions that take a nocta
// function value as an argument and must re-enter machine to invoke
// it. Kept separate from the static funcs table since each closes
// over a specific *vm.VM rather than being stateless.
func higherOrderFuncs(machine *vm.VM) map[string]vm.HostCallable {
	return map[string]vm.HostCallable{
		"filter": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("filter() takes 2 arguments, got %d", len(args))
			}
			arr, ok := asArray(args[0])
			if !ok {
				return nil, fmt.Errorf("filter() requires an array")
			}
			var out []any
			for _, v := range *arr {
				keep, err := machine.CallValue(args[1], []any{v})
				if err != nil {
					return nil, err
				}
				b, ok := keep.(bool)
				if !ok {
					return nil, fmt.Errorf("filter() callback must return a bool")
				}
				if b {
					out = append(out, v)
				}
			}
			return &out, nil
		},
		"map": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("map() takes 2 arguments, got %d", len(args))
			}
			arr, ok := asArray(args[0])
			if !ok {
				return nil, fmt.Errorf("map() requires an array")
			}
			out := make([]any, len(*arr))
			for i, v := range *arr {
				mapped, err := machine.CallValue(args[1], []any{v})
				if err != nil {
					return nil, err
				}
				out[i] = mapped
			}
			return &out, nil
		},
		"reduce": func(args []any) (any, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("reduce() takes 3 arguments, got %d", len(args))
			}
			arr, ok := asArray(args[0])
			if !ok {
				return nil, fmt.Errorf("reduce() requires an array")
			}
			acc := args[2]
			for _, v := range *arr {
				var err error
				acc, err = machine.CallValue(args[1], []any{acc, v})
				if err != nil {
					return nil, err
				}
			}
			return acc, nil
		},
		"find": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("find() takes 2 arguments, got %d", len(args))
			}
			arr, ok := asArray(args[0])
			if !ok {
				return nil, fmt.Errorf("find() requires an array")
			}
			for _, v := range *arr {
				keep, err := machine.CallValue(args[1], []any{v})
				if err != nil {
					return nil, err
				}
				b, ok := keep.(bool)
				if !ok {
					return nil, fmt.Errorf("find() callback must return a bool")
				}
				if b {
					return v, nil
				}
			}
			return nil, nil
		},
		"sort_by": func(args []any) (any, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("sort_by() takes 2 arguments, got %d", len(args))
			}
			arr, ok := asArray(args[0])
			if !ok {
				return nil, fmt.Errorf("sort_by() requires an array")
			}
			out := append([]any(nil), (*arr)...)
			var sortErr error
			sort.SliceStable(out, func(i, j int) bool {
				if sortErr != nil {
					return false
				}
				result, err := machine.CallValue(args[1], []any{out[i], out[j]})
				if err != nil {
					sortErr = err
					return false
				}
				f, ok := asFloat(result)
				if !ok {
					sortErr = fmt.Errorf("sort_by() callback must return a number")
					return false
				}
				return f < 0
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return &out, nil
		},
	}
}
