// Package bytecode defines the instruction set and the Chunk container
// shared by the compiler (which produces chunks) and the VM (which
// executes them). Keeping this as its own package, rather than folding
// it into either compiler or vm, avoids an import cycle between the two.
package bytecode

// Opcode identifies one VM instruction. Every opcode occupies exactly
// one byte in a Chunk's code stream; most take zero or more fixed-width
// operand bytes immediately following.
type Opcode byte

const (
	OP_CONST Opcode = iota
	OP_TRUE
	OP_FALSE
	OP_NULL
	OP_LOAD
	OP_STORE
	OP_LOAD_GLOBAL
	OP_STORE_GLOBAL
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG
	OP_EQ
	OP_NEQ
	OP_LT
	OP_GT
	OP_LTE
	OP_GTE
	OP_NOT
	OP_BAND
	OP_BOR
	OP_BXOR
	OP_SHL
	OP_SHR
	OP_JMP
	OP_JMP_IF_FALSE
	OP_JMP_IF_TRUE
	OP_CALL
	OP_RET
	OP_ARRAY
	OP_INDEX
	OP_INDEX_SET
	OP_POP
	OP_DUP
	OP_PRINT
	OP_LEN
	OP_PUSH
	OP_POP_ARRAY
	OP_TIME
	OP_INPUT
	OP_ITER
	OP_ITER_NEXT
	OP_HALT
)

var names = map[Opcode]string{
	OP_CONST: "OP_CONST", OP_TRUE: "OP_TRUE", OP_FALSE: "OP_FALSE", OP_NULL: "OP_NULL",
	OP_LOAD: "OP_LOAD", OP_STORE: "OP_STORE",
	OP_LOAD_GLOBAL: "OP_LOAD_GLOBAL", OP_STORE_GLOBAL: "OP_STORE_GLOBAL",
	OP_ADD: "OP_ADD", OP_SUB: "OP_SUB", OP_MUL: "OP_MUL", OP_DIV: "OP_DIV", OP_MOD: "OP_MOD",
	OP_NEG: "OP_NEG", OP_EQ: "OP_EQ", OP_NEQ: "OP_NEQ", OP_LT: "OP_LT", OP_GT: "OP_GT",
	OP_LTE: "OP_LTE", OP_GTE: "OP_GTE", OP_NOT: "OP_NOT",
	OP_BAND: "OP_BAND", OP_BOR: "OP_BOR", OP_BXOR: "OP_BXOR", OP_SHL: "OP_SHL", OP_SHR: "OP_SHR",
	OP_JMP: "OP_JMP", OP_JMP_IF_FALSE: "OP_JMP_IF_FALSE", OP_JMP_IF_TRUE: "OP_JMP_IF_TRUE",
	OP_CALL: "OP_CALL", OP_RET: "OP_RET",
	OP_ARRAY: "OP_ARRAY", OP_INDEX: "OP_INDEX", OP_INDEX_SET: "OP_INDEX_SET",
	OP_POP: "OP_POP", OP_DUP: "OP_DUP",
	OP_PRINT: "OP_PRINT", OP_LEN: "OP_LEN", OP_PUSH: "OP_PUSH", OP_POP_ARRAY: "OP_POP_ARRAY",
	OP_TIME: "OP_TIME", OP_INPUT: "OP_INPUT",
	OP_ITER: "OP_ITER", OP_ITER_NEXT: "OP_ITER_NEXT",
	OP_HALT: "OP_HALT",
}

func (op Opcode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

// OperandWidth returns the number of operand bytes that follow this
// opcode in the instruction stream. Jump targets and constant/slot/global
// indices are all encoded as 16-bit big-endian operands, which bounds a
// single chunk to 65536 addressable positions.
func (op Opcode) OperandWidth() int {
	switch op {
	case OP_CONST, OP_LOAD, OP_STORE, OP_LOAD_GLOBAL, OP_STORE_GLOBAL,
		OP_JMP, OP_JMP_IF_FALSE, OP_JMP_IF_TRUE, OP_ITER_NEXT,
		OP_CALL, OP_ARRAY:
		return 2
	default:
		return 0
	}
}

// CompiledFunction is a user-defined function value: its own chunk plus
// the metadata the VM needs to set up a call frame for it. Compiled
// functions are themselves constant-pool values, stored in the
// constant pool of the chunk that declares them.
type CompiledFunction struct {
	Name        string
	Arity       int
	Chunk       *Chunk
	LocalsCount int
}

// Chunk is the compiler's output for one function (or the top-level
// program): a byte-code instruction stream, a deduplicated constant
// pool, and a parallel line table with one entry per emitted byte so
// any instruction pointer can be mapped back to a source line.
type Chunk struct {
	Code      []byte
	Constants []any
	Lines     []int32
}

// New returns an empty Chunk ready for emission.
func New() *Chunk {
	return &Chunk{}
}

// Emit appends a single opcode byte, recording line for it, and returns
// the byte offset it was written at.
func (c *Chunk) Emit(op Opcode, line int32) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
	return offset
}

// EmitByte appends a single raw operand byte.
func (c *Chunk) EmitByte(b byte, line int32) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// EmitUint16 appends a 16-bit big-endian operand, returning the offset
// of its high byte (the offset jump-patching callers record).
func (c *Chunk) EmitUint16(value uint16, line int32) int {
	offset := len(c.Code)
	c.EmitByte(byte(value>>8), line)
	c.EmitByte(byte(value), line)
	return offset
}

// PatchUint16 overwrites the 16-bit operand at offset (as returned by
// EmitUint16) with a new value. Used to back-patch forward jumps once
// their target is known.
func (c *Chunk) PatchUint16(offset int, value uint16) {
	c.Code[offset] = byte(value >> 8)
	c.Code[offset+1] = byte(value)
}

// ReadUint16 decodes the 16-bit operand at offset.
func (c *Chunk) ReadUint16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// CurrentOffset returns the byte offset the next Emit* call will write
// to — i.e. the chunk's current length.
func (c *Chunk) CurrentOffset() int {
	return len(c.Code)
}

// AddConstant adds value to the constant pool, deduplicating by value
// AND runtime type (so int64(1) and float64(1) occupy distinct slots),
// and returns its index.
func (c *Chunk) AddConstant(value any) uint16 {
	for i, existing := range c.Constants {
		if sameConstant(existing, value) {
			return uint16(i)
		}
	}
	c.Constants = append(c.Constants, value)
	return uint16(len(c.Constants) - 1)
}

func sameConstant(a, b any) bool {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}
