package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders chunk as a human-readable instruction listing,
// one line per instruction: offset, source line, opcode name, and any
// operand. Nested CompiledFunction constants are disassembled
// recursively under their own header.
func Disassemble(chunk *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&b, chunk, offset)
	}

	for _, c := range chunk.Constants {
		if fn, ok := c.(*CompiledFunction); ok {
			b.WriteString("\n")
			b.WriteString(Disassemble(fn.Chunk, fmt.Sprintf("fn %s", fn.Name)))
		}
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, chunk *Chunk, offset int) int {
	op := Opcode(chunk.Code[offset])
	line := chunk.Lines[offset]
	width := op.OperandWidth()

	if width == 2 {
		operand := chunk.ReadUint16(offset + 1)
		fmt.Fprintf(b, "%04d  line %-4d  %-18s %d", offset, line, op.String(), operand)
		if op == OP_CONST && int(operand) < len(chunk.Constants) {
			fmt.Fprintf(b, "  ; %v", chunk.Constants[operand])
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(b, "%04d  line %-4d  %s\n", offset, line, op.String())
	}
	return offset + 1 + width
}
