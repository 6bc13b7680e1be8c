package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"nocta/compiler"
	"nocta/lexer"
	"nocta/parser"

	"github.com/google/subcommands"
)

// emitBytecodeCmd implements the "emit" subcommand: compile a source
// file and write out its bytecode, optionally alongside a disassembly.
type emitBytecodeCmd struct {
	disassemble  bool
	dumpBytecode bool
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the bytecode representation of a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `nocta emit <file>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", true, "write a disassembled listing to a .dnic file")
	f.BoolVar(&cmd.dumpBytecode, "dumpBytecode", true, "write the raw bytecode to a .nic file")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	noctaFile := args[0]
	data, err := os.ReadFile(noctaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens := lex.Scan()

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		fmt.Fprintf(os.Stderr, "💥 Parsing error:\n")
		for _, pErr := range parseErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", pErr)
		}
		return subcommands.ExitFailure
	}

	astCompiler := compiler.NewASTCompiler()
	_, cErr := astCompiler.CompileAST(statements)
	if cErr != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", cErr)
		return subcommands.ExitFailure
	}

	baseName := strings.TrimSuffix(noctaFile, ".nc")

	if cmd.dumpBytecode {
		if err := astCompiler.DumpBytecode(baseName); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error:\n\t%v\n", err)
			return subcommands.ExitFailure
		}
	}

	if cmd.disassemble {
		if _, err := astCompiler.DiassembleBytecode(true, baseName); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Bytecode disassemble error:\n\t%v\n", err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
