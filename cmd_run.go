package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"nocta/compiler"
	"nocta/lexer"
	"nocta/parser"
	"nocta/stdlib"
	"nocta/vm"

	"github.com/google/subcommands"
)

// runCmd implements the "run" subcommand: compile and execute a nocta
// source file.
type runCmd struct {
	stackSize int
	frameSize int
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute nocta code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and execute a nocta source file.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&r.stackSize, "stack-size", vm.DefaultStackSize, "value stack capacity")
	f.IntVar(&r.frameSize, "frame-size", vm.DefaultFrameSize, "call frame stack capacity")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens := lex.Scan()

	p := parser.Make(tokens)
	ast, errors := p.Parse()
	if len(errors) > 0 {
		for _, e := range errors {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	astCompiler := compiler.NewASTCompiler()
	chunk, err := astCompiler.CompileAST(ast)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	machine := vm.New()
	machine.SetLimits(r.stackSize, r.frameSize)
	stdlib.Register(machine)
	if _, err := machine.Run(chunk); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
