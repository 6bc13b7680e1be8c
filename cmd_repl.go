package main

import (
	"context"
	"flag"
	"os"

	"nocta/repl"
	"nocta/vm"

	"github.com/google/subcommands"
)

const banner = `
 _ __   ___   ___ | |_ __ _
| '_ \ / _ \ / _ \| __/ _' |
| | | | (_) | (_) | || (_| |
|_| |_|\___/ \___/ \__\__,_|
`

// replCmd implements the "repl" subcommand: an interactive session
// backed by a single persistent compiler and VM.
type replCmd struct {
	stackSize int
	frameSize int
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive nocta session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive nocta session.
`
}
func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&cmd.stackSize, "stack-size", vm.DefaultStackSize, "value stack capacity")
	f.IntVar(&cmd.frameSize, "frame-size", vm.DefaultFrameSize, "call frame stack capacity")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	session := repl.New(banner, version, "nocta", "--------------------------------------------", "MIT", "nocta >>> ")
	session.StackSize = cmd.stackSize
	session.FrameSize = cmd.frameSize
	if err := session.Start(os.Stdout); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
