package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// stdin is where the shell reads commands from.
var stdin io.Reader = os.Stdin

type shellCmd struct{}

func (*shellCmd) Name() string     { return "shell" }
func (*shellCmd) Synopsis() string { return "run fxh commands interactively" }
func (*shellCmd) Usage() string {
	return `fxh shell

  Reads fxh commands from the standard input, one per line, until 'exit' or
  the end of the input. 'help' lists the commands.
`
}

func (c *shellCmd) SetFlags(f *flag.FlagSet) {}

func (c *shellCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "fxh> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			break
		}
		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "exit", "quit":
			return subcommands.ExitSuccess
		case c.Name():
			fmt.Fprintln(os.Stderr, "Error: already in a shell")
			continue
		}
		runLine(ctx, env, words)
		if ctx.Err() != nil {
			return subcommands.ExitFailure
		}
	}
	if err := scanner.Err(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// runLine executes a single command line with a fresh commander, so that
// flags from a previous line do not leak into the next one.
func runLine(ctx context.Context, env *Env, words []string) subcommands.ExitStatus {
	top := flag.NewFlagSet("fxh", flag.ContinueOnError)
	top.SetOutput(os.Stderr)
	commander := subcommands.NewCommander(top, "fxh")
	Register(commander)
	if err := top.Parse(words); err != nil {
		return subcommands.ExitUsageError
	}
	return commander.Execute(ctx, env)
}
