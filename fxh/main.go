// Command fxh manages multi-currency portfolios priced with live exchange rates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/etnz/fxhub/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Complete("fxh")

	commander := subcommands.NewCommander(flag.CommandLine, "fxh")
	cmd.Register(commander)
	flag.Parse()

	env, err := cmd.Setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if ok, code := cmd.RunExtension(env, name, flag.Args()[1:]); ok {
			os.Exit(code)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	status := commander.Execute(ctx, env)
	stop()
	os.Exit(int(status))
}

// registered reports whether name is one of the commander's subcommands.
func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}
