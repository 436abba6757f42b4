package cmd

import (
	"context"
	"flag"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/renderer"
	"github.com/google/subcommands"
)

type showPortfolioCmd struct {
	base string
}

func (*showPortfolioCmd) Name() string     { return "show-portfolio" }
func (*showPortfolioCmd) Synopsis() string { return "display the wallets of the logged user" }
func (*showPortfolioCmd) Usage() string {
	return `fxh show-portfolio [-base <code>]

  Displays every wallet of the logged user and its value in the base currency.
  Wallets without a known rate are listed apart and excluded from the total.
`
}

func (c *showPortfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "", "currency to value the portfolio in, the configured base currency by default")
}

func (c *showPortfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	defer env.flushMetrics()
	u, err := env.User()
	if err != nil {
		return fail(err)
	}
	base := c.base
	if base == "" {
		base = env.Config.Base()
	}
	base, err = fxhub.NormalizeCode(base)
	if err != nil {
		return fail(err)
	}
	v, err := env.Ledger.ShowPortfolio(ctx, u.ID, base)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderPortfolio(renderer.NewPortfolio(u.Username, v, env.Cache.LastRefresh())))
	return subcommands.ExitSuccess
}
