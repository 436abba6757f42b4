package cmd

import (
	"context"
	"flag"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// tradeFlags are the flags common to buy and sell.
type tradeFlags struct {
	currency string
	amount   string
}

func (t *tradeFlags) set(f *flag.FlagSet) {
	f.StringVar(&t.currency, "currency", "", "code of the currency to trade")
	f.StringVar(&t.amount, "amount", "", "amount to trade, in that currency")
}

func (t *tradeFlags) parse() (string, decimal.Decimal, error) {
	code, err := fxhub.NormalizeCode(t.currency)
	if err != nil {
		return "", decimal.Zero, err
	}
	amount, err := fxhub.ParseAmount(t.amount)
	if err != nil {
		return "", decimal.Zero, err
	}
	return code, amount, nil
}

type buyCmd struct {
	tradeFlags
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy a currency with the base currency" }
func (*buyCmd) Usage() string {
	return `fxh buy -currency <code> -amount <quantity>

  Buys an amount of a currency, paid from the base currency wallet at the
  current rate. The wallet is created if the portfolio has none for that
  currency.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return trade(ctx, envOf(args), &c.tradeFlags, (*fxhub.Ledger).Buy)
}

type sellCmd struct {
	tradeFlags
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell a currency for the base currency" }
func (*sellCmd) Usage() string {
	return `fxh sell -currency <code> -amount <quantity>

  Sells an amount of a currency held in the portfolio. The proceeds are
  credited to the base currency wallet at the current rate.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.set(f) }

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return trade(ctx, envOf(args), &c.tradeFlags, (*fxhub.Ledger).Sell)
}

type tradeFunc func(l *fxhub.Ledger, ctx context.Context, userID int, code string, amount decimal.Decimal, base string) (fxhub.Trade, error)

func trade(ctx context.Context, env *Env, t *tradeFlags, do tradeFunc) subcommands.ExitStatus {
	defer env.flushMetrics()
	u, err := env.User()
	if err != nil {
		return fail(err)
	}
	code, amount, err := t.parse()
	if err != nil {
		return fail(err)
	}
	tr, err := do(env.Ledger, ctx, u.ID, code, amount, env.Config.Base())
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderTrade(renderer.NewTrade(tr)))
	return subcommands.ExitSuccess
}
