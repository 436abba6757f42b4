package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/renderer"
	"github.com/google/subcommands"
)

type getRateCmd struct {
	from, to string
}

func (*getRateCmd) Name() string     { return "get-rate" }
func (*getRateCmd) Synopsis() string { return "display the exchange rate between two currencies" }
func (*getRateCmd) Usage() string {
	return `fxh get-rate -from <code> [-to <code>]

  Displays the value of one unit of a currency in another one, and the
  reverse rate. Rates older than the configured TTL are refreshed first.
`
}

func (c *getRateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "currency to price")
	f.StringVar(&c.to, "to", "", "currency to price in, the base currency by default")
}

func (c *getRateCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	defer env.flushMetrics()
	to := c.to
	if to == "" {
		to = env.Config.Base()
	}
	from, err := fxhub.NormalizeCode(c.from)
	if err != nil {
		return fail(err)
	}
	if to, err = fxhub.NormalizeCode(to); err != nil {
		return fail(err)
	}
	r, err := env.Ledger.GetRate(ctx, from, to)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderRate(renderer.NewRate(r)))
	return subcommands.ExitSuccess
}

type updateRatesCmd struct{}

func (*updateRatesCmd) Name() string     { return "update-rates" }
func (*updateRatesCmd) Synopsis() string { return "fetch the latest rates from all providers" }
func (*updateRatesCmd) Usage() string {
	return `fxh update-rates

  Fetches the latest rates from all the providers, whatever their age. Quotes
  are appended to the history, and the snapshot keeps the latest rate of
  every currency.
`
}

func (c *updateRatesCmd) SetFlags(f *flag.FlagSet) {}

func (c *updateRatesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	defer env.flushMetrics()
	report, err := env.Updater.RunUpdate(ctx)
	if err != nil {
		return fail(err)
	}
	printMarkdown(renderer.RenderUpdate(renderer.NewUpdate(report)))
	if report.Stale() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the recorded quotes of a currency" }
func (*historyCmd) Usage() string {
	return `fxh history [-n <count>] <code>

  Displays the quotes of a currency recorded in the history, the most recent
  last.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "maximum number of quotes to display, 0 for all")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one currency code is required")
		return subcommands.ExitUsageError
	}
	code, err := fxhub.NormalizeCode(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	records, err := env.Rates.History(code)
	if err != nil {
		return fail(err)
	}
	if c.limit > 0 && len(records) > c.limit {
		records = records[len(records)-c.limit:]
	}
	quotes := make([]fxhub.Quote, 0, len(records))
	for _, r := range records {
		quotes = append(quotes, r.Quote())
	}
	printMarkdown(renderer.RenderHistory(renderer.NewHistory(code, quotes)))
	return subcommands.ExitSuccess
}

type currenciesCmd struct{}

func (*currenciesCmd) Name() string     { return "currencies" }
func (*currenciesCmd) Synopsis() string { return "list the supported currencies" }
func (*currenciesCmd) Usage() string {
	return `fxh currencies
`
}

func (c *currenciesCmd) SetFlags(f *flag.FlagSet) {}

func (c *currenciesCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envOf(args)
	printMarkdown(renderer.RenderCurrencies(renderer.NewCurrencies(env.Registry.Currencies())))
	return subcommands.ExitSuccess
}
