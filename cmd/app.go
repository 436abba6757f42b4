// Package cmd implements the fxh command line application.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/config"
	"github.com/etnz/fxhub/provider"
	"github.com/etnz/fxhub/rates"
	"github.com/etnz/fxhub/ratestore"
	"github.com/etnz/fxhub/storage"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	c.Register(&topicCmd{}, "")
	c.Register(&shellCmd{}, "")

	c.Register(&registerCmd{}, "account")
	c.Register(&loginCmd{}, "account")
	c.Register(&logoutCmd{}, "account")
	c.Register(&passwdCmd{}, "account")

	c.Register(&showPortfolioCmd{}, "portfolio")
	c.Register(&buyCmd{}, "portfolio")
	c.Register(&sellCmd{}, "portfolio")

	c.Register(&getRateCmd{}, "rates")
	c.Register(&updateRatesCmd{}, "rates")
	c.Register(&historyCmd{}, "rates")
	c.Register(&currenciesCmd{}, "rates")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to a YAML, JSON or TOML configuration file")
var dataDir = flag.String("data-dir", "", "Folder of the data files, overrides the configuration")

// Verbose enables the logs on stderr.
var Verbose = flag.Bool("v", false, "print logs on stderr")

// Env holds everything a command needs. It is built once by Setup and passed
// to the commands as the first Execute argument.
type Env struct {
	Config   config.Config
	Registry *fxhub.Registry
	Users    *storage.Gateway
	Rates    *ratestore.Store
	Cache    *rates.Cache
	Updater  *rates.Updater
	Metrics  *rates.Metrics
	Ledger   *fxhub.Ledger
	Accounts *fxhub.Accounts
	Session  *Session
	Now      func() time.Time
}

// Setup loads the configuration designated by the global flags and returns
// the environment of the commands.
func Setup() (*Env, error) {
	if !*Verbose {
		log.SetOutput(io.Discard)
	}
	cfg, err := config.Load(*configFile, ".env")
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	return NewEnv(cfg)
}

// NewEnv wires all the components configured by cfg.
func NewEnv(cfg config.Config) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now, _ := cfg.Clock()
	reg := fxhub.DefaultRegistry()
	base, err := reg.Resolve(cfg.Base())
	if err != nil {
		return nil, fmt.Errorf("base currency: %w", err)
	}

	adapters, err := newAdapters(cfg, reg, now)
	if err != nil {
		return nil, err
	}

	env := &Env{
		Config:   cfg,
		Registry: reg,
		Users:    storage.New(cfg.Path(cfg.UsersFile), cfg.Path(cfg.PortfoliosFile)),
		Rates:    ratestore.New(cfg.Path(cfg.HistoryFile), cfg.Path(cfg.SnapshotFile)),
		Metrics:  rates.NewMetrics(),
		Session:  NewSession(cfg.Path(sessionFile)),
		Now:      now,
	}
	env.Cache = rates.NewCache(env.Rates.LoadSnapshot, base.Code).WithClock(now)
	env.Updater = rates.NewUpdater(env.Rates, env.Cache, adapters...).WithMetrics(env.Metrics).WithClock(now)
	env.Ledger = fxhub.NewLedger(reg, env.Cache, env.Updater, env.Users, cfg.TTL())
	env.Accounts = fxhub.NewAccounts(env.Users, base.Code, cfg.Balance()).WithClock(now)
	return env, nil
}

// newAdapters returns the rate sources: the static rates if configured,
// otherwise CoinGecko for crypto currencies then ExchangeRate-API for fiat ones.
func newAdapters(cfg config.Config, reg *fxhub.Registry, now func() time.Time) ([]provider.Adapter, error) {
	static, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	if static != nil {
		s := provider.NewStatic("static", cfg.Base(), static)
		s.Now = now
		return []provider.Adapter{s}, nil
	}
	p := cfg.Providers
	return []provider.Adapter{
		provider.NewCoinGecko(p.CoinGeckoURL, cfg.Base(), cfg.CryptoIDs(), p.RequestTimeout, reg),
		provider.NewExchangeRateAPI(p.ExchangeRateURL, p.ExchangeRateKey, cfg.Base(), p.RequestTimeout, reg),
	}, nil
}

// envOf returns the Env passed to Execute.
func envOf(args []any) *Env {
	for _, a := range args {
		if env, ok := a.(*Env); ok {
			return env
		}
	}
	panic("cmd: Execute called without *Env")
}

// flushMetrics writes the metrics file if one is configured.
func (e *Env) flushMetrics() {
	if err := e.Metrics.WriteTextfile(e.Config.MetricsFile); err != nil {
		log.Printf("warning cannot write metrics file %q: %v", e.Config.MetricsFile, err)
	}
}
