// Package config loads the fxh configuration from an optional file, a .env
// file and FXHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is the configuration of fxh. It is built once at startup.
type Config struct {
	BaseCurrency    string `yaml:"base_currency" json:"base_currency" env:"FXHUB_BASE_CURRENCY" env-default:"USD"`
	TTLSeconds      int    `yaml:"ttl_seconds" json:"ttl_seconds" env:"FXHUB_TTL_SECONDS" env-default:"300"`
	DataDir         string `yaml:"data_dir" json:"data_dir" env:"FXHUB_DATA_DIR" env-default:"data"`
	UsersFile       string `yaml:"users_file" json:"users_file" env:"FXHUB_USERS_FILE" env-default:"users.json"`
	PortfoliosFile  string `yaml:"portfolios_file" json:"portfolios_file" env:"FXHUB_PORTFOLIOS_FILE" env-default:"portfolios.json"`
	SnapshotFile    string `yaml:"snapshot_file" json:"snapshot_file" env:"FXHUB_SNAPSHOT_FILE" env-default:"rates.json"`
	HistoryFile     string `yaml:"history_file" json:"history_file" env:"FXHUB_HISTORY_FILE" env-default:"exchange_rates.json"`
	StartingBalance string `yaml:"starting_balance" json:"starting_balance" env:"FXHUB_STARTING_BALANCE" env-default:"1000"`
	MetricsFile     string `yaml:"metrics_file" json:"metrics_file" env:"FXHUB_METRICS_FILE"`

	// StaticRates, when set, replaces the network providers: CODE:rate in the
	// base currency.
	StaticRates map[string]string `yaml:"static_rates" json:"static_rates" env:"FXHUB_STATIC_RATES"`
	// TestingNow fixes the clock, in the "2006-01-02 15:04:05" UTC format.
	TestingNow string `yaml:"-" json:"-" env:"FXHUB_TESTING_NOW"`

	Providers Providers `yaml:"providers" json:"providers"`
}

// Providers configures the rate sources.
type Providers struct {
	CoinGeckoURL    string            `yaml:"coingecko_url" json:"coingecko_url" env:"FXHUB_COINGECKO_URL" env-default:"https://api.coingecko.com/api/v3/simple/price"`
	ExchangeRateURL string            `yaml:"exchangerate_url" json:"exchangerate_url" env:"FXHUB_EXCHANGERATE_URL" env-default:"https://v6.exchangerate-api.com/v6"`
	ExchangeRateKey string            `yaml:"exchangerate_api_key" json:"exchangerate_api_key" env:"EXCHANGERATE_API_KEY"`
	RequestTimeout  time.Duration     `yaml:"request_timeout" json:"request_timeout" env:"FXHUB_REQUEST_TIMEOUT" env-default:"10s"`
	CryptoIDs       map[string]string `yaml:"crypto_ids" json:"crypto_ids" env:"FXHUB_CRYPTO_IDS" env-default:"BTC:bitcoin,ETH:ethereum,SOL:solana"`
}

// Load reads the configuration.
//
// envFiles are loaded into the environment first, missing ones are ignored.
// path is an optional YAML, JSON or TOML file; when empty only the environment
// is read.
func Load(path string, envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("cannot load %q: %w", f, err)
		}
	}
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("cannot read configuration: %w", err)
	}
	return cfg, cfg.Validate()
}

// Default returns the configuration with all defaults, ignoring the
// environment.
func Default() Config {
	return Config{
		BaseCurrency:    "USD",
		TTLSeconds:      300,
		DataDir:         "data",
		UsersFile:       "users.json",
		PortfoliosFile:  "portfolios.json",
		SnapshotFile:    "rates.json",
		HistoryFile:     "exchange_rates.json",
		StartingBalance: "1000",
		Providers: Providers{
			CoinGeckoURL:    "https://api.coingecko.com/api/v3/simple/price",
			ExchangeRateURL: "https://v6.exchangerate-api.com/v6",
			RequestTimeout:  10 * time.Second,
			CryptoIDs:       map[string]string{"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana"},
		},
	}
}

// Validate checks the values that cannot be checked by their type.
func (c Config) Validate() error {
	var errs []error
	if c.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("ttl_seconds must be positive, got %d", c.TTLSeconds))
	}
	if strings.TrimSpace(c.BaseCurrency) == "" {
		errs = append(errs, errors.New("base_currency is required"))
	}
	if b, err := decimal.NewFromString(c.StartingBalance); err != nil {
		errs = append(errs, fmt.Errorf("invalid starting_balance %q: %w", c.StartingBalance, err))
	} else if b.IsNegative() {
		errs = append(errs, fmt.Errorf("starting_balance must not be negative, got %s", b))
	}
	if _, err := c.Rates(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Clock(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Rates returns the static rates by currency code, nil when none is set.
func (c Config) Rates() (map[string]decimal.Decimal, error) {
	if len(c.StaticRates) == 0 {
		return nil, nil
	}
	rates := make(map[string]decimal.Decimal, len(c.StaticRates))
	for code, v := range c.StaticRates {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || d.IsNegative() {
			return nil, fmt.Errorf("invalid static rate %s:%q", code, v)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = d
	}
	return rates, nil
}

// TestingLayout is the format of TestingNow.
const TestingLayout = "2006-01-02 15:04:05"

// Clock returns the clock of the application: time.Now unless TestingNow is
// set.
func (c Config) Clock() (func() time.Time, error) {
	if c.TestingNow == "" {
		return time.Now, nil
	}
	t, err := time.Parse(TestingLayout, c.TestingNow)
	if err != nil {
		return nil, fmt.Errorf("invalid FXHUB_TESTING_NOW %q: %w", c.TestingNow, err)
	}
	return func() time.Time { return t }, nil
}

// Base returns the base currency code.
func (c Config) Base() string { return strings.ToUpper(strings.TrimSpace(c.BaseCurrency)) }

// TTL returns how long rates stay fresh.
func (c Config) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// Balance returns the starting balance of new users.
func (c Config) Balance() decimal.Decimal {
	b, _ := decimal.NewFromString(c.StartingBalance)
	return b
}

// Path returns the path of name within the data directory. Absolute names are
// returned as is.
func (c Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// CryptoIDs returns the CoinGecko ids by currency code.
func (c Config) CryptoIDs() map[string]string {
	ids := make(map[string]string, len(c.Providers.CryptoIDs))
	for code, id := range c.Providers.CryptoIDs {
		ids[strings.ToUpper(code)] = id
	}
	return ids
}
