package fxhub

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Kind tells fiat currencies from crypto currencies.
type Kind int

const (
	Fiat Kind = iota
	Crypto
)

func (k Kind) String() string {
	switch k {
	case Fiat:
		return "fiat"
	case Crypto:
		return "crypto"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// cryptoFraction is the number of digits displayed for crypto amounts.
const cryptoFraction = 8

// Currency describes a currency that can be held in a wallet.
type Currency struct {
	Code string
	Name string
	Kind Kind

	IssuingCountry string  // fiat only
	Algorithm      string  // crypto only
	MarketCap      float64 // crypto only
}

// NormalizeCode trims and uppercases code, and checks it is made of 2 to 5 latin letters.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) < 2 || len(c) > 5 {
		return "", invalidf("currency code %q must have 2 to 5 letters", code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", invalidf("currency code %q must contain only latin letters", code)
		}
	}
	return c, nil
}

// NewFiat returns a fiat currency.
func NewFiat(name, code, issuingCountry string) (Currency, error) {
	c, err := newCurrency(name, code)
	if err != nil {
		return Currency{}, err
	}
	if strings.TrimSpace(issuingCountry) == "" {
		return Currency{}, invalidf("fiat currency %s requires an issuing country", c.Code)
	}
	c.Kind = Fiat
	c.IssuingCountry = issuingCountry
	return c, nil
}

// NewCrypto returns a crypto currency.
func NewCrypto(name, code, algorithm string, marketCap float64) (Currency, error) {
	c, err := newCurrency(name, code)
	if err != nil {
		return Currency{}, err
	}
	if strings.TrimSpace(algorithm) == "" {
		return Currency{}, invalidf("crypto currency %s requires an algorithm", c.Code)
	}
	if marketCap < 0 {
		return Currency{}, invalidf("crypto currency %s: market cap must not be negative", c.Code)
	}
	c.Kind = Crypto
	c.Algorithm = algorithm
	c.MarketCap = marketCap
	return c, nil
}

func newCurrency(name, code string) (Currency, error) {
	if strings.TrimSpace(name) == "" {
		return Currency{}, invalidf("currency name must not be empty")
	}
	c, err := NormalizeCode(code)
	if err != nil {
		return Currency{}, err
	}
	return Currency{Code: c, Name: strings.TrimSpace(name)}, nil
}

// DisplayInfo returns a one line description of the currency.
func (c Currency) DisplayInfo() string {
	if c.Kind == Crypto {
		return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %.2e)", c.Code, c.Name, c.Algorithm, c.MarketCap)
	}
	return fmt.Sprintf("[FIAT] %s — %s (Issuing: %s)", c.Code, c.Name, c.IssuingCountry)
}

// Fraction returns the number of decimal digits used to display amounts in that currency.
func (c Currency) Fraction() int32 {
	if c.Kind == Crypto {
		return cryptoFraction
	}
	if cur := money.GetCurrency(c.Code); cur != nil {
		return int32(cur.Fraction)
	}
	return 2
}

// Format returns the human representation of an amount of that currency.
func (c Currency) Format(v decimal.Decimal) string {
	if c.Kind == Crypto || money.GetCurrency(c.Code) == nil {
		return v.StringFixed(c.Fraction()) + " " + c.Code
	}
	cur := money.New(0, c.Code).Currency()
	minor := v.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Registry holds the currencies known to the application, indexed by code.
type Registry struct {
	index map[string]Currency
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]Currency)}
}

// Register adds c to the registry. The last registration of a code wins.
func (r *Registry) Register(c Currency) {
	r.index[strings.ToUpper(strings.TrimSpace(c.Code))] = c
}

// Resolve normalizes code and returns the registered currency.
func (r *Registry) Resolve(code string) (Currency, error) {
	c, err := NormalizeCode(code)
	if err != nil {
		return Currency{}, err
	}
	cur, ok := r.index[c]
	if !ok {
		return Currency{}, &CurrencyNotFoundError{Code: c}
	}
	return cur, nil
}

// Has reports whether code is registered.
func (r *Registry) Has(code string) bool {
	_, err := r.Resolve(code)
	return err == nil
}

// Codes returns all registered codes in alphabetical order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.index))
	for c := range r.index {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

// Currencies returns all registered currencies sorted by code.
func (r *Registry) Currencies() []Currency {
	list := make([]Currency, 0, len(r.index))
	for _, c := range r.Codes() {
		list = append(list, r.index[c])
	}
	return list
}

// DefaultRegistry returns a registry with the currencies quoted by the default providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	fiats := []struct{ name, code, country string }{
		{"US Dollar", "USD", "United States"},
		{"Euro", "EUR", "Eurozone"},
		{"British Pound", "GBP", "United Kingdom"},
		{"Russian Ruble", "RUB", "Russia"},
		{"Japanese Yen", "JPY", "Japan"},
	}
	for _, f := range fiats {
		c, _ := NewFiat(f.name, f.code, f.country)
		r.Register(c)
	}
	cryptos := []struct {
		name, code, algo string
		mcap             float64
	}{
		{"Bitcoin", "BTC", "SHA-256", 1.12e12},
		{"Ethereum", "ETH", "Ethash", 4.5e11},
		{"Solana", "SOL", "Proof of History", 8.0e10},
	}
	for _, x := range cryptos {
		c, _ := NewCrypto(x.name, x.code, x.algo, x.mcap)
		r.Register(c)
	}
	return r
}
