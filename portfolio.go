package fxhub

import (
	"errors"
	"slices"

	"github.com/shopspring/decimal"
)

// Portfolio is the set of wallets owned by a user, at most one per currency.
//
// A portfolio with no wallet for a currency is different from a portfolio
// with an empty wallet for it.
type Portfolio struct {
	userID  int
	wallets map[string]*Wallet
}

// NewPortfolio returns an empty portfolio for userID.
func NewPortfolio(userID int) *Portfolio {
	return &Portfolio{userID: userID, wallets: make(map[string]*Wallet)}
}

func (p *Portfolio) UserID() int { return p.userID }

// AddCurrency creates an empty wallet for code. It fails if the wallet already exists.
func (p *Portfolio) AddCurrency(code string) (*Wallet, error) {
	return p.AddWallet(code, decimal.Zero)
}

// AddWallet creates a wallet for code with an initial balance. It fails if the
// wallet already exists.
func (p *Portfolio) AddWallet(code string, balance decimal.Decimal) (*Wallet, error) {
	w, err := NewWallet(code, balance)
	if err != nil {
		return nil, err
	}
	if _, exists := p.wallets[w.code]; exists {
		return nil, invalidf("wallet %s already exists in the portfolio", w.code)
	}
	p.wallets[w.code] = w
	return w, nil
}

// Wallet returns the wallet for code, if any.
func (p *Portfolio) Wallet(code string) (*Wallet, bool) {
	c, err := NormalizeCode(code)
	if err != nil {
		return nil, false
	}
	w, ok := p.wallets[c]
	return w, ok
}

// Codes returns the codes of all wallets in alphabetical order.
func (p *Portfolio) Codes() []string {
	codes := make([]string, 0, len(p.wallets))
	for c := range p.wallets {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

// Clone returns a deep copy of p.
func (p *Portfolio) Clone() *Portfolio {
	c := NewPortfolio(p.userID)
	for code, w := range p.wallets {
		c.wallets[code] = w.clone()
	}
	return c
}

// commit replaces wallets in p by the given ones.
func (p *Portfolio) commit(wallets ...*Wallet) {
	for _, w := range wallets {
		p.wallets[w.code] = w
	}
}

// ValuationLine is the value of one wallet expressed in the base currency.
type ValuationLine struct {
	Currency Currency
	Balance  decimal.Decimal
	Rate     decimal.Decimal // value of one unit in the base currency
	Value    decimal.Decimal
}

// Valuation is the value of a whole portfolio expressed in a base currency.
type Valuation struct {
	UserID  int
	Base    Currency
	Lines   []ValuationLine
	Total   decimal.Decimal
	Missing []string // wallets that could not be priced
}

// Value computes the value of every wallet of p in base. rate must return the
// value of one unit of a code in base. Wallets whose code has no rate are
// listed in Missing and do not contribute to the total.
func (p *Portfolio) Value(reg *Registry, base Currency, rate func(code string) (decimal.Decimal, error)) (Valuation, error) {
	v := Valuation{UserID: p.userID, Base: base, Total: decimal.Zero}
	for _, code := range p.Codes() {
		w := p.wallets[code]
		r, err := rate(code)
		var notFound *CurrencyNotFoundError
		var unavailable *RateUnavailableError
		if errors.As(err, &notFound) || errors.As(err, &unavailable) {
			v.Missing = append(v.Missing, code)
			continue
		}
		if err != nil {
			return Valuation{}, err
		}
		cur, err := reg.Resolve(code)
		if err != nil {
			// A wallet for a currency no longer registered: show it with minimal metadata.
			cur = Currency{Code: code, Name: code, Kind: Fiat}
		}
		line := ValuationLine{Currency: cur, Balance: w.balance, Rate: r, Value: w.balance.Mul(r)}
		v.Lines = append(v.Lines, line)
		v.Total = v.Total.Add(line.Value)
	}
	return v, nil
}
