package fxhub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Rates is the read side of the exchange-rates cache. Every rate is the value
// of one unit of a code in the base currency.
type Rates interface {
	RateOf(code string) (decimal.Decimal, error)
	IsFresh(ttl time.Duration) bool
	LastRefresh() time.Time
}

// Refresher runs an update cycle of the exchange-rates cache.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Ledger executes the buy and sell operations on users' portfolios.
//
// Each operation goes through Validate, Price, Apply and Persist, in that
// order, and is all or nothing: when an operation fails no wallet is changed
// and nothing is written.
type Ledger struct {
	registry  *Registry
	rates     Rates
	refresher Refresher
	store     Store
	ttl       time.Duration
}

// NewLedger returns a ledger pricing operations with rates, and refreshing them
// with refresher when they are older than ttl.
func NewLedger(registry *Registry, rates Rates, refresher Refresher, store Store, ttl time.Duration) *Ledger {
	return &Ledger{registry: registry, rates: rates, refresher: refresher, store: store, ttl: ttl}
}

// Trade is the outcome of a buy or a sell.
type Trade struct {
	Side     string // "buy" or "sell"
	UserID   int
	Currency Currency
	Base     Currency
	Amount   decimal.Decimal // in Currency
	Rate     decimal.Decimal // value of one unit of Currency in Base
	Cost     decimal.Decimal // Amount*Rate, in Base

	CurrencyBefore, CurrencyAfter decimal.Decimal
	BaseBefore, BaseAfter         decimal.Decimal
}

// Rate is the exchange rate between two currencies.
type Rate struct {
	From, To  Currency
	Rate      decimal.Decimal // value of one unit of From in To
	Reverse   decimal.Decimal // value of one unit of To in From
	UpdatedAt time.Time
}

// validate resolves the codes of a trade and checks the amount.
func (l *Ledger) validate(code string, amount decimal.Decimal, base string) (cur, baseCur Currency, err error) {
	if !amount.IsPositive() {
		return cur, baseCur, invalidf("amount must be positive, got %s", amount)
	}
	if cur, err = l.registry.Resolve(code); err != nil {
		return cur, baseCur, err
	}
	if baseCur, err = l.registry.Resolve(base); err != nil {
		return cur, baseCur, err
	}
	if cur.Code == baseCur.Code {
		return cur, baseCur, invalidf("cannot trade %s against itself", cur.Code)
	}
	return cur, baseCur, nil
}

// portfolio loads all portfolios and returns the one of userID.
func (l *Ledger) portfolio(userID int) ([]*Portfolio, *Portfolio, error) {
	list, err := l.store.LoadPortfolios()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range list {
		if p.UserID() == userID {
			return list, p, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: user id=%d", ErrPortfolioNotFound, userID)
}

// refresh runs an update of the rates. A failed update is only logged: the
// previous rates stay in use.
func (l *Ledger) refresh(ctx context.Context) {
	if l.refresher == nil {
		return
	}
	if err := l.refresher.Refresh(ctx); err != nil {
		log.Printf("warning rates refresh failed, using cached rates: %v", err)
	}
}

// lookup returns the rate of every code. The cache is refreshed first when it
// is stale, or when a code is missing. At most one refresh happens per call.
func (l *Ledger) lookup(ctx context.Context, codes ...string) ([]decimal.Decimal, error) {
	refreshed := false
	if !l.rates.IsFresh(l.ttl) {
		l.refresh(ctx)
		refreshed = true
	}
	for {
		values := make([]decimal.Decimal, len(codes))
		var missing string
		for i, code := range codes {
			v, err := l.rates.RateOf(code)
			var notFound *CurrencyNotFoundError
			if errors.As(err, &notFound) {
				missing = code
				break
			}
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if missing == "" {
			return values, nil
		}
		if refreshed {
			return nil, &RateUnavailableError{Code: missing}
		}
		l.refresh(ctx)
		refreshed = true
	}
}

// price returns the value of one unit of code in base.
func (l *Ledger) price(ctx context.Context, code, base string) (decimal.Decimal, error) {
	values, err := l.lookup(ctx, code, base)
	if err != nil {
		return decimal.Zero, err
	}
	if values[1].IsZero() {
		return decimal.Zero, &RateUnavailableError{Code: base}
	}
	return values[0].Div(values[1]), nil
}

// Buy buys amount of code, paid from the base currency wallet.
//
// The code wallet is created when missing. Fails with *InsufficientFundsError
// in the base currency when the base wallet cannot pay for it.
func (l *Ledger) Buy(ctx context.Context, userID int, code string, amount decimal.Decimal, base string) (Trade, error) {
	// Validate
	cur, baseCur, err := l.validate(code, amount, base)
	if err != nil {
		return Trade{}, err
	}
	portfolios, p, err := l.portfolio(userID)
	if err != nil {
		return Trade{}, err
	}
	target, ok := p.Wallet(cur.Code)
	if ok {
		target = target.clone()
	} else {
		target = &Wallet{code: cur.Code, balance: decimal.Zero}
	}
	source, ok := p.Wallet(baseCur.Code)
	if ok {
		source = source.clone()
	} else {
		source = &Wallet{code: baseCur.Code, balance: decimal.Zero}
	}

	// Price
	rate, err := l.price(ctx, cur.Code, baseCur.Code)
	if err != nil {
		return Trade{}, err
	}
	cost := amount.Mul(rate)

	// Apply, on copies of the wallets.
	t := Trade{
		Side: "buy", UserID: userID, Currency: cur, Base: baseCur,
		Amount: amount, Rate: rate, Cost: cost,
		CurrencyBefore: target.balance, BaseBefore: source.balance,
	}
	if cost.IsPositive() {
		if err := source.Withdraw(cost); err != nil {
			return Trade{}, err
		}
	}
	if err := target.Deposit(amount); err != nil {
		return Trade{}, err
	}
	t.CurrencyAfter, t.BaseAfter = target.balance, source.balance

	// Persist
	p.commit(target, source)
	if err := l.store.SavePortfolios(portfolios); err != nil {
		return Trade{}, err
	}
	log.Printf("buy user=%d currency=%s amount=%s base=%s rate=%s cost=%s", userID, cur.Code, amount, baseCur.Code, rate, cost)
	return t, nil
}

// Sell sells amount of code, credited to the base currency wallet.
//
// Fails with *CurrencyNotFoundError when the portfolio has no wallet for
// code, and with *InsufficientFundsError in code when the wallet balance is
// lower than amount.
func (l *Ledger) Sell(ctx context.Context, userID int, code string, amount decimal.Decimal, base string) (Trade, error) {
	// Validate
	cur, baseCur, err := l.validate(code, amount, base)
	if err != nil {
		return Trade{}, err
	}
	portfolios, p, err := l.portfolio(userID)
	if err != nil {
		return Trade{}, err
	}
	source, ok := p.Wallet(cur.Code)
	if !ok {
		return Trade{}, &CurrencyNotFoundError{Code: cur.Code}
	}
	source = source.clone()
	target, ok := p.Wallet(baseCur.Code)
	if ok {
		target = target.clone()
	} else {
		target = &Wallet{code: baseCur.Code, balance: decimal.Zero}
	}

	// Price
	rate, err := l.price(ctx, cur.Code, baseCur.Code)
	if err != nil {
		return Trade{}, err
	}
	proceeds := amount.Mul(rate)

	// Apply, on copies of the wallets.
	t := Trade{
		Side: "sell", UserID: userID, Currency: cur, Base: baseCur,
		Amount: amount, Rate: rate, Cost: proceeds,
		CurrencyBefore: source.balance, BaseBefore: target.balance,
	}
	if err := source.Withdraw(amount); err != nil {
		return Trade{}, err
	}
	if proceeds.IsPositive() {
		if err := target.Deposit(proceeds); err != nil {
			return Trade{}, err
		}
	}
	t.CurrencyAfter, t.BaseAfter = source.balance, target.balance

	// Persist
	p.commit(source, target)
	if err := l.store.SavePortfolios(portfolios); err != nil {
		return Trade{}, err
	}
	log.Printf("sell user=%d currency=%s amount=%s base=%s rate=%s proceeds=%s", userID, cur.Code, amount, baseCur.Code, rate, proceeds)
	return t, nil
}

// GetRate returns the rate of from expressed in to, and its reciprocal.
// Stale rates are refreshed first.
func (l *Ledger) GetRate(ctx context.Context, from, to string) (Rate, error) {
	fromCur, err := l.registry.Resolve(from)
	if err != nil {
		return Rate{}, err
	}
	toCur, err := l.registry.Resolve(to)
	if err != nil {
		return Rate{}, err
	}
	values, err := l.lookup(ctx, fromCur.Code, toCur.Code)
	if err != nil {
		return Rate{}, err
	}
	if values[0].IsZero() {
		return Rate{}, &RateUnavailableError{Code: fromCur.Code}
	}
	if values[1].IsZero() {
		return Rate{}, &RateUnavailableError{Code: toCur.Code}
	}
	return Rate{
		From:      fromCur,
		To:        toCur,
		Rate:      values[0].Div(values[1]),
		Reverse:   values[1].Div(values[0]),
		UpdatedAt: l.rates.LastRefresh(),
	}, nil
}

// ShowPortfolio returns the valuation of the user's portfolio in base.
func (l *Ledger) ShowPortfolio(ctx context.Context, userID int, base string) (Valuation, error) {
	baseCur, err := l.registry.Resolve(base)
	if err != nil {
		return Valuation{}, err
	}
	_, p, err := l.portfolio(userID)
	if err != nil {
		return Valuation{}, err
	}
	values, err := l.lookup(ctx, baseCur.Code)
	if err != nil {
		return Valuation{}, err
	}
	baseRate := values[0]
	if baseRate.IsZero() {
		return Valuation{}, &RateUnavailableError{Code: baseCur.Code}
	}
	return p.Value(l.registry, baseCur, func(code string) (decimal.Decimal, error) {
		r, err := l.rates.RateOf(code)
		if err != nil {
			return decimal.Zero, err
		}
		return r.Div(baseRate), nil
	})
}
