package fxhub

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// memStore is a Store kept in memory. Like a file, it hands out copies.
type memStore struct {
	users      map[int]User
	portfolios []*Portfolio
	saves      int
	saveErr    error
}

func (m *memStore) LoadUsers() (map[int]User, error) {
	users := make(map[int]User, len(m.users))
	for id, u := range m.users {
		users[id] = u
	}
	return users, nil
}

func (m *memStore) SaveUsers(users map[int]User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.users = users
	return nil
}

func (m *memStore) LoadPortfolios() ([]*Portfolio, error) {
	list := make([]*Portfolio, 0, len(m.portfolios))
	for _, p := range m.portfolios {
		list = append(list, p.Clone())
	}
	return list, nil
}

func (m *memStore) SavePortfolios(portfolios []*Portfolio) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.portfolios = nil
	for _, p := range portfolios {
		m.portfolios = append(m.portfolios, p.Clone())
	}
	return nil
}

// portfolio returns the stored portfolio of userID.
func (m *memStore) portfolio(userID int) *Portfolio {
	for _, p := range m.portfolios {
		if p.UserID() == userID {
			return p
		}
	}
	return nil
}

// fakeRates is a Rates with a fixed content and clock.
type fakeRates struct {
	base  string
	rates map[string]decimal.Decimal
	last  time.Time
	now   time.Time
}

func (f *fakeRates) RateOf(code string) (decimal.Decimal, error) {
	if r, ok := f.rates[code]; ok {
		return r, nil
	}
	if code == f.base {
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, &CurrencyNotFoundError{Code: code}
}

func (f *fakeRates) IsFresh(ttl time.Duration) bool {
	return !f.last.IsZero() && f.now.Sub(f.last) < ttl
}

func (f *fakeRates) LastRefresh() time.Time { return f.last }

// fakeRefresher counts refreshes and applies update to the rates on each.
type fakeRefresher struct {
	calls  int
	update func()
	err    error
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	if f.update != nil {
		f.update()
	}
	return f.err
}

var testNow = time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)

// freshRates returns rates refreshed a minute ago: BTC 50000 USD, EUR 1.1 USD.
func freshRates() *fakeRates {
	return &fakeRates{
		base: "USD",
		rates: map[string]decimal.Decimal{
			"BTC": D(50000),
			"EUR": D(1.1),
		},
		last: testNow.Add(-time.Minute),
		now:  testNow,
	}
}

// newStore returns a store holding a single portfolio for user 1 with the given balances.
func newStore(balances map[string]decimal.Decimal) *memStore {
	p := NewPortfolio(1)
	for code, b := range balances {
		if _, err := p.AddWallet(code, b); err != nil {
			panic(err)
		}
	}
	return &memStore{users: map[int]User{}, portfolios: []*Portfolio{p}}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// D returns a literal amount as a decimal.
func D[T int | float64](v T) decimal.Decimal {
	switch v := any(v).(type) {
	case int:
		return decimal.NewFromInt(int64(v))
	case float64:
		return decimal.NewFromFloat(v)
	}
	panic("unreachable")
}
