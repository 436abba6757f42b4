package fxhub

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPortfolio_AddCurrency(t *testing.T) {
	p := NewPortfolio(1)
	if _, err := p.AddCurrency("eur"); err != nil {
		t.Fatalf("AddCurrency(eur) error = %v", err)
	}
	if _, err := p.AddCurrency("EUR"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("AddCurrency(EUR) twice error = %v, want ErrInvalidInput", err)
	}
	w, ok := p.Wallet("EUR")
	if !ok || !w.Balance().IsZero() {
		t.Errorf("Wallet(EUR) = %v, %v, want an empty wallet", w, ok)
	}
	if _, ok := p.Wallet("USD"); ok {
		t.Errorf("Wallet(USD) exists, want none")
	}
}

func TestPortfolio_Clone(t *testing.T) {
	p := NewPortfolio(1)
	must(p.AddWallet("USD", D(100)))
	c := p.Clone()
	w, _ := c.Wallet("USD")
	if err := w.Deposit(D(1)); err != nil {
		t.Fatal(err)
	}
	if orig, _ := p.Wallet("USD"); !orig.Balance().Equal(D(100)) {
		t.Errorf("original balance = %s after changing the clone, want 100", orig.Balance())
	}
}

func TestPortfolio_Value(t *testing.T) {
	reg := DefaultRegistry()
	usd := must(reg.Resolve("USD"))
	p := NewPortfolio(1)
	must(p.AddWallet("USD", D(500)))
	must(p.AddWallet("BTC", D(0.01)))
	must(p.AddWallet("SOL", D(3)))

	rates := freshRates()
	v, err := p.Value(reg, usd, rates.RateOf)
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if !v.Total.Equal(D(1000)) {
		t.Errorf("Value().Total = %s, want 1000", v.Total)
	}
	if len(v.Lines) != 2 || v.Lines[0].Currency.Code != "BTC" || v.Lines[1].Currency.Code != "USD" {
		t.Errorf("Value().Lines = %+v, want BTC and USD lines", v.Lines)
	}
	if len(v.Missing) != 1 || v.Missing[0] != "SOL" {
		t.Errorf("Value().Missing = %v, want [SOL]", v.Missing)
	}

	boom := errors.New("boom")
	_, err = p.Value(reg, usd, func(string) (decimal.Decimal, error) { return decimal.Zero, boom })
	if !errors.Is(err, boom) {
		t.Errorf("Value() error = %v, want %v", err, boom)
	}
}
